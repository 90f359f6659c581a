package httpapi

import (
	"fmt"
	"io"

	"github.com/dreamware/graphserv/internal/wire"
)

// WriteBadRequest answers a request that failed to parse at all (before a
// session.Session could even be constructed), e.g. a malformed start line
// or an unsupported HTTP version. It writes synchronously: it runs on the
// connection's own accept goroutine, never on the reactor's actor
// goroutine, so blocking briefly here cannot stall other clients.
func WriteBadRequest(conn io.Writer, reason string) {
	fmt.Fprintf(conn, "HTTP/1.0 400 Bad Request\r\nContent-Type: text/plain\r\n\r\n%s\n", reason)
}

// statusCode maps a core/server status token to the HTTP status code the
// adapter answers with, per spec.md §4.8's table.
func statusCode(token string) (code int, text string) {
	switch token {
	case wire.StatusOK:
		return 200, "OK"
	case wire.StatusFailure:
		return 400, "Bad Request"
	case wire.StatusError:
		return 500, "Internal Server Error"
	case wire.StatusNone:
		return 404, "Not Found"
	case wire.StatusDenied:
		return 401, "Unauthorized"
	case wire.StatusValue:
		return 222, "Value"
	default:
		return 500, "Internal Server Error"
	}
}

// Hooks implements session.Hooks for a single one-shot HTTP connection: the
// first status line is folded into an HTTP response line plus an
// X-GraphProcessor header, and any following data-set lines stream straight
// into the body. It writes through a wire.Writer, the same non-blocking
// abstraction TCPHooks uses, so a slow HTTP client can never stall the
// reactor goroutine that calls these methods.
//
// It satisfies session.Hooks structurally; httpapi does not import
// internal/session to avoid a needless dependency edge.
type Hooks struct {
	writer     *wire.Writer
	onFinished func()

	// Finished mirrors HTTPSession.conversationFinished from spec.md
	// §4.5/§4.8: it flips once the reply is complete, either immediately
	// (no data set) or on the data set's blank terminator.
	Finished bool
}

// NewHooks wraps conn's write side in a wire.Writer. onFinished, if
// non-nil, runs exactly once, after the response has fully drained to
// conn, so the caller can close the connection.
func NewHooks(conn io.Writer, onFinished func()) *Hooks {
	return &Hooks{writer: wire.NewWriter(conn, nil), onFinished: onFinished}
}

// ForwardStatusLine implements session.Hooks.
func (h *Hooks) ForwardStatusLine(line string) {
	code, text := statusCode(wire.StatusToken(line))
	h.writer.Enqueue([]byte(fmt.Sprintf(
		"HTTP/1.0 %d %s\r\nContent-Type: text/plain\r\nX-GraphProcessor: %s\r\n\r\n%s\n",
		code, text, line, line)))

	if !wire.HasDataSetHeader(line) {
		h.finish()
	}
}

// ForwardDataSet implements session.Hooks.
func (h *Hooks) ForwardDataSet(line string, end bool) {
	if end {
		h.finish()
		return
	}
	h.writer.Enqueue([]byte(line + "\n"))
}

// CommandNotFound implements session.Hooks.
func (h *Hooks) CommandNotFound(message string) {
	h.writer.Enqueue([]byte(fmt.Sprintf(
		"HTTP/1.0 501 Not Implemented\r\nContent-Type: text/plain\r\nX-GraphProcessor: %s\r\n\r\n%s\n",
		message, message)))
	h.finish()
}

// finish flips Finished and, off the caller's goroutine, drains the writer
// and then runs onFinished. Draining can block on a slow client; running it
// in its own goroutine keeps that wait off the reactor's single actor
// goroutine, mirroring how a TCP session's writer is drained independently
// of line dispatch.
func (h *Hooks) finish() {
	if h.Finished {
		return
	}
	h.Finished = true
	go func() {
		h.writer.Close()
		if h.onFinished != nil {
			h.onFinished()
		}
	}()
}

package session

import "github.com/dreamware/graphserv/internal/wire"

// TCPHooks writes every reply straight through to the client's outbound
// writer, wire-verbatim, since a TCP session already speaks the raw
// line protocol.
type TCPHooks struct {
	Writer *wire.Writer
}

func (h TCPHooks) ForwardStatusLine(line string) {
	h.Writer.Enqueue([]byte(line + "\n"))
}

func (h TCPHooks) ForwardDataSet(line string, end bool) {
	if end {
		h.Writer.Enqueue([]byte("\n"))
		return
	}
	h.Writer.Enqueue([]byte(line + "\n"))
}

func (h TCPHooks) CommandNotFound(message string) {
	h.Writer.Enqueue([]byte(wire.StatusFailure + " " + message + "\n"))
}

package reactor

import (
	"bufio"
	"net"

	"github.com/google/uuid"

	"github.com/dreamware/graphserv/internal/httpapi"
	"github.com/dreamware/graphserv/internal/session"
)

// ServeHTTP accepts connections on ln and treats each as exactly one
// request, per spec.md §4.8. Parsing happens on the connection's own
// goroutine (it touches nothing shared); only the actual command dispatch
// is handed to the actor goroutine via an evHTTPRequest event.
func (r *Reactor) ServeHTTP(ln net.Listener) error {
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		r.httpPort = addr.Port
	}
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-r.stop:
				return nil
			default:
			}
			return err
		}
		go r.serveHTTPConn(conn)
	}
}

func (r *Reactor) serveHTTPConn(conn net.Conn) {
	req, err := httpapi.ReadRequest(bufio.NewReader(conn))
	if err != nil {
		httpapi.WriteBadRequest(conn, err.Error())
		conn.Close()
		return
	}

	id := r.Sessions.NextID()

	// corrID exists purely for the access log: it gives each request's line
	// an id that stays unique across server restarts, whereas id is a small
	// counter that starts again from 1 in every new session.Table. It never
	// reaches the wire protocol.
	corrID := uuid.NewString()
	r.Access.Info("http request", "id", corrID, "core", req.CoreName, "command", req.Command)

	// onFinished runs once, off the actor goroutine, after the response
	// has fully drained (see httpapi.Hooks.finish): closing the
	// connection there and only there means the socket never closes
	// before its last byte is written, matching spec.md §4.9 step 10's
	// "writer empty" precondition for a half-close.
	hooks := httpapi.NewHooks(conn, func() {
		conn.Close()
		r.events <- event{kind: evClientClosed, sessionID: id}
	})
	s := session.New(id, session.KindHTTP, hooks, r.Router)
	r.Sessions.Add(s)

	r.events <- event{kind: evHTTPRequest, sessionID: id, req: req}
}

package reactor

import (
	"bufio"
	"net"

	"github.com/dreamware/graphserv/internal/session"
	"github.com/dreamware/graphserv/internal/wire"
)

// ServeTCP accepts connections on ln until it errors (typically because ln
// was closed by the caller during shutdown) or the reactor is stopped.
// Each connection gets its own read goroutine; that goroutine's only job is
// turning bytes into complete lines and handing them to the actor
// goroutine, mirroring spec.md §4.9 step 6's read-then-feed-C1 shape.
func (r *Reactor) ServeTCP(ln net.Listener) error {
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
		go r.serveTCPConn(conn)
	}
}

func (r *Reactor) serveTCPConn(conn net.Conn) {
	defer conn.Close()

	id := r.Sessions.NextID()
	r.Access.Info("tcp connection accepted", "session", id, "remote", conn.RemoteAddr().String())
	writer := wire.NewWriter(conn, func(err error) {
		r.events <- event{kind: evClientClosed, sessionID: id}
	})
	hooks := session.TCPHooks{Writer: writer}
	s := session.New(id, session.KindTCP, hooks, r.Router)
	r.Sessions.Add(s)
	r.registerConn(id, conn)
	defer writer.Close()
	defer func() { r.events <- event{kind: evClientClosed, sessionID: id} }()

	reader := bufio.NewReader(conn)
	buf := make([]byte, 4096)
	var lb wire.LineBuffer
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			for _, line := range lb.Feed(buf[:n]) {
				r.events <- event{kind: evClientLine, sessionID: id, line: line}
			}
		}
		if err != nil {
			lb.Discard()
			return
		}
	}
}

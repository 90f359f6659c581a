// Package reactor implements C9: the single actor that owns every mutation
// of Session and Core state. Spec.md §9 sanctions translating its
// readiness-multiplexing loop into "one task/goroutine with channels for
// 'socket became readable' / 'core emitted line' events" when the target
// language prefers task-based concurrency, which Go does. Every
// connection-handling goroutine here does only two things: blocking I/O,
// and pushing a completed unit of work (a line, a request, a close) onto
// the Reactor's event channel. Every actual state mutation — Session.Feed,
// Core.HandleChildLine, queue flushes, parked-line draining — happens back
// on the single goroutine running Reactor.Run, exactly the way spec.md's
// C9 owns all of it on its own thread.
package reactor

import (
	"log/slog"
	"net"
	"sync"

	"github.com/dreamware/graphserv/internal/core"
	"github.com/dreamware/graphserv/internal/httpapi"
	"github.com/dreamware/graphserv/internal/router"
	"github.com/dreamware/graphserv/internal/session"
)

// event is the sum type of everything that can arrive at the actor
// goroutine. Only one field group is populated per event, selected by kind.
type event struct {
	kind eventKind

	sessionID uint64
	line      string

	req *httpapi.Request
}

type eventKind int

const (
	evClientLine eventKind = iota
	evClientClosed
	evHTTPRequest
)

// Reactor owns the core registry, the session table, and the router, and
// is the only goroutine that ever calls into any of their mutating
// methods.
type Reactor struct {
	Cores    *core.Registry
	Sessions *session.Table
	Router   *router.Router
	Logger   *slog.Logger

	// Access receives one Info line per accepted connection and per
	// dispatched HTTP request when spec.md's expansion enables the -l a
	// access log; a discarding logger otherwise (see internal/logging).
	Access *slog.Logger

	events     chan event
	coreEvents chan core.ChildEvent
	stop       chan struct{}
	stopped    chan struct{}

	// connsMu/conns lets the actor goroutine close a TCP connection when a
	// command (quit) sets Session.Closing, without the
	// connection's own read goroutine ever reading that field itself —
	// Closing is written only by the actor, so only the actor may act on
	// it; the read goroutine just observes the resulting EOF.
	connsMu sync.Mutex
	conns   map[uint64]net.Conn

	// httpPort is recorded by ServeHTTP from its listener's own address, so
	// the empty-request banner (httpapi.Dispatch) can name the port without
	// cmd/graphserv having to thread it through separately.
	httpPort int
}

// New builds a Reactor. coreEvents is the channel every Core's Start is
// given to report stdout/stderr lines and exits; the caller (cmd/graphserv)
// creates one such channel and passes it both here and into router.New so
// cores spawned by create-graph report back to this reactor.
func New(cores *core.Registry, sessions *session.Table, r *router.Router, coreEvents chan core.ChildEvent, logger *slog.Logger) *Reactor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reactor{
		Cores:      cores,
		Sessions:   sessions,
		Router:     r,
		Logger:     logger,
		Access:     logger,
		events:     make(chan event, 256),
		coreEvents: coreEvents,
		stop:       make(chan struct{}),
		stopped:    make(chan struct{}),
		conns:      make(map[uint64]net.Conn),
	}
}

// WithAccessLogger overrides the logger used for per-connection and
// per-request access lines; callers pass internal/logging.AccessLogger's
// result here to honor the -l a flag.
func (r *Reactor) WithAccessLogger(access *slog.Logger) *Reactor {
	r.Access = access
	return r
}

// registerConn associates a session id with its live TCP connection, so a
// later Session.Closing can be turned into an actual close by the actor.
func (r *Reactor) registerConn(id uint64, conn net.Conn) {
	r.connsMu.Lock()
	r.conns[id] = conn
	r.connsMu.Unlock()
}

func (r *Reactor) unregisterConn(id uint64) {
	r.connsMu.Lock()
	delete(r.conns, id)
	r.connsMu.Unlock()
}

func (r *Reactor) closeConn(id uint64) {
	r.connsMu.Lock()
	conn := r.conns[id]
	r.connsMu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// Run drains events until Stop is called. It is meant to run on its own
// goroutine for the life of the process.
func (r *Reactor) Run() {
	defer close(r.stopped)
	for {
		select {
		case <-r.stop:
			return
		case ev := <-r.events:
			r.handleEvent(ev)
		case ce := <-r.coreEvents:
			r.handleChildEvent(ce)
		}
	}
}

// Stop asks Run to return and blocks until it does. A later sequential call
// finds r.stop already closed and only waits.
func (r *Reactor) Stop() {
	select {
	case <-r.stop:
	default:
		close(r.stop)
	}
	<-r.stopped
}

func (r *Reactor) handleEvent(ev event) {
	switch ev.kind {
	case evClientLine:
		linesReceivedTotal.Inc()
		if s, ok := r.Sessions.ByID(ev.sessionID); ok {
			s.Feed(ev.line)
			if s.Closing {
				if h, ok := s.Hooks.(session.TCPHooks); ok {
					// Drain the reply (e.g. quit's OK) before closing,
					// off the actor goroutine.
					go func(id uint64) {
						h.Writer.Close()
						r.closeConn(id)
					}(ev.sessionID)
				} else {
					r.closeConn(ev.sessionID)
				}
			}
		}
	case evClientClosed:
		r.removeSession(ev.sessionID)
	case evHTTPRequest:
		if s, ok := r.Sessions.ByID(ev.sessionID); ok {
			httpapi.Dispatch(s, ev.req, r.Cores, r.Sessions.Len(), r.httpPort)
		}
	}
	r.refreshGauges()
}

func (r *Reactor) removeSession(id uint64) {
	s, ok := r.Sessions.ByID(id)
	if !ok {
		return
	}
	s.ForceTerminatePendingDataSet()
	r.Sessions.Remove(id)
	r.unregisterConn(id)
	r.refreshGauges()
}

// handleChildEvent processes one event from a Core's background readers,
// implementing spec.md §4.9 steps 7-8: route stdout through the reply FSM
// to the waiting session's hooks, log stderr, and reap on exit.
func (r *Reactor) handleChildEvent(ce core.ChildEvent) {
	c, ok := r.Cores.ByID(ce.CoreID)
	if !ok {
		return
	}

	switch ce.Kind {
	case core.ChildStderr:
		r.Logger.Info("core stderr", "core", c.Name, "line", ce.Line)

	case core.ChildExited:
		r.Logger.Warn("core exited", "core", c.Name, "err", ce.Err)
		for _, s := range r.Sessions.BoundTo(ce.CoreID) {
			s.BoundCore = nil
			s.BoundCoreName = ""
		}
		r.Cores.Remove(ce.CoreID)

	case core.ChildStdout:
		reply := c.HandleChildLine(ce.Line)
		s, hasSession := r.Sessions.ByID(reply.ForClient)

		switch reply.Action {
		case core.ActionForwardStatus:
			if hasSession {
				s.Hooks.ForwardStatusLine(reply.Line)
			}
		case core.ActionForwardData:
			if hasSession {
				s.Hooks.ForwardDataSet(reply.Line, false)
			}
		case core.ActionDataSetEnded:
			if hasSession {
				s.Hooks.ForwardDataSet("", true)
			}
		case core.ActionDiscard:
			// Already logged by the FSM itself.
		}

		if reply.NowIdle {
			c.FlushCommandQueue()
			if c.State() != core.Idle {
				coreCommandsDispatchedTotal.WithLabelValues(c.Name).Inc()
			}
			if hasSession {
				s.DrainParked()
			}
		}
	}

	r.refreshGauges()
}

package httpapi

import (
	"fmt"

	"github.com/dreamware/graphserv/internal/core"
	"github.com/dreamware/graphserv/internal/session"
	"github.com/dreamware/graphserv/internal/wire"
)

// Dispatch binds and feeds a parsed HTTP request into a freshly created
// session, reusing session.Session's own command dispatch (server command,
// core command, access checks, ...) rather than duplicating any of it.
// It is meant to be called from the reactor's single actor goroutine, the
// same place TCP line dispatch happens, so that Session/Core mutation stays
// on one goroutine; only the raw socket read that produced req may have
// happened elsewhere.
//
// activeSessions and httpPort are used only to fill in the empty-request
// banner below; cores is nil-safe: a nil registry (or a request with no
// CoreName) leaves the session unbound, and an unbound core command falls
// through to Hooks.CommandNotFound the same way an un-use-graph'd TCP
// session does. An unknown graph name, unlike an unbound command, goes
// through Hooks.ForwardStatusLine instead: its NONE status token has its
// own 404 mapping in statusCode, whereas CommandNotFound always answers
// 501 regardless of the message it's given.
func Dispatch(s *session.Session, req *Request, cores *core.Registry, activeSessions int, httpPort int) {
	if req.CoreName == "" && req.Command == "" {
		running := 0
		if cores != nil {
			running = cores.RunningCount()
		}
		s.Hooks.ForwardStatusLine(fmt.Sprintf(
			"%s this is the graphserv HTTP module listening on port %d. protocol-version is %s. %d core instance(s) running, %d client connection(s) active including yours.",
			wire.StatusOK, httpPort, wire.ProtocolVersion, running, activeSessions))
		return
	}

	if req.CoreName != "" && cores != nil {
		c, ok := cores.ByName(req.CoreName)
		if !ok || !c.Running() {
			s.Hooks.ForwardStatusLine(wire.StatusNone + " no such graph " + req.CoreName)
			return
		}
		s.BoundCore = c
		s.BoundCoreName = req.CoreName
	}

	if req.IsDataSet() {
		s.Hooks.ForwardStatusLine(wire.StatusFailure + " data sets are not supported over HTTP")
		return
	}

	s.Feed(req.Command)
}

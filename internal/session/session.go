// Package session implements the C5 session context: per-client line
// parsing, the parked-line/pending-command scratch state that keeps a
// second client's command from interleaving into a first client's
// in-flight core reply, and the two transport variants (TCP, HTTP) that
// share this mechanics through the Hooks seam.
package session

import (
	"strings"

	"github.com/dreamware/graphserv/internal/auth"
	"github.com/dreamware/graphserv/internal/core"
	"github.com/dreamware/graphserv/internal/wire"
)

// Session is one client's context, per spec.md §4.5.
type Session struct {
	ID          uint64
	Kind        Kind
	AccessLevel auth.AccessLevel

	// BoundCore is the core this session is bound to via use-graph, or nil.
	BoundCore     CoreHandle
	BoundCoreName string

	LinesReceived uint64

	Hooks  Hooks
	router Router

	// pendingCommand is the CommandEntry currently accumulating a data
	// set from this client; nil otherwise.
	pendingCommand *core.CommandEntry
	parkedLines    []string

	// Closing is set by the quit server command; the reactor observes it
	// to close the connection once the writer drains.
	Closing bool
}

// New constructs a Session. hooks and router must be non-nil.
func New(id uint64, kind Kind, hooks Hooks, router Router) *Session {
	return &Session{
		ID:          id,
		Kind:        kind,
		AccessLevel: auth.LevelRead,
		Hooks:       hooks,
		router:      router,
	}
}

// Waiting reports whether this session is "current" on its bound core:
// the core's FSM is not Idle and its lastClientID is this session's id.
func (s *Session) Waiting() bool {
	return s.BoundCore != nil && s.BoundCore.Waiting() && s.BoundCore.LastClientID() == s.ID
}

// Feed runs the line-serialization algorithm of spec.md §4.5 on one
// complete line of client input.
func (s *Session) Feed(line string) {
	s.LinesReceived++
	s.handleLine(line, false)
}

// DrainParked re-invokes the line-serialization algorithm over parked
// lines after this session's bound core returns to Idle. The first line is
// dispatched with the "waiting" check suppressed (spec.md's fromQueue=true)
// so it can actually run; if that dispatch makes the session wait again,
// draining stops there, exactly as a fresh Feed call would have parked the
// next line.
func (s *Session) DrainParked() {
	first := true
	for len(s.parkedLines) > 0 {
		if !first && s.Waiting() {
			return
		}
		line := s.parkedLines[0]
		s.parkedLines = s.parkedLines[1:]
		s.handleLine(line, first)
		first = false
	}
}

func (s *Session) handleLine(line string, suppressWaitCheck bool) {
	if s.pendingCommand != nil {
		pc := s.pendingCommand
		if pc.AcceptsData && !pc.DataFinished {
			pc.AppendDataLine(line)
			if pc.Flushable() {
				s.pendingCommand = nil
				s.processCommand(pc)
			}
			return
		}
		// Spurious: a pendingCommand that isn't actually still
		// accumulating shouldn't happen, but park rather than drop.
		s.parkedLines = append(s.parkedLines, line)
		return
	}

	if !suppressWaitCheck && s.Waiting() {
		s.parkedLines = append(s.parkedLines, line)
		return
	}

	s.dispatchLine(line)
}

func (s *Session) dispatchLine(line string) {
	if len(wire.SplitLine(line)) == 0 {
		return
	}
	rewritten, acceptsData := wire.StripTrailingColon(line)
	ce := &core.CommandEntry{
		Command:      rewritten,
		ClientID:     s.ID,
		AcceptsData:  acceptsData,
		DataFinished: !acceptsData,
	}
	if ce.Flushable() {
		s.processCommand(ce)
	} else {
		s.pendingCommand = ce
	}
}

// processCommand resolves ce.Command's first token and either runs it as a
// server command, forwards it into the bound core's queue, or reports a
// routing/authorization failure, per spec.md §4.5.
func (s *Session) processCommand(ce *core.CommandEntry) {
	fields := wire.SplitLine(ce.Command)
	if len(fields) == 0 {
		return
	}
	name := fields[0]

	if s.router.IsServerCommand(name) {
		if ce.AcceptsData {
			s.Hooks.ForwardStatusLine(wire.StatusFailure + " accepts no data set")
			return
		}
		if strings.ContainsAny(ce.Command, "<>") {
			s.Hooks.ForwardStatusLine(wire.StatusFailure + " I/O redirection not permitted for server commands")
			return
		}
		s.router.ExecuteServerCommand(s, ce)
		return
	}

	if s.BoundCore == nil {
		s.Hooks.CommandNotFound("no such server command: " + name)
		return
	}

	required, ok := s.router.CoreCommandLevel(name)
	if !ok {
		s.Hooks.CommandNotFound("no such core command: " + name)
		return
	}
	if strings.ContainsAny(ce.Command, "<>") {
		required = auth.LevelAdmin
	}
	if s.AccessLevel < required {
		s.Hooks.ForwardStatusLine(wire.StatusDenied)
		return
	}

	s.BoundCore.QueueCommand(ce)
	s.BoundCore.FlushCommandQueue()
}

// ForceTerminatePendingDataSet closes out a half-open data set on client
// disconnect, so the bound core's queue is never left waiting for more
// lines from a session that no longer exists (spec.md's "Data-set
// termination on client drop" edge case).
func (s *Session) ForceTerminatePendingDataSet() {
	if s.pendingCommand != nil && !s.pendingCommand.Flushable() {
		s.pendingCommand.DataFinished = true
		s.processCommand(s.pendingCommand)
		s.pendingCommand = nil
	}
	if s.BoundCore != nil {
		s.BoundCore.ForceTerminateFor(s.ID)
	}
}

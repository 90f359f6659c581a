package session

import (
	"github.com/dreamware/graphserv/internal/auth"
	"github.com/dreamware/graphserv/internal/core"
)

// CoreHandle is the subset of *core.Core that Session needs: the reply-FSM
// queries and the command queue. Session depends on this interface rather
// than the concrete type so it can be exercised with a fake in tests
// without spawning a real child process.
type CoreHandle interface {
	CoreID() uint64
	Waiting() bool
	LastClientID() uint64
	QueueCommand(ce *core.CommandEntry)
	FlushCommandQueue()
	ForceTerminateFor(clientID uint64)
	MarkShuttingDown()
}

// Router is the seam back into internal/router: Session knows how to parse
// and park lines, but resolving a command name to "server command" or
// "core command, requires level X" is the router's job. Session depends on
// this interface rather than importing internal/router directly, so the
// dependency runs router -> session, not the other way around.
type Router interface {
	// IsServerCommand reports whether name is one of the built-in C7
	// commands (create-graph, use-graph, ..., help).
	IsServerCommand(name string) bool

	// ExecuteServerCommand runs a server command synchronously against s,
	// delivering its reply through s.Hooks before returning.
	ExecuteServerCommand(s *Session, ce *core.CommandEntry)

	// CoreCommandLevel reports the access level required for a core
	// command name, and whether the name is known at all.
	CoreCommandLevel(name string) (auth.AccessLevel, bool)
}

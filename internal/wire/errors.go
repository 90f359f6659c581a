package wire

import "errors"

// Sentinel errors distinguishing the status-token classes of spec.md §7.
// These never cross the wire. No package currently returns them: router,
// session and httpapi write status lines and HTTP status codes directly.
var (
	// ErrStructural covers malformed commands, wrong arity, a server
	// command carrying a data set, or I/O redirection on a server command.
	ErrStructural = errors.New("structural error")

	// ErrNoSuchCoreCommand means the bound core does not expose the named
	// command (there is no info-table entry for it).
	ErrNoSuchCoreCommand = errors.New("no such core command")

	// ErrNoSuchServerCommand means the first token names neither a server
	// command nor (while bound) a core command.
	ErrNoSuchServerCommand = errors.New("no such server command")

	// ErrUnbound means a core command was issued on a session with no
	// bound core.
	ErrUnbound = errors.New("session is not bound to a core")

	// ErrDenied means the session's access level is below the command's
	// required level.
	ErrDenied = errors.New("access denied")

	// ErrProtocol covers unreachable internal states, such as a core reply
	// arriving while its FSM is IDLE.
	ErrProtocol = errors.New("protocol error")
)

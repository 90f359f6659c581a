package core

import (
	"strings"

	"github.com/dreamware/graphserv/internal/wire"
)

// ReplyState is the three-state reply-expectation state machine from
// spec.md §4.4.
type ReplyState int

const (
	// Idle means the core is not currently answering any client; the next
	// line from the core's stdout would be unexpected.
	Idle ReplyState = iota
	// AwaitStatus means a command line was just written to the core and
	// its status-line reply is outstanding.
	AwaitStatus
	// AwaitDataset means the status line just forwarded ended with ':',
	// so a data set (terminated by a blank line) is expected next.
	AwaitDataset
)

func (s ReplyState) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitStatus:
		return "await-status"
	case AwaitDataset:
		return "await-dataset"
	default:
		return "unknown"
	}
}

// ReplyAction tells the reactor what to do with one line read from a core's
// stdout.
type ReplyAction int

const (
	// ActionDiscard means the line arrived with the FSM Idle: log a
	// warning and drop it (shouldn't happen).
	ActionDiscard ReplyAction = iota
	// ActionForwardStatus means forward the line as a status line to
	// ForClient.
	ActionForwardStatus
	// ActionForwardData means forward the line verbatim, as part of an
	// in-progress data set, to ForClient.
	ActionForwardData
	// ActionDataSetEnded means the blank line terminating a data set was
	// just consumed; nothing is forwarded for it, but the core is now
	// Idle and its queue should be drained.
	ActionDataSetEnded
)

// ReplyEvent describes the effect of feeding one line into a Core's FSM.
type ReplyEvent struct {
	Action    ReplyAction
	ForClient uint64
	Line      string
	NowIdle   bool // true when the FSM transitioned back to Idle
}

// HandleChildLine advances the reply FSM by one line from the core's
// stdout and reports what the reactor should do with it. It never touches
// the queue itself; the reactor calls FlushCommandQueue afterward when
// NowIdle is true.
//
// line arrives with its trailing '\n' still attached (wire.LineBuffer.Feed
// keeps it); that newline is stripped once, here, so ReplyEvent.Line always
// uses the same no-trailing-newline convention as a locally-built status
// string, and every session.Hooks implementation can append exactly one '\n'
// of its own without doubling up.
func (c *Core) HandleChildLine(rawLine string) ReplyEvent {
	client := c.lastClientID
	line := strings.TrimRight(rawLine, "\n")

	switch c.state {
	case Idle:
		c.logger.Warn("unexpected core reply while idle", "line", line)
		return ReplyEvent{Action: ActionDiscard, ForClient: client, Line: line}

	case AwaitStatus:
		if wire.HasDataSetHeader(line) {
			c.state = AwaitDataset
			return ReplyEvent{Action: ActionForwardStatus, ForClient: client, Line: line}
		}
		c.state = Idle
		return ReplyEvent{Action: ActionForwardStatus, ForClient: client, Line: line, NowIdle: true}

	case AwaitDataset:
		if wire.IsBlank(line) {
			c.state = Idle
			return ReplyEvent{Action: ActionDataSetEnded, ForClient: client, NowIdle: true}
		}
		return ReplyEvent{Action: ActionForwardData, ForClient: client, Line: line}

	default:
		return ReplyEvent{Action: ActionDiscard, ForClient: client, Line: line}
	}
}

// State exposes the current FSM state, e.g. for session-info/server-stats.
func (c *Core) State() ReplyState { return c.state }

// LastClientID reports the id of the client currently "current" on this
// core, valid only while Waiting is true.
func (c *Core) LastClientID() uint64 { return c.lastClientID }

// Waiting reports whether some client is current on this core: the FSM is
// not Idle (spec.md §3's `expectReply XOR expectData` invariant).
func (c *Core) Waiting() bool { return c.state != Idle }

package core

import "github.com/dreamware/graphserv/internal/wire"

// CommandEntry is one command queued for a core, per spec.md §3/§4.4.
type CommandEntry struct {
	Command      string
	ClientID     uint64
	AcceptsData  bool
	DataFinished bool
	DataLines    []string
}

// Flushable reports whether the entry is ready to be written to the core:
// either it never accepted a data set, or its data set has already been
// terminated by a blank line.
func (ce *CommandEntry) Flushable() bool {
	return !ce.AcceptsData || ce.DataFinished
}

// AppendDataLine appends one line of an in-progress data set, marking the
// entry finished if the line is blank (the data-set terminator). line
// carries its own trailing '\n' when it arrived over a real transport (see
// wire.LineBuffer), so blankness is checked with wire.IsBlank rather than
// an exact-empty-string comparison.
func (ce *CommandEntry) AppendDataLine(line string) {
	if wire.IsBlank(line) {
		ce.DataFinished = true
		return
	}
	ce.DataLines = append(ce.DataLines, line)
}

// QueueCommand appends entry to the tail of the core's FIFO. Fairness is
// strict FIFO across every session sharing this core; there is no priority
// and no preemption (spec.md §4.4).
func (c *Core) QueueCommand(entry *CommandEntry) {
	c.queue = append(c.queue, entry)
}

// ForceTerminateFor closes out any queued (not yet dispatched) entry
// belonging to clientID that is still mid-data-set, so the core is never
// left waiting on a session that has disconnected (spec.md §3, "A Core's
// commandQueue contains entries only for Sessions that still exist").
func (c *Core) ForceTerminateFor(clientID uint64) {
	for _, entry := range c.queue {
		if entry.ClientID == clientID && !entry.Flushable() {
			entry.DataFinished = true
		}
	}
}

// FlushCommandQueue writes as many queued entries to the child as the FSM
// allows: while the head is flushable and the FSM is Idle, it pops the
// head, writes its command line followed by its buffered data lines, marks
// lastClientID, and transitions to AwaitStatus. It stops as soon as an
// entry is unflushable or the FSM leaves Idle.
func (c *Core) FlushCommandQueue() {
	for len(c.queue) > 0 && c.state == Idle {
		head := c.queue[0]
		if !head.Flushable() {
			return
		}
		c.queue = c.queue[1:]

		// CommandEntry.Command is stored with its trailing ':' already
		// stripped (spec.md §48), but the wire protocol between server
		// and core uses the same "trailing ':' means a data set follows"
		// convention as the client-facing side (spec.md §213), so it has
		// to be reattached here for the core to recognize the command as
		// data-accepting.
		wireCommand := head.Command
		if head.AcceptsData {
			wireCommand += ":"
		}
		c.writeLine(wireCommand)
		for _, line := range head.DataLines {
			c.writeLine(line)
		}
		if head.AcceptsData {
			c.writeLine("")
		}

		c.lastClientID = head.ClientID
		c.state = AwaitStatus
	}
}

// QueueLen reports the number of entries currently queued, used by
// server-stats (spec.md §4.6).
func (c *Core) QueueLen() int { return len(c.queue) }

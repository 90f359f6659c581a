package session

import "sync"

// Table is the id-keyed session table, the counterpart of
// internal/core.Registry: sessions are never referenced by raw pointer
// from outside the reactor goroutine that owns them, so a Session that
// binds to a Core and vice versa never needs true bidirectional pointers
// (spec.md's Design Notes §9 on cyclic ownership).
type Table struct {
	mu     sync.RWMutex
	byID   map[uint64]*Session
	nextID uint64
}

// NewTable creates an empty session table.
func NewTable() *Table {
	return &Table{byID: make(map[uint64]*Session)}
}

// NextID reserves and returns the next unique session id.
func (t *Table) NextID() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	return t.nextID
}

// Add registers a session.
func (t *Table) Add(s *Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byID[s.ID] = s
}

// Remove drops a session from the table.
func (t *Table) Remove(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byID, id)
}

// ByID looks up a session by id.
func (t *Table) ByID(id uint64) (*Session, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.byID[id]
	return s, ok
}

// Len reports the number of active sessions, for server-stats and the
// graphserv_sessions_active gauge.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}

// All returns a snapshot slice of every active session.
func (t *Table) All() []*Session {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Session, 0, len(t.byID))
	for _, s := range t.byID {
		out = append(out, s)
	}
	return out
}

// TotalLinesReceived sums LinesReceived across every active session, for
// server-stats' "total lines received" figure.
func (t *Table) TotalLinesReceived() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var total uint64
	for _, s := range t.byID {
		total += s.LinesReceived
	}
	return total
}

// BoundTo returns every session currently bound to coreID, used when a
// core's stdout hits EOF and every session bound to it must have its
// binding reset (spec.md §7's Lifecycle error kind).
func (t *Table) BoundTo(coreID uint64) []*Session {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []*Session
	for _, s := range t.byID {
		if s.BoundCore != nil && s.BoundCore.CoreID() == coreID {
			out = append(out, s)
		}
	}
	return out
}

package core

import (
	"fmt"
	"sync"

	"golang.org/x/exp/slices"
)

// Registry is the id-keyed table of every Core the server knows about,
// mirroring the coordinator's shard-to-node table in shape (a mutex-guarded
// map keyed by a small integer, never by pointer identity, so that cyclic
// Session<->Core references never need to be resolved through raw
// pointers, per spec.md's design note on cyclic ownership).
//
// The reactor is the only writer, but Registry is also read from the
// server-stats and list-graphs server commands, which is why it carries
// its own lock rather than relying on single-goroutine ownership like Core
// itself does.
type Registry struct {
	mu     sync.RWMutex
	byID   map[uint64]*Core
	byName map[string]uint64
	nextID uint64
}

// NewRegistry creates an empty core registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[uint64]*Core),
		byName: make(map[string]uint64),
	}
}

// Add registers an already-constructed Core (built with New, so the
// reactor supplies its own *slog.Logger). It does not start the process.
//
// A name is only rejected while a Running core still holds it (spec.md
// §4.6's create-graph rule: "ensure no running core by that name"). A
// dropped-but-not-yet-reaped core under the same name is replaced: its old
// entry is dropped from both maps before the new one is indexed, so
// drop-graph followed promptly by create-graph on the same name succeeds
// without waiting for the terminated child's stdout to reach EOF.
func (r *Registry) Add(c *Core) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, exists := r.byName[c.Name]; exists {
		if existing := r.byID[id]; existing != nil && existing.Running() {
			return fmt.Errorf("core: graph %q already exists", c.Name)
		}
		delete(r.byID, id)
	}
	r.byID[c.ID] = c
	r.byName[c.Name] = c.ID
	return nil
}

// NextID reserves and returns the next unique core id.
func (r *Registry) NextID() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	return r.nextID
}

// Remove drops a core from the registry (spec.md's drop-graph, after the
// core has been terminated).
func (r *Registry) Remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byID[id]; ok {
		delete(r.byName, c.Name)
		delete(r.byID, id)
	}
}

// ByID looks up a core by id.
func (r *Registry) ByID(id uint64) (*Core, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	return c, ok
}

// ByName looks up a core by graph name.
func (r *Registry) ByName(name string) (*Core, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.byID[id], true
}

// Names returns every registered graph name, sorted, for list-graphs.
func (r *Registry) Names(runningOnly bool) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name, id := range r.byName {
		if runningOnly && !r.byID[id].Running() {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len reports how many cores are registered, for server-stats.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// RunningCount reports how many registered cores are still Running, for
// server-stats' cores-running counter.
func (r *Registry) RunningCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, c := range r.byID {
		if c.Running() {
			n++
		}
	}
	return n
}

// All returns a snapshot slice of every registered core, for metrics
// collection and diagnostics.
func (r *Registry) All() []*Core {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Core, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}
	return out
}

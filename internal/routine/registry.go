package routine

import (
	"sort"
	"sync"
)

// Registry maps routine ids to their entries. Safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	entries map[ID]*Entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[ID]*Entry)}
}

// Add inserts e. It returns false if the id is already live or, when limit > 0,
// if the registry already holds limit entries.
func (r *Registry) Add(e *Entry, limit int) bool {
	if e == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[e.ID]; ok {
		return false
	}
	if limit > 0 && len(r.entries) >= limit {
		return false
	}
	r.entries[e.ID] = e
	return true
}

func (r *Registry) Get(id ID) (*Entry, bool) {
	r.mu.Lock()
	e, ok := r.entries[id]
	r.mu.Unlock()
	return e, ok
}

// Remove drops e if it is still the live entry for its id.
func (r *Registry) Remove(e *Entry) {
	if e == nil {
		return
	}
	r.mu.Lock()
	if cur, ok := r.entries[e.ID]; ok && cur == e {
		delete(r.entries, e.ID)
	}
	r.mu.Unlock()
}

// Cancel cancels the entry for id if its kind is one of kinds.
// Unknown ids and kind mismatches are ignored.
func (r *Registry) Cancel(id ID, kinds ...Kind) bool {
	e, ok := r.Get(id)
	if !ok || !kindIn(e.Kind, kinds) {
		return false
	}
	return e.Cancel()
}

// CancelKinds cancels every live entry of the given kinds (all kinds when none
// are given) and returns the entries this call transitioned, ordered by id.
func (r *Registry) CancelKinds(kinds ...Kind) []*Entry {
	r.mu.Lock()
	es := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if kindIn(e.Kind, kinds) {
			es = append(es, e)
		}
	}
	r.mu.Unlock()

	sort.Slice(es, func(i, j int) bool { return es[i].ID < es[j].ID })
	out := es[:0]
	for _, e := range es {
		if e.Cancel() {
			out = append(out, e)
		}
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	n := len(r.entries)
	r.mu.Unlock()
	return n
}

// Snapshot returns entry views ordered by id.
func (r *Registry) Snapshot() []Info {
	r.mu.Lock()
	out := make([]Info, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Info())
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func kindIn(k Kind, kinds []Kind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, x := range kinds {
		if x == k {
			return true
		}
	}
	return false
}

// Package store holds the authoritative in-memory instance collection.
// The core is single-writer and synchronous; the mutex only guards the
// boundary where workers read while the UI thread mutates.
package store

import (
	"sync"

	"scadenze/internal/core"
)

// Merge returns existing unchanged plus only those generated entries
// whose ID is not already present. Regeneration is strictly additive: an
// instance that has been materialized once, paid or not, is never
// overwritten or reset.
func Merge(existing, generated []core.Instance) []core.Instance {
	seen := make(map[string]bool, len(existing))
	for _, inst := range existing {
		seen[inst.ID] = true
	}

	out := append([]core.Instance(nil), existing...)
	for _, inst := range generated {
		if seen[inst.ID] {
			continue
		}
		seen[inst.ID] = true
		out = append(out, inst)
	}
	return out
}

// Store is the in-process instance collection. Reads return copies;
// instances are value types throughout.
type Store struct {
	mu      sync.Mutex
	byID    map[string]core.Instance
	order   []string
	lastErr error
}

func New() *Store {
	return &Store{byID: make(map[string]core.Instance)}
}

// Load replaces the whole collection, e.g. from persisted state.
func (s *Store) Load(instances []core.Instance) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID = make(map[string]core.Instance, len(instances))
	s.order = s.order[:0]
	for _, inst := range instances {
		if _, ok := s.byID[inst.ID]; ok {
			continue
		}
		s.byID[inst.ID] = inst
		s.order = append(s.order, inst.ID)
	}
}

// MergeGenerated adds freshly generated instances and returns only the
// ones that were actually new.
func (s *Store) MergeGenerated(generated []core.Instance) []core.Instance {
	s.mu.Lock()
	defer s.mu.Unlock()

	var added []core.Instance
	for _, inst := range generated {
		if _, ok := s.byID[inst.ID]; ok {
			continue
		}
		s.byID[inst.ID] = inst
		s.order = append(s.order, inst.ID)
		added = append(added, inst)
	}
	return added
}

// Upsert writes a single instance back, used after payment mutations.
func (s *Store) Upsert(inst core.Instance) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[inst.ID]; !ok {
		s.order = append(s.order, inst.ID)
	}
	s.byID[inst.ID] = inst
}

// Get returns the instance with the given ID.
func (s *Store) Get(id string) (core.Instance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, ok := s.byID[id]
	return inst, ok
}

// All returns every instance in insertion order.
func (s *Store) All() []core.Instance {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Instance, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// ByParent returns the instances belonging to one base expense.
func (s *Store) ByParent(parentID string) []core.Instance {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Instance
	for _, id := range s.order {
		if inst := s.byID[id]; inst.ParentID == parentID {
			out = append(out, inst)
		}
	}
	return out
}

// ByMonth returns the instances of one month.
func (s *Store) ByMonth(m core.Month) []core.Instance {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Instance
	for _, id := range s.order {
		if inst := s.byID[id]; inst.Month.Equal(m) {
			out = append(out, inst)
		}
	}
	return out
}

// RemoveByParent cascades a base expense deletion and returns the number
// of instances removed.
func (s *Store) RemoveByParent(parentID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.order[:0]
	removed := 0
	for _, id := range s.order {
		if s.byID[id].ParentID == parentID {
			delete(s.byID, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return removed
}

// SetLastError records a boundary fetch failure without discarding the
// instances already materialized; prior state is preserved.
func (s *Store) SetLastError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}

// LastError returns the most recent boundary failure, if any.
func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Len returns the number of instances held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

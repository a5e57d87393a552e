package memory

import (
	"context"
	"fmt"
	"sync"

	"scadenze/internal/core"
)

// Store is an in-memory budget source for tests and local runs without
// Google credentials.
type Store struct {
	mu      sync.Mutex
	budgets []core.Budget
	ledger  []core.Instance
}

func New(budgets []core.Budget) *Store {
	return &Store{budgets: dedupeByID(budgets)}
}

// NewSeeded returns a store with a handful of recognizable budgets.
func NewSeeded() *Store {
	return New([]core.Budget{
		{ID: "bud-groceries", Name: "Spesa", Total: core.Money{Cents: 40000}},
		{ID: "bud-transport", Name: "Trasporti", Total: core.Money{Cents: 10000}},
		{ID: "bud-holiday", Name: "Vacanze", Total: core.Money{Cents: 20000}, Special: true},
	})
}

// ListBudgets returns a copy of the configured budgets.
func (s *Store) ListBudgets(_ context.Context) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Budget(nil), s.budgets...), nil
}

// AppendPaid stores the instance and returns a synthetic row reference.
func (s *Store) AppendPaid(_ context.Context, inst core.Instance) (string, error) {
	if !inst.IsPaid() {
		return "", fmt.Errorf("instance %s has no recorded payment", inst.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = append(s.ledger, inst)
	return fmt.Sprintf("mem:%d", len(s.ledger)), nil
}

// Ledger returns the appended instances, oldest first.
func (s *Store) Ledger() []core.Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Instance(nil), s.ledger...)
}

func dedupeByID(in []core.Budget) []core.Budget {
	seen := map[string]struct{}{}
	out := make([]core.Budget, 0, len(in))
	for _, b := range in {
		if b.ID == "" {
			continue
		}
		if _, ok := seen[b.ID]; ok {
			continue
		}
		seen[b.ID] = struct{}{}
		out = append(out, b)
	}
	return out
}

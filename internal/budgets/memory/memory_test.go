package memory

import (
	"context"
	"testing"

	"scadenze/internal/core"
)

func TestMemoryStoreListAndDedupe(t *testing.T) {
	s := New([]core.Budget{
		{ID: "a", Name: "Spesa", Total: core.Money{Cents: 100}},
		{ID: "b", Name: "Trasporti", Total: core.Money{Cents: 200}},
		{ID: "a", Name: "Spesa duplicata", Total: core.Money{Cents: 300}},
		{Name: "senza id"},
	})

	budgets, err := s.ListBudgets(context.Background())
	if err != nil || len(budgets) != 2 {
		t.Fatalf("unexpected list: budgets=%v err=%v", budgets, err)
	}
	if budgets[0].ID != "a" || budgets[1].ID != "b" {
		t.Fatalf("unexpected order: %v", budgets)
	}
}

func TestMemoryStoreAppendPaid(t *testing.T) {
	s := NewSeeded()

	paid := core.Money{Cents: 4200}
	date := core.NewDate(2024, 4, 9)
	ref, err := s.AppendPaid(context.Background(), core.Instance{
		ID:          "bud-groceries-2024-04",
		ParentID:    "bud-groceries",
		ParentKind:  core.KindBudget,
		Month:       core.Month{Year: 2024, Month: 4},
		Budgeted:    core.Money{Cents: 40000},
		Paid:        &paid,
		PaymentDate: &date,
	})
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}
	if got := s.Ledger(); len(got) != 1 || got[0].ID != "bud-groceries-2024-04" {
		t.Fatalf("unexpected ledger: %v", got)
	}

	// Unpaid instances never reach the ledger.
	if _, err := s.AppendPaid(context.Background(), core.Instance{ID: "x"}); err == nil {
		t.Fatal("expected error for unpaid instance")
	}
}

package services

import (
	"context"
	"testing"
	"time"

	"scadenze/internal/core"
)

func month(y int, m time.Month) core.Month {
	return core.Month{Year: y, Month: m}
}

func testInstallment() core.Installment {
	return core.Installment{
		ID:                "inst-1",
		Description:       "Washing machine",
		PaymentMethodID:   "card-1",
		TotalAmount:       core.Money{Cents: 120000},
		TotalInstallments: 12,
		StartDate:         core.NewDate(2024, 1, 15),
		Status:            core.InstallmentActive,
		Active:            true,
	}
}

func testVariable() core.VariableExpense {
	return core.VariableExpense{
		ID:              "var-1",
		Description:     "Electricity",
		PaymentMethodID: "card-1",
		EstimatedAmount: core.Money{Cents: 15000},
		BillingDay:      31,
		Category:        "Casa",
		Status:          core.VariableActive,
		Active:          true,
	}
}

func TestInstallmentInstances_FullRange(t *testing.T) {
	b := testInstallment()
	got := InstallmentInstances(b, month(2024, time.January), month(2024, time.December))

	if len(got) != 12 {
		t.Fatalf("got %d instances, want 12", len(got))
	}
	for i, inst := range got {
		if inst.Sequence != i+1 {
			t.Errorf("instance %d sequence = %d, want %d", i, inst.Sequence, i+1)
		}
		if inst.Budgeted.Cents != 10000 {
			t.Errorf("instance %d budgeted = %d, want 10000", i, inst.Budgeted.Cents)
		}
		if inst.ParentKind != core.KindInstallment {
			t.Errorf("instance %d kind = %q", i, inst.ParentKind)
		}
		if inst.DueDate == nil {
			t.Fatalf("instance %d missing due date", i)
		}
	}

	last := got[11]
	if last.Sequence != b.TotalInstallments {
		t.Errorf("last sequence = %d, want %d", last.Sequence, b.TotalInstallments)
	}
	if !b.CompletesAt(last.Month) {
		t.Error("twelfth instance should close the installment")
	}
}

func TestInstallmentInstances_WindowIntersection(t *testing.T) {
	b := testInstallment() // active 2024-01 .. 2024-12

	tests := []struct {
		name      string
		from, to  core.Month
		wantLen   int
		wantFirst int // sequence of first emitted instance
	}{
		{"window inside range", month(2024, time.March), month(2024, time.May), 3, 3},
		{"window overlaps start", month(2023, time.November), month(2024, time.February), 2, 1},
		{"window overlaps end", month(2024, time.November), month(2025, time.March), 2, 11},
		{"window before range", month(2023, time.January), month(2023, time.December), 0, 0},
		{"window after range", month(2025, time.January), month(2025, time.June), 0, 0},
		{"inverted window", month(2024, time.June), month(2024, time.January), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InstallmentInstances(b, tt.from, tt.to)
			if len(got) != tt.wantLen {
				t.Fatalf("got %d instances, want %d", len(got), tt.wantLen)
			}
			if tt.wantLen > 0 && got[0].Sequence != tt.wantFirst {
				t.Errorf("first sequence = %d, want %d", got[0].Sequence, tt.wantFirst)
			}
		})
	}
}

func TestInstallmentInstances_DueDayClamped(t *testing.T) {
	b := testInstallment()
	b.StartDate = core.NewDate(2024, 1, 31)

	got := InstallmentInstances(b, month(2024, time.February), month(2024, time.April))
	if len(got) != 3 {
		t.Fatalf("got %d instances, want 3", len(got))
	}
	wantDays := []int{29, 31, 30} // Feb (leap), Mar, Apr
	for i, inst := range got {
		if inst.DueDate.Day() != wantDays[i] {
			t.Errorf("month %s due day = %d, want %d", inst.Month.Key(), inst.DueDate.Day(), wantDays[i])
		}
	}
}

func TestInstallmentInstances_DeterministicIDs(t *testing.T) {
	b := testInstallment()
	first := InstallmentInstances(b, month(2024, time.January), month(2024, time.June))
	second := InstallmentInstances(b, month(2024, time.April), month(2024, time.December))

	ids := make(map[string]int)
	for _, inst := range first {
		ids[inst.ID] = inst.Sequence
	}
	for _, inst := range second {
		if seq, ok := ids[inst.ID]; ok && seq != inst.Sequence {
			t.Errorf("instance %s changed sequence across windows: %d vs %d", inst.ID, seq, inst.Sequence)
		}
	}
	if _, ok := ids[core.InstanceID("inst-1", month(2024, time.April))]; !ok {
		t.Error("overlapping windows should share instance identities")
	}
}

func TestVariableInstances(t *testing.T) {
	t.Run("one per month with clamped due date", func(t *testing.T) {
		got := VariableInstances(testVariable(), month(2024, time.April), month(2024, time.June))
		if len(got) != 3 {
			t.Fatalf("got %d instances, want 3", len(got))
		}
		// billing day 31: April has 30 days, due date must stay in April
		if got[0].DueDate.Day() != 30 || got[0].DueDate.Month() != time.April {
			t.Errorf("April due date = %v, want April 30", got[0].DueDate.Time)
		}
		for _, inst := range got {
			if inst.Budgeted.Cents != 15000 {
				t.Errorf("budgeted = %d, want the plain estimate", inst.Budgeted.Cents)
			}
			if inst.Sequence != 0 {
				t.Errorf("variable instance carries sequence %d", inst.Sequence)
			}
		}
	})

	t.Run("no billing day means no instances", func(t *testing.T) {
		b := testVariable()
		b.BillingDay = 0
		if got := VariableInstances(b, month(2024, time.January), month(2024, time.June)); got != nil {
			t.Errorf("got %d instances, want none", len(got))
		}
	})

	t.Run("inactive expense generates nothing", func(t *testing.T) {
		b := testVariable()
		b.Active = false
		if got := VariableInstances(b, month(2024, time.January), month(2024, time.June)); got != nil {
			t.Errorf("got %d instances, want none", len(got))
		}
	})

	t.Run("paused expense generates nothing", func(t *testing.T) {
		b := testVariable()
		b.Status = core.VariablePaused
		if got := VariableInstances(b, month(2024, time.January), month(2024, time.June)); got != nil {
			t.Errorf("got %d instances, want none", len(got))
		}
	})
}

func TestBudgetInstances(t *testing.T) {
	bg := core.Budget{ID: "bud-1", Name: "Groceries", Total: core.Money{Cents: 40000}}
	got := BudgetInstances(bg, month(2024, time.January), month(2024, time.March))

	if len(got) != 3 {
		t.Fatalf("got %d instances, want 3", len(got))
	}
	for _, inst := range got {
		if inst.Budgeted.Cents != 40000 {
			t.Errorf("budgeted = %d, want the budget total", inst.Budgeted.Cents)
		}
		if inst.DueDate != nil {
			t.Error("budget instances carry no due date")
		}
		if inst.Sequence != 0 {
			t.Error("budget instances carry no sequence")
		}
	}
}

func TestWindowInstances_FaultIsolation(t *testing.T) {
	broken := testInstallment()
	broken.ID = "broken"
	broken.TotalInstallments = 0 // fails validation

	bases := []core.BaseExpense{broken, testVariable()}
	budgets := []core.Budget{{ID: "bud-1", Name: "Groceries", Total: core.Money{Cents: 40000}}}

	got, faults := WindowInstances(context.Background(), bases, budgets, month(2024, time.January), month(2024, time.February))

	if len(faults) != 1 {
		t.Fatalf("got %d faults, want 1", len(faults))
	}
	// 2 variable + 2 budget instances survive the broken sibling
	if len(got) != 4 {
		t.Errorf("got %d instances, want 4", len(got))
	}
	for _, inst := range got {
		if inst.ParentID == "broken" {
			t.Error("broken expense must not produce instances")
		}
	}
}

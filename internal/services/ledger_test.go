package services

import (
	"testing"
	"time"

	"scadenze/internal/core"
)

func pendingInstance() core.Instance {
	due := core.NewDate(2024, 4, 20)
	return core.Instance{
		ID:         "inst-1-2024-04",
		ParentID:   "inst-1",
		ParentKind: core.KindInstallment,
		Month:      core.Month{Year: 2024, Month: time.April},
		Sequence:   4,
		Budgeted:   core.Money{Cents: 10000},
		DueDate:    &due,
	}
}

func TestMarkPaid(t *testing.T) {
	now := time.Date(2024, 4, 21, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		amount     int64
		wantStatus core.PaymentStatus
	}{
		{"exact amount", 10000, core.StatusPaidAccurate},
		{"ten percent over", 11000, core.StatusPaidModerate},
		{"twenty percent over", 12000, core.StatusPaidHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarkPaid(pendingInstance(), core.Money{Cents: tt.amount}, core.NewDate(2024, 4, 18))
			if err != nil {
				t.Fatalf("MarkPaid() error = %v", err)
			}
			if got.Paid == nil || got.Paid.Cents != tt.amount {
				t.Errorf("Paid = %v, want %d", got.Paid, tt.amount)
			}
			if got.PaymentDate == nil {
				t.Fatal("PaymentDate not set")
			}
			if status := got.Status(now); status != tt.wantStatus {
				t.Errorf("Status() = %q, want %q", status, tt.wantStatus)
			}
		})
	}
}

func TestMarkPaid_InvalidInputLeavesInstanceUntouched(t *testing.T) {
	orig := pendingInstance()

	tests := []struct {
		name   string
		amount core.Money
		date   core.Date
	}{
		{"zero amount", core.Money{}, core.NewDate(2024, 4, 18)},
		{"negative amount", core.Money{Cents: -100}, core.NewDate(2024, 4, 18)},
		{"zero date", core.Money{Cents: 10000}, core.Date{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarkPaid(orig, tt.amount, tt.date)
			if err == nil {
				t.Fatal("MarkPaid() expected error")
			}
			if got.Paid != nil || got.PaymentDate != nil {
				t.Error("failed payment must not mutate the instance")
			}
		})
	}
}

func TestMarkUnpaid(t *testing.T) {
	paid, err := MarkPaid(pendingInstance(), core.Money{Cents: 10000}, core.NewDate(2024, 4, 18))
	if err != nil {
		t.Fatalf("MarkPaid() error = %v", err)
	}

	got := MarkUnpaid(paid)
	if got.Paid != nil || got.PaymentDate != nil {
		t.Error("MarkUnpaid must clear payment fields")
	}

	t.Run("overdue when past due date", func(t *testing.T) {
		now := time.Date(2024, 4, 25, 0, 0, 0, 0, time.UTC)
		if status := got.Status(now); status != core.StatusOverdue {
			t.Errorf("Status() = %q, want overdue", status)
		}
	})

	t.Run("pending before due date", func(t *testing.T) {
		now := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
		if status := got.Status(now); status != core.StatusPending {
			t.Errorf("Status() = %q, want pending", status)
		}
	})
}

func TestAnnotate(t *testing.T) {
	got := Annotate(pendingInstance(), "paid at the counter")
	if got.Notes != "paid at the counter" {
		t.Errorf("Notes = %q", got.Notes)
	}
	if got.Paid != nil {
		t.Error("Annotate must not touch payment state")
	}
}

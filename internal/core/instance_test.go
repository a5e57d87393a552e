package core

import (
	"testing"
	"time"
)

func cents(c int64) *Money {
	return &Money{Cents: c}
}

func TestDeviationStatus(t *testing.T) {
	tests := []struct {
		name     string
		budgeted int64
		paid     int64
		want     PaymentStatus
	}{
		{"exact payment", 10000, 10000, StatusPaidAccurate},
		{"exactly 5 percent over", 10000, 10500, StatusPaidAccurate},
		{"10 percent over", 10000, 11000, StatusPaidModerate},
		{"exactly 15 percent over", 10000, 11500, StatusPaidModerate},
		{"20 percent over", 10000, 12000, StatusPaidHigh},
		{"10 percent under", 10000, 9000, StatusPaidModerate},
		{"far under", 10000, 5000, StatusPaidHigh},
		{"zero budget zero paid", 0, 0, StatusPaidAccurate},
		{"zero budget any paid", 0, 100, StatusPaidHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeviationStatus(Money{tt.budgeted}, Money{tt.paid})
			if got != tt.want {
				t.Errorf("DeviationStatus(%d, %d) = %q, want %q", tt.budgeted, tt.paid, got, tt.want)
			}
		})
	}
}

func TestInstanceStatus(t *testing.T) {
	now := time.Date(2024, 4, 15, 10, 0, 0, 0, time.UTC)
	due := NewDate(2024, 4, 20)
	pastDue := NewDate(2024, 4, 10)

	tests := []struct {
		name string
		inst Instance
		want PaymentStatus
	}{
		{
			name: "unpaid before due date is pending",
			inst: Instance{Budgeted: Money{10000}, DueDate: &due},
			want: StatusPending,
		},
		{
			name: "unpaid past due date is overdue",
			inst: Instance{Budgeted: Money{10000}, DueDate: &pastDue},
			want: StatusOverdue,
		},
		{
			name: "unpaid without due date stays pending",
			inst: Instance{Budgeted: Money{10000}},
			want: StatusPending,
		},
		{
			name: "paid wins over overdue",
			inst: Instance{Budgeted: Money{10000}, Paid: cents(10000), DueDate: &pastDue},
			want: StatusPaidAccurate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.inst.Status(now); got != tt.want {
				t.Errorf("Status() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("due today is not overdue", func(t *testing.T) {
		today := NewDate(2024, 4, 15)
		inst := Instance{Budgeted: Money{10000}, DueDate: &today}
		if got := inst.Status(now); got != StatusPending {
			t.Errorf("Status() = %q, want %q", got, StatusPending)
		}
	})
}

func TestInstanceID(t *testing.T) {
	m := Month{2024, time.March}
	a := InstanceID("exp-1", m)
	b := InstanceID("exp-1", m)
	if a != b {
		t.Errorf("id not deterministic: %q vs %q", a, b)
	}
	if a != "exp-1-2024-03" {
		t.Errorf("id = %q, want %q", a, "exp-1-2024-03")
	}
	if a == InstanceID("exp-2", m) || a == InstanceID("exp-1", m.Add(1)) {
		t.Error("ids must differ across parents and months")
	}
}

func TestNextDueDate(t *testing.T) {
	now := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
	apr20 := NewDate(2024, 4, 20)
	may10 := NewDate(2024, 5, 10)
	apr01 := NewDate(2024, 4, 1)

	instances := []Instance{
		{ID: "a", DueDate: &may10},
		{ID: "b", DueDate: &apr20},
		{ID: "c", DueDate: &apr01},                         // already overdue
		{ID: "d", DueDate: &apr20, Paid: cents(1000)},      // paid
		{ID: "e"},                                          // no due date
	}

	got := NextDueDate(instances, now)
	if got == nil {
		t.Fatal("NextDueDate returned nil")
	}
	if !got.Equal(apr20.Time) {
		t.Errorf("NextDueDate = %v, want %v", got.Time, apr20.Time)
	}

	if NextDueDate(nil, now) != nil {
		t.Error("empty input should yield nil")
	}
}

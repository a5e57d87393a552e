package core

import "time"

const (
	StatusPending      PaymentStatus = "pending"
	StatusPaidAccurate PaymentStatus = "paid_accurate"
	StatusPaidModerate PaymentStatus = "paid_moderate"
	StatusPaidHigh     PaymentStatus = "paid_high"
	StatusOverdue      PaymentStatus = "overdue"
)

type PaymentStatus string

// Instance is one month's concrete, independently payable materialization
// of a base expense or budget. Only canonical fields are carried; payment
// status is always derived through Status and never stored.
type Instance struct {
	ID         string
	ParentID   string
	ParentKind ExpenseKind
	Month      Month
	// Sequence is the 1-based installment index; zero for variable
	// expenses and budgets.
	Sequence    int
	Budgeted    Money
	Paid        *Money
	PaymentDate *Date
	DueDate     *Date
	Notes       string
}

// InstanceID is the deterministic identity of the (parent, month) pair.
// Repeated generation over overlapping windows always produces the same
// ID, which is what makes the merge additive.
func InstanceID(parentID string, m Month) string {
	return parentID + "-" + m.Key()
}

// IsPaid reports whether a payment has been recorded.
func (i Instance) IsPaid() bool {
	return i.Paid != nil
}

// Status derives the payment status from the canonical fields and the
// current time. It can be recomputed at any moment and never diverges
// from its inputs.
func (i Instance) Status(now time.Time) PaymentStatus {
	if i.Paid != nil {
		return DeviationStatus(i.Budgeted, *i.Paid)
	}
	if i.DueDate != nil && dayBefore(i.DueDate.Time, now) {
		return StatusOverdue
	}
	return StatusPending
}

// DeviationStatus buckets a recorded payment by its relative deviation
// from the budgeted amount: within 5% accurate, within 15% moderate,
// beyond that high. The comparison is exact integer arithmetic on cents.
func DeviationStatus(budgeted, paid Money) PaymentStatus {
	diff := paid.Cents - budgeted.Cents
	if diff < 0 {
		diff = -diff
	}
	switch {
	case budgeted.Cents <= 0:
		if diff == 0 {
			return StatusPaidAccurate
		}
		return StatusPaidHigh
	case diff*20 <= budgeted.Cents: // d <= 5%
		return StatusPaidAccurate
	case diff*20 <= 3*budgeted.Cents: // d <= 15%
		return StatusPaidModerate
	default:
		return StatusPaidHigh
	}
}

// DeviationPercentage is the relative deviation of the recorded payment,
// or zero when nothing has been paid.
func (i Instance) DeviationPercentage() float64 {
	if i.Paid == nil || i.Budgeted.Cents <= 0 {
		return 0
	}
	diff := float64(i.Paid.Cents - i.Budgeted.Cents)
	if diff < 0 {
		diff = -diff
	}
	return diff / float64(i.Budgeted.Cents) * 100
}

// dayBefore reports whether a's calendar day is strictly before b's.
func dayBefore(a, b time.Time) bool {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return ad.Before(bd)
}

// NextDueDate returns the earliest unpaid due date at or after now across
// the given instances, or nil when none is pending.
func NextDueDate(instances []Instance, now time.Time) *Date {
	var next *Date
	for _, inst := range instances {
		if inst.IsPaid() || inst.DueDate == nil {
			continue
		}
		if dayBefore(inst.DueDate.Time, now) {
			continue
		}
		if next == nil || inst.DueDate.Before(next.Time) {
			d := *inst.DueDate
			next = &d
		}
	}
	return next
}

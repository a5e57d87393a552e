package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

const (
	KindInstallment ExpenseKind = "installment"
	KindVariable    ExpenseKind = "variable_expense"
	KindBudget      ExpenseKind = "budget"
)

const (
	InstallmentActive    InstallmentStatus = "active"
	InstallmentCompleted InstallmentStatus = "completed"
	InstallmentCancelled InstallmentStatus = "cancelled"
)

const (
	VariableActive VariableStatus = "active"
	VariablePaused VariableStatus = "paused"
)

type (
	ExpenseKind       string
	InstallmentStatus string
	VariableStatus    string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// BaseExpense is the canonical recurring-obligation definition,
	// independent of any month. It is a closed sum over Installment and
	// VariableExpense; exhaustive handling goes through a type switch.
	BaseExpense interface {
		ExpenseID() string
		Kind() ExpenseKind
		Label() string
		Validate() error

		baseExpense()
	}

	// Installment is a fixed-count purchase split over consecutive months.
	Installment struct {
		ID                string
		Description       string
		PaymentMethodID   string
		TotalAmount       Money
		TotalInstallments int
		StartDate         Date
		Status            InstallmentStatus
		Active            bool
		CreatedAt         time.Time
		UpdatedAt         time.Time
	}

	// VariableExpense is an open-ended monthly obligation with an estimated
	// amount. BillingDay 0 means no known due day; no instances are
	// materialized until one is set.
	VariableExpense struct {
		ID              string
		Description     string
		PaymentMethodID string
		EstimatedAmount Money
		BillingDay      int
		Category        string
		TrendPercentage float64
		ServiceURL      string
		Status          VariableStatus
		Active          bool
		CreatedAt       time.Time
		UpdatedAt       time.Time
	}

	// Budget is owned by the external budgeting collaborator and consumed
	// read-only.
	Budget struct {
		ID      string
		Name    string
		Total   Money
		Spent   Money
		Special bool
	}
)

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidInstallments  = errors.New("installment count must be at least 1")
	ErrInvalidBillingDay    = errors.New("billing day out of range")
	ErrInvalidStartDate     = errors.New("invalid start date")
	ErrEmptyDescription     = errors.New("empty description")
	ErrEmptyCategory        = errors.New("empty category")
	ErrMissingPaymentMethod = errors.New("missing payment method")
)

func (Installment) baseExpense()     {}
func (VariableExpense) baseExpense() {}

func (b Installment) ExpenseID() string     { return b.ID }
func (b VariableExpense) ExpenseID() string { return b.ID }

func (Installment) Kind() ExpenseKind     { return KindInstallment }
func (VariableExpense) Kind() ExpenseKind { return KindVariable }

func (b Installment) Label() string     { return b.Description }
func (b VariableExpense) Label() string { return b.Description }

// NewDate creates a new Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidStartDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (b Installment) Validate() error {
	if len(strings.TrimSpace(b.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(b.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if strings.TrimSpace(b.PaymentMethodID) == "" {
		return ErrMissingPaymentMethod
	}
	if err := b.TotalAmount.Validate(); err != nil {
		return err
	}
	if b.TotalInstallments < 1 {
		return ErrInvalidInstallments
	}
	return b.StartDate.Validate()
}

func (b VariableExpense) Validate() error {
	if len(strings.TrimSpace(b.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(b.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if strings.TrimSpace(b.PaymentMethodID) == "" {
		return ErrMissingPaymentMethod
	}
	if err := b.EstimatedAmount.Validate(); err != nil {
		return err
	}
	if b.BillingDay < 0 || b.BillingDay > 31 {
		return ErrInvalidBillingDay
	}
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// InstallmentAmount is the per-month amount, half-up rounded from the
// even split of the total.
func (b Installment) InstallmentAmount() Money {
	if b.TotalInstallments < 1 {
		return Money{}
	}
	split := float64(b.TotalAmount.Cents) / float64(b.TotalInstallments)
	return Money{Cents: int64(math.Round(split))}
}

// StartMonth is the first month an instance exists for.
func (b Installment) StartMonth() Month {
	return MonthOf(b.StartDate.Time)
}

// LastMonth is the final month an instance exists for.
func (b Installment) LastMonth() Month {
	return b.StartMonth().Add(b.TotalInstallments - 1)
}

// CompletesAt reports whether m is the installment's final month.
func (b Installment) CompletesAt(m Month) bool {
	return m.Equal(b.LastMonth())
}

// DerivedStatus computes the installment status from the number of paid
// instances. The stored Status field only records user cancellation;
// completion is never persisted.
func (b Installment) DerivedStatus(paidInstances int) InstallmentStatus {
	if b.Status == InstallmentCancelled {
		return InstallmentCancelled
	}
	if paidInstances >= b.TotalInstallments {
		return InstallmentCompleted
	}
	return InstallmentActive
}

// ProgressPercentage is the paid share of an installment, 0..100.
func (b Installment) ProgressPercentage(paidInstances int) float64 {
	if b.TotalInstallments < 1 {
		return 0
	}
	if paidInstances > b.TotalInstallments {
		paidInstances = b.TotalInstallments
	}
	return float64(paidInstances) / float64(b.TotalInstallments) * 100
}

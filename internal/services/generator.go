// Package services holds the business logic: instance generation,
// payment recording, forecasting and legacy migration.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"scadenze/internal/core"
)

// InstallmentInstances materializes one instance per month of the
// intersection between the installment's active range and the inclusive
// [from, to] window. An installment entirely outside the window yields
// nil, not an error.
func InstallmentInstances(b core.Installment, from, to core.Month) []core.Instance {
	start := b.StartMonth()
	lo, hi, ok := core.IntersectMonths(from, to, start, b.LastMonth())
	if !ok {
		return nil
	}

	amount := b.InstallmentAmount()
	day := b.StartDate.Day()

	var out []core.Instance
	for _, m := range core.MonthsIn(lo, hi) {
		due := m.ClampDay(day)
		out = append(out, core.Instance{
			ID:         core.InstanceID(b.ID, m),
			ParentID:   b.ID,
			ParentKind: core.KindInstallment,
			Month:      m,
			Sequence:   core.MonthsBetween(start, m) + 1,
			Budgeted:   amount,
			DueDate:    &due,
		})
	}
	return out
}

// VariableInstances materializes one instance per month of the window
// while the expense is active. The budgeted amount is always the plain
// estimate; trend adjustment only ever happens at forecast time. An
// expense without a billing day has no settlement date and produces no
// instances.
func VariableInstances(b core.VariableExpense, from, to core.Month) []core.Instance {
	if !b.Active || b.Status != core.VariableActive {
		return nil
	}
	if b.BillingDay == 0 {
		return nil
	}

	var out []core.Instance
	for _, m := range core.MonthsIn(from, to) {
		due := m.ClampDay(b.BillingDay)
		out = append(out, core.Instance{
			ID:         core.InstanceID(b.ID, m),
			ParentID:   b.ID,
			ParentKind: core.KindVariable,
			Month:      m,
			Budgeted:   b.EstimatedAmount,
			DueDate:    &due,
		})
	}
	return out
}

// BudgetInstances materializes one instance per month of the window for
// an external budget. Budget instances carry no due date and no
// sequence; the budgeted amount is the budget's current total.
func BudgetInstances(b core.Budget, from, to core.Month) []core.Instance {
	var out []core.Instance
	for _, m := range core.MonthsIn(from, to) {
		out = append(out, core.Instance{
			ID:         core.InstanceID(b.ID, m),
			ParentID:   b.ID,
			ParentKind: core.KindBudget,
			Month:      m,
			Budgeted:   b.Total,
		})
	}
	return out
}

// baseInstances dispatches on the expense kind. The sum type keeps this
// switch exhaustive; a new variant fails to compile here.
func baseInstances(b core.BaseExpense, from, to core.Month) ([]core.Instance, error) {
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s %s: %w", b.Kind(), b.ExpenseID(), err)
	}
	switch e := b.(type) {
	case core.Installment:
		return InstallmentInstances(e, from, to), nil
	case core.VariableExpense:
		return VariableInstances(e, from, to), nil
	default:
		return nil, fmt.Errorf("unknown expense kind %T", b)
	}
}

// WindowInstances generates instances for every base expense and budget
// over the window. A fault on one expense is logged and collected; it
// never prevents generation for the others.
func WindowInstances(ctx context.Context, bases []core.BaseExpense, budgets []core.Budget, from, to core.Month) ([]core.Instance, []error) {
	var (
		out    []core.Instance
		faults []error
	)

	for _, b := range bases {
		generated, err := baseInstances(b, from, to)
		if err != nil {
			slog.WarnContext(ctx, "Skipping expense during generation",
				"expense_id", b.ExpenseID(),
				"kind", b.Kind(),
				"error", err)
			faults = append(faults, err)
			continue
		}
		out = append(out, generated...)
	}

	for _, bg := range budgets {
		out = append(out, BudgetInstances(bg, from, to)...)
	}

	return out, faults
}

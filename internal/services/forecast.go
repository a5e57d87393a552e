package services

import (
	"math"
	"time"

	"scadenze/internal/core"
)

type (
	// ForecastPeriod is the month-indexed aggregate consumed by the
	// chart and summary collaborators.
	ForecastPeriod struct {
		Months  []core.Month
		Labels  []string
		Totals  []MonthTotals
		Rows    []ForecastRow
		Summary ForecastSummary
	}

	// MonthTotals carries the per-category sums for one month.
	MonthTotals struct {
		Month        core.Month
		Installments core.Money
		Variable     core.Money
		Budgets      core.Money
		Total        core.Money
	}

	// ForecastRow is one parent expense or budget spanning every month
	// of the period, for tabular display.
	ForecastRow struct {
		ParentID    string
		Kind        core.ExpenseKind
		Description string
		Amounts     []core.Money
		RowTotal    core.Money
	}

	ForecastSummary struct {
		Months           int
		InstallmentCount int
		VariableCount    int
		BudgetCount      int
		HighestMonth     core.Month
		HighestTotal     core.Money
		LowestMonth      core.Month
		LowestTotal      core.Money
	}
)

// ProjectedVariableAmount compounds the annualized trend percentage into
// a monthly factor and projects the estimate forward. monthsFromNow zero
// returns the plain estimate.
func ProjectedVariableAmount(b core.VariableExpense, monthsFromNow int) core.Money {
	if monthsFromNow < 0 {
		monthsFromNow = 0
	}
	monthlyTrend := b.TrendPercentage / 100 / 12
	projected := float64(b.EstimatedAmount.Cents) * math.Pow(1+monthlyTrend, float64(monthsFromNow))
	return core.Money{Cents: int64(math.Round(projected))}
}

// installmentRanOut is the completion rule of the single-shot forecast
// path, which measures elapsed 30-day blocks from the start date rather
// than calendar months.
func installmentRanOut(b core.Installment, target core.Month) bool {
	elapsed := target.Start().Sub(b.StartDate.Time)
	if elapsed < 0 {
		return false
	}
	blocks := int(elapsed / (30 * 24 * time.Hour))
	return blocks >= b.TotalInstallments-1
}

// Forecast aggregates base expenses, budgets and the instances already
// materialized into a rolling ForecastPeriod of monthsAhead months
// starting at start. Where a live instance exists its budgeted amount is
// used as-is; where one is absent the amount is projected directly from
// the base definition, with trend compounding for variable expenses.
func Forecast(bases []core.BaseExpense, budgets []core.Budget, instances []core.Instance, start core.Month, monthsAhead int) ForecastPeriod {
	period := ForecastPeriod{}
	if monthsAhead <= 0 {
		return period
	}

	period.Months = core.MonthsIn(start, start.Add(monthsAhead-1))
	period.Labels = make([]string, len(period.Months))
	for i, m := range period.Months {
		period.Labels[i] = m.DisplayLabel()
	}

	byID := make(map[string]core.Instance, len(instances))
	for _, inst := range instances {
		byID[inst.ID] = inst
	}

	liveAmount := func(parentID string, m core.Month) (core.Money, bool) {
		inst, ok := byID[core.InstanceID(parentID, m)]
		return inst.Budgeted, ok
	}

	rowFor := func(parentID, label string, kind core.ExpenseKind, amountAt func(core.Month, int) core.Money) ForecastRow {
		row := ForecastRow{
			ParentID:    parentID,
			Kind:        kind,
			Description: label,
			Amounts:     make([]core.Money, len(period.Months)),
		}
		for i, m := range period.Months {
			row.Amounts[i] = amountAt(m, i)
			row.RowTotal = row.RowTotal.Add(row.Amounts[i])
		}
		return row
	}

	for _, b := range bases {
		switch e := b.(type) {
		case core.Installment:
			period.Summary.InstallmentCount++
			period.Rows = append(period.Rows, rowFor(e.ID, e.Description, core.KindInstallment,
				func(m core.Month, _ int) core.Money {
					if amt, ok := liveAmount(e.ID, m); ok {
						return amt
					}
					if m.Before(e.StartMonth()) || m.After(e.LastMonth()) {
						return core.Money{}
					}
					if installmentRanOut(e, m) {
						return core.Money{}
					}
					return e.InstallmentAmount()
				}))
		case core.VariableExpense:
			period.Summary.VariableCount++
			period.Rows = append(period.Rows, rowFor(e.ID, e.Description, core.KindVariable,
				func(m core.Month, i int) core.Money {
					if amt, ok := liveAmount(e.ID, m); ok {
						return amt
					}
					if !e.Active || e.Status != core.VariableActive {
						return core.Money{}
					}
					return ProjectedVariableAmount(e, i)
				}))
		}
	}

	for _, bg := range budgets {
		bg := bg
		period.Summary.BudgetCount++
		period.Rows = append(period.Rows, rowFor(bg.ID, bg.Name, core.KindBudget,
			func(m core.Month, _ int) core.Money {
				if amt, ok := liveAmount(bg.ID, m); ok {
					return amt
				}
				return bg.Total
			}))
	}

	period.Totals = make([]MonthTotals, len(period.Months))
	for i, m := range period.Months {
		totals := MonthTotals{Month: m}
		for _, row := range period.Rows {
			amt := row.Amounts[i]
			switch row.Kind {
			case core.KindInstallment:
				totals.Installments = totals.Installments.Add(amt)
			case core.KindVariable:
				totals.Variable = totals.Variable.Add(amt)
			case core.KindBudget:
				totals.Budgets = totals.Budgets.Add(amt)
			}
			totals.Total = totals.Total.Add(amt)
		}
		period.Totals[i] = totals
	}

	period.Summary.Months = len(period.Months)
	// Highest and lowest month; strict comparisons keep the first
	// occurrence on ties.
	for i, totals := range period.Totals {
		if i == 0 {
			period.Summary.HighestMonth, period.Summary.HighestTotal = totals.Month, totals.Total
			period.Summary.LowestMonth, period.Summary.LowestTotal = totals.Month, totals.Total
			continue
		}
		if totals.Total.Cents > period.Summary.HighestTotal.Cents {
			period.Summary.HighestMonth, period.Summary.HighestTotal = totals.Month, totals.Total
		}
		if totals.Total.Cents < period.Summary.LowestTotal.Cents {
			period.Summary.LowestMonth, period.Summary.LowestTotal = totals.Month, totals.Total
		}
	}

	return period
}

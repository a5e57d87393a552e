package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"scadenze/internal/core"
)

// Default look-around for migrated expenses; the window is widened to
// cover every month actually present in a record's payment history.
const (
	migrationMonthsBack  = 3
	migrationMonthsAhead = 6
)

type (
	// LegacyRecord is the prior monolithic model: one object per expense
	// carrying its full payment history inline.
	LegacyRecord struct {
		ID                string               `json:"id"`
		Type              string               `json:"type"`
		Description       string               `json:"description"`
		PaymentMethodID   string               `json:"payment_method_id"`
		TotalAmount       int64                `json:"total_amount,omitempty"`
		TotalInstallments int                  `json:"total_installments,omitempty"`
		StartDate         string               `json:"start_date,omitempty"`
		EstimatedAmount   int64                `json:"estimated_amount,omitempty"`
		BillingDay        int                  `json:"billing_day,omitempty"`
		Category          string               `json:"category,omitempty"`
		TrendPercentage   float64              `json:"trend_percentage,omitempty"`
		IsActive          *bool                `json:"is_active,omitempty"`
		PaymentHistory    []LegacyHistoryEntry `json:"payment_history"`
	}

	LegacyHistoryEntry struct {
		Month               string  `json:"month"`
		AmountBudgeted      int64   `json:"amount_budgeted"`
		AmountPaid          *int64  `json:"amount_paid,omitempty"`
		PaymentDate         string  `json:"payment_date,omitempty"`
		VariationPercentage float64 `json:"variation_percentage,omitempty"`
		Notes               string  `json:"notes,omitempty"`
		PaymentStatus       string  `json:"payment_status,omitempty"`
	}

	// RecordFault ties a skipped legacy record to the reason it was
	// rejected.
	RecordFault struct {
		Index int
		ID    string
		Err   error
	}

	MigrationResult struct {
		BaseExpenses []core.BaseExpense
		Instances    []core.Instance
		Skipped      []RecordFault
	}
)

// ParseLegacyExport decodes the JSON array written by the old client.
func ParseLegacyExport(data []byte) ([]LegacyRecord, error) {
	var records []LegacyRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode legacy export: %w", err)
	}
	return records, nil
}

// Migrate transforms legacy records into clean base expenses plus
// normalized per-month instances. Malformed records are skipped and
// reported; the batch continues for all well-formed ones.
func Migrate(ctx context.Context, records []LegacyRecord, now time.Time) MigrationResult {
	result := MigrationResult{}
	nowMonth := core.MonthOf(now)

	for i, rec := range records {
		base, err := baseFromLegacy(rec)
		if err != nil {
			slog.WarnContext(ctx, "Skipping malformed legacy record",
				"index", i,
				"id", rec.ID,
				"error", err)
			result.Skipped = append(result.Skipped, RecordFault{Index: i, ID: rec.ID, Err: err})
			continue
		}

		history := make(map[string]LegacyHistoryEntry, len(rec.PaymentHistory))
		from := nowMonth.Add(-migrationMonthsBack)
		to := nowMonth.Add(migrationMonthsAhead)
		for _, entry := range rec.PaymentHistory {
			m, err := core.ParseMonth(entry.Month)
			if err != nil {
				slog.WarnContext(ctx, "Dropping history entry with bad month",
					"id", rec.ID,
					"month", entry.Month)
				continue
			}
			history[m.Key()] = entry
			// Widen the window so no historical month falls outside it.
			if m.Before(from) {
				from = m
			}
			if m.After(to) {
				to = m
			}
		}

		instances, err := baseInstances(base, from, to)
		if err != nil {
			result.Skipped = append(result.Skipped, RecordFault{Index: i, ID: rec.ID, Err: err})
			continue
		}

		covered := make(map[string]bool, len(instances))
		for j := range instances {
			covered[instances[j].Month.Key()] = true
			entry, ok := history[instances[j].Month.Key()]
			if !ok {
				continue
			}
			applyHistory(&instances[j], entry)
		}

		// A variable expense without a billing day generates nothing, yet
		// its history is real: materialize those months directly so no
		// recorded payment is lost.
		for key, entry := range history {
			if covered[key] {
				continue
			}
			m, _ := core.ParseMonth(key)
			inst := core.Instance{
				ID:         core.InstanceID(base.ExpenseID(), m),
				ParentID:   base.ExpenseID(),
				ParentKind: base.Kind(),
				Month:      m,
				Budgeted:   core.Money{Cents: entry.AmountBudgeted},
			}
			applyHistory(&inst, entry)
			instances = append(instances, inst)
		}

		result.BaseExpenses = append(result.BaseExpenses, base)
		result.Instances = append(result.Instances, instances...)
	}

	slog.InfoContext(ctx, "Legacy migration complete",
		"records", len(records),
		"migrated", len(result.BaseExpenses),
		"instances", len(result.Instances),
		"skipped", len(result.Skipped))

	return result
}

func applyHistory(inst *core.Instance, entry LegacyHistoryEntry) {
	if entry.AmountPaid != nil {
		paid := core.Money{Cents: *entry.AmountPaid}
		inst.Paid = &paid
		if t, err := time.Parse("2006-01-02", entry.PaymentDate); err == nil {
			d := core.Date{Time: t}
			inst.PaymentDate = &d
		}
	}
	if entry.Notes != "" {
		inst.Notes = entry.Notes
	}
}

func baseFromLegacy(rec LegacyRecord) (core.BaseExpense, error) {
	active := true
	if rec.IsActive != nil {
		active = *rec.IsActive
	}

	switch core.ExpenseKind(rec.Type) {
	case core.KindInstallment:
		start, err := time.Parse("2006-01-02", rec.StartDate)
		if err != nil {
			return nil, fmt.Errorf("start date %q: %w", rec.StartDate, err)
		}
		b := core.Installment{
			ID:                rec.ID,
			Description:       rec.Description,
			PaymentMethodID:   rec.PaymentMethodID,
			TotalAmount:       core.Money{Cents: rec.TotalAmount},
			TotalInstallments: rec.TotalInstallments,
			StartDate:         core.Date{Time: start},
			Status:            core.InstallmentActive,
			Active:            active,
		}
		if err := b.Validate(); err != nil {
			return nil, err
		}
		return b, nil
	case core.KindVariable:
		b := core.VariableExpense{
			ID:              rec.ID,
			Description:     rec.Description,
			PaymentMethodID: rec.PaymentMethodID,
			EstimatedAmount: core.Money{Cents: rec.EstimatedAmount},
			BillingDay:      rec.BillingDay,
			Category:        rec.Category,
			TrendPercentage: rec.TrendPercentage,
			Status:          core.VariableActive,
			Active:          active,
		}
		if err := b.Validate(); err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown legacy expense type %q", rec.Type)
	}
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"scadenze/internal/core"
	"scadenze/internal/store"
)

type (
	// InstallmentForm is the raw creation input. Amounts arrive as the
	// decimal strings the user typed.
	InstallmentForm struct {
		Description       string
		TotalAmount       string
		TotalInstallments int
		StartDate         string
		PaymentMethodID   string
	}

	VariableExpenseForm struct {
		Description     string
		EstimatedAmount string
		BillingDay      int
		Category        string
		PaymentMethodID string
		ServiceURL      string
	}
)

// Registry owns the canonical base expense definitions. Budgets are not
// registered here; they belong to the external budgeting collaborator.
type Registry struct {
	repo      Repository
	instances *store.Store
	events    EventPublisher
}

func NewRegistry(repo Repository, instances *store.Store, events EventPublisher) *Registry {
	return &Registry{repo: repo, instances: instances, events: events}
}

// CreateInstallment validates and persists a new installment definition.
// Nothing is written when validation fails.
func (r *Registry) CreateInstallment(ctx context.Context, form InstallmentForm) (core.Installment, error) {
	amountCents, err := core.ParseDecimalToCents(form.TotalAmount)
	if err != nil {
		return core.Installment{}, fmt.Errorf("total amount: %w", err)
	}
	start, err := time.Parse("2006-01-02", form.StartDate)
	if err != nil {
		return core.Installment{}, fmt.Errorf("start date: %w", core.ErrInvalidStartDate)
	}

	now := time.Now().UTC()
	b := core.Installment{
		ID:                uuid.NewString(),
		Description:       form.Description,
		PaymentMethodID:   form.PaymentMethodID,
		TotalAmount:       core.Money{Cents: amountCents},
		TotalInstallments: form.TotalInstallments,
		StartDate:         core.Date{Time: start},
		Status:            core.InstallmentActive,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := b.Validate(); err != nil {
		return core.Installment{}, err
	}
	if err := r.repo.SaveBaseExpense(ctx, b); err != nil {
		return core.Installment{}, fmt.Errorf("save installment: %w", err)
	}

	slog.InfoContext(ctx, "Installment created",
		"expense_id", b.ID,
		"description", b.Description,
		"total_cents", b.TotalAmount.Cents,
		"installments", b.TotalInstallments)
	return b, nil
}

// CreateVariableExpense validates and persists a new variable expense
// definition.
func (r *Registry) CreateVariableExpense(ctx context.Context, form VariableExpenseForm) (core.VariableExpense, error) {
	amountCents, err := core.ParseDecimalToCents(form.EstimatedAmount)
	if err != nil {
		return core.VariableExpense{}, fmt.Errorf("estimated amount: %w", err)
	}

	now := time.Now().UTC()
	b := core.VariableExpense{
		ID:              uuid.NewString(),
		Description:     form.Description,
		PaymentMethodID: form.PaymentMethodID,
		EstimatedAmount: core.Money{Cents: amountCents},
		BillingDay:      form.BillingDay,
		Category:        form.Category,
		ServiceURL:      form.ServiceURL,
		Status:          core.VariableActive,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := b.Validate(); err != nil {
		return core.VariableExpense{}, err
	}
	if err := r.repo.SaveBaseExpense(ctx, b); err != nil {
		return core.VariableExpense{}, fmt.Errorf("save variable expense: %w", err)
	}

	slog.InfoContext(ctx, "Variable expense created",
		"expense_id", b.ID,
		"description", b.Description,
		"estimated_cents", b.EstimatedAmount.Cents,
		"billing_day", b.BillingDay)
	return b, nil
}

// Update re-validates an edited definition and persists it with a fresh
// UpdatedAt.
func (r *Registry) Update(ctx context.Context, b core.BaseExpense) error {
	if err := b.Validate(); err != nil {
		return err
	}
	switch e := b.(type) {
	case core.Installment:
		e.UpdatedAt = time.Now().UTC()
		b = e
	case core.VariableExpense:
		e.UpdatedAt = time.Now().UTC()
		b = e
	}
	if err := r.repo.SaveBaseExpense(ctx, b); err != nil {
		return fmt.Errorf("update base expense: %w", err)
	}
	return nil
}

// List returns every registered definition.
func (r *Registry) List(ctx context.Context) ([]core.BaseExpense, error) {
	return r.repo.ListBaseExpenses(ctx)
}

// Delete removes a definition and cascades over its instances, in the
// repository and in the in-memory collection. A later regeneration has
// no base to work from, so the instances never come back.
func (r *Registry) Delete(ctx context.Context, expenseID string) error {
	if err := r.repo.DeleteBaseExpense(ctx, expenseID); err != nil {
		return fmt.Errorf("delete base expense: %w", err)
	}
	removed := r.instances.RemoveByParent(expenseID)

	slog.InfoContext(ctx, "Base expense deleted",
		"expense_id", expenseID,
		"instances_removed", removed)

	if r.events != nil {
		if err := r.events.PublishInstanceEvent(ctx, EventExpenseDeleted, core.Instance{ParentID: expenseID}); err != nil {
			slog.ErrorContext(ctx, "Failed to publish delete event",
				"expense_id", expenseID,
				"error", err)
			// The deletion itself succeeded; the event is best effort.
		}
	}
	return nil
}

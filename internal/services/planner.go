package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"scadenze/internal/core"
	"scadenze/internal/store"
)

// Instance event names carried over the message bus.
const (
	EventInstancesGenerated = "generated"
	EventInstancePaid       = "paid"
	EventInstanceUnpaid     = "unpaid"
	EventExpenseDeleted     = "expense_deleted"
)

type (
	// Repository is the persistence port for base expenses and
	// instances.
	Repository interface {
		SaveBaseExpense(ctx context.Context, b core.BaseExpense) error
		ListBaseExpenses(ctx context.Context) ([]core.BaseExpense, error)
		DeleteBaseExpense(ctx context.Context, expenseID string) error
		InsertInstances(ctx context.Context, instances []core.Instance) error
		UpdateInstancePayment(ctx context.Context, inst core.Instance) error
		ListInstances(ctx context.Context) ([]core.Instance, error)
	}

	// BudgetSource is the read-only external budgeting collaborator.
	BudgetSource interface {
		ListBudgets(ctx context.Context) ([]core.Budget, error)
	}

	// EventPublisher pushes instance events to the message bus. A nil
	// publisher disables eventing.
	EventPublisher interface {
		PublishInstanceEvent(ctx context.Context, event string, inst core.Instance) error
	}
)

// Planner orchestrates the generation cycle: fetch budgets, materialize
// the window, merge additively, persist what was new.
type Planner struct {
	repo      Repository
	instances *store.Store
	budgets   BudgetSource
	events    EventPublisher

	monthsBack  int
	monthsAhead int

	lastBudgets []core.Budget
}

func NewPlanner(repo Repository, instances *store.Store, budgets BudgetSource, events EventPublisher, monthsBack, monthsAhead int) *Planner {
	return &Planner{
		repo:        repo,
		instances:   instances,
		budgets:     budgets,
		events:      events,
		monthsBack:  monthsBack,
		monthsAhead: monthsAhead,
	}
}

// Refresh runs one generation cycle around now and returns the number of
// newly materialized instances. A budget fetch failure is surfaced on
// the store and the cycle continues with the previously fetched budgets;
// instances already in memory are never discarded.
func (p *Planner) Refresh(ctx context.Context, now time.Time) (int, error) {
	if p.repo == nil || p.instances == nil {
		return 0, fmt.Errorf("planner not properly initialized")
	}

	bases, err := p.repo.ListBaseExpenses(ctx)
	if err != nil {
		return 0, fmt.Errorf("list base expenses: %w", err)
	}

	budgets := p.lastBudgets
	if p.budgets != nil {
		fetched, err := p.budgets.ListBudgets(ctx)
		if err != nil {
			slog.WarnContext(ctx, "Budget fetch failed, keeping prior budgets",
				"prior_count", len(p.lastBudgets),
				"error", err)
			p.instances.SetLastError(err)
		} else {
			p.instances.SetLastError(nil)
			p.lastBudgets = fetched
			budgets = fetched
		}
	}

	nowMonth := core.MonthOf(now)
	from := nowMonth.Add(-p.monthsBack)
	to := nowMonth.Add(p.monthsAhead)

	generated, faults := WindowInstances(ctx, bases, budgets, from, to)
	added := p.instances.MergeGenerated(generated)

	if len(added) > 0 {
		if err := p.repo.InsertInstances(ctx, added); err != nil {
			return 0, fmt.Errorf("persist new instances: %w", err)
		}
	}

	slog.InfoContext(ctx, "Generation cycle complete",
		"window_from", from.Key(),
		"window_to", to.Key(),
		"base_expenses", len(bases),
		"budgets", len(budgets),
		"generated", len(generated),
		"added", len(added),
		"faults", len(faults))

	for _, inst := range added {
		p.publish(ctx, EventInstancesGenerated, inst)
	}
	return len(added), nil
}

// RecordPayment validates and records a payment on an instance. The
// repository write happens before the in-memory state moves, so a
// storage failure leaves prior state visible.
func (p *Planner) RecordPayment(ctx context.Context, instanceID string, amount core.Money, date core.Date) (core.Instance, error) {
	inst, ok := p.instances.Get(instanceID)
	if !ok {
		return core.Instance{}, fmt.Errorf("instance %s not found", instanceID)
	}

	updated, err := MarkPaid(inst, amount, date)
	if err != nil {
		return core.Instance{}, err
	}
	if err := p.repo.UpdateInstancePayment(ctx, updated); err != nil {
		return core.Instance{}, fmt.Errorf("persist payment: %w", err)
	}
	p.instances.Upsert(updated)

	slog.InfoContext(ctx, "Payment recorded",
		"instance_id", updated.ID,
		"amount_cents", amount.Cents,
		"status", updated.Status(time.Now()))

	p.publish(ctx, EventInstancePaid, updated)
	return updated, nil
}

// ClearPayment removes a recorded payment from an instance.
func (p *Planner) ClearPayment(ctx context.Context, instanceID string) (core.Instance, error) {
	inst, ok := p.instances.Get(instanceID)
	if !ok {
		return core.Instance{}, fmt.Errorf("instance %s not found", instanceID)
	}

	updated := MarkUnpaid(inst)
	if err := p.repo.UpdateInstancePayment(ctx, updated); err != nil {
		return core.Instance{}, fmt.Errorf("persist unpay: %w", err)
	}
	p.instances.Upsert(updated)

	p.publish(ctx, EventInstanceUnpaid, updated)
	return updated, nil
}

// AnnotateInstance replaces the notes on an instance.
func (p *Planner) AnnotateInstance(ctx context.Context, instanceID, notes string) (core.Instance, error) {
	inst, ok := p.instances.Get(instanceID)
	if !ok {
		return core.Instance{}, fmt.Errorf("instance %s not found", instanceID)
	}

	updated := Annotate(inst, notes)
	if err := p.repo.UpdateInstancePayment(ctx, updated); err != nil {
		return core.Instance{}, fmt.Errorf("persist notes: %w", err)
	}
	p.instances.Upsert(updated)
	return updated, nil
}

// ForecastAhead builds the rolling forecast starting at now's month.
func (p *Planner) ForecastAhead(ctx context.Context, now time.Time, monthsAhead int) (ForecastPeriod, error) {
	bases, err := p.repo.ListBaseExpenses(ctx)
	if err != nil {
		return ForecastPeriod{}, fmt.Errorf("list base expenses: %w", err)
	}
	return Forecast(bases, p.lastBudgets, p.instances.All(), core.MonthOf(now), monthsAhead), nil
}

// Budgets returns the most recently fetched budget list.
func (p *Planner) Budgets() []core.Budget {
	return p.lastBudgets
}

func (p *Planner) publish(ctx context.Context, event string, inst core.Instance) {
	if p.events == nil {
		return
	}
	if err := p.events.PublishInstanceEvent(ctx, event, inst); err != nil {
		slog.ErrorContext(ctx, "Failed to publish instance event",
			"event", event,
			"instance_id", inst.ID,
			"error", err)
		// Local state is authoritative; events are best effort.
	}
}

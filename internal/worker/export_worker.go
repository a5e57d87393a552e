package worker

import (
	"context"
	"fmt"
	"log/slog"

	"scadenze/internal/amqp"
	"scadenze/internal/budgets"
	"scadenze/internal/core"
	"scadenze/internal/services"
)

// InstanceSource is the storage surface the export worker needs.
type InstanceSource interface {
	GetInstance(ctx context.Context, id string) (core.Instance, error)
	ListPendingExport(ctx context.Context, limit int) ([]core.Instance, error)
	MarkInstanceExported(ctx context.Context, id string) error
}

// ExportWorker appends paid instances to the collaborator's payment
// ledger sheet. Events arrive over AMQP; a periodic pending scan covers
// lost messages.
type ExportWorker struct {
	storage   InstanceSource
	ledger    budgets.LedgerAppender
	batchSize int
}

func NewExportWorker(storage InstanceSource, ledger budgets.LedgerAppender, batchSize int) *ExportWorker {
	return &ExportWorker{
		storage:   storage,
		ledger:    ledger,
		batchSize: batchSize,
	}
}

// HandleInstanceEvent processes a single instance event from AMQP. Only
// payment events carry work; the rest are acknowledged and dropped.
func (w *ExportWorker) HandleInstanceEvent(ctx context.Context, msg *amqp.InstanceEventMessage) error {
	if msg.Event != services.EventInstancePaid {
		slog.DebugContext(ctx, "Ignoring instance event",
			"event", msg.Event,
			"instance_id", msg.InstanceID)
		return nil
	}

	inst, err := w.storage.GetInstance(ctx, msg.InstanceID)
	if err != nil {
		return fmt.Errorf("get instance from storage: %w", err)
	}
	// The payment may have been cleared between publish and delivery.
	if !inst.IsPaid() {
		slog.WarnContext(ctx, "Instance no longer paid, skipping export",
			"instance_id", inst.ID)
		return nil
	}

	return w.exportInstance(ctx, inst)
}

// ProcessPendingExports exports paid instances that never reached the
// ledger. This is a backup mechanism in case AMQP messages are lost.
func (w *ExportWorker) ProcessPendingExports(ctx context.Context) error {
	pending, err := w.storage.ListPendingExport(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending exports: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending exports", "count", len(pending))

	for _, inst := range pending {
		if err := w.exportInstance(ctx, inst); err != nil {
			slog.ErrorContext(ctx, "Failed to export instance",
				"instance_id", inst.ID,
				"error", err)
			continue
		}
	}
	return nil
}

// StartupCheck drains the pending backlog once at worker startup,
// recovering from missed messages or worker downtime.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.storage.ListPendingExport(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list pending exports for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending exports found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending exports on startup, processing...",
		"count", len(pending))

	exported := 0
	failed := 0
	for _, inst := range pending {
		if err := w.exportInstance(ctx, inst); err != nil {
			slog.ErrorContext(ctx, "Failed to export instance during startup",
				"instance_id", inst.ID,
				"error", err)
			failed++
			continue
		}
		exported++
	}

	slog.InfoContext(ctx, "Startup export completed",
		"total", len(pending),
		"exported", exported,
		"errors", failed)
	return nil
}

func (w *ExportWorker) exportInstance(ctx context.Context, inst core.Instance) error {
	ref, err := w.ledger.AppendPaid(ctx, inst)
	if err != nil {
		return fmt.Errorf("append to ledger: %w", err)
	}

	if err := w.storage.MarkInstanceExported(ctx, inst.ID); err != nil {
		// The append worked; a failed mark only means a possible
		// duplicate row on the next scan.
		slog.ErrorContext(ctx, "Failed to mark instance as exported",
			"instance_id", inst.ID,
			"error", err)
	}

	slog.InfoContext(ctx, "Instance exported to ledger",
		"instance_id", inst.ID,
		"sheets_ref", ref,
		"paid_cents", inst.Paid.Cents)
	return nil
}

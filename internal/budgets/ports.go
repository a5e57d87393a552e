package budgets

import (
	"context"

	"scadenze/internal/core"
)

// Ports for the external budgeting collaborator.
type (
	// Reader lists the budget definitions owned by the collaborator.
	// Budgets are consumed read-only; nothing here mutates them.
	Reader interface {
		ListBudgets(ctx context.Context) ([]core.Budget, error)
	}

	// LedgerAppender records a paid instance on the collaborator's
	// payment ledger.
	LedgerAppender interface {
		AppendPaid(ctx context.Context, inst core.Instance) (rowRef string, err error)
	}
)

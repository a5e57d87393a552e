package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"scadenze/internal/core"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveBaseExpense upserts an installment or variable expense definition.
func (r *SQLiteRepository) SaveBaseExpense(ctx context.Context, b core.BaseExpense) error {
	const query = `
		INSERT INTO base_expenses (
			id, kind, description, payment_method_id, amount_cents,
			total_installments, start_date, billing_day, category,
			trend_percentage, service_url, status, active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			description = excluded.description,
			payment_method_id = excluded.payment_method_id,
			amount_cents = excluded.amount_cents,
			total_installments = excluded.total_installments,
			start_date = excluded.start_date,
			billing_day = excluded.billing_day,
			category = excluded.category,
			trend_percentage = excluded.trend_percentage,
			service_url = excluded.service_url,
			status = excluded.status,
			active = excluded.active,
			updated_at = excluded.updated_at`

	var args []any
	switch e := b.(type) {
	case core.Installment:
		args = []any{
			e.ID, string(core.KindInstallment), e.Description, e.PaymentMethodID,
			e.TotalAmount.Cents, e.TotalInstallments, e.StartDate.Format(dateLayout),
			0, "", 0.0, "", string(e.Status), boolToInt(e.Active),
			e.CreatedAt.Format(time.RFC3339), e.UpdatedAt.Format(time.RFC3339),
		}
	case core.VariableExpense:
		args = []any{
			e.ID, string(core.KindVariable), e.Description, e.PaymentMethodID,
			e.EstimatedAmount.Cents, 0, nil,
			e.BillingDay, e.Category, e.TrendPercentage, e.ServiceURL,
			string(e.Status), boolToInt(e.Active),
			e.CreatedAt.Format(time.RFC3339), e.UpdatedAt.Format(time.RFC3339),
		}
	default:
		return fmt.Errorf("save base expense: unknown kind %q", b.Kind())
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save base expense %s: %w", b.ExpenseID(), err)
	}
	return nil
}

// ListBaseExpenses returns every stored definition, installments first,
// each group ordered by creation time.
func (r *SQLiteRepository) ListBaseExpenses(ctx context.Context) ([]core.BaseExpense, error) {
	const query = `
		SELECT id, kind, description, payment_method_id, amount_cents,
		       total_installments, start_date, billing_day, category,
		       trend_percentage, service_url, status, active, created_at, updated_at
		FROM base_expenses
		ORDER BY kind, created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list base expenses: %w", err)
	}
	defer rows.Close()

	var out []core.BaseExpense
	for rows.Next() {
		var (
			id, kind, description, methodID   string
			amountCents                       int64
			totalInstallments, billingDay     int
			startDate                         sql.NullString
			category, serviceURL, status      string
			trend                             float64
			active                            int
			createdAt, updatedAt              string
		)
		if err := rows.Scan(&id, &kind, &description, &methodID, &amountCents,
			&totalInstallments, &startDate, &billingDay, &category,
			&trend, &serviceURL, &status, &active, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan base expense: %w", err)
		}

		created, _ := time.Parse(time.RFC3339, createdAt)
		updated, _ := time.Parse(time.RFC3339, updatedAt)

		switch core.ExpenseKind(kind) {
		case core.KindInstallment:
			start, err := time.Parse(dateLayout, startDate.String)
			if err != nil {
				return nil, fmt.Errorf("parse start date for %s: %w", id, err)
			}
			out = append(out, core.Installment{
				ID:                id,
				Description:       description,
				PaymentMethodID:   methodID,
				TotalAmount:       core.Money{Cents: amountCents},
				TotalInstallments: totalInstallments,
				StartDate:         core.Date{Time: start},
				Status:            core.InstallmentStatus(status),
				Active:            active != 0,
				CreatedAt:         created,
				UpdatedAt:         updated,
			})
		case core.KindVariable:
			out = append(out, core.VariableExpense{
				ID:              id,
				Description:     description,
				PaymentMethodID: methodID,
				EstimatedAmount: core.Money{Cents: amountCents},
				BillingDay:      billingDay,
				Category:        category,
				TrendPercentage: trend,
				ServiceURL:      serviceURL,
				Status:          core.VariableStatus(status),
				Active:          active != 0,
				CreatedAt:       created,
				UpdatedAt:       updated,
			})
		default:
			slog.WarnContext(ctx, "Skipping base expense with unknown kind",
				"expense_id", id,
				"kind", kind)
		}
	}
	return out, rows.Err()
}

// DeleteBaseExpense removes a definition and all its instances in one
// transaction.
func (r *SQLiteRepository) DeleteBaseExpense(ctx context.Context, expenseID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM expense_instances WHERE parent_id = ?`, expenseID)
	if err != nil {
		return fmt.Errorf("delete instances of %s: %w", expenseID, err)
	}
	removed, _ := res.RowsAffected()

	if _, err := tx.ExecContext(ctx, `DELETE FROM base_expenses WHERE id = ?`, expenseID); err != nil {
		return fmt.Errorf("delete base expense %s: %w", expenseID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}

	slog.InfoContext(ctx, "Base expense removed from SQLite",
		"expense_id", expenseID,
		"instances_removed", removed)
	return nil
}

// InsertInstances adds newly generated instances. An instance whose ID is
// already present is left untouched, so recorded payments survive
// regeneration.
func (r *SQLiteRepository) InsertInstances(ctx context.Context, instances []core.Instance) error {
	if len(instances) == 0 {
		return nil
	}

	const query = `
		INSERT INTO expense_instances (
			id, parent_id, parent_kind, month, sequence,
			budgeted_cents, paid_cents, payment_date, due_date, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, inst := range instances {
		if _, err := stmt.ExecContext(ctx,
			inst.ID, inst.ParentID, string(inst.ParentKind), inst.Month.Key(),
			inst.Sequence, inst.Budgeted.Cents,
			nullCents(inst.Paid), nullDate(inst.PaymentDate), nullDate(inst.DueDate),
			inst.Notes,
		); err != nil {
			return fmt.Errorf("insert instance %s: %w", inst.ID, err)
		}
	}
	return tx.Commit()
}

// UpdateInstancePayment persists payment fields and notes. A fresh
// payment also clears the exported flag so the sync worker picks the
// instance up again.
func (r *SQLiteRepository) UpdateInstancePayment(ctx context.Context, inst core.Instance) error {
	const query = `
		UPDATE expense_instances
		SET paid_cents = ?, payment_date = ?, notes = ?,
		    exported = CASE WHEN ? IS NULL THEN exported ELSE 0 END
		WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query,
		nullCents(inst.Paid), nullDate(inst.PaymentDate), inst.Notes,
		nullCents(inst.Paid), inst.ID)
	if err != nil {
		return fmt.Errorf("update instance %s: %w", inst.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update instance %s: %w", inst.ID, sql.ErrNoRows)
	}
	return nil
}

// ListInstances returns every stored instance ordered by month then
// parent.
func (r *SQLiteRepository) ListInstances(ctx context.Context) ([]core.Instance, error) {
	const query = `
		SELECT id, parent_id, parent_kind, month, sequence,
		       budgeted_cents, paid_cents, payment_date, due_date, notes
		FROM expense_instances
		ORDER BY month, parent_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	defer rows.Close()

	var out []core.Instance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

// GetInstance loads a single instance by ID.
func (r *SQLiteRepository) GetInstance(ctx context.Context, id string) (core.Instance, error) {
	const query = `
		SELECT id, parent_id, parent_kind, month, sequence,
		       budgeted_cents, paid_cents, payment_date, due_date, notes
		FROM expense_instances
		WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	inst, err := scanInstance(row)
	if err != nil {
		return core.Instance{}, fmt.Errorf("get instance %s: %w", id, err)
	}
	return inst, nil
}

// ListPendingExport returns paid instances the sync worker has not yet
// appended to the ledger sheet, oldest month first.
func (r *SQLiteRepository) ListPendingExport(ctx context.Context, limit int) ([]core.Instance, error) {
	const query = `
		SELECT id, parent_id, parent_kind, month, sequence,
		       budgeted_cents, paid_cents, payment_date, due_date, notes
		FROM expense_instances
		WHERE paid_cents IS NOT NULL AND exported = 0
		ORDER BY month
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending export: %w", err)
	}
	defer rows.Close()

	var out []core.Instance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

// MarkInstanceExported records that an instance reached the ledger sheet.
func (r *SQLiteRepository) MarkInstanceExported(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE expense_instances SET exported = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark exported %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("mark exported %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInstance(row rowScanner) (core.Instance, error) {
	var (
		inst                   core.Instance
		kind, monthKey         string
		paidCents              sql.NullInt64
		paymentDate, dueDate   sql.NullString
	)
	if err := row.Scan(&inst.ID, &inst.ParentID, &kind, &monthKey, &inst.Sequence,
		&inst.Budgeted.Cents, &paidCents, &paymentDate, &dueDate, &inst.Notes); err != nil {
		return core.Instance{}, fmt.Errorf("scan instance: %w", err)
	}

	inst.ParentKind = core.ExpenseKind(kind)
	m, err := core.ParseMonth(monthKey)
	if err != nil {
		return core.Instance{}, fmt.Errorf("parse month of %s: %w", inst.ID, err)
	}
	inst.Month = m

	if paidCents.Valid {
		inst.Paid = &core.Money{Cents: paidCents.Int64}
	}
	if inst.PaymentDate, err = parseNullDate(paymentDate); err != nil {
		return core.Instance{}, fmt.Errorf("parse payment date of %s: %w", inst.ID, err)
	}
	if inst.DueDate, err = parseNullDate(dueDate); err != nil {
		return core.Instance{}, fmt.Errorf("parse due date of %s: %w", inst.ID, err)
	}
	return inst, nil
}

func parseNullDate(s sql.NullString) (*core.Date, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s.String)
	if err != nil {
		return nil, err
	}
	return &core.Date{Time: t}, nil
}

func nullCents(m *core.Money) any {
	if m == nil {
		return nil
	}
	return m.Cents
}

func nullDate(d *core.Date) any {
	if d == nil {
		return nil
	}
	return d.Format(dateLayout)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"scadenze/internal/budgets"
	"scadenze/internal/cache"
	"scadenze/internal/core"
)

const budgetsCacheKey = "budgets"

// Client reads budgets from, and appends paid instances to, a Google
// spreadsheet owned by the budgeting collaborator.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	budgetsSheet  string
	ledgerSheet   string
	budgetCache   *cache.TTLCache[[]core.Budget]
}

// Ensure interface conformance
var (
	_ budgets.Reader         = (*Client)(nil)
	_ budgets.LedgerAppender = (*Client)(nil)
)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional sheet names: GOOGLE_BUDGETS_SHEET_NAME (default "Budgets"),
// GOOGLE_LEDGER_SHEET_NAME (default "Pagamenti").
func NewFromEnv(ctx context.Context, cacheTTL time.Duration) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	budgetsSheet := strings.TrimSpace(os.Getenv("GOOGLE_BUDGETS_SHEET_NAME"))
	if budgetsSheet == "" {
		budgetsSheet = "Budgets"
	}
	ledgerSheet := strings.TrimSpace(os.Getenv("GOOGLE_LEDGER_SHEET_NAME"))
	if ledgerSheet == "" {
		ledgerSheet = "Pagamenti"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return New(svc, spreadsheetID, budgetsSheet, ledgerSheet, cacheTTL), nil
}

// New creates a client over an existing Sheets service.
func New(svc *gsheet.Service, spreadsheetID, budgetsSheet, ledgerSheet string, cacheTTL time.Duration) *Client {
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		budgetsSheet:  budgetsSheet,
		ledgerSheet:   ledgerSheet,
		budgetCache:   cache.NewTTLCache[[]core.Budget](cacheTTL),
	}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))

	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ListBudgets reads the budget rows. Results are cached; the collaborator
// is only re-read after the TTL expires, which keeps generation cycles
// cheap.
//
// Expected columns: A id, B name, C total, D spent, E special flag.
func (c *Client) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	if cached, ok := c.budgetCache.Get(budgetsCacheKey); ok {
		return cached, nil
	}
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A2:E", c.budgetsSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}

	var out []core.Budget
	for _, row := range resp.Values {
		b, err := parseBudgetRow(toStrings(row))
		if err != nil {
			if !errors.Is(err, errSkipRow) {
				slog.WarnContext(ctx, "Skipping malformed budget row",
					"sheet", c.budgetsSheet,
					"error", err)
			}
			continue
		}
		out = append(out, b)
	}

	slog.InfoContext(ctx, "Budgets loaded from Google Sheets",
		"sheet", c.budgetsSheet,
		"count", len(out))

	c.budgetCache.Set(budgetsCacheKey, out)
	return out, nil
}

// AppendPaid appends a paid instance to the ledger sheet and returns the
// written range.
//
// Columns: month key, parent id, kind, description notes, budgeted and
// paid in euros, payment date.
func (c *Client) AppendPaid(ctx context.Context, inst core.Instance) (string, error) {
	if !inst.IsPaid() {
		return "", fmt.Errorf("instance %s has no recorded payment", inst.ID)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	paymentDate := ""
	if inst.PaymentDate != nil {
		paymentDate = inst.PaymentDate.Format("2006-01-02")
	}

	rng := fmt.Sprintf("%s!A:G", c.ledgerSheet)
	vr := &gsheet.ValueRange{Values: [][]any{{
		inst.Month.Key(),
		inst.ParentID,
		string(inst.ParentKind),
		inst.Notes,
		inst.Budgeted.Euros(),
		inst.Paid.Euros(),
		paymentDate,
	}}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.ledgerSheet, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}

	slog.InfoContext(ctx, "Paid instance appended to ledger sheet",
		"instance_id", inst.ID,
		"sheets_ref", ref)
	return ref, nil
}

// InvalidateBudgets drops the cached budget list so the next read goes
// to the spreadsheet.
func (c *Client) InvalidateBudgets() {
	c.budgetCache.Delete(budgetsCacheKey)
}

// errSkipRow marks rows that are legitimately not budgets, like blanks
// and comment lines. They are skipped without a warning.
var errSkipRow = errors.New("not a budget row")

// parseBudgetRow maps one sheet row onto a budget.
func parseBudgetRow(cols []string) (core.Budget, error) {
	if len(cols) < 3 || cols[0] == "" || strings.HasPrefix(cols[0], "#") {
		return core.Budget{}, errSkipRow
	}

	total, err := core.ParseDecimalToCents(cols[2])
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget %s total %q: %w", cols[0], cols[2], err)
	}
	b := core.Budget{
		ID:    cols[0],
		Name:  cols[1],
		Total: core.Money{Cents: total},
	}
	if len(cols) > 3 && cols[3] != "" {
		if spent, err := core.ParseDecimalToCents(cols[3]); err == nil {
			b.Spent = core.Money{Cents: spent}
		}
	}
	if len(cols) > 4 {
		flag := strings.ToLower(cols[4])
		b.Special = flag == "true" || flag == "x" || flag == "yes" || flag == "si"
	}
	return b, nil
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

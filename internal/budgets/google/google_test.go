package google

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"scadenze/internal/core"
)

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	oldID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	defer os.Setenv("GOOGLE_SPREADSHEET_ID", oldID)
	os.Unsetenv("GOOGLE_SPREADSHEET_ID")

	_, err := NewFromEnv(context.Background(), time.Minute)
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParseBudgetRow(t *testing.T) {
	tests := []struct {
		name    string
		cols    []string
		want    core.Budget
		wantErr error
	}{
		{
			name: "full row",
			cols: []string{"bud-1", "Spesa", "400,00", "123,45", "x"},
			want: core.Budget{ID: "bud-1", Name: "Spesa", Total: core.Money{Cents: 40000}, Spent: core.Money{Cents: 12345}, Special: true},
		},
		{
			name: "minimal row",
			cols: []string{"bud-2", "Trasporti", "100"},
			want: core.Budget{ID: "bud-2", Name: "Trasporti", Total: core.Money{Cents: 10000}},
		},
		{
			name:    "blank row",
			cols:    []string{"", "", ""},
			wantErr: errSkipRow,
		},
		{
			name:    "comment row",
			cols:    []string{"# note", "", ""},
			wantErr: errSkipRow,
		},
		{
			name:    "short row",
			cols:    []string{"bud-3"},
			wantErr: errSkipRow,
		},
		{
			name: "bad total",
			cols: []string{"bud-4", "Vacanze", "molto"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseBudgetRow(tt.cols)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if tt.want.ID == "" {
				if err == nil {
					t.Fatal("expected parse error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseBudgetRow() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("parseBudgetRow() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClient_AppendPaidValidation(t *testing.T) {
	c := &Client{spreadsheetID: "test", ledgerSheet: "Pagamenti"}

	// No payment recorded: rejected before any network call.
	_, err := c.AppendPaid(context.Background(), core.Instance{ID: "x"})
	if err == nil {
		t.Fatal("expected error for unpaid instance")
	}

	// Paid instance against a nil service: rejected with a clear error.
	paid := core.Money{Cents: 100}
	c2 := &Client{}
	if _, err := c2.AppendPaid(context.Background(), core.Instance{ID: "x", Paid: &paid}); err == nil {
		t.Fatal("expected error for uninitialized service")
	}
}

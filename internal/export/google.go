package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finledger/internal/core"
	"finledger/internal/log"
)

// GoogleSheetsWriter appends monthly-summary rows to one sheet of a
// spreadsheet. Each export run rewrites nothing; rows accumulate so the
// sheet keeps a history of snapshots.
type GoogleSheetsWriter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	log           *log.Logger
}

var _ SummaryWriter = (*GoogleSheetsWriter)(nil)

// NewGoogleSheetsWriter creates a writer authenticated with a service
// account. Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON (inline),
// GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS (file
// paths), tried in that order.
func NewGoogleSheetsWriter(ctx context.Context, spreadsheetID, sheetName string, logger *log.Logger) (*GoogleSheetsWriter, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Summary"
	}

	credentials, err := loadCredentials()
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &GoogleSheetsWriter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		log:           logger.WithComponent(log.ComponentExport),
	}, nil
}

func loadCredentials() ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
		return []byte(inline), nil
	}
	path := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	credentials, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return credentials, nil
}

// WriteSummary appends one row per bucket plus a totals row.
func (w *GoogleSheetsWriter) WriteSummary(ctx context.Context, summary core.MonthlySummary) error {
	values := SummaryRows(summary)
	rangeRef := fmt.Sprintf("%s!A:F", w.sheetName)

	_, err := w.svc.Spreadsheets.Values.Append(w.spreadsheetID, rangeRef, &gsheet.ValueRange{
		Values: values,
	}).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append summary rows: %w", err)
	}

	w.log.InfoContext(ctx, "Monthly summary exported",
		log.FieldMonth, summary.StartMonth,
		log.FieldCount, len(values))
	return nil
}

// SummaryRows flattens a monthly summary into sheet rows:
// month, income, expenses, month balance, accumulated balance, net
// transfers. The final row carries the range totals.
func SummaryRows(summary core.MonthlySummary) [][]any {
	rows := make([][]any, 0, len(summary.Items)+1)
	for _, b := range summary.Items {
		rows = append(rows, []any{
			fmt.Sprintf("%04d-%02d", b.Year, b.Month),
			b.Income.String(),
			b.Expenses.String(),
			b.MonthBalance.String(),
			b.AccumulatedBalance.String(),
			b.NetTransfers.String(),
		})
	}
	rows = append(rows, []any{
		fmt.Sprintf("TOTAL %s..%s", summary.StartMonth, summary.EndMonth),
		summary.TotalIncome.String(),
		summary.TotalExpenses.String(),
		summary.TotalSavings.String(),
		"",
		"",
	})
	return rows
}

package export

import (
	"context"
	"testing"

	"finledger/internal/core"
)

func sampleSummary() core.MonthlySummary {
	return core.MonthlySummary{
		StartMonth: "2025-01",
		EndMonth:   "2025-02",
		Items: []core.MonthlyBucket{
			{Year: 2025, Month: 1, Income: core.Money{Cents: 50000}, Expenses: core.Money{Cents: 20000},
				MonthBalance: core.Money{Cents: 30000}, AccumulatedBalance: core.Money{Cents: 30000}},
			{Year: 2025, Month: 2, AccumulatedBalance: core.Money{Cents: 30000}},
		},
		TotalIncome:   core.Money{Cents: 50000},
		TotalExpenses: core.Money{Cents: 20000},
		TotalSavings:  core.Money{Cents: 30000},
	}
}

func TestMemoryWriter(t *testing.T) {
	w := NewMemoryWriter()
	if err := w.WriteSummary(context.Background(), sampleSummary()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.WriteSummary(context.Background(), sampleSummary()); err != nil {
		t.Fatalf("write: %v", err)
	}

	got := w.Summaries()
	if len(got) != 2 {
		t.Fatalf("got %d summaries, want 2", len(got))
	}
	if got[0].TotalSavings.Cents != 30000 {
		t.Fatalf("unexpected summary %+v", got[0])
	}
}

func TestSummaryRows(t *testing.T) {
	rows := SummaryRows(sampleSummary())

	// One row per bucket plus the totals row.
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0][0] != "2025-01" {
		t.Fatalf("first row month %v", rows[0][0])
	}
	if rows[0][1] != "500.00" || rows[0][2] != "200.00" {
		t.Fatalf("first row amounts %v", rows[0])
	}
	total := rows[2]
	if total[0] != "TOTAL 2025-01..2025-02" || total[3] != "300.00" {
		t.Fatalf("totals row %v", total)
	}
}

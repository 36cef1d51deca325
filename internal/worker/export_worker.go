package worker

import (
	"context"
	"time"

	"finledger/internal/core"
	"finledger/internal/export"
	"finledger/internal/log"
	"finledger/internal/services"
)

// ExportWorker pushes the current month's summary for one user to the
// configured sheet on a fixed interval.
type ExportWorker struct {
	reports  *services.ReportService
	writer   export.SummaryWriter
	userID   int64
	interval time.Duration
	log      *log.Logger
}

func NewExportWorker(reports *services.ReportService, writer export.SummaryWriter, userID int64, interval time.Duration, logger *log.Logger) *ExportWorker {
	return &ExportWorker{
		reports:  reports,
		writer:   writer,
		userID:   userID,
		interval: interval,
		log:      logger.WithComponent(log.ComponentExport),
	}
}

// Run exports once immediately, then on every tick until the context ends.
// A failed export is logged and retried on the next tick.
func (w *ExportWorker) Run(ctx context.Context) error {
	if err := w.ExportOnce(ctx); err != nil {
		w.log.ErrorContext(ctx, "Initial export failed", log.FieldError, err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ExportOnce(ctx); err != nil {
				w.log.ErrorContext(ctx, "Export failed", log.FieldError, err)
			}
		}
	}
}

// ExportOnce builds and writes the current month's summary.
func (w *ExportWorker) ExportOnce(ctx context.Context) error {
	month := core.Today().MonthKey()
	summary, err := w.reports.MonthlySummary(ctx, w.userID, month, month, nil)
	if err != nil {
		return err
	}
	if err := w.writer.WriteSummary(ctx, summary); err != nil {
		return err
	}

	w.log.InfoContext(ctx, "Summary exported",
		log.FieldUserID, w.userID,
		log.FieldMonth, month)
	return nil
}

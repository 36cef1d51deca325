// Package export pushes monthly-summary snapshots to an external sheet.
package export

import (
	"context"

	"finledger/internal/core"
)

// SummaryWriter receives one monthly-summary snapshot per export run.
type SummaryWriter interface {
	WriteSummary(ctx context.Context, summary core.MonthlySummary) error
}

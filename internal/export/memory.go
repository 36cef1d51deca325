package export

import (
	"context"
	"sync"

	"finledger/internal/core"
)

// MemoryWriter collects summaries in memory. Test double for the sheet
// writer.
type MemoryWriter struct {
	mu        sync.Mutex
	summaries []core.MonthlySummary
}

var _ SummaryWriter = (*MemoryWriter)(nil)

func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{}
}

func (w *MemoryWriter) WriteSummary(_ context.Context, summary core.MonthlySummary) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.summaries = append(w.summaries, summary)
	return nil
}

// Summaries returns a copy of everything written so far.
func (w *MemoryWriter) Summaries() []core.MonthlySummary {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]core.MonthlySummary(nil), w.summaries...)
}

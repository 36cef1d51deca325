package worker

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"finledger/internal/amqp"
	"finledger/internal/log"
	"finledger/internal/storage"
)

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func TestAuditWorkerHandleMutation(t *testing.T) {
	store := newTestStore(t)
	worker := NewAuditWorker(store, newTestLogger())
	ctx := context.Background()

	events := []amqp.MutationEvent{
		amqp.NewMutationEvent(amqp.EntityTransaction, 10, amqp.ActionCreate, 1),
		amqp.NewMutationEvent(amqp.EntityTransfer, 11, amqp.ActionDelete, 1),
		amqp.NewMutationEvent(amqp.EntityTransaction, 12, amqp.ActionUpdate, 2),
	}
	for _, event := range events {
		if err := worker.HandleMutation(ctx, event); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}

	count, err := store.CountAuditEntries(ctx, 1)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("user 1 audit entries %d, want 2", count)
	}
	count, err = store.CountAuditEntries(ctx, 2)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("user 2 audit entries %d, want 1", count)
	}
}

func TestAuditWorkerHandleMutationTimestamps(t *testing.T) {
	store := newTestStore(t)
	worker := NewAuditWorker(store, newTestLogger())

	event := amqp.MutationEvent{
		Entity:     amqp.EntityTransaction,
		EntityID:   1,
		Action:     amqp.ActionCreate,
		UserID:     5,
		OccurredAt: time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC),
	}
	if err := worker.HandleMutation(context.Background(), event); err != nil {
		t.Fatalf("handle: %v", err)
	}

	count, err := store.CountAuditEntries(context.Background(), 5)
	if err != nil || count != 1 {
		t.Fatalf("count %d err %v", count, err)
	}
}

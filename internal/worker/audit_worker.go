// Package worker hosts the background side of the ledger: the audit-trail
// consumer fed by mutation events and the periodic summary exporter.
package worker

import (
	"context"
	"fmt"

	"finledger/internal/amqp"
	"finledger/internal/log"
	"finledger/internal/storage"
)

// AuditWorker appends one audit-log row per consumed mutation event. The
// event carries identity only; the row is the durable trail.
type AuditWorker struct {
	store *storage.Store
	log   *log.Logger
}

func NewAuditWorker(store *storage.Store, logger *log.Logger) *AuditWorker {
	return &AuditWorker{
		store: store,
		log:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleMutation records one event. Returning an error makes the consumer
// nack and requeue the delivery.
func (w *AuditWorker) HandleMutation(ctx context.Context, event amqp.MutationEvent) error {
	entry := storage.AuditEntry{
		UserID:     event.UserID,
		Entity:     event.Entity,
		EntityID:   event.EntityID,
		Action:     event.Action,
		OccurredAt: event.OccurredAt,
	}
	if err := w.store.InsertAuditEntry(ctx, entry); err != nil {
		return fmt.Errorf("record mutation %s/%d: %w", event.Entity, event.EntityID, err)
	}

	w.log.InfoContext(ctx, "Mutation recorded",
		"entity", event.Entity,
		"entity_id", event.EntityID,
		"action", event.Action,
		log.FieldUserID, event.UserID)
	return nil
}

// Run consumes mutation events until the context ends.
func (w *AuditWorker) Run(ctx context.Context, client *amqp.Client) error {
	return client.ConsumeMutations(ctx, func(event amqp.MutationEvent) error {
		return w.HandleMutation(ctx, event)
	})
}

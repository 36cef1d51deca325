package services

import (
	"context"

	"finledger/internal/amqp"
	"finledger/internal/log"
)

// EventPublisher is satisfied by *amqp.Client. A nil publisher disables
// event emission.
type EventPublisher interface {
	PublishMutation(ctx context.Context, event amqp.MutationEvent) error
}

// publishMutation emits a mutation event after a committed write. Publish
// failures are logged, never surfaced: the mutation has already happened.
func publishMutation(ctx context.Context, events EventPublisher, logger *log.Logger, entity string, entityID int64, action string, userID int64) {
	if events == nil {
		return
	}
	event := amqp.NewMutationEvent(entity, entityID, action, userID)
	if err := events.PublishMutation(ctx, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish mutation event",
			log.FieldError, err,
			"entity", entity,
			"entity_id", entityID,
			"action", action)
	}
}

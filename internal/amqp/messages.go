package amqp

import (
	"encoding/json"
	"time"
)

// Mutation actions carried on the bus.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Entities carried on the bus.
const (
	EntityTransaction = "transaction"
	EntityTransfer    = "transfer"
)

// MutationEvent announces one committed ledger mutation. Consumers fetch
// any state they need from the database; the event carries identity only.
type MutationEvent struct {
	Entity     string    `json:"entity"`
	EntityID   int64     `json:"entity_id"`
	Action     string    `json:"action"`
	UserID     int64     `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewMutationEvent creates an event stamped with the current time.
func NewMutationEvent(entity string, entityID int64, action string, userID int64) MutationEvent {
	return MutationEvent{
		Entity:     entity,
		EntityID:   entityID,
		Action:     action,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e MutationEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// MutationEventFromJSON parses an event from JSON bytes.
func MutationEventFromJSON(data []byte) (MutationEvent, error) {
	var e MutationEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return MutationEvent{}, err
	}
	return e, nil
}

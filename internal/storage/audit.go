package storage

import (
	"context"
	"fmt"
	"time"
)

// AuditEntry is one row of the mutation audit trail written by the worker.
type AuditEntry struct {
	ID         int64
	UserID     int64
	Entity     string
	EntityID   int64
	Action     string
	OccurredAt time.Time
}

func (q *Queries) InsertAuditEntry(ctx context.Context, e AuditEntry) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO audit_log (user_id, entity, entity_id, action, occurred_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.UserID, e.Entity, e.EntityID, e.Action, e.OccurredAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// CountAuditEntries reports the audit-trail length for one user.
func (q *Queries) CountAuditEntries(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit_log WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count audit entries: %w", err)
	}
	return n, nil
}

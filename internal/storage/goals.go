package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finledger/internal/core"
)

const goalColumns = `id, user_id, type, target_value_cents, start_date, end_date, description, category_id`

func scanGoal(row interface{ Scan(...any) error }) (core.Goal, error) {
	var g core.Goal
	var start, end string
	var categoryID sql.NullInt64
	err := row.Scan(&g.ID, &g.UserID, &g.Type, &g.TargetValue.Cents,
		&start, &end, &g.Description, &categoryID)
	if err != nil {
		return core.Goal{}, err
	}
	if g.StartDate, err = core.ParseDate(start); err != nil {
		return core.Goal{}, err
	}
	if g.EndDate, err = core.ParseDate(end); err != nil {
		return core.Goal{}, err
	}
	if categoryID.Valid {
		g.CategoryID = &categoryID.Int64
	}
	return g, nil
}

func (q *Queries) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO goals (user_id, type, target_value_cents, start_date, end_date, description, category_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.UserID, g.Type, g.TargetValue.Cents, g.StartDate.String(), g.EndDate.String(),
		g.Description, nullableID(g.CategoryID))
	if err != nil {
		return core.Goal{}, fmt.Errorf("insert goal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Goal{}, fmt.Errorf("goal id: %w", err)
	}
	g.ID = id
	return g, nil
}

func (q *Queries) GetGoal(ctx context.Context, userID, id int64) (core.Goal, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+goalColumns+` FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, fmt.Errorf("goal %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

// ListGoals returns the user's goals ordered by start date ascending.
func (q *Queries) ListGoals(ctx context.Context, userID int64) ([]core.Goal, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+goalColumns+` FROM goals WHERE user_id = ? ORDER BY start_date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (q *Queries) UpdateGoal(ctx context.Context, g core.Goal) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE goals SET type = ?, target_value_cents = ?, start_date = ?, end_date = ?,
			description = ?, category_id = ?
		WHERE id = ? AND user_id = ?`,
		g.Type, g.TargetValue.Cents, g.StartDate.String(), g.EndDate.String(),
		g.Description, nullableID(g.CategoryID), g.ID, g.UserID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return requireAffected(res, "goal", g.ID)
}

func (q *Queries) DeleteGoal(ctx context.Context, userID, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return requireAffected(res, "goal", id)
}

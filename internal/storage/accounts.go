package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finledger/internal/core"
)

const accountColumns = `id, user_id, name, type, color, icon,
	initial_balance_cents, current_balance_cents, is_active`

func scanAccount(row interface{ Scan(...any) error }) (core.Account, error) {
	var a core.Account
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Color, &a.Icon,
		&a.InitialBalance.Cents, &a.CurrentBalance.Cents, &a.IsActive)
	return a, err
}

// CreateAccount inserts the account with its current balance seeded from
// the initial balance.
func (q *Queries) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO accounts (user_id, name, type, color, icon,
			initial_balance_cents, current_balance_cents, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.UserID, a.Name, a.Type, a.Color, a.Icon,
		a.InitialBalance.Cents, a.InitialBalance.Cents, a.IsActive)
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Account{}, fmt.Errorf("account id: %w", err)
	}
	a.ID = id
	a.CurrentBalance = a.InitialBalance
	return a, nil
}

func (q *Queries) GetAccount(ctx context.Context, userID, id int64) (core.Account, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE id = ? AND user_id = ?`, id, userID)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, fmt.Errorf("account %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (q *Queries) ListAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// UpdateAccount persists the mutable account fields, including balances.
func (q *Queries) UpdateAccount(ctx context.Context, a core.Account) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE accounts SET name = ?, type = ?, color = ?, icon = ?,
			initial_balance_cents = ?, current_balance_cents = ?, is_active = ?
		WHERE id = ? AND user_id = ?`,
		a.Name, a.Type, a.Color, a.Icon,
		a.InitialBalance.Cents, a.CurrentBalance.Cents, a.IsActive,
		a.ID, a.UserID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return requireAffected(res, "account", a.ID)
}

func (q *Queries) DeleteAccount(ctx context.Context, userID, id int64) error {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return requireAffected(res, "account", id)
}

// ApplyBalanceDelta is the balance ledger primitive. The arithmetic happens
// in the UPDATE itself, inside the caller's transaction, so two concurrent
// writers on the same account serialize instead of losing an update.
func (q *Queries) ApplyBalanceDelta(ctx context.Context, userID, accountID int64, delta core.Money) error {
	if delta.IsZero() {
		return nil
	}
	res, err := q.db.ExecContext(ctx, `
		UPDATE accounts SET current_balance_cents = current_balance_cents + ?
		WHERE id = ? AND user_id = ?`,
		delta.Cents, accountID, userID)
	if err != nil {
		return fmt.Errorf("apply balance delta: %w", err)
	}
	return requireAffected(res, "account", accountID)
}

// SumInitialBalances totals the initial balances of every account the user
// owns.
func (q *Queries) SumInitialBalances(ctx context.Context, userID int64) (core.Money, error) {
	var cents int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(initial_balance_cents), 0) FROM accounts WHERE user_id = ?`,
		userID).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum initial balances: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

func (q *Queries) CountTransactionsByAccount(ctx context.Context, accountID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transactions WHERE account_id = ? OR to_account_id = ?`,
		accountID, accountID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions by account: %w", err)
	}
	return n, nil
}

func requireAffected(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, core.ErrNotFound)
	}
	return nil
}

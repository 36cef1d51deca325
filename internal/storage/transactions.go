package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"finledger/internal/core"
)

const transactionColumns = `id, user_id, account_id, kind, amount_cents, date,
	description, category_id, to_account_id, transfer_group, direction`

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var t core.Transaction
	var date string
	var categoryID, toAccountID sql.NullInt64
	var group, direction sql.NullString
	err := row.Scan(&t.ID, &t.UserID, &t.AccountID, &t.Kind, &t.Amount.Cents, &date,
		&t.Description, &categoryID, &toAccountID, &group, &direction)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Date, err = core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, err
	}
	if categoryID.Valid {
		t.CategoryID = &categoryID.Int64
	}
	if toAccountID.Valid {
		t.ToAccountID = &toAccountID.Int64
	}
	t.TransferGroup = group.String
	t.Direction = core.TransferDirection(direction.String)
	return t, nil
}

func (q *Queries) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO transactions (user_id, account_id, kind, amount_cents, date,
			description, category_id, to_account_id, transfer_group, direction)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.AccountID, t.Kind, t.Amount.Cents, t.Date.String(),
		t.Description, nullableID(t.CategoryID), nullableID(t.ToAccountID),
		nullableString(t.TransferGroup), nullableString(string(t.Direction)))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction id: %w", err)
	}
	t.ID = id
	return t, nil
}

func (q *Queries) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (q *Queries) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE transactions SET account_id = ?, amount_cents = ?, date = ?,
			description = ?, category_id = ?, to_account_id = ?
		WHERE id = ? AND user_id = ?`,
		t.AccountID, t.Amount.Cents, t.Date.String(), t.Description,
		nullableID(t.CategoryID), nullableID(t.ToAccountID), t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireAffected(res, "transaction", t.ID)
}

func (q *Queries) DeleteTransaction(ctx context.Context, userID, id int64) error {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireAffected(res, "transaction", id)
}

func (q *Queries) ListTransactions(ctx context.Context, userID int64, accountID *int64, from, to core.Date) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE user_id = ? AND date BETWEEN ? AND ?`
	args := []any{userID, from.String(), to.String()}
	if accountID != nil {
		query += ` AND account_id = ?`
		args = append(args, *accountID)
	}
	query += ` ORDER BY date, id`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// GetTransferLegs loads the two rows of one logical transfer. A missing
// pair row is an invariant violation, not a recoverable state.
func (q *Queries) GetTransferLegs(ctx context.Context, userID int64, group string) (outgoing, incoming core.Transaction, err error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE user_id = ? AND transfer_group = ? AND kind = 'transfer'`, userID, group)
	if err != nil {
		return outgoing, incoming, fmt.Errorf("get transfer legs: %w", err)
	}
	defer rows.Close()

	var haveOut, haveIn bool
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return outgoing, incoming, fmt.Errorf("scan transfer leg: %w", err)
		}
		switch t.Direction {
		case core.Outgoing:
			outgoing, haveOut = t, true
		case core.Incoming:
			incoming, haveIn = t, true
		}
	}
	if err := rows.Err(); err != nil {
		return outgoing, incoming, err
	}
	if !haveOut && !haveIn {
		return outgoing, incoming, fmt.Errorf("transfer %s: %w", group, core.ErrNotFound)
	}
	if !haveOut || !haveIn {
		return outgoing, incoming, fmt.Errorf("transfer %s: %w", group, core.ErrIncompleteTransfer)
	}
	return outgoing, incoming, nil
}

// SignedStandardSumBefore sums the signed effect of every categorized
// standard transaction dated strictly before the given date.
func (q *Queries) SignedStandardSumBefore(ctx context.Context, userID int64, accountID *int64, before core.Date) (core.Money, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN c.type = 'INCOME' THEN t.amount_cents ELSE -t.amount_cents END), 0)
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = ? AND t.kind = 'standard' AND t.date < ?`
	args := []any{userID, before.String()}
	if accountID != nil {
		query += ` AND t.account_id = ?`
		args = append(args, *accountID)
	}
	var cents int64
	if err := q.db.QueryRowContext(ctx, query, args...).Scan(&cents); err != nil {
		return core.Money{}, fmt.Errorf("signed standard sum before: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// IncomeExpenseTotals returns the income and expense magnitudes of
// categorized standard transactions within [from, to].
func (q *Queries) IncomeExpenseTotals(ctx context.Context, userID int64, accountID *int64, from, to core.Date) (income, expenses core.Money, err error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN c.type = 'INCOME' THEN t.amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN c.type = 'EXPENSE' THEN t.amount_cents ELSE 0 END), 0)
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = ? AND t.kind = 'standard' AND t.date BETWEEN ? AND ?`
	args := []any{userID, from.String(), to.String()}
	if accountID != nil {
		query += ` AND t.account_id = ?`
		args = append(args, *accountID)
	}
	if err = q.db.QueryRowContext(ctx, query, args...).Scan(&income.Cents, &expenses.Cents); err != nil {
		return income, expenses, fmt.Errorf("income/expense totals: %w", err)
	}
	return income, expenses, nil
}

// CategoryTotals groups categorized standard transactions within [from, to]
// by category, descending by total.
func (q *Queries) CategoryTotals(ctx context.Context, userID int64, accountID *int64, from, to core.Date) ([]core.CategoryTotal, error) {
	query := `
		SELECT c.id, c.name, c.type, SUM(t.amount_cents), COUNT(*)
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = ? AND t.kind = 'standard' AND t.date BETWEEN ? AND ?`
	args := []any{userID, from.String(), to.String()}
	if accountID != nil {
		query += ` AND t.account_id = ?`
		args = append(args, *accountID)
	}
	query += ` GROUP BY c.id, c.name, c.type ORDER BY SUM(t.amount_cents) DESC`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	defer rows.Close()

	var totals []core.CategoryTotal
	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.CategoryID, &ct.CategoryName, &ct.CategoryType,
			&ct.Total.Cents, &ct.TransactionCount); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		totals = append(totals, ct)
	}
	return totals, rows.Err()
}

// SumStandardAmountInCategories sums standard transaction magnitudes within
// [from, to] whose category is one of the given ids.
func (q *Queries) SumStandardAmountInCategories(ctx context.Context, userID int64, categoryIDs []int64, from, to core.Date) (core.Money, error) {
	if len(categoryIDs) == 0 {
		return core.Money{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(categoryIDs)), ",")
	args := []any{userID, from.String(), to.String()}
	for _, id := range categoryIDs {
		args = append(args, id)
	}
	var cents int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
		WHERE user_id = ? AND kind = 'standard' AND date BETWEEN ? AND ?
			AND category_id IN (`+placeholders+`)`, args...).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum amount in categories: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// NetTransfersBefore nets the transfer legs on one account dated strictly
// before the given date: incoming legs add, outgoing legs subtract.
func (q *Queries) NetTransfersBefore(ctx context.Context, userID, accountID int64, before core.Date) (core.Money, error) {
	var cents int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN direction = 'incoming' THEN amount_cents ELSE -amount_cents END), 0)
		FROM transactions
		WHERE user_id = ? AND account_id = ? AND kind = 'transfer' AND date < ?`,
		userID, accountID, before.String()).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("net transfers before: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// NetTransfersBetween nets the transfer legs on one account within [from, to].
func (q *Queries) NetTransfersBetween(ctx context.Context, userID, accountID int64, from, to core.Date) (core.Money, error) {
	var cents int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN direction = 'incoming' THEN amount_cents ELSE -amount_cents END), 0)
		FROM transactions
		WHERE user_id = ? AND account_id = ? AND kind = 'transfer' AND date BETWEEN ? AND ?`,
		userID, accountID, from.String(), to.String()).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("net transfers between: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// MonthAgg is one month-bucketed income/expense aggregate row.
type MonthAgg struct {
	Year     int
	Month    int
	Income   core.Money
	Expenses core.Money
}

// AccountMonthAgg is a MonthAgg broken out per account.
type AccountMonthAgg struct {
	AccountID   int64
	AccountName string
	MonthAgg
}

// MonthNet is one month-bucketed net-transfer row.
type MonthNet struct {
	Year  int
	Month int
	Net   core.Money
}

// AccountMonthNet is a MonthNet broken out per account.
type AccountMonthNet struct {
	AccountID int64
	MonthNet
}

// MonthlyStandardTotals buckets categorized standard transactions by
// calendar month. Months without rows are absent; the report layer
// gap-fills.
func (q *Queries) MonthlyStandardTotals(ctx context.Context, userID int64, accountID *int64, from, to core.Date) ([]MonthAgg, error) {
	query := `
		SELECT CAST(strftime('%Y', t.date) AS INTEGER), CAST(strftime('%m', t.date) AS INTEGER),
			COALESCE(SUM(CASE WHEN c.type = 'INCOME' THEN t.amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN c.type = 'EXPENSE' THEN t.amount_cents ELSE 0 END), 0)
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = ? AND t.kind = 'standard' AND t.date BETWEEN ? AND ?`
	args := []any{userID, from.String(), to.String()}
	if accountID != nil {
		query += ` AND t.account_id = ?`
		args = append(args, *accountID)
	}
	query += ` GROUP BY 1, 2 ORDER BY 1, 2`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("monthly standard totals: %w", err)
	}
	defer rows.Close()

	var aggs []MonthAgg
	for rows.Next() {
		var a MonthAgg
		if err := rows.Scan(&a.Year, &a.Month, &a.Income.Cents, &a.Expenses.Cents); err != nil {
			return nil, fmt.Errorf("scan month agg: %w", err)
		}
		aggs = append(aggs, a)
	}
	return aggs, rows.Err()
}

// MonthlyStandardTotalsByAccount is MonthlyStandardTotals grouped per
// account as well.
func (q *Queries) MonthlyStandardTotalsByAccount(ctx context.Context, userID int64, accountID *int64, from, to core.Date) ([]AccountMonthAgg, error) {
	query := `
		SELECT a.id, a.name,
			CAST(strftime('%Y', t.date) AS INTEGER), CAST(strftime('%m', t.date) AS INTEGER),
			COALESCE(SUM(CASE WHEN c.type = 'INCOME' THEN t.amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN c.type = 'EXPENSE' THEN t.amount_cents ELSE 0 END), 0)
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = ? AND t.kind = 'standard' AND t.date BETWEEN ? AND ?`
	args := []any{userID, from.String(), to.String()}
	if accountID != nil {
		query += ` AND a.id = ?`
		args = append(args, *accountID)
	}
	query += ` GROUP BY a.id, a.name, 3, 4 ORDER BY a.name, 3, 4`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("monthly totals by account: %w", err)
	}
	defer rows.Close()

	var aggs []AccountMonthAgg
	for rows.Next() {
		var a AccountMonthAgg
		if err := rows.Scan(&a.AccountID, &a.AccountName, &a.Year, &a.Month,
			&a.Income.Cents, &a.Expenses.Cents); err != nil {
			return nil, fmt.Errorf("scan account month agg: %w", err)
		}
		aggs = append(aggs, a)
	}
	return aggs, rows.Err()
}

// MonthlyNetTransfers buckets net transfer effects by calendar month.
func (q *Queries) MonthlyNetTransfers(ctx context.Context, userID, accountID int64, from, to core.Date) ([]MonthNet, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT CAST(strftime('%Y', date) AS INTEGER), CAST(strftime('%m', date) AS INTEGER),
			COALESCE(SUM(CASE WHEN direction = 'incoming' THEN amount_cents ELSE -amount_cents END), 0)
		FROM transactions
		WHERE user_id = ? AND account_id = ? AND kind = 'transfer' AND date BETWEEN ? AND ?
		GROUP BY 1, 2 ORDER BY 1, 2`,
		userID, accountID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("monthly net transfers: %w", err)
	}
	defer rows.Close()

	var nets []MonthNet
	for rows.Next() {
		var n MonthNet
		if err := rows.Scan(&n.Year, &n.Month, &n.Net.Cents); err != nil {
			return nil, fmt.Errorf("scan month net: %w", err)
		}
		nets = append(nets, n)
	}
	return nets, rows.Err()
}

// MonthlyNetTransfersByAccount is MonthlyNetTransfers for every account the
// user owns (or one account when accountID is set).
func (q *Queries) MonthlyNetTransfersByAccount(ctx context.Context, userID int64, accountID *int64, from, to core.Date) ([]AccountMonthNet, error) {
	query := `
		SELECT account_id, CAST(strftime('%Y', date) AS INTEGER), CAST(strftime('%m', date) AS INTEGER),
			COALESCE(SUM(CASE WHEN direction = 'incoming' THEN amount_cents ELSE -amount_cents END), 0)
		FROM transactions
		WHERE user_id = ? AND kind = 'transfer' AND date BETWEEN ? AND ?`
	args := []any{userID, from.String(), to.String()}
	if accountID != nil {
		query += ` AND account_id = ?`
		args = append(args, *accountID)
	}
	query += ` GROUP BY account_id, 2, 3 ORDER BY account_id, 2, 3`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("monthly net transfers by account: %w", err)
	}
	defer rows.Close()

	var nets []AccountMonthNet
	for rows.Next() {
		var n AccountMonthNet
		if err := rows.Scan(&n.AccountID, &n.Year, &n.Month, &n.Net.Cents); err != nil {
			return nil, fmt.Errorf("scan account month net: %w", err)
		}
		nets = append(nets, n)
	}
	return nets, rows.Err()
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

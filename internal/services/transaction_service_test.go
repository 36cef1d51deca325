package services

import (
	"context"
	"errors"
	"testing"

	"finledger/internal/core"
)

func newTransactionService(t *testing.T) (*TransactionService, *testServiceDeps) {
	t.Helper()
	deps := newServiceDeps(t)
	return NewTransactionService(deps.store, nil, deps.logger), deps
}

func TestTransactionCreateAppliesEffect(t *testing.T) {
	svc, deps := newTransactionService(t)
	ctx := context.Background()

	account := mustAccount(t, deps.store, "Checking", 10000)
	salary := mustCategory(t, deps.store, "Salary", core.Income, nil)
	food := mustCategory(t, deps.store, "Food", core.Expense, nil)

	if _, err := svc.Create(ctx, testUser, CreateTransactionInput{
		AccountID: account.ID, CategoryID: &salary.ID,
		Amount: cents(5000), Date: date(2025, 1, 10),
	}); err != nil {
		t.Fatalf("create income: %v", err)
	}
	if got := balanceOf(t, deps.store, account.ID); got != 15000 {
		t.Fatalf("after income: balance %d, want 15000", got)
	}

	if _, err := svc.Create(ctx, testUser, CreateTransactionInput{
		AccountID: account.ID, CategoryID: &food.ID,
		Amount: cents(3000), Date: date(2025, 1, 11),
	}); err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if got := balanceOf(t, deps.store, account.ID); got != 12000 {
		t.Fatalf("after expense: balance %d, want 12000", got)
	}
}

func TestTransactionUncategorizedHasNoEffect(t *testing.T) {
	svc, deps := newTransactionService(t)
	ctx := context.Background()

	account := mustAccount(t, deps.store, "Checking", 10000)
	txn, err := svc.Create(ctx, testUser, CreateTransactionInput{
		AccountID: account.ID,
		Amount:    cents(4200), Date: date(2025, 1, 10),
		Description: "uncategorized",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := balanceOf(t, deps.store, account.ID); got != 10000 {
		t.Fatalf("balance %d, want unchanged 10000", got)
	}

	// The row is still saved and readable.
	loaded, err := svc.Get(ctx, testUser, txn.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.CategoryID != nil || loaded.Amount.Cents != 4200 {
		t.Fatalf("unexpected row: %+v", loaded)
	}
}

func TestTransactionUpdateSameAccountDelta(t *testing.T) {
	svc, deps := newTransactionService(t)
	ctx := context.Background()

	account := mustAccount(t, deps.store, "Checking", 10000)
	food := mustCategory(t, deps.store, "Food", core.Expense, nil)

	txn, err := svc.Create(ctx, testUser, CreateTransactionInput{
		AccountID: account.ID, CategoryID: &food.ID,
		Amount: cents(3000), Date: date(2025, 1, 11),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newAmount := cents(4000)
	if _, err := svc.Update(ctx, testUser, txn.ID, TransactionPatch{Amount: &newAmount}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := balanceOf(t, deps.store, account.ID); got != 6000 {
		t.Fatalf("balance %d, want 6000", got)
	}
}

func TestTransactionUpdateCategoryFlipsSign(t *testing.T) {
	svc, deps := newTransactionService(t)
	ctx := context.Background()

	account := mustAccount(t, deps.store, "Checking", 10000)
	salary := mustCategory(t, deps.store, "Salary", core.Income, nil)
	food := mustCategory(t, deps.store, "Food", core.Expense, nil)

	txn, err := svc.Create(ctx, testUser, CreateTransactionInput{
		AccountID: account.ID, CategoryID: &food.ID,
		Amount: cents(2000), Date: date(2025, 1, 11),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// -2000 applied.
	if _, err := svc.Update(ctx, testUser, txn.ID, TransactionPatch{CategoryID: &salary.ID}); err != nil {
		t.Fatalf("update: %v", err)
	}
	// Effect flips from -2000 to +2000, a delta of +4000.
	if got := balanceOf(t, deps.store, account.ID); got != 12000 {
		t.Fatalf("balance %d, want 12000", got)
	}
}

func TestTransactionUpdateMovesAccount(t *testing.T) {
	svc, deps := newTransactionService(t)
	ctx := context.Background()

	a := mustAccount(t, deps.store, "A", 10000)
	b := mustAccount(t, deps.store, "B", 10000)
	food := mustCategory(t, deps.store, "Food", core.Expense, nil)

	txn, err := svc.Create(ctx, testUser, CreateTransactionInput{
		AccountID: a.ID, CategoryID: &food.ID,
		Amount: cents(2500), Date: date(2025, 1, 11),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Update(ctx, testUser, txn.ID, TransactionPatch{AccountID: &b.ID}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := balanceOf(t, deps.store, a.ID); got != 10000 {
		t.Fatalf("old account balance %d, want restored 10000", got)
	}
	if got := balanceOf(t, deps.store, b.ID); got != 7500 {
		t.Fatalf("new account balance %d, want 7500", got)
	}
}

func TestTransactionUpdateClearCategory(t *testing.T) {
	svc, deps := newTransactionService(t)
	ctx := context.Background()

	account := mustAccount(t, deps.store, "Checking", 10000)
	food := mustCategory(t, deps.store, "Food", core.Expense, nil)

	txn, err := svc.Create(ctx, testUser, CreateTransactionInput{
		AccountID: account.ID, CategoryID: &food.ID,
		Amount: cents(3000), Date: date(2025, 1, 11),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(ctx, testUser, txn.ID, TransactionPatch{ClearCategory: true})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.CategoryID != nil {
		t.Fatalf("expected category cleared")
	}
	if got := balanceOf(t, deps.store, account.ID); got != 10000 {
		t.Fatalf("balance %d, want effect reversed to 10000", got)
	}
}

func TestTransactionDeleteReversesEffect(t *testing.T) {
	svc, deps := newTransactionService(t)
	ctx := context.Background()

	account := mustAccount(t, deps.store, "Checking", 10000)
	salary := mustCategory(t, deps.store, "Salary", core.Income, nil)

	txn, err := svc.Create(ctx, testUser, CreateTransactionInput{
		AccountID: account.ID, CategoryID: &salary.ID,
		Amount: cents(5000), Date: date(2025, 1, 10),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, testUser, txn.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := balanceOf(t, deps.store, account.ID); got != 10000 {
		t.Fatalf("balance %d, want restored 10000", got)
	}
	if _, err := svc.Get(ctx, testUser, txn.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// The balance invariant holds after every step of a mutation sequence:
// current balance always equals initial plus the signed effects of the
// surviving rows.
func TestBalanceInvariantSequence(t *testing.T) {
	svc, deps := newTransactionService(t)
	ctx := context.Background()

	account := mustAccount(t, deps.store, "Checking", 10000)
	salary := mustCategory(t, deps.store, "Salary", core.Income, nil)
	food := mustCategory(t, deps.store, "Food", core.Expense, nil)

	checkInvariant := func(step string) {
		t.Helper()
		txns, err := svc.List(ctx, testUser, &account.ID, date(2000, 1, 1), date(2100, 1, 1))
		if err != nil {
			t.Fatalf("%s: list: %v", step, err)
		}
		sum := int64(10000)
		for _, txn := range txns {
			category, err := deps.store.GetCategory(ctx, testUser, *txn.CategoryID)
			if err != nil {
				t.Fatalf("%s: category: %v", step, err)
			}
			sum += core.StandardEffect(&category.Type, txn.Amount).Cents
		}
		if got := balanceOf(t, deps.store, account.ID); got != sum {
			t.Fatalf("%s: balance %d, expected %d from surviving rows", step, got, sum)
		}
	}

	income, err := svc.Create(ctx, testUser, CreateTransactionInput{
		AccountID: account.ID, CategoryID: &salary.ID, Amount: cents(5000), Date: date(2025, 1, 5)})
	if err != nil {
		t.Fatalf("create income: %v", err)
	}
	checkInvariant("after income")

	expense, err := svc.Create(ctx, testUser, CreateTransactionInput{
		AccountID: account.ID, CategoryID: &food.ID, Amount: cents(1500), Date: date(2025, 1, 6)})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	checkInvariant("after expense")

	bigger := cents(2500)
	if _, err := svc.Update(ctx, testUser, expense.ID, TransactionPatch{Amount: &bigger}); err != nil {
		t.Fatalf("update expense: %v", err)
	}
	checkInvariant("after update")

	if err := svc.Delete(ctx, testUser, income.ID); err != nil {
		t.Fatalf("delete income: %v", err)
	}
	checkInvariant("after delete")
}

func TestTransactionCreateRejectsBadInput(t *testing.T) {
	svc, deps := newTransactionService(t)
	ctx := context.Background()
	account := mustAccount(t, deps.store, "Checking", 0)

	if _, err := svc.Create(ctx, testUser, CreateTransactionInput{
		AccountID: account.ID, Amount: cents(0), Date: date(2025, 1, 1),
	}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}

	if _, err := svc.Create(ctx, testUser, CreateTransactionInput{
		AccountID: 9999, Amount: cents(100), Date: date(2025, 1, 1),
	}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found for unknown account, got %v", err)
	}
}

func TestTransactionUpdateRejectsTransferRows(t *testing.T) {
	svc, deps := newTransactionService(t)
	ctx := context.Background()

	a := mustAccount(t, deps.store, "A", 10000)
	b := mustAccount(t, deps.store, "B", 10000)
	transfers := NewTransferService(deps.store, nil, deps.logger)

	leg, err := transfers.Create(ctx, testUser, CreateTransferInput{
		FromAccountID: a.ID, ToAccountID: b.ID, Amount: cents(1000), Date: date(2025, 1, 1),
	})
	if err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	amount := cents(2000)
	if _, err := svc.Update(ctx, testUser, leg.ID, TransactionPatch{Amount: &amount}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found for transfer row, got %v", err)
	}
	if err := svc.Delete(ctx, testUser, leg.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found for transfer row, got %v", err)
	}
}

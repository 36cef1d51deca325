package services

import (
	"context"
	"errors"
	"testing"

	"finledger/internal/core"
)

func newAccountService(t *testing.T) (*AccountService, *testServiceDeps) {
	t.Helper()
	deps := newServiceDeps(t)
	return NewAccountService(deps.store, deps.logger), deps
}

func TestAccountCreateSeedsCurrentBalance(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()

	account, err := svc.Create(ctx, testUser, CreateAccountInput{
		Name: "Checking", Type: core.Checking, InitialBalance: cents(12345),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if account.CurrentBalance.Cents != 12345 {
		t.Fatalf("current balance %d, want seeded 12345", account.CurrentBalance.Cents)
	}
}

func TestAccountCreateRejectsBlankName(t *testing.T) {
	svc, _ := newAccountService(t)
	if _, err := svc.Create(context.Background(), testUser, CreateAccountInput{Name: "  "}); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected empty name error, got %v", err)
	}
}

func TestAccountUpdateRebasesInitialBalanceWhenEmpty(t *testing.T) {
	svc, deps := newAccountService(t)
	ctx := context.Background()

	account := mustAccount(t, deps.store, "Checking", 10000)

	newInitial := cents(15000)
	updated, err := svc.Update(ctx, testUser, account.ID, AccountPatch{InitialBalance: &newInitial})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.InitialBalance.Cents != 15000 {
		t.Fatalf("initial %d, want 15000", updated.InitialBalance.Cents)
	}
	if updated.CurrentBalance.Cents != 15000 {
		t.Fatalf("current %d, want rebased 15000", updated.CurrentBalance.Cents)
	}
}

func TestAccountInitialBalanceFrozenWithTransactions(t *testing.T) {
	svc, deps := newAccountService(t)
	ctx := context.Background()

	account := mustAccount(t, deps.store, "Checking", 10000)
	salary := mustCategory(t, deps.store, "Salary", core.Income, nil)

	txns := NewTransactionService(deps.store, nil, deps.logger)
	if _, err := txns.Create(ctx, testUser, CreateTransactionInput{
		AccountID: account.ID, CategoryID: &salary.ID, Amount: cents(5000), Date: date(2025, 1, 1),
	}); err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	newInitial := cents(99999)
	updated, err := svc.Update(ctx, testUser, account.ID, AccountPatch{InitialBalance: &newInitial})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.InitialBalance.Cents != 10000 {
		t.Fatalf("initial %d, want frozen 10000", updated.InitialBalance.Cents)
	}
	if updated.CurrentBalance.Cents != 15000 {
		t.Fatalf("current %d, want untouched 15000", updated.CurrentBalance.Cents)
	}
}

func TestAccountDeleteGuard(t *testing.T) {
	svc, deps := newAccountService(t)
	ctx := context.Background()

	account := mustAccount(t, deps.store, "Checking", 0)
	txns := NewTransactionService(deps.store, nil, deps.logger)
	txn, err := txns.Create(ctx, testUser, CreateTransactionInput{
		AccountID: account.ID, Amount: cents(100), Date: date(2025, 1, 1),
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	if err := svc.Delete(ctx, testUser, account.ID); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	if err := txns.Delete(ctx, testUser, txn.ID); err != nil {
		t.Fatalf("delete transaction: %v", err)
	}
	if err := svc.Delete(ctx, testUser, account.ID); err != nil {
		t.Fatalf("expected deletion after transactions removed, got %v", err)
	}
	if _, err := svc.Get(ctx, testUser, account.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAccountDeleteGuardCoversTransferDestination(t *testing.T) {
	svc, deps := newAccountService(t)
	ctx := context.Background()

	a := mustAccount(t, deps.store, "A", 10000)
	b := mustAccount(t, deps.store, "B", 0)

	transfers := NewTransferService(deps.store, nil, deps.logger)
	if _, err := transfers.Create(ctx, testUser, CreateTransferInput{
		FromAccountID: a.ID, ToAccountID: b.ID, Amount: cents(100), Date: date(2025, 1, 1),
	}); err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	if err := svc.Delete(ctx, testUser, b.ID); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected conflict for transfer destination, got %v", err)
	}
}

func TestAccountOwnershipScoping(t *testing.T) {
	svc, deps := newAccountService(t)
	ctx := context.Background()

	account := mustAccount(t, deps.store, "Checking", 0)
	const otherUser int64 = 2
	if _, err := svc.Get(ctx, otherUser, account.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found across users, got %v", err)
	}
}

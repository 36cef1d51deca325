package services

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"finledger/internal/core"
	"finledger/internal/log"
	"finledger/internal/storage"
)

const testUser int64 = 1

func newTestLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

type testServiceDeps struct {
	store  *storage.Store
	logger *log.Logger
}

func newServiceDeps(t *testing.T) *testServiceDeps {
	t.Helper()
	return &testServiceDeps{store: newTestStore(t), logger: newTestLogger()}
}

func mustAccount(t *testing.T, store *storage.Store, name string, initialCents int64) core.Account {
	t.Helper()
	account, err := store.CreateAccount(context.Background(), core.Account{
		UserID:         testUser,
		Name:           name,
		Type:           core.Checking,
		InitialBalance: core.Money{Cents: initialCents},
		IsActive:       true,
	})
	if err != nil {
		t.Fatalf("create account %q: %v", name, err)
	}
	return account
}

func mustCategory(t *testing.T, store *storage.Store, name string, categoryType core.CategoryType, parentID *int64) core.Category {
	t.Helper()
	category, err := store.CreateCategory(context.Background(), core.Category{
		UserID:   testUser,
		Name:     name,
		Type:     categoryType,
		ParentID: parentID,
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("create category %q: %v", name, err)
	}
	return category
}

func balanceOf(t *testing.T, store *storage.Store, accountID int64) int64 {
	t.Helper()
	account, err := store.GetAccount(context.Background(), testUser, accountID)
	if err != nil {
		t.Fatalf("get account %d: %v", accountID, err)
	}
	return account.CurrentBalance.Cents
}

func cents(c int64) core.Money { return core.Money{Cents: c} }

func date(year, month, day int) core.Date { return core.NewDate(year, month, day) }

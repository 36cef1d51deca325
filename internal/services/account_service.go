// Package services implements the ledger's operations on top of the SQLite
// store: account and category management, the balance ledger, the transfer
// coordinator, goal accumulation and reporting.
package services

import (
	"context"
	"fmt"

	"finledger/internal/core"
	"finledger/internal/log"
	"finledger/internal/storage"
)

// AccountService manages accounts. Balances are only ever touched through
// the ledger primitives; this service seeds and guards them.
type AccountService struct {
	store *storage.Store
	log   *log.Logger
}

func NewAccountService(store *storage.Store, logger *log.Logger) *AccountService {
	return &AccountService{store: store, log: logger.WithComponent(log.ComponentAccount)}
}

type CreateAccountInput struct {
	Name           string
	Type           core.AccountType
	Color          string
	Icon           string
	InitialBalance core.Money
}

func (s *AccountService) Create(ctx context.Context, userID int64, in CreateAccountInput) (core.Account, error) {
	account := core.Account{
		UserID:         userID,
		Name:           in.Name,
		Type:           in.Type,
		Color:          in.Color,
		Icon:           in.Icon,
		InitialBalance: in.InitialBalance,
		IsActive:       true,
	}
	if err := account.Validate(); err != nil {
		return core.Account{}, err
	}

	created, err := s.store.CreateAccount(ctx, account)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}

	s.log.InfoContext(ctx, "Account created",
		log.FieldAccountID, created.ID,
		log.FieldUserID, userID)
	return created, nil
}

func (s *AccountService) Get(ctx context.Context, userID, id int64) (core.Account, error) {
	return s.store.GetAccount(ctx, userID, id)
}

func (s *AccountService) List(ctx context.Context, userID int64) ([]core.Account, error) {
	return s.store.ListAccounts(ctx, userID)
}

type AccountPatch struct {
	Name           *string
	Type           *core.AccountType
	Color          *string
	Icon           *string
	InitialBalance *core.Money
	IsActive       *bool
}

// Update edits account fields. Once the account has transactions the
// initial balance is frozen: a patched value is silently dropped, matching
// the create-time seed semantics. While the account has no transactions an
// initial-balance edit rebases the current balance by the same difference.
func (s *AccountService) Update(ctx context.Context, userID, id int64, patch AccountPatch) (core.Account, error) {
	var updated core.Account
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		account, err := q.GetAccount(ctx, userID, id)
		if err != nil {
			return err
		}

		if patch.Name != nil {
			account.Name = *patch.Name
		}
		if patch.Type != nil {
			account.Type = *patch.Type
		}
		if patch.Color != nil {
			account.Color = *patch.Color
		}
		if patch.Icon != nil {
			account.Icon = *patch.Icon
		}
		if patch.IsActive != nil {
			account.IsActive = *patch.IsActive
		}

		if patch.InitialBalance != nil {
			count, err := q.CountTransactionsByAccount(ctx, id)
			if err != nil {
				return err
			}
			if count == 0 {
				diff := patch.InitialBalance.Sub(account.InitialBalance)
				account.InitialBalance = *patch.InitialBalance
				account.CurrentBalance = account.CurrentBalance.Add(diff)
			}
		}

		if err := account.Validate(); err != nil {
			return err
		}
		if err := q.UpdateAccount(ctx, account); err != nil {
			return err
		}
		updated = account
		return nil
	})
	if err != nil {
		return core.Account{}, fmt.Errorf("update account: %w", err)
	}

	s.log.InfoContext(ctx, "Account updated", log.FieldAccountID, id, log.FieldUserID, userID)
	return updated, nil
}

// Delete removes an account. Accounts with transactions cannot be deleted.
func (s *AccountService) Delete(ctx context.Context, userID, id int64) error {
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetAccount(ctx, userID, id); err != nil {
			return err
		}
		count, err := q.CountTransactionsByAccount(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return core.ErrAccountHasTransactions
		}
		return q.DeleteAccount(ctx, userID, id)
	})
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	s.log.InfoContext(ctx, "Account deleted", log.FieldAccountID, id, log.FieldUserID, userID)
	return nil
}

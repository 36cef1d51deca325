package services

import (
	"context"
	"fmt"

	"finledger/internal/amqp"
	"finledger/internal/core"
	"finledger/internal/log"
	"finledger/internal/storage"
)

// TransactionService owns the balance-consistency invariant for standard
// transactions: every mutation applies its signed effect to the owning
// account inside the same SQL transaction as the row write, so the current
// balance always equals the initial balance plus the sum of surviving
// effects.
type TransactionService struct {
	store  *storage.Store
	events EventPublisher
	log    *log.Logger
}

func NewTransactionService(store *storage.Store, events EventPublisher, logger *log.Logger) *TransactionService {
	return &TransactionService{
		store:  store,
		events: events,
		log:    logger.WithComponent(log.ComponentLedger),
	}
}

type CreateTransactionInput struct {
	AccountID   int64
	CategoryID  *int64
	Amount      core.Money
	Date        core.Date
	Description string
}

// Create saves a standard transaction and applies its effect to the owning
// account. An uncategorized transaction is saved with zero effect.
func (s *TransactionService) Create(ctx context.Context, userID int64, in CreateTransactionInput) (core.Transaction, error) {
	if err := in.Amount.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := in.Date.Validate(); err != nil {
		return core.Transaction{}, err
	}

	var created core.Transaction
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetAccount(ctx, userID, in.AccountID); err != nil {
			return err
		}
		categoryType, err := categoryTypeOf(ctx, q, userID, in.CategoryID)
		if err != nil {
			return err
		}

		txn := core.Transaction{
			UserID:      userID,
			AccountID:   in.AccountID,
			Kind:        core.StandardKind,
			Amount:      in.Amount,
			Date:        in.Date,
			Description: in.Description,
			CategoryID:  in.CategoryID,
		}
		created, err = q.InsertTransaction(ctx, txn)
		if err != nil {
			return err
		}

		effect := core.StandardEffect(categoryType, in.Amount)
		return q.ApplyBalanceDelta(ctx, userID, in.AccountID, effect)
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	s.log.InfoContext(ctx, "Transaction created",
		log.FieldTxnID, created.ID,
		log.FieldAccountID, created.AccountID,
		log.FieldAmountCents, created.Amount.Cents,
		log.FieldUserID, userID)
	publishMutation(ctx, s.events, s.log, amqp.EntityTransaction, created.ID, amqp.ActionCreate, userID)
	return created, nil
}

type TransactionPatch struct {
	AccountID     *int64
	CategoryID    *int64
	ClearCategory bool
	Amount        *core.Money
	Date          *core.Date
	Description   *string
}

// Update edits a standard transaction and reconciles balances. When the
// account is unchanged a single net delta is applied; when it changed the
// old effect is reversed on the old account and the new effect applied to
// the new one.
func (s *TransactionService) Update(ctx context.Context, userID, id int64, patch TransactionPatch) (core.Transaction, error) {
	var updated core.Transaction
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		original, err := q.GetTransaction(ctx, userID, id)
		if err != nil {
			return err
		}
		if original.Kind != core.StandardKind {
			return fmt.Errorf("standard transaction %d: %w", id, core.ErrNotFound)
		}

		oldType, err := categoryTypeOf(ctx, q, userID, original.CategoryID)
		if err != nil {
			return err
		}
		oldEffect := core.StandardEffect(oldType, original.Amount)

		current := original
		if patch.AccountID != nil && *patch.AccountID != original.AccountID {
			if _, err := q.GetAccount(ctx, userID, *patch.AccountID); err != nil {
				return err
			}
			current.AccountID = *patch.AccountID
		}
		switch {
		case patch.ClearCategory:
			current.CategoryID = nil
		case patch.CategoryID != nil:
			current.CategoryID = patch.CategoryID
		}
		if patch.Amount != nil {
			current.Amount = *patch.Amount
		}
		if patch.Date != nil {
			current.Date = *patch.Date
		}
		if patch.Description != nil {
			current.Description = *patch.Description
		}
		if err := current.Amount.Validate(); err != nil {
			return err
		}

		newType, err := categoryTypeOf(ctx, q, userID, current.CategoryID)
		if err != nil {
			return err
		}
		newEffect := core.StandardEffect(newType, current.Amount)

		if err := q.UpdateTransaction(ctx, current); err != nil {
			return err
		}

		if current.AccountID == original.AccountID {
			delta := newEffect.Sub(oldEffect)
			if err := q.ApplyBalanceDelta(ctx, userID, current.AccountID, delta); err != nil {
				return err
			}
		} else {
			if err := q.ApplyBalanceDelta(ctx, userID, original.AccountID, oldEffect.Neg()); err != nil {
				return err
			}
			if err := q.ApplyBalanceDelta(ctx, userID, current.AccountID, newEffect); err != nil {
				return err
			}
		}

		updated = current
		return nil
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	s.log.InfoContext(ctx, "Transaction updated",
		log.FieldTxnID, id,
		log.FieldAccountID, updated.AccountID,
		log.FieldUserID, userID)
	publishMutation(ctx, s.events, s.log, amqp.EntityTransaction, id, amqp.ActionUpdate, userID)
	return updated, nil
}

// Delete reverses the transaction's effect on its account and removes the
// row.
func (s *TransactionService) Delete(ctx context.Context, userID, id int64) error {
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		txn, err := q.GetTransaction(ctx, userID, id)
		if err != nil {
			return err
		}
		if txn.Kind != core.StandardKind {
			return fmt.Errorf("standard transaction %d: %w", id, core.ErrNotFound)
		}

		categoryType, err := categoryTypeOf(ctx, q, userID, txn.CategoryID)
		if err != nil {
			return err
		}
		effect := core.StandardEffect(categoryType, txn.Amount)

		if err := q.ApplyBalanceDelta(ctx, userID, txn.AccountID, effect.Neg()); err != nil {
			return err
		}
		return q.DeleteTransaction(ctx, userID, id)
	})
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.log.InfoContext(ctx, "Transaction deleted", log.FieldTxnID, id, log.FieldUserID, userID)
	publishMutation(ctx, s.events, s.log, amqp.EntityTransaction, id, amqp.ActionDelete, userID)
	return nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, userID, id)
}

func (s *TransactionService) List(ctx context.Context, userID int64, accountID *int64, from, to core.Date) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, userID, accountID, from, to)
}

func categoryTypeOf(ctx context.Context, q *storage.Queries, userID int64, categoryID *int64) (*core.CategoryType, error) {
	if categoryID == nil {
		return nil, nil
	}
	category, err := q.GetCategory(ctx, userID, *categoryID)
	if err != nil {
		return nil, err
	}
	return &category.Type, nil
}

package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"finledger/internal/amqp"
	"finledger/internal/core"
	"finledger/internal/log"
	"finledger/internal/storage"
)

// TransferService represents one logical transfer as exactly two linked
// rows sharing a transfer group id: an outgoing leg on the source account
// and an incoming leg on the destination. Both rows and both balance
// deltas commit in one SQL transaction; legs are read before any delta is
// applied so deltas are computed against a consistent snapshot.
type TransferService struct {
	store  *storage.Store
	events EventPublisher
	log    *log.Logger
}

func NewTransferService(store *storage.Store, events EventPublisher, logger *log.Logger) *TransferService {
	return &TransferService{
		store:  store,
		events: events,
		log:    logger.WithComponent(log.ComponentTransfer),
	}
}

type CreateTransferInput struct {
	FromAccountID int64
	ToAccountID   int64
	Amount        core.Money
	Date          core.Date
	Description   string
}

// Create saves both legs and moves the amount between the accounts. The
// outgoing leg is returned as the transfer's canonical handle.
func (s *TransferService) Create(ctx context.Context, userID int64, in CreateTransferInput) (core.Transaction, error) {
	if in.FromAccountID == in.ToAccountID {
		return core.Transaction{}, core.ErrSameAccount
	}
	if err := in.Amount.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := in.Date.Validate(); err != nil {
		return core.Transaction{}, err
	}

	var outgoing core.Transaction
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetAccount(ctx, userID, in.FromAccountID); err != nil {
			return err
		}
		if _, err := q.GetAccount(ctx, userID, in.ToAccountID); err != nil {
			return err
		}

		group := uuid.NewString()
		var err error
		outgoing, err = q.InsertTransaction(ctx, transferLeg(userID, group, core.Outgoing,
			in.FromAccountID, in.ToAccountID, in.Amount, in.Date, in.Description))
		if err != nil {
			return err
		}
		if _, err = q.InsertTransaction(ctx, transferLeg(userID, group, core.Incoming,
			in.ToAccountID, in.FromAccountID, in.Amount, in.Date, in.Description)); err != nil {
			return err
		}

		if err := q.ApplyBalanceDelta(ctx, userID, in.FromAccountID, in.Amount.Neg()); err != nil {
			return err
		}
		return q.ApplyBalanceDelta(ctx, userID, in.ToAccountID, in.Amount)
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transfer: %w", err)
	}

	s.log.InfoContext(ctx, "Transfer created",
		log.FieldTxnID, outgoing.ID,
		log.FieldGroupID, outgoing.TransferGroup,
		log.FieldAccountID, in.FromAccountID,
		log.FieldToAccountID, in.ToAccountID,
		log.FieldAmountCents, in.Amount.Cents,
		log.FieldUserID, userID)
	publishMutation(ctx, s.events, s.log, amqp.EntityTransfer, outgoing.ID, amqp.ActionCreate, userID)
	return outgoing, nil
}

type TransferPatch struct {
	FromAccountID *int64
	ToAccountID   *int64
	Amount        *core.Money
	Date          *core.Date
	Description   *string
}

// Update edits both legs of a transfer, keeping them mirrored. When
// neither account changed the net amount difference moves once; when an
// account changed the old pair's effect is fully reversed and the new
// pair's effect fully applied.
func (s *TransferService) Update(ctx context.Context, userID, id int64, patch TransferPatch) (core.Transaction, error) {
	var result core.Transaction
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		outgoing, incoming, err := s.loadLegs(ctx, q, userID, id)
		if err != nil {
			return err
		}

		oldFrom := outgoing.AccountID
		oldTo := *outgoing.ToAccountID
		oldAmount := outgoing.Amount

		newFrom := oldFrom
		if patch.FromAccountID != nil {
			newFrom = *patch.FromAccountID
		}
		newTo := oldTo
		if patch.ToAccountID != nil {
			newTo = *patch.ToAccountID
		}
		newAmount := oldAmount
		if patch.Amount != nil {
			newAmount = *patch.Amount
		}
		newDate := outgoing.Date
		if patch.Date != nil {
			newDate = *patch.Date
		}
		base := core.StripTransferTag(outgoing.Description)
		if patch.Description != nil {
			base = *patch.Description
		}

		if newFrom == newTo {
			return core.ErrSameAccount
		}
		if err := newAmount.Validate(); err != nil {
			return err
		}
		if newFrom != oldFrom {
			if _, err := q.GetAccount(ctx, userID, newFrom); err != nil {
				return err
			}
		}
		if newTo != oldTo {
			if _, err := q.GetAccount(ctx, userID, newTo); err != nil {
				return err
			}
		}

		if newFrom == oldFrom && newTo == oldTo {
			delta := newAmount.Sub(oldAmount)
			if !delta.IsZero() {
				if err := q.ApplyBalanceDelta(ctx, userID, oldFrom, delta.Neg()); err != nil {
					return err
				}
				if err := q.ApplyBalanceDelta(ctx, userID, oldTo, delta); err != nil {
					return err
				}
			}
		} else {
			// Revert the original pair's effect, then apply the new one.
			if err := q.ApplyBalanceDelta(ctx, userID, oldFrom, oldAmount); err != nil {
				return err
			}
			if err := q.ApplyBalanceDelta(ctx, userID, oldTo, oldAmount.Neg()); err != nil {
				return err
			}
			if err := q.ApplyBalanceDelta(ctx, userID, newFrom, newAmount.Neg()); err != nil {
				return err
			}
			if err := q.ApplyBalanceDelta(ctx, userID, newTo, newAmount); err != nil {
				return err
			}
		}

		outgoing.AccountID = newFrom
		outgoing.ToAccountID = &newTo
		outgoing.Amount = newAmount
		outgoing.Date = newDate
		outgoing.Description = core.TagTransferDescription(core.Outgoing, base)
		if err := q.UpdateTransaction(ctx, outgoing); err != nil {
			return err
		}

		incoming.AccountID = newTo
		incoming.ToAccountID = &newFrom
		incoming.Amount = newAmount
		incoming.Date = newDate
		incoming.Description = core.TagTransferDescription(core.Incoming, base)
		if err := q.UpdateTransaction(ctx, incoming); err != nil {
			return err
		}

		result = outgoing
		return nil
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transfer: %w", err)
	}

	s.log.InfoContext(ctx, "Transfer updated",
		log.FieldTxnID, result.ID,
		log.FieldGroupID, result.TransferGroup,
		log.FieldUserID, userID)
	publishMutation(ctx, s.events, s.log, amqp.EntityTransfer, result.ID, amqp.ActionUpdate, userID)
	return result, nil
}

// Remove reverses the transfer's net effect and deletes both legs.
func (s *TransferService) Remove(ctx context.Context, userID, id int64) error {
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		outgoing, incoming, err := s.loadLegs(ctx, q, userID, id)
		if err != nil {
			return err
		}

		if err := q.ApplyBalanceDelta(ctx, userID, outgoing.AccountID, outgoing.Amount); err != nil {
			return err
		}
		if err := q.ApplyBalanceDelta(ctx, userID, *outgoing.ToAccountID, outgoing.Amount.Neg()); err != nil {
			return err
		}

		if err := q.DeleteTransaction(ctx, userID, incoming.ID); err != nil {
			return err
		}
		return q.DeleteTransaction(ctx, userID, outgoing.ID)
	})
	if err != nil {
		return fmt.Errorf("remove transfer: %w", err)
	}

	s.log.InfoContext(ctx, "Transfer removed", log.FieldTxnID, id, log.FieldUserID, userID)
	publishMutation(ctx, s.events, s.log, amqp.EntityTransfer, id, amqp.ActionDelete, userID)
	return nil
}

// Get returns the outgoing leg of the transfer identified by either leg id.
func (s *TransferService) Get(ctx context.Context, userID, id int64) (core.Transaction, error) {
	outgoing, _, err := s.loadLegs(ctx, s.store.Queries, userID, id)
	if err != nil {
		return core.Transaction{}, err
	}
	return outgoing, nil
}

// loadLegs resolves both legs from either leg's row id. A transfer with a
// missing pair row is an invariant violation.
func (s *TransferService) loadLegs(ctx context.Context, q *storage.Queries, userID, id int64) (outgoing, incoming core.Transaction, err error) {
	txn, err := q.GetTransaction(ctx, userID, id)
	if err != nil {
		return outgoing, incoming, err
	}
	if txn.Kind != core.TransferKind || txn.TransferGroup == "" {
		return outgoing, incoming, fmt.Errorf("transfer %d: %w", id, core.ErrNotFound)
	}
	return q.GetTransferLegs(ctx, userID, txn.TransferGroup)
}

func transferLeg(userID int64, group string, direction core.TransferDirection, accountID, toAccountID int64, amount core.Money, date core.Date, base string) core.Transaction {
	return core.Transaction{
		UserID:        userID,
		AccountID:     accountID,
		Kind:          core.TransferKind,
		Amount:        amount,
		Date:          date,
		Description:   core.TagTransferDescription(direction, base),
		ToAccountID:   &toAccountID,
		TransferGroup: group,
		Direction:     direction,
	}
}

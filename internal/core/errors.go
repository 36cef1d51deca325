package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record does not exist or does not
	// belong to the calling user. It is always fatal to the operation.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is the base error for state-dependent rejections.
	ErrConflict = errors.New("conflict")

	// ErrIncompleteTransfer signals that a transfer's paired leg is missing.
	// This is an invariant violation, never silently repaired.
	ErrIncompleteTransfer = errors.New("transfer is incomplete")

	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidDateRange    = errors.New("start date must not be after end date")
	ErrEmptyName           = errors.New("empty name")
	ErrInvalidCategoryType = errors.New("invalid category type")
	ErrInvalidGoalType     = errors.New("invalid goal type")
	ErrSameAccount         = errors.New("source and destination accounts must differ")
)

var (
	ErrAccountHasTransactions  = fmt.Errorf("%w: account has associated transactions", ErrConflict)
	ErrCategoryHasTransactions = fmt.Errorf("%w: category has associated transactions", ErrConflict)
	ErrDefaultCategory         = fmt.Errorf("%w: default category cannot be modified", ErrConflict)
)

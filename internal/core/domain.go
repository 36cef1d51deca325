package core

import (
	"strings"
)

type (
	CategoryType      string
	AccountType       string
	TransactionKind   string
	TransferDirection string
)

const (
	Income  CategoryType = "INCOME"
	Expense CategoryType = "EXPENSE"
)

const (
	Checking   AccountType = "CHECKING"
	Savings    AccountType = "SAVINGS"
	CreditCard AccountType = "CREDIT_CARD"
	Investment AccountType = "INVESTMENT"
	Cash       AccountType = "CASH"
)

const (
	StandardKind TransactionKind = "standard"
	TransferKind TransactionKind = "transfer"
)

const (
	Outgoing TransferDirection = "outgoing"
	Incoming TransferDirection = "incoming"
)

// Account holds balances in cents. CurrentBalance is derived state: it is
// only ever mutated through the balance ledger, never written directly.
type Account struct {
	ID             int64
	UserID         int64
	Name           string
	Type           AccountType
	Color          string
	Icon           string
	InitialBalance Money
	CurrentBalance Money
	IsActive       bool
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// Category is a node in a per-user tree. Default categories are seeded by
// the system and cannot be edited or deleted.
type Category struct {
	ID        int64
	UserID    int64
	Name      string
	Type      CategoryType
	Icon      string
	ParentID  *int64
	IsDefault bool
	IsActive  bool
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.Type != Income && c.Type != Expense {
		return ErrInvalidCategoryType
	}
	return nil
}

// Transaction is the tagged union of the two transaction kinds. Standard
// rows carry CategoryID; transfer rows carry ToAccountID, TransferGroup and
// Direction. One logical transfer is exactly two rows sharing a group id.
type Transaction struct {
	ID          int64
	UserID      int64
	AccountID   int64
	Kind        TransactionKind
	Amount      Money
	Date        Date
	Description string

	// Standard only.
	CategoryID *int64

	// Transfer only.
	ToAccountID   *int64
	TransferGroup string
	Direction     TransferDirection
}

// StandardEffect is the signed balance effect of a standard transaction:
// positive for income, negative for expense, zero when uncategorized.
func StandardEffect(categoryType *CategoryType, amount Money) Money {
	if categoryType == nil {
		return Money{}
	}
	if *categoryType == Income {
		return amount
	}
	return amount.Neg()
}

// TransferEffect is the signed balance effect of one transfer leg on its
// own account.
func TransferEffect(direction TransferDirection, amount Money) Money {
	if direction == Incoming {
		return amount
	}
	return amount.Neg()
}

const (
	OutgoingTransferTag = "Outgoing Transfer"
	IncomingTransferTag = "Incoming Transfer"
)

// TagTransferDescription builds the display description of one leg.
func TagTransferDescription(direction TransferDirection, base string) string {
	tag := OutgoingTransferTag
	if direction == Incoming {
		tag = IncomingTransferTag
	}
	if base == "" {
		return tag
	}
	return tag + " - " + base
}

// StripTransferTag recovers the base description shared by both legs.
func StripTransferTag(description string) string {
	for _, tag := range []string{OutgoingTransferTag, IncomingTransferTag} {
		if description == tag {
			return ""
		}
		if strings.HasPrefix(description, tag+" - ") {
			return description[len(tag)+3:]
		}
	}
	return description
}

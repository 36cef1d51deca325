package services

import (
	"context"
	"errors"
	"testing"

	"finledger/internal/core"
)

func newTransferService(t *testing.T) (*TransferService, *testServiceDeps) {
	t.Helper()
	deps := newServiceDeps(t)
	return NewTransferService(deps.store, nil, deps.logger), deps
}

func TestTransferSymmetry(t *testing.T) {
	svc, deps := newTransferService(t)
	ctx := context.Background()

	a := mustAccount(t, deps.store, "A", 50000)
	b := mustAccount(t, deps.store, "B", 20000)

	outgoing, err := svc.Create(ctx, testUser, CreateTransferInput{
		FromAccountID: a.ID, ToAccountID: b.ID,
		Amount: cents(10000), Date: date(2025, 3, 1),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if got := balanceOf(t, deps.store, a.ID); got != 40000 {
		t.Fatalf("source balance %d, want 40000", got)
	}
	if got := balanceOf(t, deps.store, b.ID); got != 30000 {
		t.Fatalf("destination balance %d, want 30000", got)
	}

	// Exactly two linked rows.
	out, in, err := deps.store.GetTransferLegs(ctx, testUser, outgoing.TransferGroup)
	if err != nil {
		t.Fatalf("legs: %v", err)
	}
	if out.AccountID != a.ID || *out.ToAccountID != b.ID || out.Direction != core.Outgoing {
		t.Fatalf("outgoing leg wrong: %+v", out)
	}
	if in.AccountID != b.ID || *in.ToAccountID != a.ID || in.Direction != core.Incoming {
		t.Fatalf("incoming leg wrong: %+v", in)
	}
	if out.Amount != in.Amount || !out.Date.Equal(in.Date.Time) {
		t.Fatalf("legs not mirrored: %+v / %+v", out, in)
	}

	if err := svc.Remove(ctx, testUser, outgoing.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := balanceOf(t, deps.store, a.ID); got != 50000 {
		t.Fatalf("source not restored: %d", got)
	}
	if got := balanceOf(t, deps.store, b.ID); got != 20000 {
		t.Fatalf("destination not restored: %d", got)
	}
	if _, _, err := deps.store.GetTransferLegs(ctx, testUser, outgoing.TransferGroup); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected legs gone, got %v", err)
	}
}

func TestTransferDescriptionTagging(t *testing.T) {
	svc, deps := newTransferService(t)
	ctx := context.Background()

	a := mustAccount(t, deps.store, "A", 50000)
	b := mustAccount(t, deps.store, "B", 0)

	outgoing, err := svc.Create(ctx, testUser, CreateTransferInput{
		FromAccountID: a.ID, ToAccountID: b.ID,
		Amount: cents(100), Date: date(2025, 3, 1), Description: "rent",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	out, in, err := deps.store.GetTransferLegs(ctx, testUser, outgoing.TransferGroup)
	if err != nil {
		t.Fatalf("legs: %v", err)
	}
	if out.Description != "Outgoing Transfer - rent" {
		t.Fatalf("outgoing description %q", out.Description)
	}
	if in.Description != "Incoming Transfer - rent" {
		t.Fatalf("incoming description %q", in.Description)
	}
}

func TestTransferUpdateAmountSameAccounts(t *testing.T) {
	svc, deps := newTransferService(t)
	ctx := context.Background()

	a := mustAccount(t, deps.store, "A", 50000)
	b := mustAccount(t, deps.store, "B", 0)

	outgoing, err := svc.Create(ctx, testUser, CreateTransferInput{
		FromAccountID: a.ID, ToAccountID: b.ID,
		Amount: cents(10000), Date: date(2025, 3, 1),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newAmount := cents(15000)
	if _, err := svc.Update(ctx, testUser, outgoing.ID, TransferPatch{Amount: &newAmount}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := balanceOf(t, deps.store, a.ID); got != 35000 {
		t.Fatalf("source balance %d, want 35000", got)
	}
	if got := balanceOf(t, deps.store, b.ID); got != 15000 {
		t.Fatalf("destination balance %d, want 15000", got)
	}

	out, in, err := deps.store.GetTransferLegs(ctx, testUser, outgoing.TransferGroup)
	if err != nil {
		t.Fatalf("legs: %v", err)
	}
	if out.Amount.Cents != 15000 || in.Amount.Cents != 15000 {
		t.Fatalf("legs not updated: %d / %d", out.Amount.Cents, in.Amount.Cents)
	}
}

func TestTransferUpdateChangesDestination(t *testing.T) {
	svc, deps := newTransferService(t)
	ctx := context.Background()

	a := mustAccount(t, deps.store, "A", 50000)
	b := mustAccount(t, deps.store, "B", 0)
	c := mustAccount(t, deps.store, "C", 0)

	outgoing, err := svc.Create(ctx, testUser, CreateTransferInput{
		FromAccountID: a.ID, ToAccountID: b.ID,
		Amount: cents(10000), Date: date(2025, 3, 1),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newAmount := cents(20000)
	if _, err := svc.Update(ctx, testUser, outgoing.ID, TransferPatch{
		ToAccountID: &c.ID, Amount: &newAmount,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if got := balanceOf(t, deps.store, a.ID); got != 30000 {
		t.Fatalf("source balance %d, want 30000", got)
	}
	if got := balanceOf(t, deps.store, b.ID); got != 0 {
		t.Fatalf("old destination balance %d, want refunded 0", got)
	}
	if got := balanceOf(t, deps.store, c.ID); got != 20000 {
		t.Fatalf("new destination balance %d, want 20000", got)
	}

	out, in, err := deps.store.GetTransferLegs(ctx, testUser, outgoing.TransferGroup)
	if err != nil {
		t.Fatalf("legs: %v", err)
	}
	if *out.ToAccountID != c.ID || in.AccountID != c.ID {
		t.Fatalf("legs not rewired: %+v / %+v", out, in)
	}
}

func TestTransferUpdateKeepsBaseDescription(t *testing.T) {
	svc, deps := newTransferService(t)
	ctx := context.Background()

	a := mustAccount(t, deps.store, "A", 50000)
	b := mustAccount(t, deps.store, "B", 0)

	outgoing, err := svc.Create(ctx, testUser, CreateTransferInput{
		FromAccountID: a.ID, ToAccountID: b.ID,
		Amount: cents(100), Date: date(2025, 3, 1), Description: "savings move",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newDate := date(2025, 3, 2)
	if _, err := svc.Update(ctx, testUser, outgoing.ID, TransferPatch{Date: &newDate}); err != nil {
		t.Fatalf("update: %v", err)
	}
	out, in, err := deps.store.GetTransferLegs(ctx, testUser, outgoing.TransferGroup)
	if err != nil {
		t.Fatalf("legs: %v", err)
	}
	if out.Description != "Outgoing Transfer - savings move" || in.Description != "Incoming Transfer - savings move" {
		t.Fatalf("base description lost: %q / %q", out.Description, in.Description)
	}
	if out.Date.String() != "2025-03-02" || in.Date.String() != "2025-03-02" {
		t.Fatalf("dates not mirrored: %s / %s", out.Date, in.Date)
	}
}

func TestTransferUpdateAcceptsEitherLeg(t *testing.T) {
	svc, deps := newTransferService(t)
	ctx := context.Background()

	a := mustAccount(t, deps.store, "A", 50000)
	b := mustAccount(t, deps.store, "B", 0)

	outgoing, err := svc.Create(ctx, testUser, CreateTransferInput{
		FromAccountID: a.ID, ToAccountID: b.ID,
		Amount: cents(10000), Date: date(2025, 3, 1),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, incoming, err := deps.store.GetTransferLegs(ctx, testUser, outgoing.TransferGroup)
	if err != nil {
		t.Fatalf("legs: %v", err)
	}

	// Addressing the transfer by its incoming leg behaves identically.
	got, err := svc.Get(ctx, testUser, incoming.ID)
	if err != nil {
		t.Fatalf("get by incoming leg: %v", err)
	}
	if got.ID != outgoing.ID || got.Direction != core.Outgoing {
		t.Fatalf("expected canonical outgoing leg, got %+v", got)
	}

	newAmount := cents(5000)
	if _, err := svc.Update(ctx, testUser, incoming.ID, TransferPatch{Amount: &newAmount}); err != nil {
		t.Fatalf("update by incoming leg: %v", err)
	}
	if got := balanceOf(t, deps.store, a.ID); got != 45000 {
		t.Fatalf("source balance %d, want 45000", got)
	}
}

func TestTransferRejectsSameAccount(t *testing.T) {
	svc, deps := newTransferService(t)
	ctx := context.Background()
	a := mustAccount(t, deps.store, "A", 50000)

	if _, err := svc.Create(ctx, testUser, CreateTransferInput{
		FromAccountID: a.ID, ToAccountID: a.ID,
		Amount: cents(100), Date: date(2025, 3, 1),
	}); !errors.Is(err, core.ErrSameAccount) {
		t.Fatalf("expected same-account rejection, got %v", err)
	}
}

func TestTransferUpdateRejectsSameAccount(t *testing.T) {
	svc, deps := newTransferService(t)
	ctx := context.Background()

	a := mustAccount(t, deps.store, "A", 50000)
	b := mustAccount(t, deps.store, "B", 0)

	outgoing, err := svc.Create(ctx, testUser, CreateTransferInput{
		FromAccountID: a.ID, ToAccountID: b.ID,
		Amount: cents(100), Date: date(2025, 3, 1),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Update(ctx, testUser, outgoing.ID, TransferPatch{ToAccountID: &a.ID}); !errors.Is(err, core.ErrSameAccount) {
		t.Fatalf("expected same-account rejection, got %v", err)
	}
	// The failed update left balances untouched.
	if got := balanceOf(t, deps.store, a.ID); got != 49900 {
		t.Fatalf("source balance %d, want 49900", got)
	}
}

func TestTransferMissingLegIsInvariantViolation(t *testing.T) {
	svc, deps := newTransferService(t)
	ctx := context.Background()

	a := mustAccount(t, deps.store, "A", 50000)
	b := mustAccount(t, deps.store, "B", 0)

	outgoing, err := svc.Create(ctx, testUser, CreateTransferInput{
		FromAccountID: a.ID, ToAccountID: b.ID,
		Amount: cents(100), Date: date(2025, 3, 1),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, incoming, err := deps.store.GetTransferLegs(ctx, testUser, outgoing.TransferGroup)
	if err != nil {
		t.Fatalf("legs: %v", err)
	}

	// Corrupt the pair by removing the incoming row directly.
	if err := deps.store.DeleteTransaction(ctx, testUser, incoming.ID); err != nil {
		t.Fatalf("delete leg: %v", err)
	}

	amount := cents(200)
	if _, err := svc.Update(ctx, testUser, outgoing.ID, TransferPatch{Amount: &amount}); !errors.Is(err, core.ErrIncompleteTransfer) {
		t.Fatalf("expected incomplete transfer, got %v", err)
	}
	if err := svc.Remove(ctx, testUser, outgoing.ID); !errors.Is(err, core.ErrIncompleteTransfer) {
		t.Fatalf("expected incomplete transfer on remove, got %v", err)
	}
}

func TestTransferGetRejectsStandardRows(t *testing.T) {
	svc, deps := newTransferService(t)
	ctx := context.Background()

	account := mustAccount(t, deps.store, "A", 0)
	txns := NewTransactionService(deps.store, nil, deps.logger)
	txn, err := txns.Create(ctx, testUser, CreateTransactionInput{
		AccountID: account.ID, Amount: cents(100), Date: date(2025, 1, 1),
	})
	if err != nil {
		t.Fatalf("create standard: %v", err)
	}

	if _, err := svc.Get(ctx, testUser, txn.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found for standard row, got %v", err)
	}
}

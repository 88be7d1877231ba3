package repository

import (
	"context"

	"github.com/adnan/pagesmith/internal/model"
)

// LedgerStore is the storage contract for per-user credit balances.
//
// The one hard requirement here is CompareAndDecrement: check-and-debit must be
// a SINGLE atomic unit at the storage layer. Doing a read followed by a
// separate write lets two concurrent requests both observe balance=1 and both
// debit — the classic double-spend. Implementations must use a conditional
// update (or transaction), never two independent calls.
type LedgerStore interface {
	// ReadAccount returns the stored account for a user, or
	// apperror.ErrNotFound when no row exists. It never creates rows —
	// lazy initialisation is the service layer's job.
	ReadAccount(ctx context.Context, userID string) (*model.Account, error)

	// Initialize creates the user's row with the given starting balance.
	// It is idempotent: if the row already exists it is left untouched and
	// no error is returned, so two concurrent first-reads create exactly
	// one Account.
	Initialize(ctx context.Context, userID string, balance int) error

	// CompareAndDecrement atomically debits amount iff balance >= amount and
	// returns the remaining balance. Returns apperror.ErrInsufficientCredits
	// (without mutating) when the balance is too low, or apperror.ErrNotFound
	// when no row exists.
	CompareAndDecrement(ctx context.Context, userID string, amount int) (int, error)

	// Refund credits amount back to an existing row. Used only when the
	// charge-on-attempt policy is switched off.
	Refund(ctx context.Context, userID string, amount int) (int, error)
}

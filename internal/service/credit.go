// Package service contains the business logic layer of the application.
//
// Handlers parse HTTP and write responses; services enforce the rules; the
// repository talks to storage. Services receive interfaces (not concrete
// stores or HTTP types), so the same logic serves tests, the HTTP surface, or
// a future CLI without changes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/adnan/pagesmith/internal/apperror"
	"github.com/adnan/pagesmith/internal/model"
	"github.com/adnan/pagesmith/internal/repository"
)

// CreditService owns balance initialisation and the check-and-debit semantics
// over the ledger store.
//
// The service itself holds no mutable state — every balance lives in the
// store, and the one operation needing cross-request mutual exclusion
// (check-then-decrement) is delegated to the store's atomic
// CompareAndDecrement. Nothing here emulates that with separate read and
// write calls; that split is precisely the double-spend bug this layer exists
// to prevent.
type CreditService struct {
	store          repository.LedgerStore
	logger         *slog.Logger
	defaultCredits int
}

// ConsumeResult reports the outcome of a debit attempt.
type ConsumeResult struct {
	OK        bool // whether the debit happened
	Remaining int  // balance after the debit, or the untouched balance when !OK
}

// NewCreditService creates a CreditService. defaultCredits <= 0 falls back to
// model.DefaultCredits.
func NewCreditService(store repository.LedgerStore, logger *slog.Logger, defaultCredits int) *CreditService {
	if defaultCredits <= 0 {
		defaultCredits = model.DefaultCredits
	}
	return &CreditService{
		store:          store,
		logger:         logger,
		defaultCredits: defaultCredits,
	}
}

// GetBalance returns the user's balance, lazily creating the account with the
// default balance on first observation. It never fails with "not found".
func (s *CreditService) GetBalance(ctx context.Context, userID string) (int, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, apperror.ValidationFailed("user_id", "user_id is required")
	}

	account, err := s.store.ReadAccount(ctx, userID)
	if err == nil {
		return account.Credits, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return 0, apperror.LedgerUnavailable(err)
	}

	// First observation: create the row, then read whatever won. Initialize
	// is idempotent at the store, so a concurrent first-read can't create a
	// second account or clobber the balance.
	if err := s.store.Initialize(ctx, userID, s.defaultCredits); err != nil {
		return 0, apperror.LedgerUnavailable(err)
	}
	account, err = s.store.ReadAccount(ctx, userID)
	if err != nil {
		return 0, apperror.LedgerUnavailable(err)
	}

	s.logger.Info("account initialised",
		slog.String("user_id", userID),
		slog.Int("credits", account.Credits),
	)
	return account.Credits, nil
}

// TryConsume atomically debits amount iff the balance covers it.
//
// An insufficient balance is a normal outcome, not an error: the result
// carries OK=false and the untouched balance. Errors mean the ledger itself
// failed (or the input was invalid) and no debit can have happened.
func (s *CreditService) TryConsume(ctx context.Context, userID string, amount int) (ConsumeResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ConsumeResult{}, apperror.ValidationFailed("user_id", "user_id is required")
	}
	if amount < 1 {
		return ConsumeResult{}, apperror.ValidationFailed("amount", "amount must be at least 1")
	}

	remaining, err := s.store.CompareAndDecrement(ctx, userID, amount)
	if errors.Is(err, apperror.ErrNotFound) {
		// Unknown user: initialise, then retry the debit once. The retry hits
		// the same atomic conditional update, so racing requests still
		// serialize correctly at the store.
		if err := s.store.Initialize(ctx, userID, s.defaultCredits); err != nil {
			return ConsumeResult{}, apperror.LedgerUnavailable(err)
		}
		remaining, err = s.store.CompareAndDecrement(ctx, userID, amount)
	}

	switch {
	case err == nil:
		s.logger.Info("credits consumed",
			slog.String("user_id", userID),
			slog.Int("amount", amount),
			slog.Int("remaining", remaining),
		)
		return ConsumeResult{OK: true, Remaining: remaining}, nil
	case errors.Is(err, apperror.ErrInsufficientCredits):
		return ConsumeResult{OK: false, Remaining: remaining}, nil
	default:
		return ConsumeResult{}, apperror.LedgerUnavailable(err)
	}
}

// UseCredit is the explicit debit operation behind the "useCredit" action:
// unlike TryConsume it treats an insufficient balance as a failure.
func (s *CreditService) UseCredit(ctx context.Context, userID string, amount int) (int, error) {
	res, err := s.TryConsume(ctx, userID, amount)
	if err != nil {
		return 0, err
	}
	if !res.OK {
		return res.Remaining, apperror.InsufficientCredits(res.Remaining)
	}
	return res.Remaining, nil
}

// Refund credits amount back after a failed attempt. Only called when the
// charge-on-attempt policy is disabled; failures are the caller's to log.
func (s *CreditService) Refund(ctx context.Context, userID string, amount int) (int, error) {
	remaining, err := s.store.Refund(ctx, userID, amount)
	if err != nil {
		return 0, fmt.Errorf("refunding %d credits for %s: %w", amount, userID, err)
	}
	return remaining, nil
}

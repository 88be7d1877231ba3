package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/adnan/pagesmith/internal/apperror"
	"github.com/adnan/pagesmith/internal/model"
	"github.com/adnan/pagesmith/internal/repository"
)

// Compile-time check that *DB implements repository.LedgerStore.
var _ repository.LedgerStore = (*DB)(nil)

// ReadAccount returns the stored account, translating "no row" into the
// app's NotFound error so the service layer can lazily initialise.
func (db *DB) ReadAccount(ctx context.Context, userID string) (*model.Account, error) {
	var account model.Account
	err := db.conn.QueryRowContext(ctx,
		`SELECT user_id, credits, created_at, updated_at
		 FROM accounts
		 WHERE user_id = ?`,
		userID,
	).Scan(
		&account.UserID,
		&account.Credits,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		// sql.ErrNoRows is a sentinel — database/sql doesn't wrap it,
		// so == is the conventional check.
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("account", userID)
		}
		return nil, fmt.Errorf("sqlite: reading account %s: %w", userID, err)
	}

	return &account, nil
}

// Initialize creates the account row with the given starting balance.
//
// INSERT OR IGNORE makes this idempotent against the primary key: when two
// requests race to create the same user, one insert wins and the other is a
// no-op. Neither caller can tell the difference, which is exactly what lazy
// initialisation wants.
func (db *DB) Initialize(ctx context.Context, userID string, balance int) error {
	now := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO accounts (user_id, credits, created_at, updated_at)
		 VALUES (?, ?, ?, ?)`,
		userID, balance, now, now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: initializing account %s: %w", userID, err)
	}
	return nil
}

// CompareAndDecrement performs the check-and-debit as ONE conditional UPDATE.
//
// The WHERE clause is the whole trick: `credits >= ?` means the debit only
// happens when the balance covers it, and SQLite applies the row update
// atomically under its write lock. Two concurrent debits against a balance of
// 1 serialize at the UPDATE — the second one's WHERE no longer matches and it
// falls through to the insufficient/absent classification below.
//
// RETURNING gives us the post-debit balance from the same statement, so the
// remaining value can never be stale.
func (db *DB) CompareAndDecrement(ctx context.Context, userID string, amount int) (int, error) {
	var remaining int
	err := db.conn.QueryRowContext(ctx,
		`UPDATE accounts
		 SET credits = credits - ?, updated_at = ?
		 WHERE user_id = ? AND credits >= ?
		 RETURNING credits`,
		amount, time.Now(), userID, amount,
	).Scan(&remaining)

	if err == nil {
		return remaining, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("sqlite: decrementing credits for %s: %w", userID, err)
	}

	// The UPDATE matched nothing: either the row is absent or the balance is
	// too low. A follow-up read distinguishes the two. This read is only for
	// classification — the debit decision was already made atomically above.
	account, err := db.ReadAccount(ctx, userID)
	if err != nil {
		return 0, err // NotFound or a real storage error
	}
	return account.Credits, apperror.InsufficientCredits(account.Credits)
}

// Refund adds credits back to an existing row. It deliberately refuses to
// create rows — a refund for a user we never debited is a bug upstream.
func (db *DB) Refund(ctx context.Context, userID string, amount int) (int, error) {
	var remaining int
	err := db.conn.QueryRowContext(ctx,
		`UPDATE accounts
		 SET credits = credits + ?, updated_at = ?
		 WHERE user_id = ?
		 RETURNING credits`,
		amount, time.Now(), userID,
	).Scan(&remaining)

	if err != nil {
		if err == sql.ErrNoRows {
			return 0, apperror.NotFound("account", userID)
		}
		return 0, fmt.Errorf("sqlite: refunding credits for %s: %w", userID, err)
	}

	return remaining, nil
}

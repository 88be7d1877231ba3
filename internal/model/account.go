// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Account represents one user's credit balance.
//
// The user ID is caller-supplied and opaque to us — identity verification is
// the front-end's problem, we only meter consumption. An Account is never
// created explicitly: the first read of an unknown user lazily initialises the
// row with the default balance.
//
// WHY Credits int (not uint)?
// The database CHECK constraint guarantees credits >= 0, and using a plain int
// avoids awkward unsigned arithmetic at the subtraction sites. A negative value
// ever showing up here means the atomic decrement is broken, which is exactly
// the kind of bug we want to blow up loudly rather than wrap around.
type Account struct {
	UserID    string    `json:"userId"    db:"user_id"`
	Credits   int       `json:"credits"   db:"credits"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// DefaultCredits is the balance a brand-new Account starts with.
const DefaultCredits = 5

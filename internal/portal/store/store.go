package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/arbeit/internal/portal/domain"
)

var (
	ErrNotFound = errors.New("store: not found")

	// ErrUnreadable means a row exists but its token cannot be unsealed,
	// e.g. after the master secret changed. Callers treat it as absent.
	ErrUnreadable = errors.New("store: record unreadable")
)

// Store is the root data access interface. Concrete drivers implement this.
type Store interface {
	Sessions() SessionRecords

	ApplyMigrations() error

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store.
type Tx interface {
	Sessions() SessionRecords
}

// SessionRecords persists at most one record per (client, audience). Every
// write and delete touches exactly one key.
type SessionRecords interface {
	// Get returns the record for key or ErrNotFound.
	Get(ctx context.Context, key domain.SessionKey) (domain.SessionRecord, error)

	// Put inserts or replaces the record under rec.Key(). CreatedAt of an
	// existing row is preserved.
	Put(ctx context.Context, rec domain.SessionRecord) error

	// Delete removes the record for key. Deleting a missing record is not an
	// error.
	Delete(ctx context.Context, key domain.SessionKey) error

	// ListStale returns up to limit keys whose record was last written
	// before idleBefore or whose token hint expired before now.
	ListStale(ctx context.Context, idleBefore, now time.Time, limit int) ([]domain.SessionKey, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)
}

// TokenSealer encrypts session tokens at rest. aad binds a ciphertext to the
// row it was written for.
type TokenSealer interface {
	Seal(plaintext, aad string) (string, error)
	Open(sealed, aad string) (string, error)
}

// SealAAD is the additional data a token is sealed under.
func SealAAD(key domain.SessionKey) string {
	return key.ClientID + "|" + key.Audience.String()
}

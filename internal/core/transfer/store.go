package transfer

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ShayNeeo/DeltaUp/internal/core/domain"
)

// ErrNotFound is returned by store lookups when no row matches.
var ErrNotFound = errors.New("not found")

// Store runs a unit of work that either fully commits or fully rolls back.
// Nothing staged inside the function is visible to other operations before
// commit.
type Store interface {
	ExecTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the storage surface the engine uses inside one atomic scope.
// Balance reads that drive decisions must come from LockAccount, which
// blocks until an exclusive row lock is held.
type Tx interface {
	// AccountIDByNumber resolves an account number to its stable ID
	// without locking. Used only to establish lock order and existence.
	AccountIDByNumber(ctx context.Context, accountNumber string) (uuid.UUID, error)

	// LockAccount acquires the exclusive row lock and returns the current
	// row. Blocks until the lock is granted or the lock timeout expires.
	LockAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)

	// UpdateBalance writes a new balance. Valid only while this scope
	// holds the corresponding lock.
	UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error

	// AppendRecord appends one immutable ledger row.
	AppendRecord(ctx context.Context, rec *domain.TransactionRecord) error

	// QueueWebhook stages a notification job, all-or-nothing with the
	// balance writes.
	QueueWebhook(ctx context.Context, url string, payload []byte) error
}

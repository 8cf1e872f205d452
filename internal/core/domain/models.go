package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is a user's wallet. AccountNumber is the human-facing identifier
// used on transfers; it never changes once assigned.
type Account struct {
	ID            uuid.UUID       `json:"id"`
	Username      string          `json:"username"`
	Email         string          `json:"email"`
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"created_at"`
}

type TransactionStatus string

const (
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

// TransactionRecord is one row of the append-only ledger. Records are never
// mutated or deleted after commit.
type TransactionRecord struct {
	ID          uuid.UUID         `json:"id"`
	FromAccount string            `json:"from_account"`
	ToAccount   string            `json:"to_account"`
	Amount      decimal.Decimal   `json:"amount"`
	Description string            `json:"description"`
	Status      TransactionStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}

// TransferIntent is the normalized input of the transfer engine, regardless
// of whether it came from a direct request or a decoded QR payload.
type TransferIntent struct {
	RecipientAccount string
	Amount           decimal.Decimal
	Description      string
}

// TransferResult describes a committed transfer.
type TransferResult struct {
	TransactionID uuid.UUID
	FromAccount   string
	ToAccount     string
	Amount        decimal.Decimal
	NewBalance    decimal.Decimal
	CreatedAt     time.Time
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ShayNeeo/DeltaUp/internal/core/domain"
	"github.com/ShayNeeo/DeltaUp/internal/core/transfer"
)

// TransferStore is the pgx implementation of the engine's store contract.
// Each ExecTx call is one database transaction with a bounded lock wait.
type TransferStore struct {
	db          *pgxpool.Pool
	lockTimeout time.Duration
}

func NewTransferStore(db *pgxpool.Pool, lockTimeout time.Duration) *TransferStore {
	return &TransferStore{db: db, lockTimeout: lockTimeout}
}

func (s *TransferStore) ExecTx(ctx context.Context, fn func(tx transfer.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if s.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("set lock timeout: %w", err)
		}
	}

	if err := fn(&transferTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type transferTx struct {
	tx pgx.Tx
}

func (t *transferTx) AccountIDByNumber(ctx context.Context, accountNumber string) (uuid.UUID, error) {
	var id uuid.UUID
	err := t.tx.QueryRow(ctx, `SELECT id FROM users WHERE account_number = $1`, accountNumber).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, transfer.ErrNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("account id by number: %w", err)
	}
	return id, nil
}

func (t *transferTx) LockAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	var acc domain.Account
	err := t.tx.QueryRow(ctx, query, id).Scan(
		&acc.ID, &acc.Username, &acc.Email, &acc.AccountNumber, &acc.Balance, &acc.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, transfer.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock account: %w", err)
	}
	return &acc, nil
}

func (t *transferTx) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	if _, err := t.tx.Exec(ctx, `UPDATE users SET balance = $1 WHERE id = $2`, balance, id); err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	return nil
}

func (t *transferTx) AppendRecord(ctx context.Context, rec *domain.TransactionRecord) error {
	query := `
		INSERT INTO transactions (id, from_account, to_account, amount, description, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := t.tx.Exec(ctx, query,
		rec.ID, rec.FromAccount, rec.ToAccount, rec.Amount, rec.Description, rec.Status, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

func (t *transferTx) QueueWebhook(ctx context.Context, url string, payload []byte) error {
	if _, err := t.tx.Exec(ctx, `INSERT INTO webhook_jobs (url, payload) VALUES ($1, $2)`, url, payload); err != nil {
		return fmt.Errorf("queue webhook: %w", err)
	}
	return nil
}

package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ShayNeeo/DeltaUp/internal/core/domain"
)

type LedgerRepository struct {
	db *pgxpool.Pool
}

func NewLedgerRepository(db *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// ListByAccount returns the newest transactions touching an account, either
// side, newest first.
func (r *LedgerRepository) ListByAccount(ctx context.Context, accountNumber string, limit int) ([]domain.TransactionRecord, error) {
	query := `
		SELECT id, from_account, to_account, amount, description, status, created_at
		FROM transactions
		WHERE from_account = $1 OR to_account = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, accountNumber, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	records := []domain.TransactionRecord{}
	for rows.Next() {
		var rec domain.TransactionRecord
		var description *string
		if err := rows.Scan(&rec.ID, &rec.FromAccount, &rec.ToAccount, &rec.Amount, &description, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if description != nil {
			rec.Description = *description
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return records, nil
}

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ShayNeeo/DeltaUp/internal/core/domain"
)

// ErrDuplicate signals a unique-constraint violation (username, email or
// account number already taken).
var ErrDuplicate = errors.New("duplicate value")

// ErrNoAccount signals that no account matched the lookup.
var ErrNoAccount = errors.New("account not found")

const accountColumns = `id, username, email, account_number, balance, created_at`

type AccountRepository struct {
	db *pgxpool.Pool
}

func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

// CreateAccount inserts a new user with its opening balance.
func (r *AccountRepository) CreateAccount(ctx context.Context, username, email, passwordHash, accountNumber string, openingBalance decimal.Decimal) (*domain.Account, error) {
	query := `
		INSERT INTO users (id, username, email, password_hash, account_number, balance)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + accountColumns
	var acc domain.Account
	err := r.db.QueryRow(ctx, query, uuid.New(), username, email, passwordHash, accountNumber, openingBalance).Scan(
		&acc.ID, &acc.Username, &acc.Email, &acc.AccountNumber, &acc.Balance, &acc.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("create account: %w", ErrDuplicate)
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return &acc, nil
}

// AccountByID loads an account by its stable identifier.
func (r *AccountRepository) AccountByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE id = $1`
	var acc domain.Account
	err := r.db.QueryRow(ctx, query, id).Scan(
		&acc.ID, &acc.Username, &acc.Email, &acc.AccountNumber, &acc.Balance, &acc.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoAccount
	}
	if err != nil {
		return nil, fmt.Errorf("account by id: %w", err)
	}
	return &acc, nil
}

// AccountByEmail loads an account plus its password hash for login.
func (r *AccountRepository) AccountByEmail(ctx context.Context, email string) (*domain.Account, string, error) {
	query := `SELECT ` + accountColumns + `, password_hash FROM users WHERE email = $1`
	var acc domain.Account
	var passwordHash string
	err := r.db.QueryRow(ctx, query, email).Scan(
		&acc.ID, &acc.Username, &acc.Email, &acc.AccountNumber, &acc.Balance, &acc.CreatedAt, &passwordHash,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", ErrNoAccount
	}
	if err != nil {
		return nil, "", fmt.Errorf("account by email: %w", err)
	}
	return &acc, passwordHash, nil
}

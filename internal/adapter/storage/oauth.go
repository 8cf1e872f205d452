package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrCodeInvalid signals an unknown, expired or already-used authorization code.
var ErrCodeInvalid = errors.New("invalid authorization code")

type OAuthRepository struct {
	db *pgxpool.Pool
}

func NewOAuthRepository(db *pgxpool.Pool) *OAuthRepository {
	return &OAuthRepository{db: db}
}

// SaveCode stores a freshly issued authorization code bound to a user.
func (r *OAuthRepository) SaveCode(ctx context.Context, code string, userID uuid.UUID, clientID string, expiresAt time.Time) error {
	query := `INSERT INTO oauth_codes (code, user_id, client_id, expires_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.Exec(ctx, query, code, userID, clientID, expiresAt); err != nil {
		return fmt.Errorf("save oauth code: %w", err)
	}
	return nil
}

// ConsumeCode atomically deletes a still-valid code and returns the user it
// was issued to. Codes are single-use.
func (r *OAuthRepository) ConsumeCode(ctx context.Context, code, clientID string) (uuid.UUID, error) {
	query := `
		DELETE FROM oauth_codes
		WHERE code = $1 AND client_id = $2 AND expires_at > NOW()
		RETURNING user_id`
	var userID uuid.UUID
	err := r.db.QueryRow(ctx, query, code, clientID).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrCodeInvalid
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("consume oauth code: %w", err)
	}
	return userID, nil
}

package middleware

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// IdempotencyStore is the slice of the connection pool the idempotency guard
// uses; *pgxpool.Pool satisfies it.
type IdempotencyStore interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Idempotency replays the cached response for a repeated Idempotency-Key so
// a client retrying after a timed-out response cannot double-apply a
// transfer. Keys are scoped to the authenticated caller and only successful
// responses are cached; requests without the header pass straight through.
func Idempotency(db IdempotencyStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get("Idempotency-Key")
		if key == "" {
			return c.Next()
		}
		subject, _ := c.Locals(SubjectKey).(string)
		userID, err := uuid.Parse(subject)
		if err != nil {
			// No authenticated caller to scope the key to.
			return c.Next()
		}

		var status int
		var body []byte
		err = db.QueryRow(c.Context(),
			"SELECT response_status, response_body FROM idempotency_keys WHERE key_id = $1 AND user_id = $2",
			key, userID).Scan(&status, &body)
		if err == nil {
			slog.Info("Idempotency hit, returning cached response", "key", key, "user_id", userID)
			c.Set("X-Idempotency-Hit", "true")
			c.Set("Content-Type", "application/json")
			return c.Status(status).Send(body)
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			slog.Error("Idempotency lookup failed", "error", err, "key", key)
		}

		if err := c.Next(); err != nil {
			return err
		}

		resStatus := c.Response().StatusCode()
		if resStatus < 200 || resStatus >= 300 {
			// Caching a failure would pin the client to it on every retry.
			return nil
		}
		resBody := c.Response().Body()

		_, insertErr := db.Exec(c.Context(),
			"INSERT INTO idempotency_keys (key_id, user_id, response_status, response_body) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING",
			key, userID, resStatus, resBody)
		if insertErr != nil {
			slog.Error("Failed to save idempotency key", "error", insertErr, "key", key)
		}

		return nil
	}
}

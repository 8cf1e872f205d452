package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ShayNeeo/DeltaUp/internal/core/notifications"
)

const (
	pollInterval = 5 * time.Second
	maxAttempts  = 5
)

// StartWebhookWorker drains the webhook_jobs queue in the background. Jobs
// are claimed with FOR UPDATE SKIP LOCKED so multiple instances never
// deliver the same job twice.
func StartWebhookWorker(ctx context.Context, db *pgxpool.Pool, secret string) {
	go func() {
		slog.Info("Webhook worker started")
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				slog.Info("Webhook worker stopped")
				return
			case <-ticker.C:
				processJob(ctx, db, secret)
			}
		}
	}()
}

func processJob(ctx context.Context, db *pgxpool.Pool, secret string) {
	tx, err := db.Begin(ctx)
	if err != nil {
		slog.Error("Worker: failed to begin transaction", "error", err)
		return
	}
	defer tx.Rollback(ctx)

	query := `
		SELECT id, url, payload, attempts
		FROM webhook_jobs
		WHERE status = 'PENDING' AND next_run_at <= NOW()
		ORDER BY created_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED`

	var id string
	var url string
	var payload []byte
	var attempts int
	if err := tx.QueryRow(ctx, query).Scan(&id, &url, &payload, &attempts); err != nil {
		if !queueEmpty(err) {
			slog.Error("Worker: failed to claim job", "error", err)
		}
		return
	}

	sendErr := notifications.SendWebhook(url, payload, secret)
	if sendErr != nil {
		attempts++
		if attempts >= maxAttempts {
			slog.Error("Worker: job failed permanently", "error", sendErr, "job_id", id, "attempts", attempts)
			_, err = tx.Exec(ctx, "UPDATE webhook_jobs SET status = 'FAILED', attempts = $2 WHERE id = $1", id, attempts)
		} else {
			nextRun := time.Now().Add(time.Duration(attempts*10) * time.Second)
			slog.Warn("Worker: delivery failed, scheduling retry", "error", sendErr, "job_id", id, "next_run", nextRun)
			_, err = tx.Exec(ctx, "UPDATE webhook_jobs SET attempts = $2, next_run_at = $3 WHERE id = $1", id, attempts, nextRun)
		}
	} else {
		slog.Info("Worker: webhook delivered", "job_id", id, "url", url)
		_, err = tx.Exec(ctx, "UPDATE webhook_jobs SET status = 'COMPLETED' WHERE id = $1", id)
	}
	if err != nil {
		slog.Error("Worker: failed to update job", "error", err, "job_id", id)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		slog.Error("Worker: failed to commit job", "error", err, "job_id", id)
	}
}

// queueEmpty reports whether the claim query simply found nothing to do, as
// opposed to a real storage failure that deserves a log line.
func queueEmpty(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

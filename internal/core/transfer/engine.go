package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ShayNeeo/DeltaUp/internal/core/domain"
)

// Engine moves value between two accounts as one atomic, serializable unit
// of work. Both the direct transfer and the QR payment paths funnel into
// Execute; only the payload decoding differs upstream.
type Engine struct {
	store      Store
	webhookURL string
	now        func() time.Time
	newID      func() uuid.UUID
}

// NewEngine builds a transfer engine. webhookURL may be empty, in which case
// no notification jobs are queued. A nil clock or ID source defaults to the
// real ones.
func NewEngine(store Store, webhookURL string, now func() time.Time, newID func() uuid.UUID) *Engine {
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = uuid.New
	}
	return &Engine{store: store, webhookURL: webhookURL, now: now, newID: newID}
}

// Execute runs validate → lock → check → mutate → record → commit.
//
// Both rows are locked in ascending order of their IDs, never in
// sender/recipient order, so two concurrent transfers moving funds in
// opposite directions between the same pair cannot deadlock. Every balance
// decision reads only rows locked in this scope; any failure after locking
// rolls the whole scope back.
func (e *Engine) Execute(ctx context.Context, subject string, intent domain.TransferIntent) (*domain.TransferResult, error) {
	if err := domain.ValidateAmount(intent.Amount); err != nil {
		return nil, err
	}
	if strings.TrimSpace(intent.RecipientAccount) == "" {
		return nil, domain.E(domain.CodeInvalidRecipient, "Recipient account is required")
	}

	senderID, err := uuid.Parse(subject)
	if err != nil {
		// A validly authenticated caller always carries a parseable
		// subject; anything else is an upstream inconsistency.
		return nil, domain.E(domain.CodeAccountNotFound, "Sender account not found")
	}

	var result *domain.TransferResult
	err = e.store.ExecTx(ctx, func(tx Tx) error {
		recipientID, err := tx.AccountIDByNumber(ctx, intent.RecipientAccount)
		if errors.Is(err, ErrNotFound) {
			return domain.E(domain.CodeRecipientNotFound, "Recipient account not found")
		}
		if err != nil {
			return err
		}
		if recipientID == senderID {
			return domain.E(domain.CodeInvalidRecipient, "Cannot transfer to your own account")
		}

		sender, recipient, err := e.lockPair(ctx, tx, senderID, recipientID)
		if err != nil {
			return err
		}

		if sender.Balance.LessThan(intent.Amount) {
			return domain.E(domain.CodeInsufficientFunds, "Insufficient funds")
		}

		newSenderBalance := sender.Balance.Sub(intent.Amount)
		newRecipientBalance := recipient.Balance.Add(intent.Amount)
		if err := tx.UpdateBalance(ctx, sender.ID, newSenderBalance); err != nil {
			return err
		}
		if err := tx.UpdateBalance(ctx, recipient.ID, newRecipientBalance); err != nil {
			return err
		}

		rec := &domain.TransactionRecord{
			ID:          e.newID(),
			FromAccount: sender.AccountNumber,
			ToAccount:   recipient.AccountNumber,
			Amount:      intent.Amount,
			Description: intent.Description,
			Status:      domain.StatusCompleted,
			CreatedAt:   e.now().UTC(),
		}
		if err := tx.AppendRecord(ctx, rec); err != nil {
			return err
		}

		if e.webhookURL != "" {
			payload, err := webhookPayload(rec)
			if err != nil {
				return err
			}
			if err := tx.QueueWebhook(ctx, e.webhookURL, payload); err != nil {
				return err
			}
		}

		result = &domain.TransferResult{
			TransactionID: rec.ID,
			FromAccount:   sender.AccountNumber,
			ToAccount:     recipient.AccountNumber,
			Amount:        intent.Amount,
			NewBalance:    newSenderBalance,
			CreatedAt:     rec.CreatedAt,
		}
		return nil
	})
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, domain.Wrap(domain.CodeInternal, "Transfer failed", err)
	}
	return result, nil
}

// lockPair acquires both row locks in ascending ID order and hands the rows
// back in sender/recipient roles.
func (e *Engine) lockPair(ctx context.Context, tx Tx, senderID, recipientID uuid.UUID) (sender, recipient *domain.Account, err error) {
	first, second := senderID, recipientID
	if bytes.Compare(second[:], first[:]) < 0 {
		first, second = second, first
	}

	firstRow, err := tx.LockAccount(ctx, first)
	if err != nil {
		return nil, nil, lockError(err, first == senderID)
	}
	secondRow, err := tx.LockAccount(ctx, second)
	if err != nil {
		return nil, nil, lockError(err, second == senderID)
	}

	if firstRow.ID == senderID {
		return firstRow, secondRow, nil
	}
	return secondRow, firstRow, nil
}

func lockError(err error, isSender bool) error {
	if errors.Is(err, ErrNotFound) {
		if isSender {
			return domain.E(domain.CodeAccountNotFound, "Sender account not found")
		}
		return domain.E(domain.CodeRecipientNotFound, "Recipient account not found")
	}
	return err
}

func webhookPayload(rec *domain.TransactionRecord) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"event": "transfer.completed",
		"data": map[string]interface{}{
			"transaction_id": rec.ID,
			"from_account":   rec.FromAccount,
			"to_account":     rec.ToAccount,
			"amount":         rec.Amount,
			"description":    rec.Description,
			"status":         rec.Status,
			"timestamp":      rec.CreatedAt,
		},
	})
}

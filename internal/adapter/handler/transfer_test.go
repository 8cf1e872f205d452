package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ShayNeeo/DeltaUp/internal/adapter/middleware"
	"github.com/ShayNeeo/DeltaUp/internal/core/domain"
)

type stubEngine struct {
	result  *domain.TransferResult
	err     error
	subject string
	intent  domain.TransferIntent
}

func (s *stubEngine) Execute(ctx context.Context, subject string, intent domain.TransferIntent) (*domain.TransferResult, error) {
	s.subject = subject
	s.intent = intent
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func transferApp(engine *stubEngine, subject string) *fiber.App {
	h := &TransferHandler{Engine: engine}
	app := fiber.New()
	authed := func(c *fiber.Ctx) error {
		c.Locals(middleware.SubjectKey, subject)
		return c.Next()
	}
	app.Post("/api/transfer", authed, h.Transfer)
	app.Post("/api/qr-payment", authed, h.QRPayment)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return resp, decoded
}

func completedResult() *domain.TransferResult {
	return &domain.TransferResult{
		TransactionID: uuid.New(),
		FromAccount:   "1111111111",
		ToAccount:     "2222222222",
		Amount:        decimal.RequireFromString("200.00"),
		NewBalance:    decimal.RequireFromString("800.00"),
		CreatedAt:     time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
	}
}

func TestTransferSuccess(t *testing.T) {
	subject := uuid.New().String()
	engine := &stubEngine{result: completedResult()}
	app := transferApp(engine, subject)

	resp, body := postJSON(t, app, "/api/transfer",
		`{"recipient_account":"2222222222","amount":200,"description":"rent"}`)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["status"] != "completed" {
		t.Fatalf("expected completed status, got %v", body["status"])
	}
	if body["transaction_id"] == "" || body["transaction_id"] == nil {
		t.Fatalf("expected a transaction id, got %v", body["transaction_id"])
	}
	if engine.subject != subject {
		t.Fatalf("expected engine to see subject %s, got %s", subject, engine.subject)
	}
	if engine.intent.RecipientAccount != "2222222222" {
		t.Fatalf("unexpected intent recipient: %s", engine.intent.RecipientAccount)
	}
	if !engine.intent.Amount.Equal(decimal.RequireFromString("200")) {
		t.Fatalf("unexpected intent amount: %s", engine.intent.Amount)
	}
}

func TestTransferErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "invalid amount",
			err:        domain.E(domain.CodeInvalidAmount, "Amount must be greater than 0"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_amount",
		},
		{
			name:       "insufficient funds",
			err:        domain.E(domain.CodeInsufficientFunds, "Insufficient funds"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "insufficient_funds",
		},
		{
			// The direct transfer surface flattens unknown recipients
			// into a 400; only the QR path serves a 404.
			name:       "recipient not found",
			err:        domain.E(domain.CodeRecipientNotFound, "Recipient account not found"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "recipient_not_found",
		},
		{
			name:       "infrastructure failure",
			err:        domain.Wrap(domain.CodeInternal, "Transfer failed", context.DeadlineExceeded),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := transferApp(&stubEngine{err: tc.err}, uuid.New().String())
			resp, body := postJSON(t, app, "/api/transfer",
				`{"recipient_account":"000000","amount":50}`)
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, resp.StatusCode)
			}
			if body["error"] != tc.wantCode {
				t.Fatalf("expected error %q, got %v", tc.wantCode, body["error"])
			}
		})
	}
}

func TestQRPaymentSuccess(t *testing.T) {
	engine := &stubEngine{result: &domain.TransferResult{
		TransactionID: uuid.New(),
		FromAccount:   "1111111111",
		ToAccount:     "999",
		Amount:        decimal.RequireFromString("30"),
		NewBalance:    decimal.RequireFromString("70.00"),
		CreatedAt:     time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
	}}
	app := transferApp(engine, uuid.New().String())

	resp, body := postJSON(t, app, "/api/qr-payment",
		`{"qr_data":"{\"account\":\"999\",\"amount\":30,\"description\":\"coffee\"}"}`)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["from_account"] != "1111111111" || body["to_account"] != "999" {
		t.Fatalf("unexpected endpoints in body: %v -> %v", body["from_account"], body["to_account"])
	}
	if body["new_balance"] != "70.00" {
		t.Fatalf("expected new_balance 70.00, got %v", body["new_balance"])
	}
	if engine.intent.Description != "coffee" {
		t.Fatalf("expected description to reach the engine, got %q", engine.intent.Description)
	}
}

func TestQRPaymentRejectsBadPayload(t *testing.T) {
	app := transferApp(&stubEngine{result: completedResult()}, uuid.New().String())

	resp, body := postJSON(t, app, "/api/qr-payment", `{"qr_data":"not json"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body["error"] != "invalid_qr" {
		t.Fatalf("expected invalid_qr, got %v", body["error"])
	}
}

func TestQRPaymentUnknownRecipientIs404(t *testing.T) {
	engine := &stubEngine{err: domain.E(domain.CodeRecipientNotFound, "Recipient account not found")}
	app := transferApp(engine, uuid.New().String())

	resp, body := postJSON(t, app, "/api/qr-payment",
		`{"qr_data":"{\"account\":\"000000\",\"amount\":30}"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if body["error"] != "recipient_not_found" {
		t.Fatalf("expected recipient_not_found, got %v", body["error"])
	}
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/ShayNeeo/DeltaUp/internal/adapter/middleware"
	"github.com/ShayNeeo/DeltaUp/internal/core/domain"
	"github.com/ShayNeeo/DeltaUp/internal/core/transfer"
)

// TransferExecutor is the slice of the engine the handlers need.
type TransferExecutor interface {
	Execute(ctx context.Context, subject string, intent domain.TransferIntent) (*domain.TransferResult, error)
}

type TransferHandler struct {
	Engine TransferExecutor
}

type TransferRequest struct {
	RecipientAccount string          `json:"recipient_account"`
	Amount           decimal.Decimal `json:"amount"`
	Description      string          `json:"description"`
}

type QRPaymentRequest struct {
	QRData string `json:"qr_data"`
}

// Transfer handles POST /api/transfer.
func (h *TransferHandler) Transfer(c *fiber.Ctx) error {
	var req TransferRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, domain.E(domain.CodeInvalidRequest, "Invalid request body"))
	}

	intent := domain.TransferIntent{
		RecipientAccount: req.RecipientAccount,
		Amount:           req.Amount,
		Description:      req.Description,
	}
	result, err := h.Engine.Execute(c.Context(), subject(c), intent)
	if err != nil {
		// The direct transfer surface reports an unknown recipient as a
		// plain bad request; only the QR path distinguishes it as 404.
		var de *domain.Error
		if errors.As(err, &de) && de.Code == domain.CodeRecipientNotFound {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error":   string(de.Code),
				"message": de.Message,
			})
		}
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"transaction_id": result.TransactionID,
		"status":         string(domain.StatusCompleted),
		"amount":         result.Amount,
		"timestamp":      result.CreatedAt.Format(time.RFC3339),
	})
}

// QRPayment handles POST /api/qr-payment: decode the opaque payload, then
// run the exact same transfer core.
func (h *TransferHandler) QRPayment(c *fiber.Ctx) error {
	var req QRPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, domain.E(domain.CodeInvalidQR, "Invalid request body"))
	}

	intent, err := transfer.ResolveQR(req.QRData)
	if err != nil {
		return writeError(c, err)
	}

	result, err := h.Engine.Execute(c.Context(), subject(c), intent)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"status":         string(domain.StatusCompleted),
		"transaction_id": result.TransactionID,
		"from_account":   result.FromAccount,
		"to_account":     result.ToAccount,
		"amount":         result.Amount,
		"new_balance":    result.NewBalance,
		"timestamp":      result.CreatedAt.Format(time.RFC3339),
	})
}

// subject returns the authenticated user ID stashed by the auth middleware.
func subject(c *fiber.Ctx) string {
	s, _ := c.Locals(middleware.SubjectKey).(string)
	return s
}

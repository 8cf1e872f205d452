package handler

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/ShayNeeo/DeltaUp/internal/core/domain"
)

type QRCodeHandler struct {
	Accounts *AccountHandler
	Now      func() time.Time
}

type QRCodeRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// Generate handles POST /api/qr-code: a payment request QR for the caller's
// own account, as both the raw payload and a rendered PNG.
func (h *QRCodeHandler) Generate(c *fiber.Ctx) error {
	var req QRCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, domain.E(domain.CodeInvalidRequest, "Invalid request body"))
	}
	if err := domain.ValidateAmount(req.Amount); err != nil {
		return writeError(c, err)
	}

	acc, err := h.Accounts.callerAccount(c)
	if err != nil {
		return writeError(c, err)
	}

	now := h.Now
	if now == nil {
		now = time.Now
	}
	payload := map[string]interface{}{
		"account":   acc.AccountNumber,
		"amount":    req.Amount,
		"timestamp": now().UTC().Format(time.RFC3339),
	}
	if req.Description != "" {
		payload["description"] = req.Description
	}
	qrData, err := json.Marshal(payload)
	if err != nil {
		return writeError(c, err)
	}

	png, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"qr_data":  string(qrData),
		"qr_image": "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	})
}

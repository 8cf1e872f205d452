package transfer

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ShayNeeo/DeltaUp/internal/core/domain"
)

// qrPayload mirrors the JSON a payment QR encodes. The amount is kept raw
// because generators emit it as either a number or a string; both are parsed
// through decimal so no float ever touches it. The timestamp is carried by
// generated codes but nothing consumes it.
type qrPayload struct {
	Account     string          `json:"account"`
	Amount      json.RawMessage `json:"amount"`
	Description string          `json:"description"`
	Timestamp   string          `json:"timestamp"`
}

// ResolveQR decodes an opaque QR string into a transfer intent. It fails
// closed: any missing or invalid field rejects the payload before the engine
// sees it.
func ResolveQR(qrData string) (domain.TransferIntent, error) {
	var payload qrPayload
	if err := json.Unmarshal([]byte(qrData), &payload); err != nil {
		return domain.TransferIntent{}, domain.E(domain.CodeInvalidQR, "Malformed QR payload")
	}
	if strings.TrimSpace(payload.Account) == "" {
		return domain.TransferIntent{}, domain.E(domain.CodeInvalidQR, "QR payload is missing the recipient account")
	}
	if len(payload.Amount) == 0 {
		return domain.TransferIntent{}, domain.E(domain.CodeInvalidAmount, "QR payload is missing the amount")
	}
	amount, err := decimal.NewFromString(strings.Trim(string(payload.Amount), `"`))
	if err != nil {
		return domain.TransferIntent{}, domain.E(domain.CodeInvalidAmount, "QR payload has an invalid amount")
	}
	if err := domain.ValidateAmount(amount); err != nil {
		return domain.TransferIntent{}, err
	}
	return domain.TransferIntent{
		RecipientAccount: payload.Account,
		Amount:           amount,
		Description:      payload.Description,
	}, nil
}

package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ShayNeeo/DeltaUp/internal/adapter/storage"
	"github.com/ShayNeeo/DeltaUp/internal/core/domain"
)

const historyLimit = 50

type AccountHandler struct {
	Accounts *storage.AccountRepository
	Ledger   *storage.LedgerRepository
}

// Balance handles GET /api/balance.
func (h *AccountHandler) Balance(c *fiber.Ctx) error {
	acc, err := h.callerAccount(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"account_number": acc.AccountNumber,
		"balance":        acc.Balance,
		"currency":       "USD",
	})
}

// Transactions handles GET /api/transactions: the caller's newest
// transactions, both directions, capped at 50.
func (h *AccountHandler) Transactions(c *fiber.Ctx) error {
	acc, err := h.callerAccount(c)
	if err != nil {
		return writeError(c, err)
	}
	records, err := h.Ledger.ListByAccount(c.Context(), acc.AccountNumber, historyLimit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(records)
}

func (h *AccountHandler) callerAccount(c *fiber.Ctx) (*domain.Account, error) {
	id, err := uuid.Parse(subject(c))
	if err != nil {
		return nil, domain.E(domain.CodeAccountNotFound, "Account not found")
	}
	acc, err := h.Accounts.AccountByID(c.Context(), id)
	if errors.Is(err, storage.ErrNoAccount) {
		return nil, domain.E(domain.CodeAccountNotFound, "Account not found")
	}
	if err != nil {
		return nil, err
	}
	return acc, nil
}

package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/ShayNeeo/DeltaUp/internal/adapter/storage"
	"github.com/ShayNeeo/DeltaUp/internal/core/auth"
	"github.com/ShayNeeo/DeltaUp/internal/core/domain"
	"github.com/ShayNeeo/DeltaUp/internal/core/security"
)

// Fresh accounts start with a balance so transfers can be tried immediately.
var openingBalance = decimal.NewFromInt(1000)

const profileCacheTTL = 10 * time.Minute

type AuthHandler struct {
	Accounts *storage.AccountRepository
	Gate     *auth.Gate
	// Cache may be nil; the profile endpoint then always hits the database.
	Cache *redis.Client
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// profile is the identity slice of an account; it never carries the balance,
// so it is safe to cache.
type profile struct {
	ID            uuid.UUID `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	AccountNumber string    `json:"account_number"`
	CreatedAt     time.Time `json:"created_at"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, domain.E(domain.CodeInvalidRequest, "Invalid request body"))
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Username == "" || req.Email == "" {
		return writeError(c, domain.E(domain.CodeInvalidRequest, "Username and email are required"))
	}
	if len(req.Password) < 8 {
		return writeError(c, domain.E(domain.CodeInvalidRequest, "Password must be at least 8 characters"))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return writeError(c, err)
	}

	// Retry on the rare account-number collision; a duplicate username or
	// email keeps failing and falls out of the loop.
	var acc *domain.Account
	for attempt := 0; attempt < 3; attempt++ {
		number, err := security.GenerateAccountNumber()
		if err != nil {
			return writeError(c, err)
		}
		acc, err = h.Accounts.CreateAccount(c.Context(), req.Username, req.Email, string(hash), number, openingBalance)
		if err == nil {
			break
		}
		if errors.Is(err, storage.ErrDuplicate) {
			acc = nil
			continue
		}
		return writeError(c, err)
	}
	if acc == nil {
		return writeError(c, domain.E(domain.CodeInvalidRequest, "Username or email is already registered"))
	}

	token, err := h.Gate.Issue(acc.ID.String())
	if err != nil {
		return writeError(c, err)
	}

	slog.Info("Account registered", "user_id", acc.ID, "account_number", acc.AccountNumber)
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  acc,
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, domain.E(domain.CodeInvalidRequest, "Invalid request body"))
	}

	acc, passwordHash, err := h.Accounts.AccountByEmail(c.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if errors.Is(err, storage.ErrNoAccount) {
		return writeError(c, domain.E(domain.CodeUnauthorized, "Invalid email or password"))
	}
	if err != nil {
		return writeError(c, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)) != nil {
		return writeError(c, domain.E(domain.CodeUnauthorized, "Invalid email or password"))
	}

	token, err := h.Gate.Issue(acc.ID.String())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  acc,
	})
}

// Profile handles GET /api/user/profile. Identity data is cached in Redis
// when available; a nil client degrades to the database.
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	id, err := uuid.Parse(subject(c))
	if err != nil {
		return writeError(c, domain.E(domain.CodeAccountNotFound, "Account not found"))
	}

	cacheKey := "user:" + id.String() + ":profile"
	if h.Cache != nil {
		cached, err := h.Cache.Get(c.Context(), cacheKey).Result()
		if err == nil {
			var p profile
			if json.Unmarshal([]byte(cached), &p) == nil {
				return c.JSON(p)
			}
		} else if !errors.Is(err, redis.Nil) {
			slog.Warn("Profile cache read failed", "error", err, "user_id", id)
		}
	}

	acc, err := h.Accounts.AccountByID(c.Context(), id)
	if errors.Is(err, storage.ErrNoAccount) {
		return writeError(c, domain.E(domain.CodeAccountNotFound, "Account not found"))
	}
	if err != nil {
		return writeError(c, err)
	}

	p := profile{
		ID:            acc.ID,
		Username:      acc.Username,
		Email:         acc.Email,
		AccountNumber: acc.AccountNumber,
		CreatedAt:     acc.CreatedAt,
	}
	if h.Cache != nil {
		if data, err := json.Marshal(p); err == nil {
			if err := h.Cache.Set(c.Context(), cacheKey, data, profileCacheTTL).Err(); err != nil {
				slog.Warn("Profile cache write failed", "error", err, "user_id", id)
			}
		}
	}
	return c.JSON(p)
}

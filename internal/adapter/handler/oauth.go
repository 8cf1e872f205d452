package handler

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ShayNeeo/DeltaUp/internal/adapter/storage"
	"github.com/ShayNeeo/DeltaUp/internal/core/auth"
	"github.com/ShayNeeo/DeltaUp/internal/core/domain"
)

const (
	authorizationCodeTTL = 10 * time.Minute
	tokenExpiresIn       = 86400 // seconds
)

// CodeStore issues and redeems single-use authorization codes.
type CodeStore interface {
	SaveCode(ctx context.Context, code string, userID uuid.UUID, clientID string, expiresAt time.Time) error
	ConsumeCode(ctx context.Context, code, clientID string) (uuid.UUID, error)
}

// OAuthHandler implements the authorization-code flow for the single
// configured client. OAuth error codes follow RFC 6749 rather than the
// domain enumeration.
type OAuthHandler struct {
	Accounts     *storage.AccountRepository
	Codes        CodeStore
	Gate         *auth.Gate
	ClientID     string
	ClientSecret string
	Now          func() time.Time
}

func (h *OAuthHandler) clock() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

type OAuthTokenRequest struct {
	Code         string `json:"code"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURI  string `json:"redirect_uri"`
	GrantType    string `json:"grant_type"`
}

// Authorize handles GET /oauth/authorize. The caller must already hold a
// bearer token; the issued code is bound to that user.
func (h *OAuthHandler) Authorize(c *fiber.Ctx) error {
	clientID := c.Query("client_id")
	redirectURI := c.Query("redirect_uri")
	responseType := c.Query("response_type")
	state := c.Query("state")

	if clientID == "" || clientID != h.ClientID {
		return oauthError(c, http.StatusBadRequest, "invalid_request", "Unknown client_id")
	}
	if redirectURI == "" {
		return oauthError(c, http.StatusBadRequest, "invalid_request", "redirect_uri is required")
	}
	if responseType != "code" {
		return oauthError(c, http.StatusBadRequest, "unsupported_response_type", "Only 'code' response type is supported")
	}

	userID, err := uuid.Parse(subject(c))
	if err != nil {
		return writeError(c, domain.E(domain.CodeAccountNotFound, "Account not found"))
	}

	code := uuid.New().String()
	expiresAt := h.clock().Add(authorizationCodeTTL)
	if err := h.Codes.SaveCode(c.Context(), code, userID, clientID, expiresAt); err != nil {
		return writeError(c, err)
	}

	location := fmt.Sprintf("%s?code=%s&state=%s", redirectURI, code, url.QueryEscape(state))
	return c.Redirect(location, http.StatusFound)
}

// Token handles POST /oauth/token: client credentials plus a single-use,
// time-boxed code exchange for a bearer token.
func (h *OAuthHandler) Token(c *fiber.Ctx) error {
	var req OAuthTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return oauthError(c, http.StatusBadRequest, "invalid_request", "Invalid request body")
	}

	if req.GrantType != "authorization_code" {
		return oauthError(c, http.StatusBadRequest, "unsupported_grant_type", "Only 'authorization_code' grant type is supported")
	}
	if subtle.ConstantTimeCompare([]byte(req.ClientID), []byte(h.ClientID)) != 1 ||
		subtle.ConstantTimeCompare([]byte(req.ClientSecret), []byte(h.ClientSecret)) != 1 {
		return oauthError(c, http.StatusUnauthorized, "invalid_client", "Invalid client credentials")
	}

	userID, err := h.Codes.ConsumeCode(c.Context(), req.Code, req.ClientID)
	if errors.Is(err, storage.ErrCodeInvalid) {
		return oauthError(c, http.StatusBadRequest, "invalid_grant", "Authorization code is invalid or expired")
	}
	if err != nil {
		return writeError(c, err)
	}

	acc, err := h.Accounts.AccountByID(c.Context(), userID)
	if errors.Is(err, storage.ErrNoAccount) {
		return oauthError(c, http.StatusBadRequest, "invalid_grant", "Authorization code is invalid or expired")
	}
	if err != nil {
		return writeError(c, err)
	}

	accessToken, err := h.Gate.Issue(acc.ID.String())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"access_token": accessToken,
		"token_type":   "Bearer",
		"expires_in":   tokenExpiresIn,
		"user":         acc,
	})
}

func oauthError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}

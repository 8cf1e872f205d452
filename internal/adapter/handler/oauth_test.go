package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ShayNeeo/DeltaUp/internal/adapter/middleware"
)

type savedCode struct {
	code      string
	userID    uuid.UUID
	clientID  string
	expiresAt time.Time
}

type fakeCodeStore struct {
	saved []savedCode
}

func (s *fakeCodeStore) SaveCode(ctx context.Context, code string, userID uuid.UUID, clientID string, expiresAt time.Time) error {
	s.saved = append(s.saved, savedCode{code: code, userID: userID, clientID: clientID, expiresAt: expiresAt})
	return nil
}

func (s *fakeCodeStore) ConsumeCode(ctx context.Context, code, clientID string) (uuid.UUID, error) {
	return uuid.Nil, nil
}

func oauthApp(h *OAuthHandler, subject string) *fiber.App {
	app := fiber.New()
	app.Get("/oauth/authorize", func(c *fiber.Ctx) error {
		c.Locals(middleware.SubjectKey, subject)
		return c.Next()
	}, h.Authorize)
	return app
}

func TestAuthorizeBindsCodeToCallerAndClock(t *testing.T) {
	at := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()
	codes := &fakeCodeStore{}
	h := &OAuthHandler{
		Codes:    codes,
		ClientID: "web-client",
		Now:      func() time.Time { return at },
	}
	app := oauthApp(h, userID.String())

	req := httptest.NewRequest(http.MethodGet,
		"/oauth/authorize?client_id=web-client&redirect_uri=https://app.example.com/cb&response_type=code&state=xyz", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if len(codes.saved) != 1 {
		t.Fatalf("expected 1 issued code, got %d", len(codes.saved))
	}
	saved := codes.saved[0]
	if saved.userID != userID {
		t.Fatalf("expected code bound to %s, got %s", userID, saved.userID)
	}
	if saved.clientID != "web-client" {
		t.Fatalf("expected code bound to client, got %q", saved.clientID)
	}
	if !saved.expiresAt.Equal(at.Add(authorizationCodeTTL)) {
		t.Fatalf("expected expiry %s, got %s", at.Add(authorizationCodeTTL), saved.expiresAt)
	}

	location := resp.Header.Get("Location")
	if !strings.HasPrefix(location, "https://app.example.com/cb?code="+saved.code) {
		t.Fatalf("unexpected redirect target: %s", location)
	}
	if !strings.Contains(location, "state=xyz") {
		t.Fatalf("expected state to round-trip, got %s", location)
	}
}

func TestAuthorizeRejectsUnknownClient(t *testing.T) {
	codes := &fakeCodeStore{}
	h := &OAuthHandler{Codes: codes, ClientID: "web-client"}
	app := oauthApp(h, uuid.New().String())

	req := httptest.NewRequest(http.MethodGet,
		"/oauth/authorize?client_id=other&redirect_uri=https://app.example.com/cb&response_type=code", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if len(codes.saved) != 0 {
		t.Fatalf("code issued for unknown client")
	}
}

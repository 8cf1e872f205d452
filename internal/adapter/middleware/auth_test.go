package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ShayNeeo/DeltaUp/internal/core/auth"
)

func protectedApp(gate *auth.Gate) *fiber.App {
	app := fiber.New()
	app.Get("/private", Protected(gate), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(SubjectKey).(string))
	})
	return app
}

func TestProtectedPassesSubjectThrough(t *testing.T) {
	gate := auth.NewGate([]byte("test-secret"), time.Hour, nil)
	app := protectedApp(gate)

	token, err := gate.Issue("user-42")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "user-42" {
		t.Fatalf("expected subject user-42, got %q", body)
	}
}

func TestProtectedRejectsBadCredentials(t *testing.T) {
	gate := auth.NewGate([]byte("test-secret"), time.Hour, nil)
	app := protectedApp(gate)

	tests := []struct {
		name   string
		header string
	}{
		{name: "no header", header: ""},
		{name: "malformed header", header: "nonsense"},
		{name: "invalid token", header: "Bearer not-a-token"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", resp.StatusCode)
			}
		})
	}
}

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/ShayNeeo/DeltaUp/internal/core/domain"
)

func clockAt(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	gate := NewGate([]byte("test-secret"), 24*time.Hour, clockAt(now))

	token, err := gate.Issue("user-123")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	subject, err := gate.VerifyHeader("Bearer " + token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if subject != "user-123" {
		t.Fatalf("expected subject user-123, got %q", subject)
	}
}

func TestVerifyHeaderFormats(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	gate := NewGate([]byte("test-secret"), 24*time.Hour, clockAt(now))
	token, err := gate.Issue("user-123")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tests := []struct {
		name   string
		header string
		ok     bool
	}{
		{name: "missing header", header: "", ok: false},
		{name: "no scheme", header: token, ok: false},
		{name: "wrong scheme", header: "Basic " + token, ok: false},
		{name: "empty credential", header: "Bearer ", ok: false},
		{name: "garbage credential", header: "Bearer not-a-token", ok: false},
		{name: "lowercase scheme", header: "bearer " + token, ok: true},
		{name: "valid", header: "Bearer " + token, ok: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := gate.VerifyHeader(tc.header)
			if tc.ok && err != nil {
				t.Fatalf("expected header to verify, got %v", err)
			}
			if !tc.ok {
				var de *domain.Error
				if !errors.As(err, &de) || de.Code != domain.CodeUnauthorized {
					t.Fatalf("expected unauthorized, got %v", err)
				}
			}
		})
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuedAt := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	issuer := NewGate([]byte("test-secret"), 24*time.Hour, clockAt(issuedAt))
	token, err := issuer.Issue("user-123")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	verifier := NewGate([]byte("test-secret"), 24*time.Hour, clockAt(issuedAt.Add(25*time.Hour)))
	if _, err := verifier.Verify(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}

	stillValid := NewGate([]byte("test-secret"), 24*time.Hour, clockAt(issuedAt.Add(23*time.Hour)))
	if _, err := stillValid.Verify(token); err != nil {
		t.Fatalf("expected token to still verify before expiry, got %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	issuer := NewGate([]byte("test-secret"), 24*time.Hour, clockAt(now))
	token, err := issuer.Issue("user-123")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := NewGate([]byte("another-secret"), 24*time.Hour, clockAt(now))
	if _, err := other.Verify(token); err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}
}

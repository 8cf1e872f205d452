package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ShayNeeo/DeltaUp/internal/core/domain"
)

// Gate issues and verifies the bearer tokens that identify callers. The
// signing secret and clock are fixed at construction; verification is a pure
// function of the header, the secret and the current time.
type Gate struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewGate builds a token gate. A nil clock defaults to time.Now.
func NewGate(secret []byte, ttl time.Duration, now func() time.Time) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{secret: secret, ttl: ttl, now: now}
}

// Issue creates a signed HS256 token with the user's ID as subject.
func (g *Gate) Issue(userID string) (string, error) {
	issuedAt := g.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(g.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyHeader extracts the bearer credential from an Authorization header
// value and returns the embedded subject.
func (g *Gate) VerifyHeader(header string) (string, error) {
	if header == "" {
		return "", domain.E(domain.CodeUnauthorized, "Missing Authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", domain.E(domain.CodeUnauthorized, "Invalid Authorization header format")
	}
	return g.Verify(parts[1])
}

// Verify checks a raw token string and returns its subject.
func (g *Gate) Verify(raw string) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return g.secret, nil
	}, jwt.WithTimeFunc(g.now))
	if err != nil || !token.Valid {
		return "", domain.E(domain.CodeUnauthorized, "Invalid or expired token")
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", domain.E(domain.CodeUnauthorized, "Invalid token claims")
	}
	return claims.Subject, nil
}

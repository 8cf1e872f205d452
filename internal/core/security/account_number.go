package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const accountNumberLength = 10

// GenerateAccountNumber creates a random 10-digit account number using
// crypto/rand. Uniqueness is enforced by the database constraint; the caller
// retries on collision.
func GenerateAccountNumber() (string, error) {
	digits := make([]byte, accountNumberLength)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generate account number: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

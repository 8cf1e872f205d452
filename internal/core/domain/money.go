package domain

// Amounts are exact fixed-point decimals with scale 2, matching the
// DECIMAL(15,2) columns. Floats never touch money: every debit and credit
// goes through decimal arithmetic so a transfer of X moves exactly X.

import "github.com/shopspring/decimal"

// ValidateAmount checks a transfer amount before any state is touched.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return E(CodeInvalidAmount, "Amount must be greater than 0")
	}
	if !amount.Equal(amount.Round(2)) {
		return E(CodeInvalidAmount, "Amount cannot have more than two decimal places")
	}
	return nil
}

package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		valid  bool
	}{
		{name: "one cent", amount: "0.01", valid: true},
		{name: "whole number", amount: "10", valid: true},
		{name: "two decimal places", amount: "1234.56", valid: true},
		{name: "zero", amount: "0", valid: false},
		{name: "negative", amount: "-5", valid: false},
		{name: "three decimal places", amount: "10.999", valid: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			amount, err := decimal.NewFromString(tc.amount)
			if err != nil {
				t.Fatalf("parse %q: %v", tc.amount, err)
			}
			err = ValidateAmount(amount)
			if tc.valid && err != nil {
				t.Fatalf("expected %s to be valid, got %v", tc.amount, err)
			}
			if !tc.valid {
				var de *Error
				if !errors.As(err, &de) || de.Code != CodeInvalidAmount {
					t.Fatalf("expected invalid_amount for %s, got %v", tc.amount, err)
				}
			}
		})
	}
}

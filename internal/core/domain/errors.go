package domain

import "fmt"

// Code is a machine-readable error code. It is the only thing the HTTP
// boundary needs to pick a status; handlers never build ad hoc error shapes.
type Code string

const (
	CodeUnauthorized      Code = "unauthorized"
	CodeInvalidRequest    Code = "invalid_request"
	CodeInvalidAmount     Code = "invalid_amount"
	CodeInvalidRecipient  Code = "invalid_recipient"
	CodeInvalidQR         Code = "invalid_qr"
	CodeInsufficientFunds Code = "insufficient_funds"
	CodeRecipientNotFound Code = "recipient_not_found"
	CodeAccountNotFound   Code = "account_not_found"
	CodeInternal          Code = "internal_error"
)

// Error carries a code plus a human-readable message. Infrastructure causes
// are wrapped so they stay inspectable with errors.Is/As but are never
// leaked to clients.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a business or validation error.
func E(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds an error around an infrastructure cause.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

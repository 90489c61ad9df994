package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every error returned by the engine matches exactly one of
// these with errors.Is.
var (
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrWalletBlocked       = errors.New("wallet is blocked")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrDuplicate           = errors.New("resource already exists")
	ErrStorageConflict     = errors.New("storage conflict")
)

var (
	// Wallet errors
	ErrWalletNotFound  = fmt.Errorf("wallet %w", ErrNotFound)
	ErrDuplicateWallet = fmt.Errorf("wallet %w", ErrDuplicate)

	// Identity errors
	ErrIdentityNotFound  = fmt.Errorf("identity %w", ErrNotFound)
	ErrAgentNotFound     = fmt.Errorf("agent %w", ErrNotFound)
	ErrDuplicateIdentity = fmt.Errorf("identity %w", ErrDuplicate)
	ErrIdentityBlocked   = fmt.Errorf("%w: account is blocked", ErrForbidden)

	// Transaction errors
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)

	// Policy errors
	ErrAgentNotApproved   = fmt.Errorf("%w: agent is not approved", ErrForbidden)
	ErrCannotActOnAdmin   = fmt.Errorf("%w: cannot act on an admin", ErrForbidden)
	ErrOperationNotPermit = fmt.Errorf("%w: operation not permitted for role", ErrForbidden)

	// Authentication errors
	ErrInvalidToken = fmt.Errorf("%w: invalid token", ErrUnauthorized)
	ErrExpiredToken = fmt.Errorf("%w: token has expired", ErrUnauthorized)
)

// FieldViolation describes a single invalid input field.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries field-level violations and matches ErrValidation.
type ValidationError struct {
	Fields []FieldViolation
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldViolation{{Field: field, Message: message}}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}

	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Add appends a violation and returns the receiver.
func (e *ValidationError) Add(field, message string) *ValidationError {
	e.Fields = append(e.Fields, FieldViolation{Field: field, Message: message})
	return e
}

// Merge appends the violations carried by err, if any.
func (e *ValidationError) Merge(err error) *ValidationError {
	var other *ValidationError
	if errors.As(err, &other) {
		e.Fields = append(e.Fields, other.Fields...)
	}
	return e
}

// ErrOrNil returns nil when no violations were collected.
func (e *ValidationError) ErrOrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// ErrorKind names the caller-facing category of an error.
type ErrorKind string

const (
	KindValidation          ErrorKind = "validation_error"
	KindNotFound            ErrorKind = "not_found"
	KindUnauthorized        ErrorKind = "unauthorized"
	KindForbidden           ErrorKind = "forbidden"
	KindWalletBlocked       ErrorKind = "wallet_blocked"
	KindInsufficientBalance ErrorKind = "insufficient_balance"
	KindDuplicate           ErrorKind = "duplicate_resource"
	KindStorageConflict     ErrorKind = "storage_conflict"
	KindInternal            ErrorKind = "internal"
)

var kindTable = []struct {
	err  error
	kind ErrorKind
}{
	{ErrValidation, KindValidation},
	{ErrNotFound, KindNotFound},
	{ErrUnauthorized, KindUnauthorized},
	{ErrForbidden, KindForbidden},
	{ErrWalletBlocked, KindWalletBlocked},
	{ErrInsufficientBalance, KindInsufficientBalance},
	{ErrDuplicate, KindDuplicate},
	{ErrStorageConflict, KindStorageConflict},
}

// KindOf classifies err. Unknown errors are internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	for _, k := range kindTable {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// IsRetryable reports whether the caller may safely retry the operation.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorageConflict)
}

package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can branch on it instead of
// inspecting message strings.
type Kind string

const (
	KindAuthentication    Kind = "AUTHENTICATION"
	KindValidation        Kind = "VALIDATION"
	KindNotFound          Kind = "NOT_FOUND"
	KindStoreFailed       Kind = "STORE_FAILED"
	KindLedgerFailed      Kind = "LEDGER_FAILED"
	KindLedgerUnavailable Kind = "LEDGER_UNAVAILABLE"
	KindIndexFailed       Kind = "INDEX_FAILED"
)

// Error is the tagged error type used across the service boundary.
// For KindIndexFailed, TransactionID carries the ledger transaction that
// has no matching index record, so the operation can be replayed.
type Error struct {
	Kind          Kind
	Message       string
	TransactionID string
	cause         error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// IndexFailed marks the divergence state: the ledger holds transactionID but
// the index write for it did not land.
func IndexFailed(transactionID string, cause error) *Error {
	return &Error{
		Kind:          KindIndexFailed,
		Message:       "ledger transaction anchored but index update failed",
		TransactionID: transactionID,
		cause:         cause,
	}
}

// KindOf extracts the Kind from err, or "" if err is not a tagged error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

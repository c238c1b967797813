package ledger

import (
	"context"
	"errors"
	"fmt"
)

// Anchor is the result of submitting a document transaction. ConfirmedDigest
// is the digest the ledger actually recorded; callers must compare it against
// the digest they submitted before trusting the write.
type Anchor struct {
	TransactionID   string
	ConfirmedDigest string
}

// Error is the adapter's failure signal. Unavailable distinguishes "could not
// reach the ledger" from "the ledger rejected the operation"; the adapter
// never retries either case itself.
type Error struct {
	Message     string
	Unavailable bool
	cause       error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("ledger: %s: %v", e.Message, e.cause)
	}
	return "ledger: " + e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func rejected(message string) *Error {
	return &Error{Message: message}
}

func unavailable(message string, cause error) *Error {
	return &Error{Message: message, Unavailable: true, cause: cause}
}

// IsUnavailable reports whether err signals that the ledger could not be
// reached at all, as opposed to rejecting a well-formed submission.
func IsUnavailable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Unavailable
}

// Gateway is the capability interface over the shared ledger network. Every
// call opens a connection scoped to the given identity and closes it before
// returning, on success, error, and cancellation alike. Implementations do
// not retry; ordering of conflicting submissions per document is the ledger's
// responsibility.
type Gateway interface {
	// OnboardIdentity registers userID as a participant and issues ledger
	// credentials bound to the passport. Runs under the admin identity.
	OnboardIdentity(ctx context.Context, passport, userID string) error

	// VerifyIdentity reports whether userID is still registered on the
	// ledger. A false result with nil error means the identity is gone;
	// a non-nil error means the check itself could not be performed.
	VerifyIdentity(ctx context.Context, passport, userID string) (bool, error)

	// SubmitCreate anchors the initial content digest for a new report.
	SubmitCreate(ctx context.Context, passport, reportID, digest string) (*Anchor, error)

	// SubmitUpdate anchors a new content digest for an existing report.
	SubmitUpdate(ctx context.Context, passport, reportID, digest string) (*Anchor, error)

	// ResolveCreationContent returns the digest recorded by the report's
	// creation transaction.
	ResolveCreationContent(ctx context.Context, passport, reportID string) (string, error)

	// ResolveUpdateContent returns the digest recorded by the given update
	// transaction.
	ResolveUpdateContent(ctx context.Context, passport, transactionID string) (string, error)
}

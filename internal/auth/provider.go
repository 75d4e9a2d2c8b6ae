package auth

import (
	"context"
)

// Session is the result of a successful credential check. SessionID is
// revocable independently of the token's expiry.
type Session struct {
	UID       string
	SessionID string
	Token     string
}

// Provider is the authentication collaborator: it owns credentials and
// sessions, nothing else. Account status gating happens in the usecase
// layer on top of it.
type Provider interface {
	// CreateCredential registers an email/password pair and returns the
	// stable account identifier. Fails with xerrors.ErrEmailAlreadyInUse
	// when the email already holds a credential.
	CreateCredential(ctx context.Context, email, password string) (string, error)

	// Authenticate validates the credential and opens a session.
	Authenticate(ctx context.Context, email, password string) (*Session, error)

	// ForceSignOut invalidates every live session for the identifier.
	ForceSignOut(ctx context.Context, uid string) error
}

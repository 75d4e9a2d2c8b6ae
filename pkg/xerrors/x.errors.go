package xerrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Kind is the machine-readable error class returned to callers.
// Only KindUpstream is retryable; everything else is terminal.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindAuthorization Kind = "authorization"
	KindUpstream      Kind = "upstream"
	KindInternal      Kind = "internal"
)

// Generic
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalServer = errors.New("internal server error")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrUpstream       = errors.New("upstream service unavailable")
)

// Signup intake / approval
var (
	ErrRequestNotFound    = errors.New("signup request not found")
	ErrAlreadyApproved    = errors.New("signup request already approved")
	ErrConsentRequired    = errors.New("you must accept terms and conditions to apply")
	ErrEmailRequired      = errors.New("email required")
	ErrBusinessRequired   = errors.New("business name required")
	ErrInvalidEmailFormat = errors.New("invalid email format")
)

// Registration code
var (
	ErrAccountNotFound   = errors.New("partner account not found")
	ErrInvalidCode       = errors.New("invalid registration code")
	ErrCodeAlreadyUsed   = errors.New("registration code already used")
	ErrEmailAlreadyInUse = errors.New("email already in use")
)

// Login / account state
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
)

// Password rules
var (
	ErrPasswordRequired  = errors.New("password required")
	ErrPasswordTooShort  = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong   = errors.New("password must not exceed 100 characters")
	ErrPasswordUppercase = errors.New("password must include at least one uppercase letter")
	ErrPasswordLowercase = errors.New("password must include at least one lowercase letter")
	ErrPasswordDigit     = errors.New("password must include at least one digit")
)

// Onboarding
var (
	ErrDraftNotFound = errors.New("onboarding draft not found")
	ErrEmptyDraft    = errors.New("draft payload is empty")
)

// Session / token
var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("expired token")
	ErrSessionRevoked = errors.New("session revoked")
)

// KindOf classifies an error into its Kind. Unknown errors are internal.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrConsentRequired),
		errors.Is(err, ErrEmailRequired),
		errors.Is(err, ErrBusinessRequired),
		errors.Is(err, ErrInvalidEmailFormat),
		errors.Is(err, ErrPasswordRequired),
		errors.Is(err, ErrPasswordTooShort),
		errors.Is(err, ErrPasswordTooLong),
		errors.Is(err, ErrPasswordUppercase),
		errors.Is(err, ErrPasswordLowercase),
		errors.Is(err, ErrPasswordDigit),
		errors.Is(err, ErrEmptyDraft):
		return KindValidation
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrRequestNotFound),
		errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrDraftNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict),
		errors.Is(err, ErrAlreadyApproved),
		errors.Is(err, ErrCodeAlreadyUsed),
		errors.Is(err, ErrEmailAlreadyInUse):
		return KindConflict
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrAccountDisabled),
		errors.Is(err, ErrInvalidCode),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrExpiredToken),
		errors.Is(err, ErrSessionRevoked):
		return KindAuthorization
	case errors.Is(err, ErrUpstream):
		return KindUpstream
	default:
		return KindInternal
	}
}

// Retryable reports whether callers should retry with backoff.
func Retryable(err error) bool {
	return KindOf(err) == KindUpstream
}

type upstreamError struct {
	err error
}

func (e *upstreamError) Error() string        { return "upstream: " + e.err.Error() }
func (e *upstreamError) Unwrap() error        { return e.err }
func (e *upstreamError) Is(target error) bool { return target == ErrUpstream }

// Upstream marks a transient store/provider failure as retryable while
// preserving the underlying error chain.
func Upstream(err error) error {
	if err == nil {
		return nil
	}
	return &upstreamError{err: err}
}

// ParsePGErrorCode extracts the SQLSTATE code from a pg error.
func ParsePGErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code // e.g. 23505 for unique_violation
	}
	return "unknown"
}

// IsUniqueViolation reports a 23505 unique constraint failure.
func IsUniqueViolation(err error) bool {
	return ParsePGErrorCode(err) == "23505"
}

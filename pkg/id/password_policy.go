package id

import (
	"strings"

	"partner-service/pkg/xerrors"
)

const (
	digits    = "0123456789"
	lowercase = "abcdefghijklmnopqrstuvwxyz"
	uppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

type PasswordPolicy struct {
	MinLength    int
	MaxLength    int
	RequireUpper bool
	RequireLower bool
	RequireDigit bool
}

// DefaultPasswordPolicy applies to first-password setup at registration.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:    8,
		MaxLength:    100,
		RequireUpper: false,
		RequireLower: true,
		RequireDigit: true,
	}
}

// ValidatePassword checks a candidate password against the policy and
// returns the first violated rule.
func ValidatePassword(password string, policy PasswordPolicy) error {
	if password == "" {
		return xerrors.ErrPasswordRequired
	}
	if len(password) < policy.MinLength {
		return xerrors.ErrPasswordTooShort
	}
	if policy.MaxLength > 0 && len(password) > policy.MaxLength {
		return xerrors.ErrPasswordTooLong
	}
	if policy.RequireUpper && !strings.ContainsAny(password, uppercase) {
		return xerrors.ErrPasswordUppercase
	}
	if policy.RequireLower && !strings.ContainsAny(password, lowercase) {
		return xerrors.ErrPasswordLowercase
	}
	if policy.RequireDigit && !strings.ContainsAny(password, digits) {
		return xerrors.ErrPasswordDigit
	}
	return nil
}

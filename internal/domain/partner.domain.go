package domain

import (
	"time"
)

type AccountStatus string

const (
	AccountStatusEnabled  AccountStatus = "enabled"
	AccountStatusDisabled AccountStatus = "disabled"
)

// Toggle returns the opposite status.
func (s AccountStatus) Toggle() AccountStatus {
	if s == AccountStatusDisabled {
		return AccountStatusEnabled
	}
	return AccountStatusDisabled
}

// PartnerSignupRequest is a business applicant's intake submission.
// Read-only to the applicant; consumed exactly once by admin approval.
type PartnerSignupRequest struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	BusinessName string
	BusinessType string
	Location     string
	Phone        string
	Consent      bool
	Approved     bool
	CreatedAt    time.Time
}

// PartnerAccount is created by approval. RegistrationCode is present iff
// UID is unset; Status toggles independently of the registration axis.
type PartnerAccount struct {
	ID               string
	UID              *string
	Email            string
	FirstName        string
	LastName         string
	BusinessName     string
	BusinessType     string
	Location         string
	Phone            string
	Consent          bool
	Status           AccountStatus
	RegistrationCode string
	ApprovedAt       time.Time
	RegisteredAt     *time.Time
	BusinessID       *string
}

// Registered reports whether the account has completed credential setup.
func (a *PartnerAccount) Registered() bool {
	return a.UID != nil && *a.UID != ""
}

// PendingRegistration reports whether the single-use code is still live.
func (a *PartnerAccount) PendingRegistration() bool {
	return a.RegistrationCode != ""
}

package handler

import (
	"time"

	"partner-service/internal/domain"
)

type signupRequestView struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	BusinessName string    `json:"business_name"`
	BusinessType string    `json:"business_type"`
	Location     string    `json:"location"`
	Phone        string    `json:"phone"`
	CreatedAt    time.Time `json:"created_at"`
}

type accountView struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	BusinessName     string     `json:"business_name"`
	BusinessType     string     `json:"business_type"`
	Location         string     `json:"location"`
	Phone            string     `json:"phone"`
	Status           string     `json:"status"`
	Registered       bool       `json:"registered"`
	RegistrationCode string     `json:"registration_code,omitempty"`
	ApprovedAt       time.Time  `json:"approved_at"`
	RegisteredAt     *time.Time `json:"registered_at,omitempty"`
}

func toSignupRequestView(req *domain.PartnerSignupRequest) signupRequestView {
	return signupRequestView{
		ID:           req.ID,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		BusinessName: req.BusinessName,
		BusinessType: req.BusinessType,
		Location:     req.Location,
		Phone:        req.Phone,
		CreatedAt:    req.CreatedAt,
	}
}

// toAccountView renders an account. The registration code is only included
// for admin consumers, who hand it to the applicant out of band.
func toAccountView(a *domain.PartnerAccount, includeCode bool) accountView {
	view := accountView{
		ID:           a.ID,
		Email:        a.Email,
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		BusinessName: a.BusinessName,
		BusinessType: a.BusinessType,
		Location:     a.Location,
		Phone:        a.Phone,
		Status:       string(a.Status),
		Registered:   a.Registered(),
		ApprovedAt:   a.ApprovedAt,
		RegisteredAt: a.RegisteredAt,
	}
	if includeCode {
		view.RegistrationCode = a.RegistrationCode
	}
	return view
}

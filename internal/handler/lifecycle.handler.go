package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"partner-service/internal/auth/middleware"
	"partner-service/internal/domain"
	"partner-service/pkg/response"
)

// callerIsAdmin reports whether the authenticated caller holds the admin
// role; it decides registration-code visibility in account views.
func callerIsAdmin(r *http.Request) bool {
	role, _ := middleware.GetRole(r.Context())
	return role == middleware.RolePartnerAdmin
}

type signupRequestPayload struct {
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	BusinessName string `json:"business_name"`
	BusinessType string `json:"business_type"`
	Location     string `json:"location"`
	Phone        string `json:"phone"`
	Consent      bool   `json:"consent"`
}

// SubmitSignupRequest receives a business applicant's intake form.
func (h *PartnerHandler) SubmitSignupRequest(w http.ResponseWriter, r *http.Request) {
	var payload signupRequestPayload
	if err := render.DecodeJSON(r.Body, &payload); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req := &domain.PartnerSignupRequest{
		Email:        payload.Email,
		FirstName:    payload.FirstName,
		LastName:     payload.LastName,
		BusinessName: payload.BusinessName,
		BusinessType: payload.BusinessType,
		Location:     payload.Location,
		Phone:        payload.Phone,
		Consent:      payload.Consent,
	}
	if err := h.lifecycle.SubmitSignupRequest(r.Context(), req); err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, map[string]interface{}{
		"request_id": req.ID,
		"message":    "Application received. You'll hear from us once it's reviewed.",
	})
}

// ApproveRequest converts a pending signup request into a partner account.
func (h *PartnerHandler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "id")

	account, err := h.lifecycle.ApproveRequest(r.Context(), requestID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"account": toAccountView(account, callerIsAdmin(r)),
		"message": "Partner request approved",
	})
}

// ToggleStatus flips an account between enabled and disabled.
func (h *PartnerHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	status, err := h.lifecycle.ToggleStatus(r.Context(), accountID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"status":  string(status),
		"message": "Partner account status updated",
	})
}

type verifyCodePayload struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// VerifyRegistrationCode checks a code without consuming it.
func (h *PartnerHandler) VerifyRegistrationCode(w http.ResponseWriter, r *http.Request) {
	var payload verifyCodePayload
	if err := render.DecodeJSON(r.Body, &payload); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.lifecycle.VerifyRegistrationCode(r.Context(), payload.Email, payload.Code); err != nil {
		response.FromError(w, err)
		return
	}

	response.Message(w, http.StatusOK, "Registration code verified")
}

type completeRegistrationPayload struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

// CompleteRegistration consumes the code and sets the account's first
// password.
func (h *PartnerHandler) CompleteRegistration(w http.ResponseWriter, r *http.Request) {
	var payload completeRegistrationPayload
	if err := render.DecodeJSON(r.Body, &payload); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.lifecycle.CompleteRegistration(r.Context(), payload.Email, payload.Code, payload.Password)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"account": toAccountView(account, false),
		"message": "Registration complete. You can now sign in.",
	})
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates a partner and returns a session token. Disabled
// accounts fail here even when the credential itself is valid.
func (h *PartnerHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := render.DecodeJSON(r.Body, &payload); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.lifecycle.AuthenticateLogin(r.Context(), payload.Email, payload.Password)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"token":   result.Session.Token,
		"account": toAccountView(result.Account, false),
	})
}

// AdminDashboard returns pending requests and all partner accounts.
func (h *PartnerHandler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	data, err := h.lifecycle.AdminDashboardData(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}

	includeCode := callerIsAdmin(r)
	requests := make([]signupRequestView, 0, len(data.PendingRequests))
	for _, req := range data.PendingRequests {
		requests = append(requests, toSignupRequestView(req))
	}
	accounts := make([]accountView, 0, len(data.PartnerAccounts))
	for _, a := range data.PartnerAccounts {
		accounts = append(accounts, toAccountView(a, includeCode))
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"pending_requests": requests,
		"partner_accounts": accounts,
	})
}

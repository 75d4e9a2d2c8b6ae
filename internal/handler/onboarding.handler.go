package handler

import (
	"net/http"

	"github.com/go-chi/render"

	"partner-service/internal/auth/middleware"
	"partner-service/pkg/response"
)

// GetDraft returns the caller's stored draft (or none) plus the estimated
// resume step for the wizard.
func (h *PartnerHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	draft, err := h.onboarding.LoadDraft(r.Context(), userID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	step, err := h.onboarding.EstimateResumeStep(r.Context(), userID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	body := map[string]interface{}{
		"resume_step": step,
	}
	if draft != nil {
		body["draft"] = map[string]interface{}{
			"data":         draft.Data,
			"last_step":    draft.LastStep,
			"last_updated": draft.LastUpdated,
			"version":      draft.Version,
		}
	}
	response.JSON(w, http.StatusOK, body)
}

// GetFinal returns the permanent onboarding record once finalize has run.
func (h *PartnerHandler) GetFinal(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	final, err := h.onboarding.LoadFinal(r.Context(), userID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"data":         final.Data,
		"completed_at": final.CompletedAt,
		"version":      final.Version,
	})
}

type saveDraftPayload struct {
	Data     map[string]interface{} `json:"data"`
	LastStep int                    `json:"last_step"`
}

// SaveDraft queues a partial answer set into the debounced autosaver. The
// write lands after the quiet period; repeated edits collapse into one.
func (h *PartnerHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var payload saveDraftPayload
	if err := render.DecodeJSON(r.Body, &payload); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(payload.Data) == 0 {
		response.Error(w, http.StatusBadRequest, "draft payload is empty")
		return
	}

	h.autosaver.Queue(userID, payload.Data, payload.LastStep)

	response.Message(w, http.StatusAccepted, "Draft queued for save")
}

// DeleteDraft discards the caller's draft, including anything still pending
// in the autosaver.
func (h *PartnerHandler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	h.autosaver.Cancel(userID)
	if err := h.onboarding.DeleteDraft(r.Context(), userID); err != nil {
		response.FromError(w, err)
		return
	}

	response.Message(w, http.StatusOK, "Draft deleted")
}

type finalizePayload struct {
	Data map[string]interface{} `json:"data"`
}

// Finalize converts the wizard's full answer set into the permanent
// onboarding record and purges the draft. Safe to retry.
func (h *PartnerHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var payload finalizePayload
	if err := render.DecodeJSON(r.Body, &payload); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Anything still buffered belongs in the snapshot's store state too.
	h.autosaver.Flush(userID)

	final, err := h.onboarding.Finalize(r.Context(), userID, payload.Data)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"completed_at": final.CompletedAt,
		"version":      final.Version,
		"message":      "Onboarding complete",
	})
}

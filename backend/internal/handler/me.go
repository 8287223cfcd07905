package handler

import (
	"net/http"

	"github.com/itchan-dev/kanaal/shared/api"
	"github.com/itchan-dev/kanaal/shared/domain"
	"github.com/itchan-dev/kanaal/shared/utils"
)

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}
	writeJSON(w, http.StatusOK, api.UserResponse{User: *user})
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}
	var body api.UpdateProfileRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	updated, err := h.users.UpdateProfile(r.Context(), user.Id, domain.UserUpdate{
		DisplayName: body.DisplayName,
		Bio:         body.Bio,
		AvatarUrl:   body.AvatarUrl,
		Tags:        body.Tags,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.UserResponse{User: updated})
}

func (h *Handler) CompleteOnboardingStep(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}
	var body api.OnboardingStepRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	updated, err := h.users.CompleteOnboardingStep(r.Context(), user.Id, body.Step)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.UserResponse{User: updated})
}

func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}
	if err := h.users.DeleteSelf(r.Context(), user.Id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/kanaal/shared/api"
	"github.com/itchan-dev/kanaal/shared/errors"
	mw "github.com/itchan-dev/kanaal/shared/middleware"
	"github.com/itchan-dev/kanaal/shared/utils"
)

func (h *Handler) SetRole(w http.ResponseWriter, r *http.Request) {
	actor := currentUser(w, r)
	if actor == nil {
		return
	}
	var body api.SetRoleRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	user, err := h.users.SetRole(r.Context(), actor, chi.URLParam(r, "userId"), body.Role)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.UserResponse{User: user})
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor := currentUser(w, r)
	if actor == nil {
		return
	}
	if err := h.users.DeleteByAdmin(r.Context(), actor, chi.URLParam(r, "userId")); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Curate(w http.ResponseWriter, r *http.Request) {
	report, err := h.curation.Run(r.Context(), chi.URLParam(r, "operation"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.CurationResponse{CurationReport: report})
}

func (h *Handler) SweepStatus(w http.ResponseWriter, r *http.Request) {
	stats := h.sweeps.LastSweepStats()
	resp := api.SweepStatusResponse{
		Repairs:            stats.Repairs(),
		OrphanComments:     stats.OrphanComments,
		OrphanPolls:        stats.OrphanPolls,
		OrphanVotes:        stats.OrphanVotes,
		StickyRepairs:      stats.StickyRepairs,
		StickyFlagRepairs:  stats.StickyFlagRepairs,
		SectionRefsCleared: stats.SectionRefsCleared,
		OrphanThreads:      stats.OrphanThreads,
		DurationMs:         stats.DurationMs,
		Errors:             stats.Errors,
	}
	if !stats.RunAt.IsZero() {
		resp.RunAt = &stats.RunAt
	}
	writeJSON(w, http.StatusOK, resp)
}

// GatewayDeleteUser is called by the identity gateway when an account is
// removed upstream. The subject in the URL must match the signed token.
func (h *Handler) GatewayDeleteUser(w http.ResponseWriter, r *http.Request) {
	externalId := chi.URLParam(r, "externalId")
	if subject := mw.GetGatewaySubject(r); subject != "" && subject != externalId {
		utils.WriteErrorAndStatusCode(w, errors.PermissionDenied("token subject does not match user"))
		return
	}
	if err := h.users.DeleteByExternalId(r.Context(), externalId); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/kanaal/backend/internal/service"
	"github.com/itchan-dev/kanaal/shared/api"
	"github.com/itchan-dev/kanaal/shared/domain"
	"github.com/itchan-dev/kanaal/shared/errors"
	mw "github.com/itchan-dev/kanaal/shared/middleware"
	"github.com/itchan-dev/kanaal/shared/utils"
)

// canSeeHidden decides whether draft sections and hidden channels are listed.
func canSeeHidden(r *http.Request) bool {
	user := mw.GetUserFromContext(r)
	return user != nil && user.CanModerate()
}

func (h *Handler) ListSections(w http.ResponseWriter, r *http.Request) {
	sections, err := h.sections.List(r.Context(), canSeeHidden(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.SectionListResponse{Sections: sections})
}

func (h *Handler) ListChannels(w http.ResponseWriter, r *http.Request) {
	groups, err := h.channels.List(r.Context(), canSeeHidden(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.ChannelListResponse{Groups: groups})
}

func (h *Handler) GetChannel(w http.ResponseWriter, r *http.Request) {
	channel, err := h.channels.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if !channel.IsVisible() && !canSeeHidden(r) {
		utils.WriteErrorAndStatusCode(w, errors.NotFound("Channel not found"))
		return
	}
	writeJSON(w, http.StatusOK, channel)
}

func (h *Handler) CreateSection(w http.ResponseWriter, r *http.Request) {
	var body api.CreateSectionRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	section, err := h.sections.Create(r.Context(), domain.SectionCreationData{
		Name:   body.Name,
		Emoji:  body.Emoji,
		Color:  body.Color,
		Status: body.Status,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, section)
}

func (h *Handler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	var body api.UpdateSectionRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	section, err := h.sections.Update(r.Context(), chi.URLParam(r, "sectionId"), domain.SectionUpdate{
		Name:   body.Name,
		Emoji:  body.Emoji,
		Color:  body.Color,
		Status: body.Status,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusOK, section)
}

func (h *Handler) ReorderSections(w http.ResponseWriter, r *http.Request) {
	var body api.OrderRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err := h.sections.Reorder(r.Context(), body.Ids); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteSection accepts an optional body naming where remaining channels go.
func (h *Handler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	var reparent *service.SectionReparent
	if r.ContentLength != 0 {
		var body api.DeleteSectionRequest
		if err := utils.DecodeValidate(r.Body, &body); err != nil {
			utils.WriteErrorAndStatusCode(w, err)
			return
		}
		reparent = &service.SectionReparent{Target: sectionParam(body.ReparentTo)}
	}
	if err := h.sections.Delete(r.Context(), chi.URLParam(r, "sectionId"), reparent); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ReorderChannels(w http.ResponseWriter, r *http.Request) {
	var body api.OrderRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err := h.ordering.Reorder(r.Context(), sectionParam(chi.URLParam(r, "sectionId")), body.Ids); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateChannel(w http.ResponseWriter, r *http.Request) {
	var body api.CreateChannelRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	channel, err := h.channels.Create(r.Context(), domain.ChannelCreationData{
		Name:        body.Name,
		Slug:        body.Slug,
		Description: body.Description,
		Kind:        body.Kind,
		SectionId:   body.SectionId,
		Visible:     body.Visible,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, channel)
}

func (h *Handler) UpdateChannel(w http.ResponseWriter, r *http.Request) {
	var body api.UpdateChannelRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	channel, err := h.channels.Update(r.Context(), chi.URLParam(r, "channelId"), domain.ChannelUpdate{
		Name:        body.Name,
		Description: body.Description,
		Kind:        body.Kind,
		Visible:     body.Visible,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusOK, channel)
}

func (h *Handler) DeleteChannel(w http.ResponseWriter, r *http.Request) {
	if err := h.channels.Delete(r.Context(), chi.URLParam(r, "channelId")); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MoveChannel(w http.ResponseWriter, r *http.Request) {
	var body api.MoveChannelRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err := h.ordering.Move(r.Context(), chi.URLParam(r, "channelId"), body.SectionId, body.Order); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DropChannel(w http.ResponseWriter, r *http.Request) {
	var body api.DropRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	drop, err := h.ordering.Drop(r.Context(), body.Dragged, body.Target)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusOK, drop)
}

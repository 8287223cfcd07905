package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/kanaal/backend/internal/mention"
	"github.com/itchan-dev/kanaal/shared/api"
	"github.com/itchan-dev/kanaal/shared/domain"
	"github.com/itchan-dev/kanaal/shared/utils"
)

type threadResponse struct {
	domain.ThreadView
	BodySegments []mention.Segment `json:"body_segments,omitempty"`
}

func (h *Handler) CreateThread(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}
	var body api.CreateThreadRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	creation := domain.ThreadCreationData{
		ChannelId:   chi.URLParam(r, "channelId"),
		Title:       body.Title,
		AuthorId:    user.Id,
		Kind:        body.Kind,
		Body:        body.Body,
		Attachments: body.Attachments,
	}
	if body.Poll != nil {
		creation.Poll = &domain.PollSpec{
			Question:       body.Poll.Question,
			Options:        body.Poll.Options,
			MultipleChoice: body.Poll.MultipleChoice,
		}
	}
	if body.Mentions != nil {
		creation.Mentions = append([]domain.UserId{}, *body.Mentions...)
	}

	created, err := h.threads.Create(r.Context(), creation)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, api.ThreadCreatedResponse{ThreadCreated: created})
}

func (h *Handler) ListThreads(w http.ResponseWriter, r *http.Request) {
	page := pageParam(r)
	threads, err := h.threads.List(r.Context(), chi.URLParam(r, "channelId"), page)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.ThreadListResponse{Threads: threads, Page: page})
}

func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request) {
	view, err := h.threads.Get(r.Context(), chi.URLParam(r, "threadId"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	h.writeThread(w, r, view)
}

func (h *Handler) GetThreadBySlugNumber(w http.ResponseWriter, r *http.Request) {
	number, err := parseIntParam(chi.URLParam(r, "number"), "thread number")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	view, err := h.threads.GetBySlugNumber(r.Context(), chi.URLParam(r, "slug"), domain.ThreadNumber(number))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	h.writeThread(w, r, view)
}

func (h *Handler) writeThread(w http.ResponseWriter, r *http.Request, view domain.ThreadView) {
	segments, err := h.renderBody(r.Context(), view.Body, view.Mentions)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusOK, threadResponse{ThreadView: view, BodySegments: segments})
}

func (h *Handler) UpvoteThread(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}
	upvoted, err := h.threads.Upvote(r.Context(), chi.URLParam(r, "threadId"), user.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.ToggleResponse{Active: upvoted})
}

func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}
	var body api.VoteRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	threadId := chi.URLParam(r, "threadId")
	if err := h.polls.Vote(r.Context(), threadId, user.Id, *body.OptionIndex); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	results, err := h.polls.Results(r.Context(), threadId, user.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) PollResults(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}
	results, err := h.polls.Results(r.Context(), chi.URLParam(r, "threadId"), user.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) SetSticky(w http.ResponseWriter, r *http.Request) {
	var body api.StickyRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err := h.threads.MarkSticky(r.Context(), chi.URLParam(r, "threadId"), body.Sticky); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ToggleSticky(w http.ResponseWriter, r *http.Request) {
	sticky, err := h.threads.ToggleSticky(r.Context(), chi.URLParam(r, "threadId"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.ToggleResponse{Active: sticky})
}

func (h *Handler) DeleteThread(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}
	if err := h.threads.Delete(r.Context(), chi.URLParam(r, "threadId"), user); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	var channelId *domain.ChannelId
	if c := r.URL.Query().Get("channel"); c != "" {
		channelId = &c
	}
	threads, err := h.search.Threads(r.Context(), query, channelId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.SearchResponse{Query: query, Threads: threads})
}

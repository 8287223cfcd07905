package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/kanaal/backend/internal/mention"
	"github.com/itchan-dev/kanaal/shared/api"
	"github.com/itchan-dev/kanaal/shared/domain"
	"github.com/itchan-dev/kanaal/shared/utils"
)

type commentResponse struct {
	domain.Comment
	BodySegments []mention.Segment `json:"body_segments,omitempty"`
}

type commentListResponse struct {
	Comments []commentResponse `json:"comments"`
}

func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}
	var body api.CreateCommentRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	creation := domain.CommentCreationData{
		ThreadId: chi.URLParam(r, "threadId"),
		AuthorId: user.Id,
		Body:     body.Body,
	}
	if body.Mentions != nil {
		creation.Mentions = append([]domain.UserId{}, *body.Mentions...)
	}

	comment, err := h.comments.Create(r.Context(), creation)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	segments, err := h.renderBody(r.Context(), comment.Body, comment.Mentions)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, commentResponse{Comment: comment, BodySegments: segments})
}

// ListComments loads every mentioned user once for the whole page.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.comments.List(r.Context(), chi.URLParam(r, "threadId"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	var ids []domain.UserId
	for _, c := range comments {
		ids = append(ids, c.Mentions...)
	}
	users, err := h.mentionedUsers(r.Context(), ids)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	resp := commentListResponse{Comments: make([]commentResponse, 0, len(comments))}
	for _, c := range comments {
		resp.Comments = append(resp.Comments, commentResponse{Comment: c, BodySegments: mention.Render(c.Body, users)})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) LikeComment(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}
	liked, err := h.comments.ToggleLike(r.Context(), chi.URLParam(r, "commentId"), user.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.ToggleResponse{Active: liked})
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}
	if err := h.comments.Delete(r.Context(), chi.URLParam(r, "commentId"), user); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

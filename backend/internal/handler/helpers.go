package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/itchan-dev/kanaal/backend/internal/mention"
	"github.com/itchan-dev/kanaal/shared/domain"
	"github.com/itchan-dev/kanaal/shared/errors"
	mw "github.com/itchan-dev/kanaal/shared/middleware"
	"github.com/itchan-dev/kanaal/shared/utils"
)

// noSection addresses channels outside any section in URLs and bodies.
const noSection = "none"

// parseIntParam parses an integer parameter from a string and returns a meaningful error
func parseIntParam(param string, paramName string) (int, error) {
	val, err := strconv.Atoi(param)
	if err != nil {
		return 0, errors.InvalidArgument(fmt.Sprintf("invalid %s: must be an integer", paramName))
	}
	return val, nil
}

// pageParam reads ?page=, defaulting to 1 for missing or nonsensical values.
func pageParam(r *http.Request) int {
	if raw := r.URL.Query().Get("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil && page > 0 {
			return page
		}
	}
	return 1
}

// currentUser writes 401 and returns nil when the request carries no user.
func currentUser(w http.ResponseWriter, r *http.Request) *domain.User {
	user := mw.GetUserFromContext(r)
	if user == nil {
		utils.WriteErrorAndStatusCode(w, errors.Unauthorized("Unauthorized"))
	}
	return user
}

func sectionParam(raw string) *domain.SectionId {
	if raw == "" || raw == noSection {
		return nil
	}
	return &raw
}

// mentionedUsers loads the users referenced by ids, silently skipping
// accounts deleted since the text was written.
func (h *Handler) mentionedUsers(ctx context.Context, ids []domain.UserId) ([]domain.User, error) {
	users := make([]domain.User, 0, len(ids))
	seen := make(map[domain.UserId]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		u, err := h.users.Get(ctx, id)
		if errors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (h *Handler) renderBody(ctx context.Context, body string, mentions []domain.UserId) ([]mention.Segment, error) {
	if body == "" {
		return nil, nil
	}
	users, err := h.mentionedUsers(ctx, mentions)
	if err != nil {
		return nil, err
	}
	return mention.Render(body, users), nil
}

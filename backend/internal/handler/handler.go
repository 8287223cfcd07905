package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/itchan-dev/kanaal/backend/internal/service"
	"github.com/itchan-dev/kanaal/shared/logger"
)

// Pinger reports whether the primary store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Services struct {
	Users    service.UserService
	Threads  service.ThreadService
	Polls    service.PollService
	Comments service.CommentService
	Channels service.ChannelService
	Sections service.SectionService
	Ordering service.OrderingService
	Curation service.CurationService
	Search   service.SearchService
	Sweeps   service.SweepStatusReader
	Health   Pinger
}

type Handler struct {
	users    service.UserService
	threads  service.ThreadService
	polls    service.PollService
	comments service.CommentService
	channels service.ChannelService
	sections service.SectionService
	ordering service.OrderingService
	curation service.CurationService
	search   service.SearchService
	sweeps   service.SweepStatusReader
	health   Pinger
}

func New(s Services) *Handler {
	return &Handler{
		users:    s.Users,
		threads:  s.Threads,
		polls:    s.Polls,
		comments: s.Comments,
		channels: s.Channels,
		sections: s.Sections,
		ordering: s.Ordering,
		curation: s.Curation,
		search:   s.Search,
		sweeps:   s.Sweeps,
		health:   s.Health,
	}
}

// writeJSON encodes before writing so an encoding failure still yields a clean 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		logger.Log.Error("failed to encode response", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

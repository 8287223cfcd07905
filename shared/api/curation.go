package api

import (
	"time"

	"github.com/itchan-dev/kanaal/shared/domain"
)

type CurationResponse struct {
	domain.CurationReport
}

// SweepStatusResponse describes the last integrity sweep. RunAt is nil
// until the first sweep has finished.
type SweepStatusResponse struct {
	RunAt              *time.Time `json:"run_at"`
	Repairs            int        `json:"repairs"`
	OrphanComments     int        `json:"orphan_comments"`
	OrphanPolls        int        `json:"orphan_polls"`
	OrphanVotes        int        `json:"orphan_votes"`
	StickyRepairs      int        `json:"sticky_repairs"`
	StickyFlagRepairs  int        `json:"sticky_flag_repairs"`
	SectionRefsCleared int        `json:"section_refs_cleared"`
	OrphanThreads      int        `json:"orphan_threads"`
	DurationMs         int64      `json:"duration_ms"`
	Errors             []string   `json:"errors,omitempty"`
}

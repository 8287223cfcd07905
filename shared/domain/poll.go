package domain

import "time"

type Poll struct {
	Id             PollId    `json:"id"`
	ThreadId       ThreadId  `json:"thread_id"`
	Question       string    `json:"question"`
	Options        []string  `json:"options"`
	MultipleChoice bool      `json:"multiple_choice"`
	CreatedAt      time.Time `json:"created_at"`
}

type PollSpec struct {
	Question       string
	Options        []string
	MultipleChoice bool
}

// PollVote is keyed by (PollId, VoterId).
type PollVote struct {
	PollId      PollId    `json:"poll_id"`
	VoterId     UserId    `json:"voter_id"`
	OptionIndex int       `json:"option_index"`
	VotedAt     time.Time `json:"voted_at"`
}

type PollResults struct {
	Poll       Poll  `json:"poll"`
	VoteCounts []int `json:"vote_counts"`
	TotalVotes int   `json:"total_votes"`
	MyVote     *int  `json:"my_vote,omitempty"`
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/itchan-dev/kanaal/shared/domain"
	"github.com/itchan-dev/kanaal/shared/errors"
)

type PollService interface {
	Vote(ctx context.Context, threadId domain.ThreadId, userId domain.UserId, optionIndex int) error
	Results(ctx context.Context, threadId domain.ThreadId, viewer domain.UserId) (domain.PollResults, error)
}

type Poll struct {
	storage PollStorage
	now     func() time.Time
}

func NewPoll(storage PollStorage) *Poll {
	return &Poll{storage: storage, now: time.Now}
}

// Vote records or replaces the user's single vote on the thread's poll.
// The multiple choice flag is descriptive only, a voter always holds one option.
func (s *Poll) Vote(ctx context.Context, threadId domain.ThreadId, userId domain.UserId, optionIndex int) error {
	poll, err := s.storage.GetPollByThread(ctx, threadId)
	if err != nil {
		return err
	}
	if optionIndex < 0 || optionIndex >= len(poll.Options) {
		return errors.InvalidArgument(fmt.Sprintf("option %d does not exist, poll has %d options", optionIndex, len(poll.Options)))
	}
	return s.storage.UpsertPollVote(ctx, domain.PollVote{
		PollId:      poll.Id,
		VoterId:     userId,
		OptionIndex: optionIndex,
		VotedAt:     s.now().UTC(),
	})
}

// Results tallies votes from scratch on every read.
func (s *Poll) Results(ctx context.Context, threadId domain.ThreadId, viewer domain.UserId) (domain.PollResults, error) {
	poll, err := s.storage.GetPollByThread(ctx, threadId)
	if err != nil {
		return domain.PollResults{}, err
	}
	votes, err := s.storage.ListPollVotes(ctx, poll.Id)
	if err != nil {
		return domain.PollResults{}, err
	}

	res := domain.PollResults{Poll: poll, VoteCounts: make([]int, len(poll.Options))}
	for _, v := range votes {
		// options never change after creation, but skip anything out of range
		if v.OptionIndex < 0 || v.OptionIndex >= len(res.VoteCounts) {
			continue
		}
		res.VoteCounts[v.OptionIndex]++
		res.TotalVotes++
		if v.VoterId == viewer {
			idx := v.OptionIndex
			res.MyVote = &idx
		}
	}
	return res, nil
}

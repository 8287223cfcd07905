package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/itchan-dev/kanaal/shared/domain"
	internal_errors "github.com/itchan-dev/kanaal/shared/errors"
	"github.com/redis/go-redis/v9"
)

func (s *Storage) pollKey(id domain.PollId) string { return s.key("poll", id) }

func (s *Storage) voteKey(pollId domain.PollId, voterId domain.UserId) string {
	return s.key("pollvote", pollId, voterId)
}

func (s *Storage) pollVotersKey(id domain.PollId) string { return s.key("poll", id, "votes") }

func (s *Storage) voterPollsKey(id domain.UserId) string { return s.key("user", id, "votes") }

func (s *Storage) CreatePoll(ctx context.Context, poll domain.Poll) error {
	byThread := s.key("polls", "thread")
	return s.watch(ctx, func(tx *redis.Tx) error {
		taken, err := tx.HExists(ctx, byThread, poll.ThreadId).Result()
		if err != nil {
			return fmt.Errorf("check thread poll: %w", err)
		}
		if taken {
			return internal_errors.Conflict("thread already has a poll")
		}
		return createDoc(ctx, tx, s.pollKey(poll.Id), &poll, func(pipe redis.Pipeliner) {
			pipe.HSet(ctx, byThread, poll.ThreadId, poll.Id)
			pipe.SAdd(ctx, s.key("polls"), poll.Id)
		})
	}, byThread)
}

func (s *Storage) GetPoll(ctx context.Context, id domain.PollId) (domain.Poll, error) {
	return getDoc[domain.Poll](ctx, s.rdb, s.pollKey(id), "poll")
}

func (s *Storage) GetPollByThread(ctx context.Context, id domain.ThreadId) (domain.Poll, error) {
	pollId, err := s.rdb.HGet(ctx, s.key("polls", "thread"), id).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Poll{}, pollNotFound()
	}
	if err != nil {
		return domain.Poll{}, fmt.Errorf("lookup thread poll: %w", err)
	}
	return s.GetPoll(ctx, pollId)
}

func (s *Storage) ListPolls(ctx context.Context) ([]domain.Poll, error) {
	return listDocs[domain.Poll](ctx, s, s.key("polls"), s.pollKey)
}

func (s *Storage) DeletePoll(ctx context.Context, id domain.PollId) error {
	return deleteDoc(ctx, s, s.pollKey(id), "poll", func(pipe redis.Pipeliner, p *domain.Poll) {
		pipe.HDel(ctx, s.key("polls", "thread"), p.ThreadId)
		pipe.SRem(ctx, s.key("polls"), id)
	})
}

func (s *Storage) UpsertPollVote(ctx context.Context, vote domain.PollVote) error {
	return createDoc(ctx, s.rdb, s.voteKey(vote.PollId, vote.VoterId), &vote, func(pipe redis.Pipeliner) {
		pipe.SAdd(ctx, s.pollVotersKey(vote.PollId), vote.VoterId)
		pipe.SAdd(ctx, s.voterPollsKey(vote.VoterId), vote.PollId)
		pipe.SAdd(ctx, s.key("votes", "polls"), vote.PollId)
	})
}

func (s *Storage) GetPollVote(ctx context.Context, pollId domain.PollId, voterId domain.UserId) (domain.PollVote, error) {
	return getDoc[domain.PollVote](ctx, s.rdb, s.voteKey(pollId, voterId), "poll vote")
}

func (s *Storage) ListPollVotes(ctx context.Context, pollId domain.PollId) ([]domain.PollVote, error) {
	return listDocs[domain.PollVote](ctx, s, s.pollVotersKey(pollId), func(voterId string) string {
		return s.voteKey(pollId, voterId)
	})
}

func (s *Storage) ListPollVotesByVoter(ctx context.Context, voterId domain.UserId) ([]domain.PollVote, error) {
	return listDocs[domain.PollVote](ctx, s, s.voterPollsKey(voterId), func(pollId string) string {
		return s.voteKey(pollId, voterId)
	})
}

func (s *Storage) DeletePollVote(ctx context.Context, pollId domain.PollId, voterId domain.UserId) error {
	return deleteDoc(ctx, s, s.voteKey(pollId, voterId), "poll vote", func(pipe redis.Pipeliner, _ *domain.PollVote) {
		pipe.SRem(ctx, s.pollVotersKey(pollId), voterId)
		pipe.SRem(ctx, s.voterPollsKey(voterId), pollId)
	})
}

func (s *Storage) DeletePollVotes(ctx context.Context, pollId domain.PollId) (int, error) {
	votersKey := s.pollVotersKey(pollId)
	var deleted int
	err := s.watch(ctx, func(tx *redis.Tx) error {
		voters, err := tx.SMembers(ctx, votersKey).Result()
		if err != nil {
			return fmt.Errorf("list poll voters: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, voterId := range voters {
				pipe.Del(ctx, s.voteKey(pollId, voterId))
				pipe.SRem(ctx, s.voterPollsKey(voterId), pollId)
			}
			pipe.Del(ctx, votersKey)
			pipe.SRem(ctx, s.key("votes", "polls"), pollId)
			return nil
		})
		if err != nil {
			return err
		}
		deleted = len(voters)
		return nil
	}, votersKey)
	return deleted, err
}

func (s *Storage) ListVotedPollIds(ctx context.Context) ([]domain.PollId, error) {
	ids, err := s.rdb.SMembers(ctx, s.key("votes", "polls")).Result()
	if err != nil {
		return nil, fmt.Errorf("list voted polls: %w", err)
	}
	return ids, nil
}

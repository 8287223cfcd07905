package pg

import (
	"context"
	"fmt"

	"github.com/itchan-dev/kanaal/shared/domain"
	internal_errors "github.com/itchan-dev/kanaal/shared/errors"
)

func (s *Storage) CreatePoll(ctx context.Context, poll domain.Poll) error {
	b, err := encode(&poll)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO polls (id, thread_id, doc) VALUES ($1, $2, $3)`, poll.Id, poll.ThreadId, b)
	if isUniqueViolation(err) {
		return internal_errors.Conflict("thread already has a poll")
	}
	if err != nil {
		return fmt.Errorf("failed to insert poll: %w", err)
	}
	return nil
}

func (s *Storage) GetPoll(ctx context.Context, id domain.PollId) (domain.Poll, error) {
	return getDoc[domain.Poll](ctx, s.db, "poll", `SELECT doc FROM polls WHERE id = $1`, id)
}

func (s *Storage) GetPollByThread(ctx context.Context, id domain.ThreadId) (domain.Poll, error) {
	return getDoc[domain.Poll](ctx, s.db, "poll", `SELECT doc FROM polls WHERE thread_id = $1`, id)
}

func (s *Storage) ListPolls(ctx context.Context) ([]domain.Poll, error) {
	return listDocs[domain.Poll](ctx, s.db, "polls", `SELECT doc FROM polls`)
}

func (s *Storage) DeletePoll(ctx context.Context, id domain.PollId) error {
	return deleteRows(ctx, s.db, "poll", `DELETE FROM polls WHERE id = $1`, id)
}

func (s *Storage) UpsertPollVote(ctx context.Context, vote domain.PollVote) error {
	b, err := encode(&vote)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO poll_votes (poll_id, voter_id, doc) VALUES ($1, $2, $3)
		ON CONFLICT (poll_id, voter_id) DO UPDATE SET doc = EXCLUDED.doc`,
		vote.PollId, vote.VoterId, b)
	if err != nil {
		return fmt.Errorf("failed to upsert poll vote: %w", err)
	}
	return nil
}

func (s *Storage) GetPollVote(ctx context.Context, pollId domain.PollId, voterId domain.UserId) (domain.PollVote, error) {
	return getDoc[domain.PollVote](ctx, s.db, "poll vote",
		`SELECT doc FROM poll_votes WHERE poll_id = $1 AND voter_id = $2`, pollId, voterId)
}

func (s *Storage) ListPollVotes(ctx context.Context, pollId domain.PollId) ([]domain.PollVote, error) {
	return listDocs[domain.PollVote](ctx, s.db, "poll votes", `SELECT doc FROM poll_votes WHERE poll_id = $1`, pollId)
}

func (s *Storage) ListPollVotesByVoter(ctx context.Context, voterId domain.UserId) ([]domain.PollVote, error) {
	return listDocs[domain.PollVote](ctx, s.db, "poll votes", `SELECT doc FROM poll_votes WHERE voter_id = $1`, voterId)
}

func (s *Storage) DeletePollVote(ctx context.Context, pollId domain.PollId, voterId domain.UserId) error {
	return deleteRows(ctx, s.db, "poll vote", `DELETE FROM poll_votes WHERE poll_id = $1 AND voter_id = $2`, pollId, voterId)
}

func (s *Storage) DeletePollVotes(ctx context.Context, pollId domain.PollId) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM poll_votes WHERE poll_id = $1`, pollId)
	if err != nil {
		return 0, fmt.Errorf("failed to delete poll votes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete poll votes: %w", err)
	}
	return int(n), nil
}

func (s *Storage) ListVotedPollIds(ctx context.Context) ([]domain.PollId, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT poll_id FROM poll_votes`)
	if err != nil {
		return nil, fmt.Errorf("failed to list voted polls: %w", err)
	}
	defer rows.Close()

	ids := []domain.PollId{}
	for rows.Next() {
		var id domain.PollId
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan poll id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

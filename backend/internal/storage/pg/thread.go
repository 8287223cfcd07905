package pg

import (
	"context"
	"fmt"

	"github.com/itchan-dev/kanaal/shared/domain"
	internal_errors "github.com/itchan-dev/kanaal/shared/errors"
)

func (s *Storage) NextThreadNumber(ctx context.Context) (domain.ThreadNumber, error) {
	var n domain.ThreadNumber
	err := s.db.QueryRowContext(ctx,
		`UPDATE counters SET value = value + 1 WHERE name = 'thread_number' RETURNING value`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to increment thread number: %w", err)
	}
	return n, nil
}

func (s *Storage) CreateThread(ctx context.Context, thread domain.Thread) error {
	b, err := encode(&thread)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO threads (id, number, doc) VALUES ($1, $2, $3)`, thread.Id, thread.Number, b)
	if isUniqueViolation(err) {
		return internal_errors.Conflict(fmt.Sprintf("thread number %d is already taken", thread.Number))
	}
	if err != nil {
		return fmt.Errorf("failed to insert thread: %w", err)
	}
	return nil
}

func (s *Storage) GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	return getDoc[domain.Thread](ctx, s.db, "thread", `SELECT doc FROM threads WHERE id = $1`, id)
}

func (s *Storage) GetThreadByNumber(ctx context.Context, number domain.ThreadNumber) (domain.Thread, error) {
	return getDoc[domain.Thread](ctx, s.db, "thread", `SELECT doc FROM threads WHERE number = $1`, number)
}

func (s *Storage) ListThreads(ctx context.Context) ([]domain.Thread, error) {
	return listDocs[domain.Thread](ctx, s.db, "threads", `SELECT doc FROM threads`)
}

func (s *Storage) ListThreadsByChannel(ctx context.Context, id domain.ChannelId) ([]domain.Thread, error) {
	return listDocs[domain.Thread](ctx, s.db, "threads", `SELECT doc FROM threads WHERE doc->>'channel_id' = $1`, id)
}

func (s *Storage) ListThreadsByAuthor(ctx context.Context, id domain.UserId) ([]domain.Thread, error) {
	return listDocs[domain.Thread](ctx, s.db, "threads", `SELECT doc FROM threads WHERE doc->>'author_id' = $1`, id)
}

func (s *Storage) ListThreadsReferencingUser(ctx context.Context, id domain.UserId) ([]domain.Thread, error) {
	return listDocs[domain.Thread](ctx, s.db, "threads",
		`SELECT doc FROM threads WHERE doc->'upvoters' ? $1 OR doc->'mentions' ? $1`, id)
}

func (s *Storage) CountThreadsByChannel(ctx context.Context, id domain.ChannelId) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM threads WHERE doc->>'channel_id' = $1`, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count threads: %w", err)
	}
	return n, nil
}

func (s *Storage) UpdateThread(ctx context.Context, id domain.ThreadId, fn func(*domain.Thread) error) (domain.Thread, error) {
	return mutateDoc(ctx, s, "threads", "thread", id, fn)
}

func (s *Storage) DeleteThread(ctx context.Context, id domain.ThreadId) error {
	return deleteRows(ctx, s.db, "thread", `DELETE FROM threads WHERE id = $1`, id)
}

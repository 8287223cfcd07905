package pg

import (
	"context"
	"fmt"

	"github.com/itchan-dev/kanaal/shared/domain"
)

func (s *Storage) CreateComment(ctx context.Context, comment domain.Comment) error {
	b, err := encode(&comment)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO comments (id, doc) VALUES ($1, $2)`, comment.Id, b); err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

func (s *Storage) GetComment(ctx context.Context, id domain.CommentId) (domain.Comment, error) {
	return getDoc[domain.Comment](ctx, s.db, "comment", `SELECT doc FROM comments WHERE id = $1`, id)
}

func (s *Storage) ListComments(ctx context.Context) ([]domain.Comment, error) {
	return listDocs[domain.Comment](ctx, s.db, "comments", `SELECT doc FROM comments`)
}

func (s *Storage) ListCommentsByThread(ctx context.Context, id domain.ThreadId) ([]domain.Comment, error) {
	return listDocs[domain.Comment](ctx, s.db, "comments", `SELECT doc FROM comments WHERE doc->>'thread_id' = $1`, id)
}

func (s *Storage) ListCommentsByAuthor(ctx context.Context, id domain.UserId) ([]domain.Comment, error) {
	return listDocs[domain.Comment](ctx, s.db, "comments", `SELECT doc FROM comments WHERE doc->>'author_id' = $1`, id)
}

func (s *Storage) ListCommentsReferencingUser(ctx context.Context, id domain.UserId) ([]domain.Comment, error) {
	return listDocs[domain.Comment](ctx, s.db, "comments",
		`SELECT doc FROM comments WHERE doc->'likers' ? $1 OR doc->'mentions' ? $1`, id)
}

func (s *Storage) UpdateComment(ctx context.Context, id domain.CommentId, fn func(*domain.Comment) error) (domain.Comment, error) {
	return mutateDoc(ctx, s, "comments", "comment", id, fn)
}

func (s *Storage) DeleteComment(ctx context.Context, id domain.CommentId) error {
	return deleteRows(ctx, s.db, "comment", `DELETE FROM comments WHERE id = $1`, id)
}

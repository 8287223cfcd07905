package redis

import (
	"context"

	"github.com/itchan-dev/kanaal/shared/domain"
	"github.com/redis/go-redis/v9"
)

func (s *Storage) commentKey(id domain.CommentId) string { return s.key("comment", id) }

func (s *Storage) threadCommentsKey(id domain.ThreadId) string {
	return s.key("thread", id, "comments")
}

func (s *Storage) authorCommentsKey(id domain.UserId) string {
	return s.key("user", id, "comments")
}

func (s *Storage) commentRefsKey(id domain.UserId) string {
	return s.key("user", id, "comment_refs")
}

func commentRefs(c *domain.Comment) []domain.UserId {
	return append(append([]domain.UserId{}, c.Likers...), c.Mentions...)
}

func (s *Storage) CreateComment(ctx context.Context, comment domain.Comment) error {
	return createDoc(ctx, s.rdb, s.commentKey(comment.Id), &comment, func(pipe redis.Pipeliner) {
		pipe.SAdd(ctx, s.key("comments"), comment.Id)
		pipe.SAdd(ctx, s.threadCommentsKey(comment.ThreadId), comment.Id)
		pipe.SAdd(ctx, s.authorCommentsKey(comment.AuthorId), comment.Id)
		reindexRefs(ctx, pipe, s.commentRefsKey, comment.Id, nil, commentRefs(&comment))
	})
}

func (s *Storage) GetComment(ctx context.Context, id domain.CommentId) (domain.Comment, error) {
	return getDoc[domain.Comment](ctx, s.rdb, s.commentKey(id), "comment")
}

func (s *Storage) ListComments(ctx context.Context) ([]domain.Comment, error) {
	return listDocs[domain.Comment](ctx, s, s.key("comments"), s.commentKey)
}

func (s *Storage) ListCommentsByThread(ctx context.Context, id domain.ThreadId) ([]domain.Comment, error) {
	return listDocs[domain.Comment](ctx, s, s.threadCommentsKey(id), s.commentKey)
}

func (s *Storage) ListCommentsByAuthor(ctx context.Context, id domain.UserId) ([]domain.Comment, error) {
	return listDocs[domain.Comment](ctx, s, s.authorCommentsKey(id), s.commentKey)
}

func (s *Storage) ListCommentsReferencingUser(ctx context.Context, id domain.UserId) ([]domain.Comment, error) {
	return listDocs[domain.Comment](ctx, s, s.commentRefsKey(id), s.commentKey)
}

func (s *Storage) UpdateComment(ctx context.Context, id domain.CommentId, fn func(*domain.Comment) error) (domain.Comment, error) {
	return mutateDoc(ctx, s, s.commentKey(id), "comment", fn, func(pipe redis.Pipeliner, before, after *domain.Comment) {
		reindexRefs(ctx, pipe, s.commentRefsKey, id, commentRefs(before), commentRefs(after))
	})
}

func (s *Storage) DeleteComment(ctx context.Context, id domain.CommentId) error {
	return deleteDoc(ctx, s, s.commentKey(id), "comment", func(pipe redis.Pipeliner, c *domain.Comment) {
		pipe.SRem(ctx, s.key("comments"), id)
		pipe.SRem(ctx, s.threadCommentsKey(c.ThreadId), id)
		pipe.SRem(ctx, s.authorCommentsKey(c.AuthorId), id)
		reindexRefs(ctx, pipe, s.commentRefsKey, id, commentRefs(c), nil)
	})
}

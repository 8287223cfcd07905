package service

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/itchan-dev/kanaal/backend/internal/mention"
	"github.com/itchan-dev/kanaal/shared/domain"
	"github.com/itchan-dev/kanaal/shared/errors"
	"github.com/itchan-dev/kanaal/shared/utils"
)

type CommentService interface {
	Create(ctx context.Context, data domain.CommentCreationData) (domain.Comment, error)
	List(ctx context.Context, threadId domain.ThreadId) ([]domain.Comment, error)
	ToggleLike(ctx context.Context, id domain.CommentId, userId domain.UserId) (bool, error)
	Delete(ctx context.Context, id domain.CommentId, requester *domain.User) error
}

type CommentValidator interface {
	Body(body string) error
}

type CommentStore interface {
	CommentStorage
	ThreadStorage
	UserStorage
}

type Comment struct {
	storage   CommentStore
	validator CommentValidator
	now       func() time.Time
}

func NewComment(storage CommentStore, validator CommentValidator) *Comment {
	return &Comment{storage: storage, validator: validator, now: time.Now}
}

// Create adds a comment to an existing thread. A thread deleted between the
// check and the write leaves an orphan that the integrity sweeper removes.
func (s *Comment) Create(ctx context.Context, data domain.CommentCreationData) (domain.Comment, error) {
	if err := s.validator.Body(data.Body); err != nil {
		return domain.Comment{}, err
	}
	if _, err := s.storage.GetThread(ctx, data.ThreadId); err != nil {
		return domain.Comment{}, err
	}

	mentions := data.Mentions
	if mentions == nil && mention.Contains(data.Body) {
		users, err := s.storage.ListUsers(ctx)
		if err != nil {
			return domain.Comment{}, err
		}
		mentions = mention.Extract(data.Body, users)
	}

	comment := domain.Comment{
		Id:        utils.NewId(),
		ThreadId:  data.ThreadId,
		AuthorId:  data.AuthorId,
		Body:      data.Body,
		Likers:    []domain.UserId{},
		Mentions:  mentions,
		CreatedAt: s.now().UTC(),
	}
	if err := s.storage.CreateComment(ctx, comment); err != nil {
		return domain.Comment{}, err
	}
	return comment, nil
}

// List returns a thread's comments oldest first.
func (s *Comment) List(ctx context.Context, threadId domain.ThreadId) ([]domain.Comment, error) {
	if _, err := s.storage.GetThread(ctx, threadId); err != nil {
		return nil, err
	}
	comments, err := s.storage.ListCommentsByThread(ctx, threadId)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(comments, func(a, b domain.Comment) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Id, b.Id)
	})
	return comments, nil
}

func (s *Comment) ToggleLike(ctx context.Context, id domain.CommentId, userId domain.UserId) (bool, error) {
	var liked bool
	_, err := s.storage.UpdateComment(ctx, id, func(c *domain.Comment) error {
		if slices.Contains(c.Likers, userId) {
			c.Likers = without(c.Likers, userId)
			liked = false
		} else {
			c.Likers = append(c.Likers, userId)
			liked = true
		}
		return nil
	})
	return liked, err
}

func (s *Comment) Delete(ctx context.Context, id domain.CommentId, requester *domain.User) error {
	if requester == nil {
		return errors.PermissionDenied("not allowed to delete this comment")
	}
	comment, err := s.storage.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if comment.AuthorId != requester.Id && !requester.CanModerate() {
		return errors.PermissionDenied("not allowed to delete this comment")
	}
	return s.storage.DeleteComment(ctx, id)
}

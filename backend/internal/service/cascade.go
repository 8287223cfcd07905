package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/itchan-dev/kanaal/shared/domain"
	"github.com/itchan-dev/kanaal/shared/errors"
	"github.com/itchan-dev/kanaal/shared/logger"
	"github.com/itchan-dev/kanaal/shared/middleware/metrics"
)

// Cascade deletes a thread or a user together with everything that points
// at it. The store has no foreign keys and no multi-document transactions,
// so every step is a separate write. Steps run children first and the root
// document is always deleted last, so an interrupted cascade leaves the root
// in place and rerunning it finishes the job. A document that is already
// gone counts as deleted.
type Cascade struct {
	storage Storage
	search  SearchIndex
}

// search may be nil.
func NewCascade(storage Storage, search SearchIndex) *Cascade {
	return &Cascade{storage: storage, search: search}
}

func (c *Cascade) DeleteThread(ctx context.Context, id domain.ThreadId) error {
	err := c.deleteThread(ctx, id)
	metrics.RecordCascade("thread", err)
	if err != nil {
		logger.Log.Error("thread cascade failed", "component", "cascade", "thread_id", id, "error", err)
	}
	return err
}

func (c *Cascade) deleteThread(ctx context.Context, id domain.ThreadId) error {
	thread, err := c.storage.GetThread(ctx, id)
	if errors.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return stepError("thread", id, "load", err)
	}

	// poll votes, then the poll
	poll, err := c.storage.GetPollByThread(ctx, id)
	switch {
	case err == nil:
		n, err := c.storage.DeletePollVotes(ctx, poll.Id)
		if err != nil {
			return stepError("thread", id, "poll votes", err)
		}
		if err := ignoreNotFound(c.storage.DeletePoll(ctx, poll.Id)); err != nil {
			return stepError("thread", id, "poll", err)
		}
		logger.Log.Debug("deleted poll", "component", "cascade", "thread_id", id, "poll_id", poll.Id, "votes", n)
	case !errors.IsNotFound(err):
		return stepError("thread", id, "poll lookup", err)
	}

	comments, err := c.storage.ListCommentsByThread(ctx, id)
	if err != nil {
		return stepError("thread", id, "comment lookup", err)
	}
	for _, comment := range comments {
		if err := ignoreNotFound(c.storage.DeleteComment(ctx, comment.Id)); err != nil {
			return stepError("thread", id, "comments", err)
		}
	}
	logger.Log.Debug("deleted comments", "component", "cascade", "thread_id", id, "count", len(comments))

	// The sticky flag on the thread is only a mirror, the channel list is
	// checked regardless of it.
	if err := c.unstick(ctx, thread.ChannelId, id); err != nil {
		return stepError("thread", id, "sticky list", err)
	}

	if c.search != nil {
		if err := c.search.RemoveThread(ctx, id); err != nil {
			logger.Log.Warn("failed to remove thread from search index", "component", "cascade", "thread_id", id, "error", err)
		}
	}

	if err := ignoreNotFound(c.storage.DeleteThread(ctx, id)); err != nil {
		return stepError("thread", id, "thread", err)
	}
	logger.Log.Debug("deleted thread", "component", "cascade", "thread_id", id)
	return nil
}

func (c *Cascade) unstick(ctx context.Context, channelId domain.ChannelId, id domain.ThreadId) error {
	channel, err := c.storage.GetChannel(ctx, channelId)
	if errors.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !channel.HasSticky(id) {
		return nil
	}
	_, err = c.storage.UpdateChannel(ctx, channelId, func(ch *domain.Channel) error {
		ch.StickyPosts = slices.DeleteFunc(ch.StickyPosts, func(t domain.ThreadId) bool { return t == id })
		return nil
	})
	return ignoreNotFound(err)
}

// DeleteUser removes a user's threads (each with its full cascade), then
// their comments and poll votes, then scrubs their id from the upvoter, liker
// and mention lists of content written by others, and finally the user.
func (c *Cascade) DeleteUser(ctx context.Context, id domain.UserId) error {
	err := c.deleteUser(ctx, id)
	metrics.RecordCascade("user", err)
	if err != nil {
		logger.Log.Error("user cascade failed", "component", "cascade", "user_id", id, "error", err)
	}
	return err
}

func (c *Cascade) deleteUser(ctx context.Context, id domain.UserId) error {
	threads, err := c.storage.ListThreadsByAuthor(ctx, id)
	if err != nil {
		return stepError("user", id, "thread lookup", err)
	}
	for _, t := range threads {
		if err := c.deleteThread(ctx, t.Id); err != nil {
			return err
		}
	}

	comments, err := c.storage.ListCommentsByAuthor(ctx, id)
	if err != nil {
		return stepError("user", id, "comment lookup", err)
	}
	for _, comment := range comments {
		if err := ignoreNotFound(c.storage.DeleteComment(ctx, comment.Id)); err != nil {
			return stepError("user", id, "comments", err)
		}
	}

	votes, err := c.storage.ListPollVotesByVoter(ctx, id)
	if err != nil {
		return stepError("user", id, "vote lookup", err)
	}
	for _, v := range votes {
		if err := ignoreNotFound(c.storage.DeletePollVote(ctx, v.PollId, id)); err != nil {
			return stepError("user", id, "poll votes", err)
		}
	}

	referencing, err := c.storage.ListThreadsReferencingUser(ctx, id)
	if err != nil {
		return stepError("user", id, "thread references lookup", err)
	}
	for _, t := range referencing {
		_, err := c.storage.UpdateThread(ctx, t.Id, func(t *domain.Thread) error {
			t.Upvoters = without(t.Upvoters, id)
			t.Mentions = without(t.Mentions, id)
			return nil
		})
		if err := ignoreNotFound(err); err != nil {
			return stepError("user", id, "thread references", err)
		}
	}

	liked, err := c.storage.ListCommentsReferencingUser(ctx, id)
	if err != nil {
		return stepError("user", id, "comment references lookup", err)
	}
	for _, comment := range liked {
		_, err := c.storage.UpdateComment(ctx, comment.Id, func(cm *domain.Comment) error {
			cm.Likers = without(cm.Likers, id)
			cm.Mentions = without(cm.Mentions, id)
			return nil
		})
		if err := ignoreNotFound(err); err != nil {
			return stepError("user", id, "comment references", err)
		}
	}

	if err := ignoreNotFound(c.storage.DeleteUser(ctx, id)); err != nil {
		return stepError("user", id, "user", err)
	}
	logger.Log.Info("deleted user", "component", "cascade", "user_id", id,
		"threads", len(threads), "comments", len(comments), "votes", len(votes))
	return nil
}

func ignoreNotFound(err error) error {
	if errors.IsNotFound(err) {
		return nil
	}
	return err
}

func stepError(root, id, step string, err error) error {
	return fmt.Errorf("delete %s %s: %s: %w", root, id, step, err)
}

func without(ids []domain.UserId, id domain.UserId) []domain.UserId {
	return slices.DeleteFunc(slices.Clone(ids), func(x domain.UserId) bool { return x == id })
}

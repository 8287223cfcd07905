package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/itchan-dev/kanaal/shared/domain"
	internal_errors "github.com/itchan-dev/kanaal/shared/errors"
	"github.com/redis/go-redis/v9"
)

func (s *Storage) threadKey(id domain.ThreadId) string { return s.key("thread", id) }

func (s *Storage) channelThreadsKey(id domain.ChannelId) string {
	return s.key("channel", id, "threads")
}

func (s *Storage) authorThreadsKey(id domain.UserId) string {
	return s.key("user", id, "threads")
}

func (s *Storage) threadRefsKey(id domain.UserId) string {
	return s.key("user", id, "thread_refs")
}

// threadRefs are the user ids a thread points at besides its author.
func threadRefs(t *domain.Thread) []domain.UserId {
	return append(append([]domain.UserId{}, t.Upvoters...), t.Mentions...)
}

func (s *Storage) NextThreadNumber(ctx context.Context) (domain.ThreadNumber, error) {
	n, err := s.rdb.Incr(ctx, s.key("seq", "thread_number")).Result()
	if err != nil {
		return 0, fmt.Errorf("next thread number: %w", err)
	}
	return n, nil
}

func (s *Storage) CreateThread(ctx context.Context, thread domain.Thread) error {
	numbersKey := s.key("threads", "number")
	number := strconv.FormatInt(thread.Number, 10)
	return s.watch(ctx, func(tx *redis.Tx) error {
		taken, err := tx.HExists(ctx, numbersKey, number).Result()
		if err != nil {
			return fmt.Errorf("check thread number: %w", err)
		}
		if taken {
			return internal_errors.Conflict(fmt.Sprintf("thread number %d is already taken", thread.Number))
		}
		return createDoc(ctx, tx, s.threadKey(thread.Id), &thread, func(pipe redis.Pipeliner) {
			pipe.HSet(ctx, numbersKey, number, thread.Id)
			pipe.SAdd(ctx, s.key("threads"), thread.Id)
			pipe.SAdd(ctx, s.channelThreadsKey(thread.ChannelId), thread.Id)
			pipe.SAdd(ctx, s.authorThreadsKey(thread.AuthorId), thread.Id)
			reindexRefs(ctx, pipe, s.threadRefsKey, thread.Id, nil, threadRefs(&thread))
		})
	}, numbersKey)
}

func (s *Storage) GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	return getDoc[domain.Thread](ctx, s.rdb, s.threadKey(id), "thread")
}

func (s *Storage) GetThreadByNumber(ctx context.Context, number domain.ThreadNumber) (domain.Thread, error) {
	id, err := s.rdb.HGet(ctx, s.key("threads", "number"), strconv.FormatInt(number, 10)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Thread{}, threadNotFound()
	}
	if err != nil {
		return domain.Thread{}, fmt.Errorf("lookup thread number: %w", err)
	}
	return s.GetThread(ctx, id)
}

func (s *Storage) ListThreads(ctx context.Context) ([]domain.Thread, error) {
	return listDocs[domain.Thread](ctx, s, s.key("threads"), s.threadKey)
}

func (s *Storage) ListThreadsByChannel(ctx context.Context, id domain.ChannelId) ([]domain.Thread, error) {
	return listDocs[domain.Thread](ctx, s, s.channelThreadsKey(id), s.threadKey)
}

func (s *Storage) ListThreadsByAuthor(ctx context.Context, id domain.UserId) ([]domain.Thread, error) {
	return listDocs[domain.Thread](ctx, s, s.authorThreadsKey(id), s.threadKey)
}

func (s *Storage) ListThreadsReferencingUser(ctx context.Context, id domain.UserId) ([]domain.Thread, error) {
	return listDocs[domain.Thread](ctx, s, s.threadRefsKey(id), s.threadKey)
}

func (s *Storage) CountThreadsByChannel(ctx context.Context, id domain.ChannelId) (int, error) {
	n, err := s.rdb.SCard(ctx, s.channelThreadsKey(id)).Result()
	if err != nil {
		return 0, fmt.Errorf("count channel threads: %w", err)
	}
	return int(n), nil
}

func (s *Storage) UpdateThread(ctx context.Context, id domain.ThreadId, fn func(*domain.Thread) error) (domain.Thread, error) {
	return mutateDoc(ctx, s, s.threadKey(id), "thread", fn, func(pipe redis.Pipeliner, before, after *domain.Thread) {
		if before.ChannelId != after.ChannelId {
			pipe.SRem(ctx, s.channelThreadsKey(before.ChannelId), id)
			pipe.SAdd(ctx, s.channelThreadsKey(after.ChannelId), id)
		}
		reindexRefs(ctx, pipe, s.threadRefsKey, id, threadRefs(before), threadRefs(after))
	})
}

func (s *Storage) DeleteThread(ctx context.Context, id domain.ThreadId) error {
	return deleteDoc(ctx, s, s.threadKey(id), "thread", func(pipe redis.Pipeliner, t *domain.Thread) {
		pipe.HDel(ctx, s.key("threads", "number"), strconv.FormatInt(t.Number, 10))
		pipe.SRem(ctx, s.key("threads"), id)
		pipe.SRem(ctx, s.channelThreadsKey(t.ChannelId), id)
		pipe.SRem(ctx, s.authorThreadsKey(t.AuthorId), id)
		reindexRefs(ctx, pipe, s.threadRefsKey, id, threadRefs(t), nil)
	})
}

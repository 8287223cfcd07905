// Package redis is the primary document store. Every entity is one JSON
// document under its own key; secondary indexes are sets and hashes written
// in the same MULTI as the document they describe.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	internal_errors "github.com/itchan-dev/kanaal/shared/errors"
	"github.com/itchan-dev/kanaal/shared/logger"
	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "kanaal:"
	maxTxRetries  = 32
)

type Storage struct {
	rdb    *redis.Client
	prefix string
}

func New(ctx context.Context, url string) (*Storage, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Log.Info("connected to redis", "component", "storage", "addr", opts.Addr)
	return NewWithClient(rdb), nil
}

func NewWithClient(rdb *redis.Client) *Storage {
	return &Storage{rdb: rdb, prefix: defaultPrefix}
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Storage) Cleanup() error {
	return s.rdb.Close()
}

func (s *Storage) key(parts ...string) string {
	return s.prefix + strings.Join(parts, ":")
}

// watch runs fn as an optimistic transaction over keys, retrying when a
// watched key changes before EXEC.
func (s *Storage) watch(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	for range maxTxRetries {
		err := s.rdb.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("transaction on %v: too many concurrent writers", keys)
}

func getRaw(ctx context.Context, c redis.Cmdable, key, what string) ([]byte, error) {
	b, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, internal_errors.NotFound(what + " not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return b, nil
}

func getDoc[T any](ctx context.Context, c redis.Cmdable, key, what string) (T, error) {
	var doc T
	b, err := getRaw(ctx, c, key, what)
	if err != nil {
		return doc, err
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return doc, fmt.Errorf("decode %s: %w", key, err)
	}
	return doc, nil
}

// createDoc writes a fresh document and its index entries atomically.
func createDoc[T any](ctx context.Context, c redis.Cmdable, key string, doc *T, index func(pipe redis.Pipeliner)) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = c.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, b, 0)
		if index != nil {
			index(pipe)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", key, err)
	}
	return nil
}

// mutateDoc is a compare-and-swap read-modify-write of one document.
// reindex gets both versions so index sets can follow the change.
func mutateDoc[T any](ctx context.Context, s *Storage, key, what string, fn func(*T) error, reindex func(pipe redis.Pipeliner, before, after *T)) (T, error) {
	var result T
	err := s.watch(ctx, func(tx *redis.Tx) error {
		raw, err := getRaw(ctx, tx, key, what)
		if err != nil {
			return err
		}
		var before, after T
		if err := json.Unmarshal(raw, &before); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		if err := json.Unmarshal(raw, &after); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		if err := fn(&after); err != nil {
			return err
		}
		b, err := json.Marshal(&after)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, 0)
			if reindex != nil {
				reindex(pipe, &before, &after)
			}
			return nil
		})
		if err != nil {
			return err
		}
		result = after
		return nil
	}, key)
	return result, err
}

// deleteDoc removes a document and whatever index entries unindex derives
// from its last stored version.
func deleteDoc[T any](ctx context.Context, s *Storage, key, what string, unindex func(pipe redis.Pipeliner, doc *T)) error {
	return s.watch(ctx, func(tx *redis.Tx) error {
		doc, err := getDoc[T](ctx, tx, key, what)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			if unindex != nil {
				unindex(pipe, &doc)
			}
			return nil
		})
		return err
	}, key)
}

// listDocs loads every document whose id is a member of setKey. Documents
// deleted between SMEMBERS and MGET are skipped.
func listDocs[T any](ctx context.Context, s *Storage, setKey string, docKey func(id string) string) ([]T, error) {
	ids, err := s.rdb.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", setKey, err)
	}
	return loadDocs[T](ctx, s, ids, docKey)
}

func loadDocs[T any](ctx context.Context, s *Storage, ids []string, docKey func(id string) string) ([]T, error) {
	docs := make([]T, 0, len(ids))
	if len(ids) == 0 {
		return docs, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKey(id)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget: %w", err)
	}
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var doc T
		if err := json.Unmarshal([]byte(str), &doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// reindexRefs moves member between per-user reference sets according to
// which user ids appear in before and after.
func reindexRefs(ctx context.Context, pipe redis.Pipeliner, setKey func(id string) string, member string, before, after []string) {
	old := make(map[string]struct{}, len(before))
	for _, id := range before {
		old[id] = struct{}{}
	}
	cur := make(map[string]struct{}, len(after))
	for _, id := range after {
		cur[id] = struct{}{}
		if _, ok := old[id]; !ok {
			pipe.SAdd(ctx, setKey(id), member)
		}
	}
	for id := range old {
		if _, ok := cur[id]; !ok {
			pipe.SRem(ctx, setKey(id), member)
		}
	}
}

package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/itchan-dev/kanaal/shared/domain"
	"github.com/redis/go-redis/v9"
)

func (s *Storage) userKey(id domain.UserId) string { return s.key("user", id) }

func (s *Storage) CreateUserIfAbsent(ctx context.Context, user domain.User) (domain.User, bool, error) {
	extKey := s.key("users", "external")
	var (
		stored  domain.User
		created bool
	)
	err := s.watch(ctx, func(tx *redis.Tx) error {
		existingId, err := tx.HGet(ctx, extKey, user.ExternalId).Result()
		switch {
		case err == nil:
			stored, err = getDoc[domain.User](ctx, tx, s.userKey(existingId), "user")
			created = false
			return err
		case !errors.Is(err, redis.Nil):
			return fmt.Errorf("lookup external id: %w", err)
		}

		err = createDoc(ctx, tx, s.userKey(user.Id), &user, func(pipe redis.Pipeliner) {
			pipe.HSet(ctx, extKey, user.ExternalId, user.Id)
			pipe.SAdd(ctx, s.key("users"), user.Id)
		})
		if err != nil {
			return err
		}
		stored, created = user, true
		return nil
	}, extKey)
	return stored, created, err
}

func (s *Storage) GetUser(ctx context.Context, id domain.UserId) (domain.User, error) {
	return getDoc[domain.User](ctx, s.rdb, s.userKey(id), "user")
}

func (s *Storage) GetUserByExternalId(ctx context.Context, externalId domain.ExternalId) (domain.User, error) {
	id, err := s.rdb.HGet(ctx, s.key("users", "external"), externalId).Result()
	if errors.Is(err, redis.Nil) {
		return domain.User{}, userNotFound()
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("lookup external id: %w", err)
	}
	return s.GetUser(ctx, id)
}

func (s *Storage) ListUsers(ctx context.Context) ([]domain.User, error) {
	return listDocs[domain.User](ctx, s, s.key("users"), s.userKey)
}

func (s *Storage) UpdateUser(ctx context.Context, id domain.UserId, fn func(*domain.User) error) (domain.User, error) {
	return mutateDoc(ctx, s, s.userKey(id), "user", fn, nil)
}

func (s *Storage) DeleteUser(ctx context.Context, id domain.UserId) error {
	return deleteDoc(ctx, s, s.userKey(id), "user", func(pipe redis.Pipeliner, u *domain.User) {
		pipe.HDel(ctx, s.key("users", "external"), u.ExternalId)
		pipe.SRem(ctx, s.key("users"), u.Id)
	})
}

func (s *Storage) ClaimBootstrap(ctx context.Context, id domain.UserId) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, s.key("bootstrap"), id, 0).Result()
	if err != nil {
		return false, fmt.Errorf("claim bootstrap: %w", err)
	}
	return ok, nil
}

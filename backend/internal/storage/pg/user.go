package pg

import (
	"context"
	"fmt"

	"github.com/itchan-dev/kanaal/shared/domain"
)

func (s *Storage) CreateUserIfAbsent(ctx context.Context, user domain.User) (domain.User, bool, error) {
	b, err := encode(&user)
	if err != nil {
		return domain.User{}, false, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, external_id, doc) VALUES ($1, $2, $3) ON CONFLICT (external_id) DO NOTHING`,
		user.Id, user.ExternalId, b)
	if err != nil {
		return domain.User{}, false, fmt.Errorf("failed to insert user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return user, true, nil
	}
	existing, err := s.GetUserByExternalId(ctx, user.ExternalId)
	return existing, false, err
}

func (s *Storage) GetUser(ctx context.Context, id domain.UserId) (domain.User, error) {
	return getDoc[domain.User](ctx, s.db, "user", `SELECT doc FROM users WHERE id = $1`, id)
}

func (s *Storage) GetUserByExternalId(ctx context.Context, externalId domain.ExternalId) (domain.User, error) {
	return getDoc[domain.User](ctx, s.db, "user", `SELECT doc FROM users WHERE external_id = $1`, externalId)
}

func (s *Storage) ListUsers(ctx context.Context) ([]domain.User, error) {
	return listDocs[domain.User](ctx, s.db, "users", `SELECT doc FROM users ORDER BY doc->>'created_at'`)
}

func (s *Storage) UpdateUser(ctx context.Context, id domain.UserId, fn func(*domain.User) error) (domain.User, error) {
	return mutateDoc(ctx, s, "users", "user", id, fn)
}

func (s *Storage) DeleteUser(ctx context.Context, id domain.UserId) error {
	return deleteRows(ctx, s.db, "user", `DELETE FROM users WHERE id = $1`, id)
}

func (s *Storage) ClaimBootstrap(ctx context.Context, id domain.UserId) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO bootstrap (id, user_id) VALUES (1, $1) ON CONFLICT DO NOTHING`, id)
	if err != nil {
		return false, fmt.Errorf("failed to claim bootstrap: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to claim bootstrap: %w", err)
	}
	return n == 1, nil
}

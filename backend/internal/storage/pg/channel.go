package pg

import (
	"context"
	"fmt"

	"github.com/itchan-dev/kanaal/shared/domain"
	internal_errors "github.com/itchan-dev/kanaal/shared/errors"
)

func (s *Storage) CreateSection(ctx context.Context, section domain.Section) error {
	b, err := encode(&section)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO sections (id, doc) VALUES ($1, $2)`, section.Id, b); err != nil {
		return fmt.Errorf("failed to insert section: %w", err)
	}
	return nil
}

func (s *Storage) GetSection(ctx context.Context, id domain.SectionId) (domain.Section, error) {
	return getDoc[domain.Section](ctx, s.db, "section", `SELECT doc FROM sections WHERE id = $1`, id)
}

func (s *Storage) ListSections(ctx context.Context) ([]domain.Section, error) {
	return listDocs[domain.Section](ctx, s.db, "sections", `SELECT doc FROM sections`)
}

func (s *Storage) UpdateSection(ctx context.Context, id domain.SectionId, fn func(*domain.Section) error) (domain.Section, error) {
	return mutateDoc(ctx, s, "sections", "section", id, fn)
}

func (s *Storage) DeleteSection(ctx context.Context, id domain.SectionId) error {
	return deleteRows(ctx, s.db, "section", `DELETE FROM sections WHERE id = $1`, id)
}

func (s *Storage) CreateChannel(ctx context.Context, channel domain.Channel) error {
	b, err := encode(&channel)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO channels (id, slug, doc) VALUES ($1, $2, $3)`, channel.Id, channel.Slug, b)
	if isUniqueViolation(err) {
		return internal_errors.Conflict(fmt.Sprintf("channel slug %q is already taken", channel.Slug))
	}
	if err != nil {
		return fmt.Errorf("failed to insert channel: %w", err)
	}
	return nil
}

func (s *Storage) GetChannel(ctx context.Context, id domain.ChannelId) (domain.Channel, error) {
	return getDoc[domain.Channel](ctx, s.db, "channel", `SELECT doc FROM channels WHERE id = $1`, id)
}

func (s *Storage) GetChannelBySlug(ctx context.Context, slug domain.Slug) (domain.Channel, error) {
	return getDoc[domain.Channel](ctx, s.db, "channel", `SELECT doc FROM channels WHERE slug = $1`, slug)
}

func (s *Storage) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	return listDocs[domain.Channel](ctx, s.db, "channels", `SELECT doc FROM channels`)
}

func (s *Storage) ListChannelsBySection(ctx context.Context, id domain.SectionId) ([]domain.Channel, error) {
	return listDocs[domain.Channel](ctx, s.db, "channels",
		`SELECT doc FROM channels WHERE coalesce(doc->>'section_id', '') = $1`, id)
}

func (s *Storage) UpdateChannel(ctx context.Context, id domain.ChannelId, fn func(*domain.Channel) error) (domain.Channel, error) {
	return mutateDoc(ctx, s, "channels", "channel", id, fn)
}

func (s *Storage) DeleteChannel(ctx context.Context, id domain.ChannelId) error {
	return deleteRows(ctx, s.db, "channel", `DELETE FROM channels WHERE id = $1`, id)
}

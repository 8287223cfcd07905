package redis

import (
	"context"

	"github.com/itchan-dev/kanaal/shared/domain"
	"github.com/redis/go-redis/v9"
)

func (s *Storage) sectionKey(id domain.SectionId) string { return s.key("section", id) }

func (s *Storage) CreateSection(ctx context.Context, section domain.Section) error {
	return createDoc(ctx, s.rdb, s.sectionKey(section.Id), &section, func(pipe redis.Pipeliner) {
		pipe.SAdd(ctx, s.key("sections"), section.Id)
	})
}

func (s *Storage) GetSection(ctx context.Context, id domain.SectionId) (domain.Section, error) {
	return getDoc[domain.Section](ctx, s.rdb, s.sectionKey(id), "section")
}

func (s *Storage) ListSections(ctx context.Context) ([]domain.Section, error) {
	return listDocs[domain.Section](ctx, s, s.key("sections"), s.sectionKey)
}

func (s *Storage) UpdateSection(ctx context.Context, id domain.SectionId, fn func(*domain.Section) error) (domain.Section, error) {
	return mutateDoc(ctx, s, s.sectionKey(id), "section", fn, nil)
}

func (s *Storage) DeleteSection(ctx context.Context, id domain.SectionId) error {
	return deleteDoc(ctx, s, s.sectionKey(id), "section", func(pipe redis.Pipeliner, _ *domain.Section) {
		pipe.SRem(ctx, s.key("sections"), id)
	})
}

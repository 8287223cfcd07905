package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/itchan-dev/kanaal/shared/domain"
	"github.com/itchan-dev/kanaal/shared/errors"
	"github.com/itchan-dev/kanaal/shared/logger"
	"github.com/itchan-dev/kanaal/shared/utils"
)

type SectionService interface {
	Create(ctx context.Context, data domain.SectionCreationData) (domain.Section, error)
	Update(ctx context.Context, id domain.SectionId, update domain.SectionUpdate) (domain.Section, error)
	List(ctx context.Context, includeDrafts bool) ([]domain.Section, error)
	Reorder(ctx context.Context, ordered []domain.SectionId) error
	Delete(ctx context.Context, id domain.SectionId, reparent *SectionReparent) error
}

// SectionReparent tells Delete where channels of the deleted section go.
// A nil Target moves them out of any section.
type SectionReparent struct {
	Target *domain.SectionId
}

type NameValidator interface {
	Name(name string) error
}

type Section struct {
	storage   OrderingStore
	ordering  *Ordering
	validator NameValidator
	now       func() time.Time
}

func NewSection(storage OrderingStore, ordering *Ordering, validator NameValidator) *Section {
	return &Section{storage: storage, ordering: ordering, validator: validator, now: time.Now}
}

func (s *Section) Create(ctx context.Context, data domain.SectionCreationData) (domain.Section, error) {
	name := utils.StripMarkup(data.Name)
	if err := s.validator.Name(name); err != nil {
		return domain.Section{}, err
	}
	status := data.Status
	if status == "" {
		status = domain.SectionDraft
	}
	if err := checkStatus(status); err != nil {
		return domain.Section{}, err
	}

	existing, err := s.storage.ListSections(ctx)
	if err != nil {
		return domain.Section{}, err
	}
	last := 0
	for _, sec := range existing {
		last = max(last, sec.Order)
	}

	section := domain.Section{
		Id:        utils.NewId(),
		Name:      name,
		Emoji:     data.Emoji,
		Color:     data.Color,
		Order:     last + 1,
		Status:    status,
		CreatedAt: s.now().UTC(),
	}
	if err := s.storage.CreateSection(ctx, section); err != nil {
		return domain.Section{}, err
	}
	return section, nil
}

func checkStatus(status domain.SectionStatus) error {
	if status != domain.SectionDraft && status != domain.SectionLive {
		return errors.InvalidArgument(fmt.Sprintf("unknown section status %q", status))
	}
	return nil
}

func (s *Section) Update(ctx context.Context, id domain.SectionId, update domain.SectionUpdate) (domain.Section, error) {
	if update.Empty() {
		return domain.Section{}, errors.InvalidArgument("nothing to update")
	}
	if update.Name != nil {
		name := utils.StripMarkup(*update.Name)
		if err := s.validator.Name(name); err != nil {
			return domain.Section{}, err
		}
		update.Name = &name
	}
	if update.Status != nil {
		if err := checkStatus(*update.Status); err != nil {
			return domain.Section{}, err
		}
	}
	return s.storage.UpdateSection(ctx, id, func(sec *domain.Section) error {
		if update.Name != nil {
			sec.Name = *update.Name
		}
		if update.Emoji != nil {
			sec.Emoji = *update.Emoji
		}
		if update.Color != nil {
			sec.Color = *update.Color
		}
		if update.Status != nil {
			sec.Status = *update.Status
		}
		return nil
	})
}

func (s *Section) List(ctx context.Context, includeDrafts bool) ([]domain.Section, error) {
	sections, err := s.storage.ListSections(ctx)
	if err != nil {
		return nil, err
	}
	if !includeDrafts {
		sections = slices.DeleteFunc(sections, func(sec domain.Section) bool { return sec.Status != domain.SectionLive })
	}
	sortSections(sections)
	return sections, nil
}

func sortSections(sections []domain.Section) {
	slices.SortFunc(sections, func(a, b domain.Section) int {
		if c := cmp.Compare(a.Order, b.Order); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

func (s *Section) Reorder(ctx context.Context, ordered []domain.SectionId) error {
	seen := make(map[domain.SectionId]bool, len(ordered))
	for _, id := range ordered {
		if seen[id] {
			return errors.InvalidArgument(fmt.Sprintf("section %s listed twice", id))
		}
		seen[id] = true
	}
	for i, id := range ordered {
		_, err := s.storage.UpdateSection(ctx, id, func(sec *domain.Section) error {
			sec.Order = i + 1
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a section. Channels still in it block the delete unless
// reparent says where they go; they are moved first so no channel ever
// points at a missing section.
func (s *Section) Delete(ctx context.Context, id domain.SectionId, reparent *SectionReparent) error {
	if _, err := s.storage.GetSection(ctx, id); err != nil {
		return err
	}
	channels, err := s.storage.ListChannelsBySection(ctx, id)
	if err != nil {
		return err
	}
	if len(channels) > 0 {
		if reparent == nil {
			return errors.Conflict(fmt.Sprintf("section still has %d channels", len(channels)))
		}
		if reparent.Target != nil && *reparent.Target == id {
			return errors.InvalidArgument("can't move channels into the section being deleted")
		}
		if err := s.ordering.checkSection(ctx, reparent.Target); err != nil {
			return err
		}
		if err := s.ordering.appendToSection(ctx, channels, reparent.Target); err != nil {
			return err
		}
	}
	if err := s.storage.DeleteSection(ctx, id); err != nil {
		return err
	}
	logger.Log.Info("deleted section", "component", "section", "section_id", id, "moved_channels", len(channels))
	return nil
}

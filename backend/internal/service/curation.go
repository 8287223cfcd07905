package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/itchan-dev/kanaal/shared/config"
	"github.com/itchan-dev/kanaal/shared/domain"
	"github.com/itchan-dev/kanaal/shared/errors"
	"github.com/itchan-dev/kanaal/shared/logger"
)

const (
	CurateAssignSections    = "assign-sections"
	CurateAssignOrders      = "assign-orders"
	CurateDefaultVisibility = "default-visibility"
	CurateSweep             = "sweep"
)

var CurationOperations = []string{CurateAssignSections, CurateAssignOrders, CurateDefaultVisibility, CurateSweep}

type CurationService interface {
	Run(ctx context.Context, operation string) (domain.CurationReport, error)
}

// Sweeper is the part of the integrity sweeper curation can trigger.
type Sweeper interface {
	RunSweep(ctx context.Context) (SweepStats, error)
}

type SweepStatusReader interface {
	LastSweepStats() SweepStats
}

// Curation holds the idempotent bulk fixes for channel structure. Each run
// only touches channels that are missing the value it assigns.
type Curation struct {
	storage        OrderingStore
	sweeper        Sweeper
	rules          []config.SectionRule
	defaultVisible bool
}

func NewCuration(storage OrderingStore, sweeper Sweeper, rules []config.SectionRule, defaultVisible bool) *Curation {
	return &Curation{storage: storage, sweeper: sweeper, rules: rules, defaultVisible: defaultVisible}
}

func (s *Curation) Run(ctx context.Context, operation string) (domain.CurationReport, error) {
	var (
		report domain.CurationReport
		err    error
	)
	switch operation {
	case CurateAssignSections:
		report, err = s.AssignSections(ctx)
	case CurateAssignOrders:
		report, err = s.AssignOrders(ctx)
	case CurateDefaultVisibility:
		report, err = s.DefaultVisibility(ctx)
	case CurateSweep:
		if s.sweeper == nil {
			return domain.CurationReport{}, errors.InvalidArgument("sweeper is not configured")
		}
		var stats SweepStats
		stats, err = s.sweeper.RunSweep(ctx)
		report = domain.CurationReport{Touched: stats.Repairs(), Skipped: len(stats.Errors)}
	default:
		return domain.CurationReport{}, errors.InvalidArgument(fmt.Sprintf("unknown operation %q, expected one of %s", operation, strings.Join(CurationOperations, ", ")))
	}
	report.Operation = operation
	if err == nil {
		logger.Log.Info("curation finished", "component", "curation", "operation", operation,
			"touched", report.Touched, "already_consistent", report.AlreadyConsistent, "skipped", report.Skipped)
	}
	return report, err
}

// AssignSections gives every channel without a usable section reference the
// section of the first rule whose keyword appears in its name or description.
// Channels nothing matches are reported as skipped.
func (s *Curation) AssignSections(ctx context.Context) (domain.CurationReport, error) {
	report := domain.CurationReport{Operation: CurateAssignSections}
	sections, err := s.storage.ListSections(ctx)
	if err != nil {
		return report, err
	}
	byName := make(map[string]domain.SectionId, len(sections))
	exists := make(map[domain.SectionId]bool, len(sections))
	for _, sec := range sections {
		byName[strings.ToLower(sec.Name)] = sec.Id
		exists[sec.Id] = true
	}

	channels, err := s.storage.ListChannels(ctx)
	if err != nil {
		return report, err
	}
	for _, c := range channels {
		if exists[c.Section()] {
			report.AlreadyConsistent++
			continue
		}
		target, ok := s.matchRule(c, byName)
		if !ok {
			report.Skipped++
			continue
		}
		_, err := s.storage.UpdateChannel(ctx, c.Id, func(ch *domain.Channel) error {
			if exists[ch.Section()] {
				return nil
			}
			ch.SectionId = &target
			// position is assigned by assign-orders
			ch.Order = 0
			return nil
		})
		if err := ignoreNotFound(err); err != nil {
			return report, err
		}
		report.Touched++
	}
	return report, nil
}

func (s *Curation) matchRule(c domain.Channel, byName map[string]domain.SectionId) (domain.SectionId, bool) {
	text := strings.ToLower(c.Name + " " + c.Description)
	for _, rule := range s.rules {
		id, ok := byName[strings.ToLower(rule.Section)]
		if !ok {
			continue
		}
		for _, kw := range rule.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" && strings.Contains(text, kw) {
				return id, true
			}
		}
	}
	return "", false
}

// AssignOrders appends channels without a position (or sharing a position
// with an older channel) after the highest position in their section,
// oldest first.
func (s *Curation) AssignOrders(ctx context.Context) (domain.CurationReport, error) {
	report := domain.CurationReport{Operation: CurateAssignOrders}
	channels, err := s.storage.ListChannels(ctx)
	if err != nil {
		return report, err
	}

	groups := make(map[domain.SectionId][]domain.Channel)
	for _, c := range channels {
		groups[c.Section()] = append(groups[c.Section()], c)
	}

	for _, group := range groups {
		slices.SortStableFunc(group, byCreation)
		taken := make(map[int]bool)
		last := 0
		var pending []domain.Channel
		for _, c := range group {
			if c.Order > 0 && !taken[c.Order] {
				taken[c.Order] = true
				last = max(last, c.Order)
				report.AlreadyConsistent++
				continue
			}
			pending = append(pending, c)
		}
		for _, c := range pending {
			last++
			pos := last
			_, err := s.storage.UpdateChannel(ctx, c.Id, func(ch *domain.Channel) error {
				ch.Order = pos
				return nil
			})
			if err := ignoreNotFound(err); err != nil {
				return report, err
			}
			report.Touched++
		}
	}
	return report, nil
}

func byCreation(a, b domain.Channel) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.Id, b.Id)
}

// DefaultVisibility sets the configured visibility on channels that never had one.
func (s *Curation) DefaultVisibility(ctx context.Context) (domain.CurationReport, error) {
	report := domain.CurationReport{Operation: CurateDefaultVisibility}
	channels, err := s.storage.ListChannels(ctx)
	if err != nil {
		return report, err
	}
	for _, c := range channels {
		if c.Visible != nil {
			report.AlreadyConsistent++
			continue
		}
		_, err := s.storage.UpdateChannel(ctx, c.Id, func(ch *domain.Channel) error {
			if ch.Visible == nil {
				v := s.defaultVisible
				ch.Visible = &v
			}
			return nil
		})
		if err := ignoreNotFound(err); err != nil {
			return report, err
		}
		report.Touched++
	}
	return report, nil
}

package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/itchan-dev/kanaal/shared/domain"
	"github.com/itchan-dev/kanaal/shared/errors"
	"github.com/itchan-dev/kanaal/shared/logger"
	"github.com/itchan-dev/kanaal/shared/middleware/metrics"
)

// IntegritySweeper repairs references left dangling by interrupted
// cascades or by writes racing a delete. Every repair re-reads the document
// it is about to fix, so a sweep running alongside normal traffic never
// removes something that was created meanwhile.
type IntegritySweeper struct {
	storage Storage

	mu        sync.Mutex
	lastStats SweepStats
}

// SweepStats tracks what the last sweep found and fixed.
type SweepStats struct {
	RunAt              time.Time
	OrphanComments     int
	OrphanPolls        int
	OrphanVotes        int
	StickyRepairs      int
	StickyFlagRepairs  int
	SectionRefsCleared int
	// threads whose channel is gone are reported, never deleted
	OrphanThreads int
	DurationMs    int64
	Errors        []string
}

func (s SweepStats) Repairs() int {
	return s.OrphanComments + s.OrphanPolls + s.OrphanVotes + s.StickyRepairs + s.StickyFlagRepairs + s.SectionRefsCleared
}

func NewIntegritySweeper(storage Storage) *IntegritySweeper {
	return &IntegritySweeper{storage: storage}
}

// StartBackgroundSweep runs a sweep every interval until ctx is done.
func (sw *IntegritySweeper) StartBackgroundSweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		logger.Log.Warn("sweep interval not configured, background sweep disabled", "component", "sweeper")
		return
	}

	ticker := time.NewTicker(interval)
	logger.Log.Info("started integrity sweeper", "component", "sweeper", "interval", interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				stats, err := sw.RunSweep(ctx)
				if err != nil {
					logger.Log.Error("integrity sweep failed", "component", "sweeper", "error", err)
					continue
				}
				logger.Log.Info("integrity sweep completed",
					"component", "sweeper",
					"repairs", stats.Repairs(),
					"orphan_threads", stats.OrphanThreads,
					"duration_ms", stats.DurationMs,
					"errors", len(stats.Errors))
			case <-ctx.Done():
				logger.Log.Info("integrity sweeper shutting down gracefully", "component", "sweeper")
				return
			}
		}
	}()
}

// RunSweep executes one full pass. It can be called manually.
func (sw *IntegritySweeper) RunSweep(ctx context.Context) (SweepStats, error) {
	start := time.Now()
	stats := SweepStats{RunAt: start, Errors: []string{}}

	threads, err := sw.storage.ListThreads(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list threads: %w", err)
	}
	threadChannel := make(map[domain.ThreadId]domain.ChannelId, len(threads))
	for _, t := range threads {
		threadChannel[t.Id] = t.ChannelId
	}

	steps := []struct {
		name string
		run  func(context.Context, map[domain.ThreadId]domain.ChannelId, *SweepStats) error
	}{
		{"comments", sw.sweepComments},
		{"polls", sw.sweepPolls},
		{"votes", sw.sweepVotes},
		{"channels", sw.sweepChannels},
		{"threads", sw.sweepThreads},
	}
	for _, step := range steps {
		if err := step.run(ctx, threadChannel, &stats); err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", step.name, err))
		}
	}

	metrics.RecordRepairs("orphan_comment", stats.OrphanComments)
	metrics.RecordRepairs("orphan_poll", stats.OrphanPolls)
	metrics.RecordRepairs("orphan_vote", stats.OrphanVotes)
	metrics.RecordRepairs("sticky_entry", stats.StickyRepairs)
	metrics.RecordRepairs("sticky_flag", stats.StickyFlagRepairs)
	metrics.RecordRepairs("section_ref", stats.SectionRefsCleared)

	stats.DurationMs = time.Since(start).Milliseconds()
	sw.mu.Lock()
	sw.lastStats = stats
	sw.mu.Unlock()
	return stats, nil
}

func (sw *IntegritySweeper) LastSweepStats() SweepStats {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.lastStats
}

// threadGone confirms absence with a fresh read.
func (sw *IntegritySweeper) threadGone(ctx context.Context, known map[domain.ThreadId]domain.ChannelId, id domain.ThreadId) (bool, error) {
	if _, ok := known[id]; ok {
		return false, nil
	}
	_, err := sw.storage.GetThread(ctx, id)
	if errors.IsNotFound(err) {
		return true, nil
	}
	return false, err
}

func (sw *IntegritySweeper) sweepComments(ctx context.Context, threads map[domain.ThreadId]domain.ChannelId, stats *SweepStats) error {
	comments, err := sw.storage.ListComments(ctx)
	if err != nil {
		return err
	}
	for _, c := range comments {
		gone, err := sw.threadGone(ctx, threads, c.ThreadId)
		if err != nil {
			return err
		}
		if !gone {
			continue
		}
		if err := ignoreNotFound(sw.storage.DeleteComment(ctx, c.Id)); err != nil {
			return err
		}
		stats.OrphanComments++
	}
	return nil
}

func (sw *IntegritySweeper) sweepPolls(ctx context.Context, threads map[domain.ThreadId]domain.ChannelId, stats *SweepStats) error {
	polls, err := sw.storage.ListPolls(ctx)
	if err != nil {
		return err
	}
	for _, p := range polls {
		gone, err := sw.threadGone(ctx, threads, p.ThreadId)
		if err != nil {
			return err
		}
		if !gone {
			continue
		}
		if _, err := sw.storage.DeletePollVotes(ctx, p.Id); err != nil {
			return err
		}
		if err := ignoreNotFound(sw.storage.DeletePoll(ctx, p.Id)); err != nil {
			return err
		}
		stats.OrphanPolls++
	}
	return nil
}

func (sw *IntegritySweeper) sweepVotes(ctx context.Context, _ map[domain.ThreadId]domain.ChannelId, stats *SweepStats) error {
	pollIds, err := sw.storage.ListVotedPollIds(ctx)
	if err != nil {
		return err
	}
	for _, id := range pollIds {
		_, err := sw.storage.GetPoll(ctx, id)
		if err == nil {
			continue
		}
		if !errors.IsNotFound(err) {
			return err
		}
		n, err := sw.storage.DeletePollVotes(ctx, id)
		if err != nil {
			return err
		}
		stats.OrphanVotes += n
	}
	return nil
}

// sweepChannels drops sticky entries that do not name a thread of the
// channel, resyncs the thread sticky flags with the channel lists and
// clears references to missing sections.
func (sw *IntegritySweeper) sweepChannels(ctx context.Context, threads map[domain.ThreadId]domain.ChannelId, stats *SweepStats) error {
	sections, err := sw.storage.ListSections(ctx)
	if err != nil {
		return err
	}
	sectionExists := make(map[domain.SectionId]bool, len(sections))
	for _, sec := range sections {
		sectionExists[sec.Id] = true
	}

	channels, err := sw.storage.ListChannels(ctx)
	if err != nil {
		return err
	}
	pinned := make(map[domain.ThreadId]bool)
	for _, c := range channels {
		bad := slices.ContainsFunc(c.StickyPosts, func(id domain.ThreadId) bool { return threads[id] != c.Id })
		danglingSection := c.SectionId != nil && !sectionExists[*c.SectionId]

		if bad || danglingSection {
			var removed int
			var cleared bool
			updated, err := sw.storage.UpdateChannel(ctx, c.Id, func(ch *domain.Channel) error {
				removed, cleared = 0, false
				seen := make(map[domain.ThreadId]bool, len(ch.StickyPosts))
				kept := ch.StickyPosts[:0]
				for _, id := range ch.StickyPosts {
					if owner, err := sw.ownerChannel(ctx, threads, id); err != nil {
						return err
					} else if owner != ch.Id || seen[id] {
						removed++
						continue
					}
					seen[id] = true
					kept = append(kept, id)
				}
				ch.StickyPosts = kept
				if ch.SectionId != nil && !sectionExists[*ch.SectionId] {
					if _, err := sw.storage.GetSection(ctx, *ch.SectionId); errors.IsNotFound(err) {
						ch.SectionId = nil
						ch.Order = 0
						cleared = true
					} else if err != nil {
						return err
					}
				}
				return nil
			})
			if errors.IsNotFound(err) {
				continue
			}
			if err != nil {
				return err
			}
			stats.StickyRepairs += removed
			if cleared {
				stats.SectionRefsCleared++
			}
			c = updated
		}
		for _, id := range c.StickyPosts {
			pinned[id] = true
		}
	}

	all, err := sw.storage.ListThreads(ctx)
	if err != nil {
		return err
	}
	for _, t := range all {
		if t.Sticky == pinned[t.Id] {
			continue
		}
		changed := false
		_, err := sw.storage.UpdateThread(ctx, t.Id, func(t *domain.Thread) error {
			// the channel may have changed since it was listed
			ch, err := sw.storage.GetChannel(ctx, t.ChannelId)
			if err != nil && !errors.IsNotFound(err) {
				return err
			}
			want := err == nil && ch.HasSticky(t.Id)
			changed = t.Sticky != want
			t.Sticky = want
			return nil
		})
		if err := ignoreNotFound(err); err != nil {
			return err
		}
		if changed {
			stats.StickyFlagRepairs++
		}
	}
	return nil
}

// ownerChannel returns the channel a thread lives in, "" when the thread is gone.
func (sw *IntegritySweeper) ownerChannel(ctx context.Context, known map[domain.ThreadId]domain.ChannelId, id domain.ThreadId) (domain.ChannelId, error) {
	if ch, ok := known[id]; ok {
		return ch, nil
	}
	t, err := sw.storage.GetThread(ctx, id)
	if errors.IsNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return t.ChannelId, nil
}

func (sw *IntegritySweeper) sweepThreads(ctx context.Context, threads map[domain.ThreadId]domain.ChannelId, stats *SweepStats) error {
	channels, err := sw.storage.ListChannels(ctx)
	if err != nil {
		return err
	}
	exists := make(map[domain.ChannelId]bool, len(channels))
	for _, c := range channels {
		exists[c.Id] = true
	}
	for id, channelId := range threads {
		if !exists[channelId] {
			stats.OrphanThreads++
			logger.Log.Warn("thread belongs to a missing channel", "component", "sweeper", "thread_id", id, "channel_id", channelId)
		}
	}
	return nil
}

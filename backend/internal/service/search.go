package service

import (
	"context"
	"slices"
	"strings"

	"github.com/itchan-dev/kanaal/shared/domain"
	"github.com/itchan-dev/kanaal/shared/errors"
	"github.com/itchan-dev/kanaal/shared/logger"
)

type SearchService interface {
	Threads(ctx context.Context, query string, channelId *domain.ChannelId) ([]domain.Thread, error)
}

// Search asks the external index first and falls back to scanning the
// store when the index is missing, unhealthy or failing.
type Search struct {
	index    SearchIndex
	storage  ThreadStorage
	pageSize int
}

// index may be nil.
func NewSearch(index SearchIndex, storage ThreadStorage, pageSize int) *Search {
	return &Search{index: index, storage: storage, pageSize: pageSize}
}

func (s *Search) Threads(ctx context.Context, query string, channelId *domain.ChannelId) ([]domain.Thread, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.InvalidArgument("search query is required")
	}

	if s.index != nil && s.index.Healthy() {
		threads, err := s.fromIndex(ctx, query, channelId)
		if err == nil {
			return threads, nil
		}
		logger.Log.Warn("search index failed, scanning store", "component", "search", "error", err)
	}
	return s.scan(ctx, query, channelId)
}

func (s *Search) fromIndex(ctx context.Context, query string, channelId *domain.ChannelId) ([]domain.Thread, error) {
	ids, err := s.index.SearchThreads(ctx, query, channelId, s.pageSize)
	if err != nil {
		return nil, err
	}
	threads := make([]domain.Thread, 0, len(ids))
	for _, id := range ids {
		t, err := s.storage.GetThread(ctx, id)
		if errors.IsNotFound(err) {
			// index lags behind deletes
			continue
		}
		if err != nil {
			return nil, err
		}
		threads = append(threads, t)
	}
	return threads, nil
}

func (s *Search) scan(ctx context.Context, query string, channelId *domain.ChannelId) ([]domain.Thread, error) {
	var (
		threads []domain.Thread
		err     error
	)
	if channelId != nil {
		threads, err = s.storage.ListThreadsByChannel(ctx, *channelId)
	} else {
		threads, err = s.storage.ListThreads(ctx)
	}
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	threads = slices.DeleteFunc(threads, func(t domain.Thread) bool {
		return !strings.Contains(strings.ToLower(t.Title), q)
	})
	slices.SortFunc(threads, newestFirst)
	if len(threads) > s.pageSize {
		threads = threads[:s.pageSize]
	}
	return threads, nil
}

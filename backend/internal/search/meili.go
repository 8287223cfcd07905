package search

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"

	"github.com/itchan-dev/kanaal/shared/domain"
	"github.com/itchan-dev/kanaal/shared/logger"
)

const (
	threadsIndex   = "kanaal_threads"
	healthInterval = 10 * time.Second
)

// threadRecord is what the index keeps per thread. Bodies stay out of it.
type threadRecord struct {
	Id        domain.ThreadId  `json:"id"`
	Title     string           `json:"title"`
	ChannelId domain.ChannelId `json:"channel_id"`
	CreatedAt int64            `json:"created_at"`
}

// Meili indexes thread titles in Meilisearch. When the server is down it
// reports unhealthy and callers scan the store instead.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
}

// New connects to Meilisearch and keeps probing it until ctx is done.
// An unreachable server is not an error.
func New(ctx context.Context, url, apiKey string) *Meili {
	m := &Meili{client: meili.New(url, meili.WithAPIKey(apiKey))}

	if _, err := m.client.Health(); err != nil {
		logger.Log.Warn("meilisearch unavailable", "component", "search", "url", url, "error", err)
	} else {
		m.healthy.Store(true)
		m.configure()
		logger.Log.Info("connected to meilisearch", "component", "search", "url", url)
	}

	go m.healthLoop(ctx, healthInterval)
	return m
}

func (m *Meili) configure() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{Uid: threadsIndex, PrimaryKey: "id"}); err != nil {
		logger.Log.Debug("create index", "component", "search", "index", threadsIndex, "error", err)
	}
	index := m.client.Index(threadsIndex)
	filterable := []interface{}{"channel_id"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		logger.Log.Warn("update filterable attributes", "component", "search", "error", err)
	}
	searchable := []string{"title"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		logger.Log.Warn("update searchable attributes", "component", "search", "error", err)
	}
}

func (m *Meili) healthLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probe()
		}
	}
}

func (m *Meili) probe() {
	_, err := m.client.Health()
	was := m.healthy.Swap(err == nil)
	switch {
	case err == nil && !was:
		logger.Log.Info("meilisearch recovered", "component", "search")
		m.configure()
	case err != nil && was:
		logger.Log.Warn("meilisearch lost", "component", "search", "error", err)
	}
}

func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

func (m *Meili) IndexThread(_ context.Context, thread domain.Thread) error {
	doc := threadRecord{
		Id:        thread.Id,
		Title:     thread.Title,
		ChannelId: thread.ChannelId,
		CreatedAt: thread.CreatedAt.Unix(),
	}
	if _, err := m.client.Index(threadsIndex).AddDocuments([]threadRecord{doc}, nil); err != nil {
		return fmt.Errorf("index thread %s: %w", thread.Id, err)
	}
	return nil
}

func (m *Meili) RemoveThread(_ context.Context, id domain.ThreadId) error {
	if _, err := m.client.Index(threadsIndex).DeleteDocument(id, nil); err != nil {
		return fmt.Errorf("remove thread %s: %w", id, err)
	}
	return nil
}

func (m *Meili) SearchThreads(_ context.Context, query string, channelId *domain.ChannelId, limit int) ([]domain.ThreadId, error) {
	if !m.healthy.Load() {
		return nil, fmt.Errorf("meilisearch unhealthy")
	}
	req := &meili.SearchRequest{Limit: int64(limit)}
	if channelId != nil {
		req.Filter = fmt.Sprintf("channel_id = %q", *channelId)
	}

	resp, err := m.client.Index(threadsIndex).Search(query, req)
	if err != nil {
		m.healthy.Store(false)
		return nil, fmt.Errorf("meilisearch search: %w", err)
	}

	ids := make([]domain.ThreadId, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		if id := hitId(hit); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func hitId(hit meili.Hit) string {
	raw, ok := hit["id"]
	if !ok {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return ""
	}
	return id
}

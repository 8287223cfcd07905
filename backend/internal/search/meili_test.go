package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itchan-dev/kanaal/shared/domain"
)

const taskJSON = `{"taskUid":1,"indexUid":"kanaal_threads","status":"enqueued","type":"documentAdditionOrUpdate","enqueuedAt":"2024-01-01T00:00:00Z"}`

type fakeMeili struct {
	mu     sync.Mutex
	bodies map[string]string
}

func (f *fakeMeili) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.bodies[r.Method+" "+r.URL.Path] = string(body)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/health":
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"available"}`))
	case strings.HasSuffix(r.URL.Path, "/search"):
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"hits":[{"id":"t1","title":"a"},{"id":"t2","title":"b"},{"title":"no id"}],"query":"a","limit":20,"offset":0,"processingTimeMs":1,"estimatedTotalHits":3}`))
	default:
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(taskJSON))
	}
}

func (f *fakeMeili) body(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[key]
}

func setupMeili(t *testing.T) (*Meili, *fakeMeili) {
	t.Helper()
	fake := &fakeMeili{bodies: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return New(ctx, srv.URL, "key"), fake
}

func TestMeiliSearchThreads(t *testing.T) {
	m, fake := setupMeili(t)
	require.True(t, m.Healthy())

	t.Run("returns hit ids in order", func(t *testing.T) {
		ids, err := m.SearchThreads(context.Background(), "a", nil, 20)
		require.NoError(t, err)
		assert.Equal(t, []string{"t1", "t2"}, ids)
	})

	t.Run("filters by channel", func(t *testing.T) {
		channel := "c1"
		_, err := m.SearchThreads(context.Background(), "a", &channel, 5)
		require.NoError(t, err)

		var req map[string]any
		require.NoError(t, json.Unmarshal([]byte(fake.body("POST /indexes/kanaal_threads/search")), &req))
		assert.Equal(t, `channel_id = "c1"`, req["filter"])
		assert.EqualValues(t, 5, req["limit"])
	})
}

func TestMeiliIndexThread(t *testing.T) {
	m, fake := setupMeili(t)

	thread := testThread()
	require.NoError(t, m.IndexThread(context.Background(), thread))

	var docs []threadRecord
	require.NoError(t, json.Unmarshal([]byte(fake.body("POST /indexes/kanaal_threads/documents")), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, thread.Id, docs[0].Id)
	assert.Equal(t, thread.Title, docs[0].Title)
	assert.Equal(t, thread.ChannelId, docs[0].ChannelId)
}

func TestMeiliUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := New(ctx, url, "")

	assert.False(t, m.Healthy())
	_, err := m.SearchThreads(ctx, "a", nil, 10)
	assert.Error(t, err)
}

func testThread() domain.Thread {
	return domain.Thread{
		Id:        "t1",
		ChannelId: "c1",
		Title:     "Release notes",
		CreatedAt: time.Unix(1700000000, 0).UTC(),
	}
}

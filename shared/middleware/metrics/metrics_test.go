package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/v1/threads/{threadId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/threads/{threadId}", "418"))
	req := httptest.NewRequest(http.MethodGet, "/v1/threads/abc", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/threads/{threadId}", "418"))
	assert.Equal(t, before+1, after)
}

func TestDomainCounters(t *testing.T) {
	ok := testutil.ToFloat64(cascadeDeletionsTotal.WithLabelValues("thread", "ok"))
	failed := testutil.ToFloat64(cascadeDeletionsTotal.WithLabelValues("thread", "error"))
	RecordCascade("thread", nil)
	RecordCascade("thread", errors.New("boom"))
	assert.Equal(t, ok+1, testutil.ToFloat64(cascadeDeletionsTotal.WithLabelValues("thread", "ok")))
	assert.Equal(t, failed+1, testutil.ToFloat64(cascadeDeletionsTotal.WithLabelValues("thread", "error")))

	repairs := testutil.ToFloat64(sweeperRepairsTotal.WithLabelValues("orphan_comment"))
	RecordRepairs("orphan_comment", 3)
	RecordRepairs("orphan_comment", 0)
	assert.Equal(t, repairs+3, testutil.ToFloat64(sweeperRepairsTotal.WithLabelValues("orphan_comment")))
}

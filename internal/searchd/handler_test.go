package searchd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/skarande/trecrank/internal/index"
	"github.com/skarande/trecrank/internal/normalizer"
	"github.com/skarande/trecrank/internal/ranker"
	"github.com/skarande/trecrank/pkg/metrics"
)

func newTestHandler(t *testing.T, defaultLimit, maxLimit int) *Handler {
	t.Helper()
	norm := normalizer.New(nil)
	b := index.NewBuilder()
	docs := map[index.DocID]string{
		1: "cat cat dog",
		2: "cat bird",
		3: "dog fish",
		4: "cat",
		5: "cat dog bird",
	}
	for id, text := range docs {
		b.Add(id, norm.Normalize(text))
	}
	idx, lengths := b.Build()
	rctx := ranker.NewContext(idx, lengths, ranker.DefaultParams())
	return New(norm, rctx, nil, nil, nil, defaultLimit, maxLimit)
}

func doSearch(t *testing.T, h *Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)
	return rec
}

func TestSearch(t *testing.T) {
	h := newTestHandler(t, 10, 100)
	rec := doSearch(t, h, "/api/v1/search?q=cat")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp SearchResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Query != "cat" {
		t.Errorf("Query = %q, want %q", resp.Query, "cat")
	}
	if len(resp.Terms) != 1 || resp.Terms[0] != "cat" {
		t.Errorf("Terms = %v, want [cat]", resp.Terms)
	}
	if resp.Returned != 4 {
		t.Errorf("Returned = %d, want 4 (docs 1,2,4,5 contain cat)", resp.Returned)
	}
	if len(resp.Results) != resp.Returned {
		t.Errorf("len(Results) = %d, Returned = %d", len(resp.Results), resp.Returned)
	}
	for i := 1; i < len(resp.Results); i++ {
		if resp.Results[i].Score > resp.Results[i-1].Score {
			t.Errorf("results not sorted by descending score at %d", i)
		}
	}
}

func TestSearchMissingQuery(t *testing.T) {
	h := newTestHandler(t, 10, 100)
	rec := doSearch(t, h, "/api/v1/search")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSearchInvalidLimit(t *testing.T) {
	h := newTestHandler(t, 10, 100)
	for _, limit := range []string{"abc", "0", "-3"} {
		rec := doSearch(t, h, "/api/v1/search?q=cat&limit="+limit)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%q: status = %d, want 400", limit, rec.Code)
		}
	}
}

func TestSearchLimitCapped(t *testing.T) {
	h := newTestHandler(t, 10, 2)
	rec := doSearch(t, h, "/api/v1/search?q=cat&limit=50")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp SearchResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Returned != 2 {
		t.Errorf("Returned = %d, want 2 (capped at maxLimit)", resp.Returned)
	}
}

func TestSearchZeroResults(t *testing.T) {
	h := newTestHandler(t, 10, 100)
	rec := doSearch(t, h, "/api/v1/search?q=zzzunseen")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp SearchResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Returned != 0 || len(resp.Results) != 0 {
		t.Errorf("Returned = %d, Results = %v, want empty", resp.Returned, resp.Results)
	}
}

func TestObserveSkipsCacheCountersWithoutCache(t *testing.T) {
	m := metrics.New()
	norm := normalizer.New(nil)
	b := index.NewBuilder()
	b.Add(1, norm.Normalize("cat dog"))
	idx, lengths := b.Build()
	rctx := ranker.NewContext(idx, lengths, ranker.DefaultParams())
	h := New(norm, rctx, nil, nil, m, 10, 100)

	rec := doSearch(t, h, "/api/v1/search?q=cat")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := testutil.ToFloat64(m.CacheHitsTotal) + testutil.ToFloat64(m.CacheMissesTotal); got != 0 {
		t.Errorf("cache counters moved to %v with caching disabled, want 0", got)
	}
	if got := testutil.ToFloat64(m.QueriesRankedTotal.WithLabelValues("hit")); got != 1 {
		t.Errorf("queries_ranked_total{hit} = %v, want 1", got)
	}
}

func TestCacheStatsDisabled(t *testing.T) {
	h := newTestHandler(t, 10, 100)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil)
	rec := httptest.NewRecorder()
	h.CacheStats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body["status"] != "disabled" {
		t.Errorf("status = %q, want disabled", body["status"])
	}
}

func TestCacheInvalidateDisabled(t *testing.T) {
	h := newTestHandler(t, 10, 100)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil)
	rec := httptest.NewRecorder()
	h.CacheInvalidate(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

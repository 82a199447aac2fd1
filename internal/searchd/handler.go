// Package searchd serves ad-hoc queries over a frozen ranking context. The
// index is built once at startup; request handling shares it without
// synchronisation.
package searchd

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/skarande/trecrank/internal/analytics"
	"github.com/skarande/trecrank/internal/normalizer"
	"github.com/skarande/trecrank/internal/ranker"
	"github.com/skarande/trecrank/pkg/metrics"
)

// SearchResponse is the JSON body returned for one query.
type SearchResponse struct {
	Query    string             `json:"query"`
	Terms    []string           `json:"terms"`
	Returned int                `json:"returned"`
	Results  []ranker.ScoredDoc `json:"results"`
}

// Handler answers search requests against the frozen ranking context.
type Handler struct {
	norm         *normalizer.Normalizer
	rctx         *ranker.Context
	cache        *ResultCache
	collector    *analytics.Collector
	metrics      *metrics.Metrics
	defaultLimit int
	maxLimit     int
	logger       *slog.Logger
}

// New creates a Handler. cache, collector, and m may be nil; the
// corresponding features are then disabled.
func New(
	norm *normalizer.Normalizer,
	rctx *ranker.Context,
	cache *ResultCache,
	collector *analytics.Collector,
	m *metrics.Metrics,
	defaultLimit, maxLimit int,
) *Handler {
	return &Handler{
		norm:         norm,
		rctx:         rctx,
		cache:        cache,
		collector:    collector,
		metrics:      m,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		logger:       slog.Default().With("component", "search-handler"),
	}
}

// Search handles GET /api/v1/search?q=...&limit=...
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rawQuery := r.URL.Query().Get("q")
	if rawQuery == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	limit := h.defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}

	queryTerms := h.norm.Normalize(rawQuery)
	terms := sortedTerms(queryTerms)

	compute := func() (*SearchResponse, error) {
		ranked := h.rctx.Rank(queryTerms)
		if len(ranked) > limit {
			ranked = ranked[:limit]
		}
		return &SearchResponse{
			Query:    rawQuery,
			Terms:    terms,
			Returned: len(ranked),
			Results:  ranked,
		}, nil
	}

	var (
		resp     *SearchResponse
		cacheHit bool
		err      error
	)
	if h.cache != nil {
		resp, cacheHit, err = h.cache.GetOrCompute(r.Context(), queryTerms, limit, compute)
	} else {
		resp, err = compute()
	}
	if err != nil {
		h.logger.Error("search failed", "query", rawQuery, "error", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	h.observe(resp, cacheHit, time.Since(start))
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// CacheStats handles GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.cache == nil {
		json.NewEncoder(w).Encode(map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	json.NewEncoder(w).Encode(map[string]int64{"hits": hits, "misses": misses})
}

// CacheInvalidate handles POST /api/v1/cache/invalidate.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		writeError(w, http.StatusServiceUnavailable, "cache disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) observe(resp *SearchResponse, cacheHit bool, elapsed time.Duration) {
	if h.metrics != nil {
		resultType := "hit"
		if resp.Returned == 0 {
			resultType = "zero_result"
		}
		h.metrics.QueriesRankedTotal.WithLabelValues(resultType).Inc()
		h.metrics.RankLatency.Observe(elapsed.Seconds())
		h.metrics.ResultsPerQuery.Observe(float64(resp.Returned))
		// Hit/miss counters only mean something when a cache is configured.
		if h.cache != nil {
			if cacheHit {
				h.metrics.CacheHitsTotal.Inc()
			} else {
				h.metrics.CacheMissesTotal.Inc()
			}
		}
	}
	if h.collector != nil {
		h.collector.Track(analytics.QueryEvent{
			Type:      analytics.EventQuery,
			Query:     resp.Query,
			TermCount: len(resp.Terms),
			Returned:  resp.Returned,
			LatencyMs: elapsed.Milliseconds(),
			CacheHit:  cacheHit,
			Timestamp: time.Now().UTC(),
		})
	}
}

func sortedTerms(m normalizer.TermFrequencyMap) []string {
	terms := make([]string, 0, len(m))
	for term := range m {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

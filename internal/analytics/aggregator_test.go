package analytics

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func feedQuery(t *testing.T, agg *Aggregator, event QueryEvent) {
	t.Helper()
	event.Type = EventQuery
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshalling event: %v", err)
	}
	if err := HandleEvent(agg)(context.Background(), nil, data); err != nil {
		t.Fatalf("handling event: %v", err)
	}
}

func TestAggregatorQueryEvents(t *testing.T) {
	agg := NewAggregator()
	feedQuery(t, agg, QueryEvent{Query: "cat", Returned: 3, LatencyMs: 10, CacheHit: true})
	feedQuery(t, agg, QueryEvent{Query: "cat", Returned: 0, LatencyMs: 30})
	feedQuery(t, agg, QueryEvent{Query: "dog", Returned: 5, LatencyMs: 20})

	stats := agg.Stats()
	if stats.TotalQueries != 3 {
		t.Errorf("TotalQueries = %d, want 3", stats.TotalQueries)
	}
	if stats.CacheHits != 1 || stats.CacheMisses != 2 {
		t.Errorf("cache hits/misses = %d/%d, want 1/2", stats.CacheHits, stats.CacheMisses)
	}
	if stats.ZeroResultCount != 1 {
		t.Errorf("ZeroResultCount = %d, want 1", stats.ZeroResultCount)
	}
	if stats.AvgLatencyMs != 20 {
		t.Errorf("AvgLatencyMs = %v, want 20", stats.AvgLatencyMs)
	}
	if len(stats.TopQueries) != 2 {
		t.Fatalf("TopQueries = %v, want 2 entries", stats.TopQueries)
	}
	if stats.TopQueries[0].Query != "cat" || stats.TopQueries[0].Count != 2 {
		t.Errorf("TopQueries[0] = %+v, want cat/2", stats.TopQueries[0])
	}
}

func TestAggregatorRunEvents(t *testing.T) {
	agg := NewAggregator()
	event := RunEvent{
		Type: EventRunComplete, Tag: "baseline",
		DocCount: 100, QueryCount: 10, K1: 1.2, B: 0.75,
		Timestamp: time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshalling event: %v", err)
	}
	if err := HandleEvent(agg)(context.Background(), nil, data); err != nil {
		t.Fatalf("handling event: %v", err)
	}

	stats := agg.Stats()
	if stats.RunsCompleted != 1 {
		t.Errorf("RunsCompleted = %d, want 1", stats.RunsCompleted)
	}
	if stats.TotalQueries != 0 {
		t.Errorf("run event counted as query: TotalQueries = %d", stats.TotalQueries)
	}
}

func TestAggregatorMalformedEventIgnored(t *testing.T) {
	agg := NewAggregator()
	if err := HandleEvent(agg)(context.Background(), nil, []byte("{not json")); err != nil {
		t.Errorf("malformed event returned error %v, want nil (skip and continue)", err)
	}
	if got := agg.Stats().TotalQueries; got != 0 {
		t.Errorf("TotalQueries = %d, want 0", got)
	}
}

func TestPercentile(t *testing.T) {
	sorted := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	tests := []struct {
		pct  int
		want int64
	}{
		{50, 6},
		{95, 10},
		{99, 10},
	}
	for _, tt := range tests {
		if got := percentile(sorted, tt.pct); got != tt.want {
			t.Errorf("percentile(%d) = %d, want %d", tt.pct, got, tt.want)
		}
	}
	if got := percentile(nil, 50); got != 0 {
		t.Errorf("percentile(nil) = %d, want 0", got)
	}
}

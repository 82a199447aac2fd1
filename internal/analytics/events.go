package analytics

import "time"

type EventType string

const (
	EventQuery       EventType = "query"
	EventRunComplete EventType = "run_complete"
)

// QueryEvent is published for every ranked query served by searchd.
type QueryEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	TermCount int       `json:"term_count"`
	Returned  int       `json:"returned"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
}

// RunEvent is published once per completed batch run.
type RunEvent struct {
	Type       EventType `json:"type"`
	Tag        string    `json:"tag"`
	DocCount   int       `json:"doc_count"`
	QueryCount int       `json:"query_count"`
	K1         float64   `json:"k1"`
	B          float64   `json:"b"`
	ElapsedMs  int64     `json:"elapsed_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

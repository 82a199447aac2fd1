package analytics

import (
	"encoding/json"
	"net/http"
)

// Handler exposes aggregated serving statistics over HTTP.
type Handler struct {
	aggregator *Aggregator
}

func NewHandler(aggregator *Aggregator) *Handler {
	return &Handler{aggregator: aggregator}
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.aggregator.Stats())
}

// Package archive persists completed runs to PostgreSQL for later
// comparison across parameter sweeps. Schema:
//
//	CREATE TABLE retrieval_runs (
//	    id          BIGSERIAL PRIMARY KEY,
//	    tag         TEXT NOT NULL,
//	    k1          DOUBLE PRECISION NOT NULL,
//	    b           DOUBLE PRECISION NOT NULL,
//	    doc_count   INTEGER NOT NULL,
//	    query_count INTEGER NOT NULL,
//	    elapsed_ms  BIGINT NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//
//	CREATE TABLE retrieval_results (
//	    run_id   BIGINT NOT NULL REFERENCES retrieval_runs(id) ON DELETE CASCADE,
//	    query_id BIGINT NOT NULL,
//	    doc_id   BIGINT NOT NULL,
//	    rank     INTEGER NOT NULL,
//	    score    DOUBLE PRECISION NOT NULL,
//	    PRIMARY KEY (run_id, query_id, rank)
//	);
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/skarande/trecrank/internal/ranker"
	"github.com/skarande/trecrank/pkg/postgres"
	"github.com/skarande/trecrank/pkg/resilience"
)

// RunMeta describes one completed run.
type RunMeta struct {
	Tag        string
	K1         float64
	B          float64
	DocCount   int
	QueryCount int
	Elapsed    time.Duration
}

// Store writes runs and their ranked results to PostgreSQL.
type Store struct {
	client *postgres.Client
	logger *slog.Logger
}

// New creates a Store over an open postgres client.
func New(client *postgres.Client) *Store {
	return &Store{
		client: client,
		logger: slog.Default().With("component", "run-archive"),
	}
}

// SaveRun inserts the run row and all per-query results in one transaction,
// retrying transient failures. It returns the archived run id.
func (s *Store) SaveRun(ctx context.Context, meta RunMeta, results map[ranker.QueryID][]ranker.ScoredDoc) (int64, error) {
	var runID int64
	err := resilience.Retry(ctx, "archive-save-run", resilience.RetryConfig{}, func() error {
		return s.client.InTx(ctx, func(tx *sql.Tx) error {
			err := tx.QueryRowContext(ctx,
				`INSERT INTO retrieval_runs (tag, k1, b, doc_count, query_count, elapsed_ms)
				 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
				meta.Tag, meta.K1, meta.B, meta.DocCount, meta.QueryCount, meta.Elapsed.Milliseconds(),
			).Scan(&runID)
			if err != nil {
				return fmt.Errorf("inserting run row: %w", err)
			}

			stmt, err := tx.PrepareContext(ctx,
				`INSERT INTO retrieval_results (run_id, query_id, doc_id, rank, score)
				 VALUES ($1, $2, $3, $4, $5)`)
			if err != nil {
				return fmt.Errorf("preparing result insert: %w", err)
			}
			defer stmt.Close()

			queryIDs := make([]ranker.QueryID, 0, len(results))
			for id := range results {
				queryIDs = append(queryIDs, id)
			}
			sort.Slice(queryIDs, func(i, j int) bool { return queryIDs[i] < queryIDs[j] })

			for _, queryID := range queryIDs {
				for i, doc := range results[queryID] {
					if _, err := stmt.ExecContext(ctx, runID, int64(queryID), int64(doc.DocID), i+1, doc.Score); err != nil {
						return fmt.Errorf("inserting result for query %d: %w", queryID, err)
					}
				}
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("run archived",
		"run_id", runID,
		"tag", meta.Tag,
		"queries", meta.QueryCount,
	)
	return runID, nil
}

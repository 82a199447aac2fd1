// Package runfile serialises ranked results as a TREC run file: one line per
// result, `query_id Q0 doc_id rank score tag`, rank 1-based within each
// query, queries in ascending id order. The file is valid input for
// trec_eval-style MAP evaluation.
package runfile

import (
	"bufio"
	"fmt"
	"os"
	"sort"

	"github.com/skarande/trecrank/internal/ranker"
)

// Write creates path and writes every query's results in rank order.
func Write(path string, results map[ranker.QueryID][]ranker.ScoredDoc, tag string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating run file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := writeTo(w, results, tag); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing run file: %w", err)
	}
	return nil
}

func writeTo(w *bufio.Writer, results map[ranker.QueryID][]ranker.ScoredDoc, tag string) error {
	queryIDs := make([]ranker.QueryID, 0, len(results))
	for id := range results {
		queryIDs = append(queryIDs, id)
	}
	sort.Slice(queryIDs, func(i, j int) bool { return queryIDs[i] < queryIDs[j] })

	for _, queryID := range queryIDs {
		for i, doc := range results[queryID] {
			_, err := fmt.Fprintf(w, "%d Q0 %d %d %.6f %s\n",
				queryID, doc.DocID, i+1, doc.Score, tag)
			if err != nil {
				return fmt.Errorf("writing run line: %w", err)
			}
		}
	}
	return nil
}

// Package ranker scores documents against queries using BM25-weighted cosine
// similarity and returns a bounded, deterministically ordered result set per
// query. A Context is created once after indexing and shared read-only by
// any number of concurrent Rank calls.
package ranker

import (
	"context"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/skarande/trecrank/internal/index"
	"github.com/skarande/trecrank/internal/normalizer"
)

// QueryID identifies one query record.
type QueryID uint32

// ScoredDoc is a single ranked result.
type ScoredDoc struct {
	DocID index.DocID `json:"doc_id"`
	Score float64     `json:"score"`
}

// Params holds the BM25 tuning parameters and the per-query result cap.
type Params struct {
	K1   float64
	B    float64
	TopK int
}

// DefaultParams returns the standard BM25 parameters and the conventional
// 100-result cap.
func DefaultParams() Params {
	return Params{K1: 1.2, B: 0.75, TopK: 100}
}

// Context bundles the BM25 parameters with the corpus statistics derived at
// index time: average document length and total document count. It holds
// references to the inverted index and length map and is immutable after
// construction.
type Context struct {
	k1      float64
	b       float64
	topK    int
	avgdl   float64
	numDocs int
	idx     index.InvertedIndex
	lengths index.DocumentLengths
}

// NewContext derives the ranking statistics from the built index. The index
// and length map must not be mutated afterwards.
func NewContext(idx index.InvertedIndex, lengths index.DocumentLengths, p Params) *Context {
	if p.TopK <= 0 {
		p.TopK = DefaultParams().TopK
	}
	return &Context{
		k1:      p.K1,
		b:       p.B,
		topK:    p.TopK,
		avgdl:   lengths.Avg(),
		numDocs: len(lengths),
		idx:     idx,
		lengths: lengths,
	}
}

// NumDocs returns the total document count N.
func (c *Context) NumDocs() int { return c.numDocs }

// Avgdl returns the mean document length.
func (c *Context) Avgdl() float64 { return c.avgdl }

// IDF returns the inverse document frequency for a term. The +1 inside the
// logarithm keeps the value non-negative even for terms appearing in nearly
// every document. Terms absent from the index have idf 0.
func (c *Context) IDF(term string) float64 {
	return c.idf(c.idx.DocFreq(term))
}

func (c *Context) idf(docFreq int) float64 {
	if docFreq == 0 {
		return 0
	}
	n := float64(c.numDocs)
	df := float64(docFreq)
	return math.Log((n-df+0.5)/(df+0.5) + 1)
}

// weight returns the BM25 term weight for a raw frequency in a document of
// the given length.
func (c *Context) weight(idf, freq float64, docLen int) float64 {
	if c.avgdl == 0 {
		return 0
	}
	denom := freq + c.k1*(1-c.b+c.b*float64(docLen)/c.avgdl)
	return idf * freq * (c.k1 + 1) / denom
}

// accumulator carries one candidate's partial sums: the dot product with
// the query vector and the squared BM25 weights for the document-side norm,
// both restricted to the query terms the candidate actually contains.
type accumulator struct {
	dot   float64
	docSq float64
}

// Rank scores every document that shares at least one term with the query
// and returns at most TopK results ordered by descending score, ascending
// DocID on ties. Query terms absent from the index are skipped; a query with
// no indexed terms yields an empty result.
func (c *Context) Rank(query normalizer.TermFrequencyMap) []ScoredDoc {
	candidates := make(map[index.DocID]*accumulator)
	querySq := 0.0
	for term, queryFreq := range query {
		postings := c.idx[term]
		if len(postings) == 0 {
			continue
		}
		idf := c.idf(len(postings))
		qv := float64(queryFreq)
		querySq += qv * qv
		for docID, freq := range postings {
			w := c.weight(idf, float64(freq), c.lengths[docID])
			acc, ok := candidates[docID]
			if !ok {
				acc = &accumulator{}
				candidates[docID] = acc
			}
			acc.dot += w * qv
			acc.docSq += w * w
		}
	}

	queryNorm := math.Sqrt(querySq)
	top := newTopK(c.topK)
	for docID, acc := range candidates {
		norm := math.Sqrt(acc.docSq) * queryNorm
		if norm == 0 {
			continue
		}
		score := acc.dot / norm
		if score <= 0 {
			continue
		}
		top.add(ScoredDoc{DocID: docID, Score: score})
	}
	return top.ranked()
}

// RankAll ranks every query independently over the shared Context, fanning
// the work out across at most workers goroutines. Results are keyed by query
// id. The only error condition is context cancellation.
func (c *Context) RankAll(ctx context.Context, queries map[QueryID]normalizer.TermFrequencyMap, workers int) (map[QueryID][]ScoredDoc, error) {
	if workers <= 0 {
		workers = 1
	}
	results := make(map[QueryID][]ScoredDoc, len(queries))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for id, terms := range queries {
		id, terms := id, terms
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ranked := c.Rank(terms)
			mu.Lock()
			results[id] = ranked
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

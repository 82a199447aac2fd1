// Package index builds the read-only inverted index used by the ranker. The
// index maps each term to its postings (document -> term frequency) and
// records every document's token count. It is built once per run by a single
// fold over the corpus and never mutated afterwards.
package index

import (
	"github.com/skarande/trecrank/internal/normalizer"
)

// DocID uniquely identifies a corpus entry for the lifetime of one run.
type DocID uint32

// Postings maps a document to the frequency of one term in that document.
type Postings map[DocID]normalizer.TermFreq

// InvertedIndex maps each term to its postings. A document appears in a
// term's postings iff its term frequency map holds that term with count > 0;
// postings are never empty.
type InvertedIndex map[string]Postings

// DocFreq returns the number of documents whose postings contain term.
func (idx InvertedIndex) DocFreq(term string) int {
	return len(idx[term])
}

// DocumentLengths maps a document to its total token count (sum of all term
// frequencies, title and body together).
type DocumentLengths map[DocID]int

// Avg returns the mean document length across the corpus, or 0 for an empty
// corpus.
func (dl DocumentLengths) Avg() float64 {
	if len(dl) == 0 {
		return 0
	}
	total := 0
	for _, length := range dl {
		total += length
	}
	return float64(total) / float64(len(dl))
}

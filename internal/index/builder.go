package index

import (
	"github.com/skarande/trecrank/internal/normalizer"
)

// Builder folds normalised documents into an InvertedIndex and a
// DocumentLengths map. Documents may be added in any order; the resulting
// structures are identical for every permutation. Adding the same document
// twice overwrites its per-term frequencies, so re-indexing is idempotent.
type Builder struct {
	index   InvertedIndex
	lengths DocumentLengths
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		index:   make(InvertedIndex),
		lengths: make(DocumentLengths),
	}
}

// Add folds one document into the index. A document with an empty term map
// contributes a zero-length entry and no postings; it still counts toward
// the corpus size and the average document length.
func (b *Builder) Add(id DocID, terms normalizer.TermFrequencyMap) {
	b.lengths[id] = terms.TotalTokens()
	for term, freq := range terms {
		postings, ok := b.index[term]
		if !ok {
			postings = make(Postings)
			b.index[term] = postings
		}
		postings[id] = freq
	}
}

// DocCount returns the number of documents folded so far.
func (b *Builder) DocCount() int {
	return len(b.lengths)
}

// TermCount returns the number of distinct terms folded so far.
func (b *Builder) TermCount() int {
	return len(b.index)
}

// Build returns the completed index and length map. The Builder must not be
// used after Build; the returned structures are owned by the caller and
// treated as read-only from here on.
func (b *Builder) Build() (InvertedIndex, DocumentLengths) {
	index, lengths := b.index, b.lengths
	b.index, b.lengths = nil, nil
	return index, lengths
}

package ranker

import (
	"container/heap"
	"sort"
)

// topK keeps the K highest-scoring results seen so far in a min-heap. When
// the heap exceeds capacity the minimum element is evicted; among equal
// scores the larger DocID is evicted first, so the surviving set and its
// final ordering are reproducible across runs.
type topK struct {
	cap   int
	items []ScoredDoc
}

func newTopK(cap int) *topK {
	return &topK{cap: cap, items: make([]ScoredDoc, 0, cap)}
}

func (t *topK) Len() int { return len(t.items) }

func (t *topK) Less(i, j int) bool {
	if t.items[i].Score != t.items[j].Score {
		return t.items[i].Score < t.items[j].Score
	}
	return t.items[i].DocID > t.items[j].DocID
}

func (t *topK) Swap(i, j int) { t.items[i], t.items[j] = t.items[j], t.items[i] }

func (t *topK) Push(x any) { t.items = append(t.items, x.(ScoredDoc)) }

func (t *topK) Pop() any {
	old := t.items
	n := len(old)
	x := old[n-1]
	t.items = old[:n-1]
	return x
}

func (t *topK) add(doc ScoredDoc) {
	heap.Push(t, doc)
	if t.Len() > t.cap {
		heap.Pop(t)
	}
}

// ranked drains the heap into a slice sorted by descending score, ascending
// DocID on ties.
func (t *topK) ranked() []ScoredDoc {
	result := make([]ScoredDoc, len(t.items))
	copy(result, t.items)
	sort.Slice(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].DocID < result[j].DocID
	})
	return result
}

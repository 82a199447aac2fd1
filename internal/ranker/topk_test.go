package ranker

import (
	"reflect"
	"testing"

	"github.com/skarande/trecrank/internal/index"
)

func TestTopKEvictsLowestScore(t *testing.T) {
	top := newTopK(3)
	for _, doc := range []ScoredDoc{
		{DocID: 1, Score: 0.5},
		{DocID: 2, Score: 0.9},
		{DocID: 3, Score: 0.1},
		{DocID: 4, Score: 0.7},
	} {
		top.add(doc)
	}

	want := []ScoredDoc{
		{DocID: 2, Score: 0.9},
		{DocID: 4, Score: 0.7},
		{DocID: 1, Score: 0.5},
	}
	if got := top.ranked(); !reflect.DeepEqual(got, want) {
		t.Errorf("ranked() = %v, want %v", got, want)
	}
}

func TestTopKEqualScoresKeepSmallestIDs(t *testing.T) {
	top := newTopK(3)
	for _, id := range []index.DocID{5, 1, 9, 3, 7} {
		top.add(ScoredDoc{DocID: id, Score: 1.0})
	}

	got := top.ranked()
	wantIDs := []index.DocID{1, 3, 5}
	if len(got) != len(wantIDs) {
		t.Fatalf("ranked() returned %d docs, want %d", len(got), len(wantIDs))
	}
	for i, doc := range got {
		if doc.DocID != wantIDs[i] {
			t.Errorf("ranked()[%d].DocID = %d, want %d", i, doc.DocID, wantIDs[i])
		}
	}
}

func TestTopKUnderCapacity(t *testing.T) {
	top := newTopK(100)
	top.add(ScoredDoc{DocID: 2, Score: 0.3})
	top.add(ScoredDoc{DocID: 1, Score: 0.3})

	got := top.ranked()
	if len(got) != 2 {
		t.Fatalf("ranked() returned %d docs, want 2", len(got))
	}
	if got[0].DocID != 1 || got[1].DocID != 2 {
		t.Errorf("tie order = [%d %d], want [1 2]", got[0].DocID, got[1].DocID)
	}
}

package index

import (
	"reflect"
	"testing"

	"github.com/skarande/trecrank/internal/normalizer"
)

func TestBuilderFold(t *testing.T) {
	b := NewBuilder()
	b.Add(1, normalizer.TermFrequencyMap{"cat": 3})
	b.Add(2, normalizer.TermFrequencyMap{"cat": 1, "dog": 1})

	if got := b.DocCount(); got != 2 {
		t.Fatalf("DocCount() = %d, want 2", got)
	}
	if got := b.TermCount(); got != 2 {
		t.Fatalf("TermCount() = %d, want 2", got)
	}

	idx, lengths := b.Build()

	wantIndex := InvertedIndex{
		"cat": Postings{1: 3, 2: 1},
		"dog": Postings{2: 1},
	}
	if !reflect.DeepEqual(idx, wantIndex) {
		t.Errorf("index = %v, want %v", idx, wantIndex)
	}
	wantLengths := DocumentLengths{1: 3, 2: 2}
	if !reflect.DeepEqual(lengths, wantLengths) {
		t.Errorf("lengths = %v, want %v", lengths, wantLengths)
	}
	if got := idx.DocFreq("cat"); got != 2 {
		t.Errorf("DocFreq(cat) = %d, want 2", got)
	}
	if got := idx.DocFreq("unicorn"); got != 0 {
		t.Errorf("DocFreq(unicorn) = %d, want 0", got)
	}
}

func TestBuilderPermutationIndependence(t *testing.T) {
	docs := map[DocID]normalizer.TermFrequencyMap{
		1: {"alpha": 2, "beta": 1},
		2: {"beta": 5},
		3: {"alpha": 1, "gamma": 3},
	}

	forward := NewBuilder()
	for _, id := range []DocID{1, 2, 3} {
		forward.Add(id, docs[id])
	}
	reversed := NewBuilder()
	for _, id := range []DocID{3, 2, 1} {
		reversed.Add(id, docs[id])
	}

	fIdx, fLen := forward.Build()
	rIdx, rLen := reversed.Build()
	if !reflect.DeepEqual(fIdx, rIdx) {
		t.Errorf("insertion order changed the index: %v vs %v", fIdx, rIdx)
	}
	if !reflect.DeepEqual(fLen, rLen) {
		t.Errorf("insertion order changed the lengths: %v vs %v", fLen, rLen)
	}
}

func TestBuilderEmptyDocument(t *testing.T) {
	b := NewBuilder()
	b.Add(1, normalizer.TermFrequencyMap{"cat": 4})
	b.Add(2, normalizer.TermFrequencyMap{})

	if got := b.DocCount(); got != 2 {
		t.Fatalf("DocCount() = %d, want 2 (empty doc still counts)", got)
	}
	idx, lengths := b.Build()
	if got := lengths[2]; got != 0 {
		t.Errorf("lengths[2] = %d, want 0", got)
	}
	if got := lengths.Avg(); got != 2 {
		t.Errorf("Avg() = %v, want 2 (empty doc pulls the mean down)", got)
	}
	for term, postings := range idx {
		if _, ok := postings[2]; ok {
			t.Errorf("empty document appears in postings for %q", term)
		}
	}
}

func TestBuilderReAddOverwrites(t *testing.T) {
	b := NewBuilder()
	b.Add(7, normalizer.TermFrequencyMap{"cat": 2})
	b.Add(7, normalizer.TermFrequencyMap{"cat": 5})

	idx, lengths := b.Build()
	if got := idx["cat"][7]; got != 5 {
		t.Errorf("postings[cat][7] = %d, want 5", got)
	}
	if got := lengths[7]; got != 5 {
		t.Errorf("lengths[7] = %d, want 5", got)
	}
	if got := len(lengths); got != 1 {
		t.Errorf("re-added document counted twice: %d entries", got)
	}
}

func TestDocumentLengthsAvg(t *testing.T) {
	tests := []struct {
		name    string
		lengths DocumentLengths
		want    float64
	}{
		{"empty corpus", DocumentLengths{}, 0},
		{"single", DocumentLengths{1: 4}, 4},
		{"mixed", DocumentLengths{1: 2, 2: 4}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.lengths.Avg(); got != tt.want {
				t.Errorf("Avg() = %v, want %v", got, tt.want)
			}
		})
	}
}

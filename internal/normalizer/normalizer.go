// Package normalizer turns raw text into a frequency map of cleaned, stemmed
// terms. The same pipeline is applied to documents and queries: lowercase
// word-run tokenisation, stopword removal, Porter stemming, and removal of
// single-character stems.
package normalizer

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kljensen/snowball"
)

// TermFreq is a bounded term-frequency counter. Increments saturate at
// MaxUint16 instead of wrapping.
type TermFreq = uint16

// TermFrequencyMap maps a normalised term to its occurrence count. Every
// stored count is >= 1.
type TermFrequencyMap map[string]TermFreq

// Add increments the count for term, clamping at the maximum representable
// frequency.
func (m TermFrequencyMap) Add(term string) {
	if m[term] < math.MaxUint16 {
		m[term]++
	}
}

// TotalTokens returns the sum of all term frequencies in the map.
func (m TermFrequencyMap) TotalTokens() int {
	total := 0
	for _, freq := range m {
		total += int(freq)
	}
	return total
}

// Normalizer holds the stopword set used by the pipeline. It is safe for
// concurrent use; the stopword set is never mutated after construction.
type Normalizer struct {
	stopwords map[string]struct{}
}

// New creates a Normalizer with the given stopword list.
func New(stopwords []string) *Normalizer {
	stop := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		stop[strings.ToLower(w)] = struct{}{}
	}
	return &Normalizer{stopwords: stop}
}

// Normalize runs the full pipeline on text and returns its term frequency
// map. Empty or entirely-stopword input yields an empty map.
func (n *Normalizer) Normalize(text string) TermFrequencyMap {
	terms := make(TermFrequencyMap)
	n.accumulate(text, terms)
	return terms
}

// NormalizeDocument normalises a document's title and body into one combined
// term frequency map. Title and body token streams are concatenated before
// aggregation, so their frequencies add.
func (n *Normalizer) NormalizeDocument(title, body string) TermFrequencyMap {
	terms := make(TermFrequencyMap)
	n.accumulate(title, terms)
	n.accumulate(body, terms)
	return terms
}

func (n *Normalizer) accumulate(text string, terms TermFrequencyMap) {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	for _, word := range words {
		if _, isStop := n.stopwords[word]; isStop {
			continue
		}
		stemmed, err := snowball.Stem(word, "english", true)
		if err != nil {
			continue
		}
		if utf8.RuneCountInString(stemmed) < 2 {
			continue
		}
		terms.Add(stemmed)
	}
}

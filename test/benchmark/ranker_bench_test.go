package benchmark

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/skarande/trecrank/internal/index"
	"github.com/skarande/trecrank/internal/normalizer"
	"github.com/skarande/trecrank/internal/ranker"
)

// syntheticContext builds a corpus of numDocs documents drawn from a fixed
// vocabulary with a deterministic seed, so runs are comparable.
func syntheticContext(numDocs, vocabSize, termsPerDoc int) *ranker.Context {
	rng := rand.New(rand.NewSource(42))
	b := index.NewBuilder()
	for id := index.DocID(1); id <= index.DocID(numDocs); id++ {
		terms := make(normalizer.TermFrequencyMap, termsPerDoc)
		for n := 0; n < termsPerDoc; n++ {
			term := fmt.Sprintf("term%d", rng.Intn(vocabSize))
			terms.Add(term)
		}
		b.Add(id, terms)
	}
	idx, lengths := b.Build()
	return ranker.NewContext(idx, lengths, ranker.DefaultParams())
}

func benchQuery(numTerms int) normalizer.TermFrequencyMap {
	query := make(normalizer.TermFrequencyMap, numTerms)
	for i := 0; i < numTerms; i++ {
		query[fmt.Sprintf("term%d", i*7)] = 1
	}
	return query
}

func BenchmarkRank(b *testing.B) {
	sizes := []int{1000, 10000, 50000}
	for _, numDocs := range sizes {
		rctx := syntheticContext(numDocs, 2000, 40)
		query := benchQuery(4)
		b.Run(fmt.Sprintf("docs_%d", numDocs), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				results := rctx.Rank(query)
				_ = results
			}
		})
	}
}

func BenchmarkRankQueryLength(b *testing.B) {
	rctx := syntheticContext(10000, 2000, 40)
	for _, numTerms := range []int{1, 4, 16} {
		query := benchQuery(numTerms)
		b.Run(fmt.Sprintf("terms_%d", numTerms), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				results := rctx.Rank(query)
				_ = results
			}
		})
	}
}

func BenchmarkRankParallel(b *testing.B) {
	rctx := syntheticContext(10000, 2000, 40)
	query := benchQuery(4)
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			results := rctx.Rank(query)
			_ = results
		}
	})
}

func BenchmarkIndexBuild(b *testing.B) {
	norm := normalizer.New(stopwords)
	docs := make([]normalizer.TermFrequencyMap, 1000)
	for i := range docs {
		docs[i] = norm.Normalize(sampleTexts["medium"])
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		builder := index.NewBuilder()
		for j, terms := range docs {
			builder.Add(index.DocID(j+1), terms)
		}
		idx, lengths := builder.Build()
		_, _ = idx, lengths
	}
}

package searchd

import (
	"testing"

	"github.com/skarande/trecrank/internal/index"
	"github.com/skarande/trecrank/internal/normalizer"
	"github.com/skarande/trecrank/internal/ranker"
	"github.com/skarande/trecrank/pkg/config"
)

func TestBuildKeyReflectsTermFrequencies(t *testing.T) {
	// Two documents that mirror each other's term balance: a cat-heavy
	// query ranks doc 1 first, a dog-heavy one ranks doc 2 first, so the
	// two queries must never share a cache entry.
	b := index.NewBuilder()
	b.Add(1, normalizer.TermFrequencyMap{"cat": 3, "dog": 1})
	b.Add(2, normalizer.TermFrequencyMap{"cat": 1, "dog": 3})
	idx, lengths := b.Build()
	rctx := ranker.NewContext(idx, lengths, ranker.DefaultParams())

	catHeavy := normalizer.TermFrequencyMap{"cat": 3, "dog": 1}
	dogHeavy := normalizer.TermFrequencyMap{"cat": 1, "dog": 3}

	catRanked := rctx.Rank(catHeavy)
	dogRanked := rctx.Rank(dogHeavy)
	if len(catRanked) == 0 || len(dogRanked) == 0 {
		t.Fatal("expected results for both queries")
	}
	if catRanked[0].DocID != 1 || dogRanked[0].DocID != 2 {
		t.Fatalf("top docs = %d/%d, want 1/2", catRanked[0].DocID, dogRanked[0].DocID)
	}

	c := NewResultCache(nil, config.RedisConfig{})
	if c.buildKey(catHeavy, 10) == c.buildKey(dogHeavy, 10) {
		t.Error("queries over the same term set with different frequencies share a cache key")
	}
}

func TestBuildKeyDeterministic(t *testing.T) {
	c := NewResultCache(nil, config.RedisConfig{})
	query := normalizer.TermFrequencyMap{"alpha": 2, "beta": 1, "gamma": 5}

	first := c.buildKey(query, 10)
	if second := c.buildKey(query, 10); second != first {
		t.Errorf("same query produced different keys: %s vs %s", first, second)
	}
	if other := c.buildKey(query, 20); other == first {
		t.Error("limit not part of the cache key")
	}
	if other := c.buildKey(normalizer.TermFrequencyMap{"alpha": 2, "beta": 1}, 10); other == first {
		t.Error("dropping a term did not change the cache key")
	}
}

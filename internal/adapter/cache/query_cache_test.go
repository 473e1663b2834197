package cache

import (
	"context"
	"testing"
	"time"

	"studyrag/internal/domain"
)

func scored(id string, score float64) domain.ScoredChunk {
	return domain.ScoredChunk{Chunk: domain.Chunk{ID: id}, Score: score}
}

func TestQueryCacheGetPut(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	physics := domain.Filter{domain.MetaSubject: "Physics"}

	c.Put("newton", physics, 5, c.Generation(), []domain.ScoredChunk{scored("a_0", 0.9)})

	got, ok := c.Get("newton", physics, 5)
	if !ok || len(got) != 1 || got[0].Chunk.ID != "a_0" {
		t.Fatalf("expected cached result, got %v (hit=%v)", got, ok)
	}

	if _, ok := c.Get("newton", nil, 5); ok {
		t.Error("different filter must not hit")
	}
	if _, ok := c.Get("newton", physics, 3); ok {
		t.Error("different top_k must not hit")
	}
	if _, ok := c.Get("newton", domain.Filter{domain.MetaSubject: "History"}, 5); ok {
		t.Error("different subject must not hit")
	}
}

func TestQueryCacheInvalidate(t *testing.T) {
	c := NewQueryCache(10, time.Minute)

	gen := c.Generation()
	c.Put("q", nil, 5, gen, []domain.ScoredChunk{scored("a_0", 0.9)})
	c.Invalidate()

	if _, ok := c.Get("q", nil, 5); ok {
		t.Error("expected miss after invalidation")
	}

	// A search that started before the invalidation must not be cached.
	c.Put("q", nil, 5, gen, []domain.ScoredChunk{scored("a_0", 0.9)})
	if c.Size() != 0 {
		t.Errorf("expected stale put to be dropped, size=%d", c.Size())
	}
}

func TestQueryCacheEviction(t *testing.T) {
	c := NewQueryCache(2, time.Minute)
	gen := c.Generation()

	c.Put("a", nil, 5, gen, nil)
	c.Put("b", nil, 5, gen, nil)
	c.Get("a", nil, 5)
	c.Put("c", nil, 5, gen, nil)

	if _, ok := c.Get("b", nil, 5); ok {
		t.Error("expected least recently used entry to be evicted")
	}
	if _, ok := c.Get("a", nil, 5); !ok {
		t.Error("expected recently used entry to survive")
	}
	if c.Size() != 2 {
		t.Errorf("expected size 2, got %d", c.Size())
	}
}

func TestQueryCacheTTL(t *testing.T) {
	c := NewQueryCache(10, time.Millisecond)
	c.Put("q", nil, 5, c.Generation(), []domain.ScoredChunk{scored("a_0", 0.9)})

	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("q", nil, 5); ok {
		t.Error("expected expired entry to miss")
	}
}

type countingRetriever struct {
	calls int
}

func (r *countingRetriever) Search(ctx context.Context, query string, filter domain.Filter, k int) ([]domain.ScoredChunk, error) {
	r.calls++
	return []domain.ScoredChunk{scored("a_0", 0.8)}, nil
}

func TestCachedRetriever(t *testing.T) {
	inner := &countingRetriever{}
	r := NewCachedRetriever(inner, NewQueryCache(10, time.Minute))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := r.Search(ctx, "q", nil, 5); err != nil {
			t.Fatal(err)
		}
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 underlying search, got %d", inner.calls)
	}

	r.Invalidate()
	if _, err := r.Search(ctx, "q", nil, 5); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("expected search after invalidation, got %d calls", inner.calls)
	}
}

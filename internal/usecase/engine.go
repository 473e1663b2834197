package usecase

import (
	"time"

	"github.com/google/uuid"

	"studyrag/internal/adapter/cache"
	"studyrag/internal/adapter/retriever"
	"studyrag/internal/domain"
	"studyrag/internal/port"
)

const (
	// DefaultTopK is the number of chunks returned when a query omits top_k.
	DefaultTopK = 5

	// DefaultThreshold is the minimum similarity a chunk needs to be returned.
	DefaultThreshold = 0.25
)

// Engine indexes study documents and answers retrieval queries.
// It holds no lock of its own; the store, registry and cache it is built
// from are safe for concurrent use, and so is the engine.
type Engine struct {
	chunker   port.Chunker
	embedder  port.Embedder
	store     port.VectorStore
	registry  port.Registry
	retriever port.Retriever
	cache     *cache.QueryCache

	topK           int
	threshold      float64
	defaultSubject string

	newID func() string
	now   func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithTopK sets the result count used when a request leaves top_k at zero.
func WithTopK(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.topK = k
		}
	}
}

// WithThreshold sets the minimum score a chunk needs to be returned.
func WithThreshold(threshold float64) Option {
	return func(e *Engine) {
		if threshold >= 0 && threshold <= 1 {
			e.threshold = threshold
		}
	}
}

// WithDefaultSubject sets the subject label that means "no subject filter".
func WithDefaultSubject(subject string) Option {
	return func(e *Engine) {
		if subject != "" {
			e.defaultSubject = subject
		}
	}
}

// WithQueryCache serves repeated retrievals from c. The cache is
// invalidated on every ingest, delete and reconcile.
func WithQueryCache(c *cache.QueryCache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithIDGenerator replaces the document id generator.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) {
		e.newID = gen
	}
}

// WithClock replaces the time source used to stamp uploads.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine wires an engine over the given components.
func NewEngine(
	chunker port.Chunker,
	embedder port.Embedder,
	store port.VectorStore,
	registry port.Registry,
	opts ...Option,
) *Engine {
	e := &Engine{
		chunker:        chunker,
		embedder:       embedder,
		store:          store,
		registry:       registry,
		topK:           DefaultTopK,
		threshold:      DefaultThreshold,
		defaultSubject: domain.DefaultSubject,
		newID:          newDocID,
		now:            time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.retriever = retriever.NewSemanticRetriever(store, embedder)
	if e.cache != nil {
		e.retriever = cache.NewCachedRetriever(e.retriever, e.cache)
	}

	return e
}

// newDocID returns the first 8 hex characters of a random UUID.
func newDocID() string {
	return uuid.New().String()[:8]
}

func (e *Engine) invalidateCache() {
	if e.cache != nil {
		e.cache.Invalidate()
	}
}

package chunker

import (
	"strings"
)

const (
	// DefaultChunkSize is the soft upper bound of words per chunk.
	DefaultChunkSize = 400

	// DefaultChunkOverlap is the number of trailing words carried into the next chunk.
	DefaultChunkOverlap = 80

	// DefaultMinWords is the word count a chunk must exceed to be kept.
	DefaultMinWords = 20
)

// SentenceChunker accumulates whole sentences into word-bounded chunks.
// Consecutive chunks share the last overlap words of the previous one.
type SentenceChunker struct {
	chunkSize        int
	overlap          int
	minWords         int
	maxSentenceWords int
}

// Option configures a SentenceChunker.
type Option func(*SentenceChunker)

// WithChunkSize sets the chunk size in words.
func WithChunkSize(size int) Option {
	return func(c *SentenceChunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in words.
func WithOverlap(overlap int) Option {
	return func(c *SentenceChunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// WithMinWords sets the floor below which chunks are discarded.
func WithMinWords(n int) Option {
	return func(c *SentenceChunker) {
		if n >= 0 {
			c.minWords = n
		}
	}
}

// WithMaxSentenceWords sets the length above which an unterminated run of
// words is no longer treated as one sentence. Zero keeps every sentence whole.
func WithMaxSentenceWords(n int) Option {
	return func(c *SentenceChunker) {
		if n >= 0 {
			c.maxSentenceWords = n
		}
	}
}

// NewSentenceChunker creates a chunker with the given options.
func NewSentenceChunker(opts ...Option) *SentenceChunker {
	c := &SentenceChunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
		minWords:  DefaultMinWords,
	}
	c.maxSentenceWords = -1

	for _, opt := range opts {
		opt(c)
	}

	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 5
	}
	if c.maxSentenceWords < 0 {
		c.maxSentenceWords = 2 * c.chunkSize
	}

	return c
}

func (c *SentenceChunker) ChunkSize() int { return c.chunkSize }

func (c *SentenceChunker) Overlap() int { return c.overlap }

func (c *SentenceChunker) MinWords() int { return c.minWords }

// Chunk splits text into passages. It is pure: identical input always yields
// identical output.
func (c *SentenceChunker) Chunk(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var current []string

	for _, sentence := range c.sentences(words) {
		if len(current)+len(sentence) > c.chunkSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))

			start := len(current) - c.overlap
			if start < 0 {
				start = 0
			}
			next := make([]string, 0, len(current)-start+len(sentence))
			next = append(next, current[start:]...)
			current = append(next, sentence...)
			continue
		}
		current = append(current, sentence...)
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	kept := chunks[:0]
	for _, chunk := range chunks {
		if len(strings.Fields(chunk)) > c.minWords {
			kept = append(kept, chunk)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

// sentences groups whitespace-normalized words into sentences ending in
// '.', '!' or '?'. Terminated sentences are never split. A trailing run
// with no terminator longer than maxSentenceWords is cut into pieces of
// chunkSize-overlap words so that overlap plus a piece fits one chunk.
func (c *SentenceChunker) sentences(words []string) [][]string {
	var out [][]string
	var current []string

	for _, w := range words {
		current = append(current, w)
		if endsSentence(w) {
			out = append(out, current)
			current = nil
		}
	}
	if len(current) > 0 {
		out = append(out, c.splitRunOn(current)...)
	}
	return out
}

func (c *SentenceChunker) splitRunOn(sentence []string) [][]string {
	if c.maxSentenceWords == 0 || len(sentence) <= c.maxSentenceWords {
		return [][]string{sentence}
	}

	step := c.chunkSize - c.overlap
	var pieces [][]string
	for i := 0; i < len(sentence); i += step {
		end := i + step
		if end > len(sentence) {
			end = len(sentence)
		}
		pieces = append(pieces, sentence[i:end])
	}
	return pieces
}

func endsSentence(word string) bool {
	switch word[len(word)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}

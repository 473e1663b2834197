package port

// Chunker splits decoded document text into passages ready for embedding.
type Chunker interface {
	Chunk(text string) []string
}

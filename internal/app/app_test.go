package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyrag/config"
	"studyrag/internal/adapter/embedding"
	"studyrag/internal/usecase"
)

const lecture = "Photosynthesis converts light energy into chemical energy stored in glucose inside the chloroplasts of green plant cells every day. "

func hashConfig(backend string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Embedding.Provider = "hash"
	cfg.Embedding.Dimension = 256
	cfg.Store.Backend = backend
	return cfg
}

func TestNewEmbedder(t *testing.T) {
	cfg := hashConfig("memory")
	emb, err := NewEmbedder(cfg)
	require.NoError(t, err)
	assert.Equal(t, 256, emb.Dimension())
	assert.IsType(t, &embedding.HashEmbedder{}, emb)

	cfg.Embedding.Provider = "ollama"
	cfg.Embedding.Model = "nomic-embed-text"
	cfg.Embedding.Dimension = 0
	emb, err = NewEmbedder(cfg)
	require.NoError(t, err)
	assert.Equal(t, 768, emb.Dimension())

	cfg.Embedding.Provider = "word2vec"
	_, err = NewEmbedder(cfg)
	assert.Error(t, err)
}

func TestNewEmbedderUsesModelDimension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studyrag.yaml")
	yaml := "embedding:\n  provider: ollama\n  model: nomic-embed-text\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	emb, err := NewEmbedder(cfg)
	require.NoError(t, err)
	assert.Equal(t, 768, emb.Dimension())

	t.Setenv("STUDYRAG_TEST_KEY", "test-key")
	cfg = config.DefaultConfig()
	cfg.Embedding.APIKeyEnv = "STUDYRAG_TEST_KEY"
	emb, err = NewEmbedder(cfg)
	require.NoError(t, err)
	assert.Equal(t, 1536, emb.Dimension())
}

func TestNewChunker(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Chunking.ChunkSize = 50
	cfg.Chunking.ChunkOverlap = 10
	c := NewChunker(cfg)
	assert.Equal(t, 50, c.ChunkSize())
	assert.Equal(t, 10, c.Overlap())
	assert.Equal(t, 20, c.MinWords())
}

func TestDataDir(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Equal(t, filepath.Join("/srv/notes", ".studyrag"), DataDir(cfg, "/srv/notes"))

	cfg.Store.DataDir = "/var/lib/studyrag"
	assert.Equal(t, "/var/lib/studyrag", DataDir(cfg, "/srv/notes"))
}

func TestOpenMemory(t *testing.T) {
	a, err := Open(context.Background(), hashConfig("memory"), t.TempDir())
	require.NoError(t, err)
	defer a.Close()

	doc, err := a.Engine.Ingest(context.Background(), usecase.IngestRequest{
		Text:     strings.Repeat(lecture, 3),
		Filename: "bio.txt",
		Subject:  "Biology",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, doc.ChunkCount)
}

func TestOpenBoltReloadsRegistry(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()
	cfg := hashConfig("bolt")

	a, err := Open(ctx, cfg, root)
	require.NoError(t, err)
	doc, err := a.Engine.Ingest(ctx, usecase.IngestRequest{Text: strings.Repeat(lecture, 3), Filename: "bio.txt"})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	_, err = os.Stat(filepath.Join(root, ".studyrag", "studyrag.db"))
	require.NoError(t, err)

	a, err = Open(ctx, cfg, root)
	require.NoError(t, err)
	defer a.Close()

	listed, err := a.Engine.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, listed.Documents, 1)
	assert.Equal(t, doc.ID, listed.Documents[0].ID)
	assert.Equal(t, "General", listed.Documents[0].Subject)
	assert.Empty(t, listed.Warnings)
}

func TestOpenBoltRebuildsOnEmbeddingChange(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()
	cfg := hashConfig("bolt")

	a, err := Open(ctx, cfg, root)
	require.NoError(t, err)
	_, err = a.Engine.Ingest(ctx, usecase.IngestRequest{Text: strings.Repeat(lecture, 3)})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	cfg.Embedding.Dimension = 128
	a, err = Open(ctx, cfg, root)
	require.NoError(t, err)
	defer a.Close()

	count, err := a.Engine.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), hashConfig("sqlite"), t.TempDir())
	assert.Error(t, err)
}

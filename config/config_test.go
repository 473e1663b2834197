package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Chunking.ChunkSize != 400 {
		t.Errorf("expected ChunkSize=400, got %d", cfg.Chunking.ChunkSize)
	}
	if cfg.Chunking.ChunkOverlap != 80 {
		t.Errorf("expected ChunkOverlap=80, got %d", cfg.Chunking.ChunkOverlap)
	}
	if cfg.Chunking.MinChunkWords != 20 {
		t.Errorf("expected MinChunkWords=20, got %d", cfg.Chunking.MinChunkWords)
	}
	if cfg.Retrieve.TopK != 5 {
		t.Errorf("expected TopK=5, got %d", cfg.Retrieve.TopK)
	}
	if cfg.Retrieve.Threshold != 0.25 {
		t.Errorf("expected Threshold=0.25, got %f", cfg.Retrieve.Threshold)
	}
	if cfg.Retrieve.DefaultSubject != "General" {
		t.Errorf("expected DefaultSubject=General, got %s", cfg.Retrieve.DefaultSubject)
	}
	if cfg.Embedding.Dimension != 0 {
		t.Errorf("expected Dimension=0 so the model decides, got %d", cfg.Embedding.Dimension)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "studyrag.yaml")

	content := `
chunking:
  chunk_size: 200
  chunk_overlap: 40
retrieve:
  top_k: 10
  threshold: 0.4
embedding:
  provider: hash
  dimension: 256
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Chunking.ChunkSize != 200 {
		t.Errorf("expected ChunkSize=200, got %d", cfg.Chunking.ChunkSize)
	}
	if cfg.Chunking.MinChunkWords != 20 {
		t.Errorf("expected unset MinChunkWords to keep default, got %d", cfg.Chunking.MinChunkWords)
	}
	if cfg.Retrieve.TopK != 10 {
		t.Errorf("expected TopK=10, got %d", cfg.Retrieve.TopK)
	}
	if cfg.Retrieve.Threshold != 0.4 {
		t.Errorf("expected Threshold=0.4, got %f", cfg.Retrieve.Threshold)
	}
	if cfg.Embedding.Provider != "hash" || cfg.Embedding.Dimension != 256 {
		t.Errorf("unexpected embedding config %+v", cfg.Embedding)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "chunking: [1, 2"},
		{"overlap too large", "chunking:\n  chunk_size: 50\n  chunk_overlap: 50\n"},
		{"zero top_k", "retrieve:\n  top_k: 0\n"},
		{"threshold out of range", "retrieve:\n  threshold: 1.5\n"},
		{"unknown provider", "embedding:\n  provider: magic\n"},
		{"unknown backend", "store:\n  backend: postgres\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "studyrag.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "studyrag.yaml")

	content := `
server:
  addr: ":9090"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("expected Addr=:9090, got %s", cfg.Server.Addr)
	}
}

func TestLoadFromDir_HiddenConfig(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ".studyrag"), 0755); err != nil {
		t.Fatal(err)
	}
	content := "store:\n  backend: memory\n"
	if err := os.WriteFile(filepath.Join(tmpDir, ".studyrag", "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("expected Backend=memory, got %s", cfg.Store.Backend)
	}
}

func TestLoadFromDir_NoConfig(t *testing.T) {
	cfg, err := LoadFromDir(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Backend != "bolt" {
		t.Errorf("expected default backend, got %s", cfg.Store.Backend)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studyrag.yaml")

	cfg := DefaultConfig()
	cfg.Retrieve.Threshold = 0.3
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Retrieve.Threshold != 0.3 {
		t.Errorf("expected Threshold=0.3, got %f", loaded.Retrieve.Threshold)
	}
}

func TestPaths(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")

	if err := EnsureDataDir(dataDir); err != nil {
		t.Fatalf("EnsureDataDir failed: %v", err)
	}
	if _, err := os.Stat(dataDir); err != nil {
		t.Errorf("expected data dir to exist: %v", err)
	}
	if got := DBPath(dataDir); got != filepath.Join(dataDir, "studyrag.db") {
		t.Errorf("unexpected db path %s", got)
	}

	cfg := DefaultConfig()
	if cfg.Retrieve.CacheTTL() != 300*time.Second {
		t.Errorf("unexpected cache TTL %v", cfg.Retrieve.CacheTTL())
	}
	if cfg.Embedding.Timeout() != 60*time.Second {
		t.Errorf("unexpected embedding timeout %v", cfg.Embedding.Timeout())
	}
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for studyrag.
type Config struct {
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Store     StoreConfig     `yaml:"store"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ChunkingConfig holds document chunking configuration.
type ChunkingConfig struct {
	ChunkSize        int `yaml:"chunk_size"`         // Words per chunk (soft limit)
	ChunkOverlap     int `yaml:"chunk_overlap"`      // Words shared by consecutive chunks
	MinChunkWords    int `yaml:"min_chunk_words"`    // Chunks with this many words or fewer are dropped
	MaxSentenceWords int `yaml:"max_sentence_words"` // Unterminated runs above this are split (0 = never)
}

// IngestConfig selects files for bulk ingestion of a directory.
type IngestConfig struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK            int     `yaml:"top_k"`
	Threshold       float64 `yaml:"threshold"`        // Minimum similarity score kept
	DefaultSubject  string  `yaml:"default_subject"`  // Subject label meaning "no filter"
	CacheSize       int     `yaml:"cache_size"`       // 0 disables the query cache
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider       string `yaml:"provider"` // "openai", "ollama", "hash"
	Model          string `yaml:"model"`
	BaseURL        string `yaml:"base_url"`
	APIKeyEnv      string `yaml:"api_key_env"` // Environment variable for API key
	Dimension      int    `yaml:"dimension"` // 0 = the model's known dimension
	BatchSize      int    `yaml:"batch_size"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// StoreConfig selects and locates the vector store.
type StoreConfig struct {
	Backend    string `yaml:"backend"` // "bolt", "chroma", "memory"
	DataDir    string `yaml:"data_dir"`
	ChromaURL  string `yaml:"chroma_url"`
	Collection string `yaml:"collection"`
}

// ServerConfig holds HTTP API configuration.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	Mode        string `yaml:"mode"` // gin mode: "debug", "release", "test"
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Chunking: ChunkingConfig{
			ChunkSize:        400,
			ChunkOverlap:     80,
			MinChunkWords:    20,
			MaxSentenceWords: 800,
		},
		Ingest: IngestConfig{
			Includes: []string{"**/*.txt", "**/*.md"},
			Excludes: []string{"**/.git/**", "**/node_modules/**", "**/.studyrag/**"},
		},
		Retrieve: RetrieveConfig{
			TopK:            5,
			Threshold:       0.25,
			DefaultSubject:  "General",
			CacheSize:       100,
			CacheTTLSeconds: 300,
		},
		Embedding: EmbeddingConfig{
			Provider:       "openai",
			Model:          "text-embedding-3-small",
			APIKeyEnv:      "OPENAI_API_KEY",
			BatchSize:      100,
			TimeoutSeconds: 60,
		},
		Store: StoreConfig{
			Backend:    "bolt",
			DataDir:    ".studyrag",
			ChromaURL:  "http://localhost:8000",
			Collection: "study_materials",
		},
		Server: ServerConfig{
			Addr:        ":8080",
			Mode:        "release",
			MaxUploadMB: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for studyrag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "studyrag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".studyrag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("chunking.chunk_size must be positive, got %d", c.Chunking.ChunkSize)
	}
	if c.Chunking.ChunkOverlap < 0 || c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("chunking.chunk_overlap must be in [0, chunk_size), got %d", c.Chunking.ChunkOverlap)
	}
	if c.Retrieve.TopK < 1 {
		return fmt.Errorf("retrieve.top_k must be at least 1, got %d", c.Retrieve.TopK)
	}
	if c.Retrieve.Threshold < 0 || c.Retrieve.Threshold > 1 {
		return fmt.Errorf("retrieve.threshold must be in [0, 1], got %v", c.Retrieve.Threshold)
	}
	switch c.Embedding.Provider {
	case "openai", "ollama", "hash":
	default:
		return fmt.Errorf("unknown embedding.provider %q", c.Embedding.Provider)
	}
	switch c.Store.Backend {
	case "bolt", "chroma", "memory":
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// CacheTTL returns the query cache TTL as a duration.
func (r RetrieveConfig) CacheTTL() time.Duration {
	return time.Duration(r.CacheTTLSeconds) * time.Second
}

// Timeout returns the embedding request timeout as a duration.
func (e EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// DBPath returns the path to the vector database inside dataDir.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, "studyrag.db")
}

// EnsureDataDir ensures the data directory exists.
func EnsureDataDir(dataDir string) error {
	return os.MkdirAll(dataDir, 0755)
}

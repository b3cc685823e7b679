package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	LogLevel slog.Level

	// Auth
	APIKey string

	// Blob source
	StorageAccountName string
	StorageAccountKey  string
	BlobContainer      string
	StorageEndpoint    string

	// Layout extraction
	LayoutEndpoint          string
	LayoutKey               string
	LayoutModel             string
	LayoutAPIVersion        string
	LayoutRequestsPerMinute int

	// Embeddings
	OpenAIAPIKey            string
	OpenAIAPIBase           string
	OpenAIAPIVersion        string
	EmbeddingDeployment     string
	EmbeddingBatchSize      int
	EmbeddingMaxBatchTokens int

	// Search index
	SearchEndpoint   string
	SearchKey        string
	SearchIndexName  string
	SearchAPIVersion string
	IndexBatchSize   int

	// Chunking
	MinSectionChars int

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

// Load reads configuration from the environment. A .env file in the working
// directory, if present, is loaded first without overriding variables that
// are already set.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:     envOr("PORT", "8090"),
		LogLevel: envLevel("LOG_LEVEL", slog.LevelInfo),

		APIKey: os.Getenv("DOCINDEX_API_KEY"),

		StorageAccountName: os.Getenv("AZURE_STORAGE_ACCOUNT_NAME"),
		StorageAccountKey:  os.Getenv("AZURE_STORAGE_ACCOUNT_KEY"),
		BlobContainer:      os.Getenv("BLOB_CONTAINER_NAME"),
		StorageEndpoint:    os.Getenv("AZURE_STORAGE_ENDPOINT"),

		LayoutEndpoint:          os.Getenv("AZURE_DOCUMENT_INTELLIGENCE_ENDPOINT"),
		LayoutKey:               os.Getenv("AZURE_DOCUMENT_INTELLIGENCE_KEY"),
		LayoutModel:             envOr("LAYOUT_MODEL", "prebuilt-layout"),
		LayoutAPIVersion:        envOr("LAYOUT_API_VERSION", "2024-11-30"),
		LayoutRequestsPerMinute: envInt("LAYOUT_REQUESTS_PER_MINUTE", 15),

		OpenAIAPIKey:            os.Getenv("OPENAI_API_KEY"),
		OpenAIAPIBase:           os.Getenv("OPENAI_API_BASE"),
		OpenAIAPIVersion:        os.Getenv("OPENAI_API_VERSION"),
		EmbeddingDeployment:     envOr("EMBEDDING_DEPLOYMENT_NAME", "text-embedding-3-small"),
		EmbeddingBatchSize:      envInt("EMBEDDING_BATCH_SIZE", 100),
		EmbeddingMaxBatchTokens: envInt("EMBEDDING_MAX_BATCH_TOKENS", 8000),

		SearchEndpoint:   os.Getenv("AZURE_SEARCH_ENDPOINT"),
		SearchKey:        os.Getenv("AZURE_SEARCH_KEY"),
		SearchIndexName:  os.Getenv("AZURE_SEARCH_INDEX_NAME"),
		SearchAPIVersion: envOr("AZURE_SEARCH_API_VERSION", "2024-07-01"),
		IndexBatchSize:   envInt("INDEXING_BATCH_SIZE", 100),

		MinSectionChars: envInt("MIN_SECTION_CHARS", 100),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.LayoutRequestsPerMinute <= 0 {
		cfg.LayoutRequestsPerMinute = 15
	}
	if cfg.EmbeddingBatchSize <= 0 {
		cfg.EmbeddingBatchSize = 100
	}
	if cfg.EmbeddingMaxBatchTokens <= 0 {
		cfg.EmbeddingMaxBatchTokens = 8000
	}
	if cfg.IndexBatchSize <= 0 {
		cfg.IndexBatchSize = 100
	}
	if cfg.MinSectionChars <= 0 {
		cfg.MinSectionChars = 100
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// LayoutEnabled reports whether PDFs go to the layout backend.
func (c Config) LayoutEnabled() bool {
	return c.LayoutEndpoint != "" && c.LayoutKey != ""
}

// Validate checks the settings every indexing command needs.
func (c Config) Validate() error {
	var errs []error
	if c.OpenAIAPIKey == "" {
		errs = append(errs, fmt.Errorf("OPENAI_API_KEY is required"))
	}
	if c.OpenAIAPIVersion != "" && c.OpenAIAPIBase == "" {
		errs = append(errs, fmt.Errorf("OPENAI_API_BASE is required when OPENAI_API_VERSION is set"))
	}
	if c.SearchEndpoint == "" {
		errs = append(errs, fmt.Errorf("AZURE_SEARCH_ENDPOINT is required"))
	}
	if c.SearchKey == "" {
		errs = append(errs, fmt.Errorf("AZURE_SEARCH_KEY is required"))
	}
	if c.SearchIndexName == "" {
		errs = append(errs, fmt.Errorf("AZURE_SEARCH_INDEX_NAME is required"))
	}
	if (c.LayoutEndpoint == "") != (c.LayoutKey == "") {
		errs = append(errs, fmt.Errorf("AZURE_DOCUMENT_INTELLIGENCE_ENDPOINT and AZURE_DOCUMENT_INTELLIGENCE_KEY must be set together"))
	}
	return errors.Join(errs...)
}

// ValidateSearch checks only the search index settings.
func (c Config) ValidateSearch() error {
	var errs []error
	if c.SearchEndpoint == "" {
		errs = append(errs, fmt.Errorf("AZURE_SEARCH_ENDPOINT is required"))
	}
	if c.SearchKey == "" {
		errs = append(errs, fmt.Errorf("AZURE_SEARCH_KEY is required"))
	}
	if c.SearchIndexName == "" {
		errs = append(errs, fmt.Errorf("AZURE_SEARCH_INDEX_NAME is required"))
	}
	return errors.Join(errs...)
}

// ValidateServer adds the API key required by the HTTP server.
func (c Config) ValidateServer() error {
	if c.APIKey == "" {
		return errors.Join(c.Validate(), fmt.Errorf("DOCINDEX_API_KEY is required"))
	}
	return c.Validate()
}

// ValidateBlob checks the blob source settings.
func (c Config) ValidateBlob() error {
	var errs []error
	if c.StorageAccountName == "" {
		errs = append(errs, fmt.Errorf("AZURE_STORAGE_ACCOUNT_NAME is required"))
	}
	if c.StorageAccountKey == "" {
		errs = append(errs, fmt.Errorf("AZURE_STORAGE_ACCOUNT_KEY is required"))
	}
	if c.BlobContainer == "" {
		errs = append(errs, fmt.Errorf("BLOB_CONTAINER_NAME is required"))
	}
	return errors.Join(errs...)
}

// BlobEnabled reports whether the blob source is configured.
func (c Config) BlobEnabled() bool {
	return c.ValidateBlob() == nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envLevel(key string, fallback slog.Level) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(os.Getenv(key)))); err != nil {
		return fallback
	}
	return lvl
}

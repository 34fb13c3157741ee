// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (RAGSTACK_* runtime override)
//  2. Config file (~/.ragstack/config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - LLM: generation/embedding backend selection, API keys, model ids,
//     truncation and sampling defaults
//   - Chunking: default chunk size and overlap
//   - VectorDB: backend selection, distance metric, index threshold
//   - Storage: PostgreSQL connection (see storage.go)
//
// Validation lives in validation.go and uses sentinel errors so callers can
// check with errors.Is.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Backend identifiers used in Config.GenerationBackend and
// Config.EmbeddingBackend.
const (
	BackendOpenAI = "openai"
	BackendCohere = "cohere"
	BackendGoogle = "google"
)

// Vector store backend identifiers used in Config.VectorDBBackend.
const (
	VectorDBChromem  = "chromem"
	VectorDBPGVector = "pgvector"
)

// Distance metric identifiers used in Config.VectorDBDistanceMethod.
const (
	DistanceCosine = "cosine"
	DistanceDot    = "dot"
)

// Config stores application configuration.
// Sensitive fields (API keys, passwords) must never be logged.
type Config struct {
	// LLM provider selection and credentials
	GenerationBackend string `mapstructure:"generation_backend"`
	EmbeddingBackend  string `mapstructure:"embedding_backend"`

	OpenAIAPIKey  string `mapstructure:"openai_api_key"`
	OpenAIBaseURL string `mapstructure:"openai_base_url"`
	CohereAPIKey  string `mapstructure:"cohere_api_key"`
	GoogleAPIKey  string `mapstructure:"google_api_key"`

	GenerationModelID string `mapstructure:"generation_model_id"`
	EmbeddingModelID  string `mapstructure:"embedding_model_id"`
	EmbeddingSize     int    `mapstructure:"embedding_size"`

	// Truncation and sampling defaults applied when a call omits them
	InputMaxCharacters int     `mapstructure:"input_max_characters"`
	MaxNewTokens       int     `mapstructure:"max_new_tokens"`
	Temperature        float32 `mapstructure:"temperature"`

	// Chunking defaults
	ChunkSize    int `mapstructure:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`

	// Vector store
	VectorDBBackend        string `mapstructure:"vectordb_backend"`
	VectorDBPath           string `mapstructure:"vectordb_path"`
	VectorDBDistanceMethod string `mapstructure:"vectordb_distance_method"`
	VectorDBIndexThreshold int    `mapstructure:"vectordb_index_threshold"`
	InsertBatchSize        int    `mapstructure:"insert_batch_size"`
	IndexPageSize          int    `mapstructure:"index_page_size"`

	// PostgreSQL connection (chunk persistence and pgvector backend)
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"`
	PostgresDBName   string `mapstructure:"postgres_dbname"`
	PostgresSSLMode  string `mapstructure:"postgres_sslmode"`
}

// Load reads configuration from defaults, an optional config file and
// environment variables, then validates the result.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir, err := configDir(); err == nil {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath(".")

	// Missing config file is fine: defaults plus env cover the minimum.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("RAGSTACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("generation_backend", BackendOpenAI)
	v.SetDefault("embedding_backend", BackendOpenAI)

	v.SetDefault("input_max_characters", 1024)
	v.SetDefault("max_new_tokens", 512)
	v.SetDefault("temperature", 0.1)

	v.SetDefault("chunk_size", 512)
	v.SetDefault("chunk_overlap", 64)

	v.SetDefault("vectordb_backend", VectorDBChromem)
	v.SetDefault("vectordb_path", defaultVectorDBPath())
	v.SetDefault("vectordb_distance_method", DistanceCosine)
	v.SetDefault("vectordb_index_threshold", 100)
	v.SetDefault("insert_batch_size", 80)
	v.SetDefault("index_page_size", 100)

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "ragstack")
	v.SetDefault("postgres_dbname", "ragstack")
	v.SetDefault("postgres_sslmode", "disable")
}

// configDir returns ~/.ragstack, creating it with restricted permissions.
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}

	dir := filepath.Join(home, ".ragstack")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

func defaultVectorDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./ragstack-vectordb"
	}
	return filepath.Join(home, ".ragstack", "vectordb")
}

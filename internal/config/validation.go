package config

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidBackend indicates an unknown LLM backend selection.
	ErrInvalidBackend = errors.New("invalid LLM backend")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidEmbeddingSize indicates the embedding dimension is not positive.
	ErrInvalidEmbeddingSize = errors.New("invalid embedding size")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidChunking indicates chunk size/overlap values are inconsistent.
	ErrInvalidChunking = errors.New("invalid chunking parameters")

	// ErrInvalidVectorDB indicates an unknown vector store backend.
	ErrInvalidVectorDB = errors.New("invalid vector store backend")

	// ErrInvalidDistance indicates an unknown or unsupported distance metric.
	ErrInvalidDistance = errors.New("invalid distance method")

	// ErrInvalidPostgres indicates incomplete PostgreSQL connection settings.
	ErrInvalidPostgres = errors.New("invalid PostgreSQL configuration")
)

// Validate checks the configuration for internal consistency. It returns the
// first problem found, wrapped around one of the package sentinel errors.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	for _, backend := range []string{c.GenerationBackend, c.EmbeddingBackend} {
		switch backend {
		case BackendOpenAI, BackendCohere, BackendGoogle:
		default:
			return fmt.Errorf("%w: %q", ErrInvalidBackend, backend)
		}
	}

	if err := c.validateCredentials(); err != nil {
		return err
	}

	if c.EmbeddingModelID != "" && c.EmbeddingSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidEmbeddingSize, c.EmbeddingSize)
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: %v (must be in [0, 2])", ErrInvalidTemperature, c.Temperature)
	}

	if c.MaxNewTokens <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxTokens, c.MaxNewTokens)
	}

	if c.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk_size=%d", ErrInvalidChunking, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap=%d must be in [0, chunk_size)", ErrInvalidChunking, c.ChunkOverlap)
	}

	switch c.VectorDBBackend {
	case VectorDBChromem, VectorDBPGVector:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidVectorDB, c.VectorDBBackend)
	}

	switch c.VectorDBDistanceMethod {
	case DistanceCosine:
	case DistanceDot:
		// The embedded engine normalises vectors and only supports cosine
		// similarity; fail loudly instead of silently changing the metric.
		if c.VectorDBBackend == VectorDBChromem {
			return fmt.Errorf("%w: chromem backend supports cosine only", ErrInvalidDistance)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDistance, c.VectorDBDistanceMethod)
	}

	if c.VectorDBBackend == VectorDBPGVector || c.PostgresHost != "" {
		if c.PostgresHost == "" || c.PostgresDBName == "" || c.PostgresUser == "" {
			return fmt.Errorf("%w: host, user and dbname are required", ErrInvalidPostgres)
		}
		if c.PostgresPort < 1 || c.PostgresPort > 65535 {
			return fmt.Errorf("%w: port %d out of range", ErrInvalidPostgres, c.PostgresPort)
		}
	}

	return nil
}

// validateCredentials checks that the selected backends have API keys.
func (c *Config) validateCredentials() error {
	required := map[string]bool{
		c.GenerationBackend: true,
		c.EmbeddingBackend:  true,
	}

	if required[BackendOpenAI] && c.OpenAIAPIKey == "" {
		return fmt.Errorf("%w: openai_api_key", ErrMissingAPIKey)
	}
	if required[BackendCohere] && c.CohereAPIKey == "" {
		return fmt.Errorf("%w: cohere_api_key", ErrMissingAPIKey)
	}
	if required[BackendGoogle] && c.GoogleAPIKey == "" {
		return fmt.Errorf("%w: google_api_key", ErrMissingAPIKey)
	}

	return nil
}

// Package llm abstracts text generation and embedding behind a single
// Provider interface with OpenAI-compatible, Cohere and Google backends.
//
// A Provider is constructed unconfigured and bound to concrete models with
// SetGenerationModel and SetEmbeddingModel before use. Input text passed to
// generation or embedding is silently truncated to the configured maximum
// input characters; callers relying on full-length input must size the limit
// accordingly.
package llm

import (
	"context"
	"strings"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// InputType tells embedding backends how the text will be used. Some
// providers produce asymmetric embeddings and need to know whether the text
// is stored content or a search query.
type InputType string

const (
	InputDocument InputType = "document"
	InputQuery    InputType = "query"
)

// Message is one turn of a conversation in a provider's native shape.
// ConstructMessage on each provider produces the shape that provider's API
// expects; callers treat the value as opaque.
type Message struct {
	Role    string
	Content string
}

// Config carries the provider-independent construction parameters.
type Config struct {
	// APIKey authenticates against the provider.
	APIKey string

	// BaseURL overrides the provider's default API endpoint. Ignored by
	// providers without an HTTP-compatible surface.
	BaseURL string

	// MaxInputCharacters bounds the text sent to the provider. Longer input
	// is truncated, not rejected.
	MaxInputCharacters int

	// MaxOutputTokens is the generation default when a call does not
	// override it.
	MaxOutputTokens int

	// Temperature is the generation default when a call does not override it.
	Temperature float32
}

// Provider is the capability set shared by all backends.
type Provider interface {
	// SetGenerationModel binds the model used by GenerateText.
	SetGenerationModel(modelID string)

	// SetEmbeddingModel binds the model used by GetEmbedding and the
	// dimensionality of its vectors.
	SetEmbeddingModel(modelID string, size int)

	// EmbeddingSize reports the configured embedding dimensionality.
	EmbeddingSize() int

	// ProcessText applies the provider's input policy: truncate to the
	// maximum input characters, then trim surrounding whitespace.
	ProcessText(text string) string

	// ConstructMessage maps role and content into the provider's native
	// message shape.
	ConstructMessage(content string, role Role) Message

	// GenerateText appends the prompt to history as a user message and asks
	// the generation model for a completion.
	GenerateText(ctx context.Context, prompt string, history []Message, opts ...GenerateOption) (string, error)

	// GetEmbedding embeds a batch of texts, one vector per input, in input
	// order.
	GetEmbedding(ctx context.Context, texts []string, inputType InputType) ([][]float32, error)
}

// GenerateOption overrides a generation default for a single call.
type GenerateOption func(*generateOptions)

type generateOptions struct {
	maxOutputTokens *int
	temperature     *float32
}

// WithMaxOutputTokens caps the completion length for this call.
func WithMaxOutputTokens(n int) GenerateOption {
	return func(o *generateOptions) { o.maxOutputTokens = &n }
}

// WithTemperature sets the sampling temperature for this call.
func WithTemperature(t float32) GenerateOption {
	return func(o *generateOptions) { o.temperature = &t }
}

// resolve folds per-call options over the configured defaults.
func (c Config) resolve(opts []GenerateOption) (maxTokens int, temperature float32) {
	var o generateOptions
	for _, opt := range opts {
		opt(&o)
	}
	maxTokens = c.MaxOutputTokens
	if o.maxOutputTokens != nil {
		maxTokens = *o.maxOutputTokens
	}
	temperature = c.Temperature
	if o.temperature != nil {
		temperature = *o.temperature
	}
	return maxTokens, temperature
}

// truncate cuts text to limit characters and trims surrounding whitespace.
// A non-positive limit disables truncation.
func truncate(text string, limit int) string {
	if limit > 0 {
		runes := []rune(text)
		if len(runes) > limit {
			text = string(runes[:limit])
		}
	}
	return strings.TrimSpace(text)
}

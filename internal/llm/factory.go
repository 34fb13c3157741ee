package llm

import (
	"context"
	"fmt"

	"github.com/ragstack/ragstack/internal/log"
)

// Backend selects a concrete provider implementation.
type Backend string

const (
	BackendOpenAI Backend = "openai"
	BackendCohere Backend = "cohere"
	BackendGoogle Backend = "google"
)

// NewProvider builds the provider for the given backend. The set of backends
// is closed; an unrecognised value returns ErrUnknownBackend.
func NewProvider(ctx context.Context, backend Backend, cfg Config, logger log.Logger) (Provider, error) {
	switch backend {
	case BackendOpenAI:
		return NewOpenAI(cfg, logger), nil
	case BackendCohere:
		return NewCohere(cfg, logger), nil
	case BackendGoogle:
		return NewGoogle(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

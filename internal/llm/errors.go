package llm

import "errors"

var (
	// ErrUnknownBackend indicates a backend name outside the supported set.
	ErrUnknownBackend = errors.New("llm: unknown backend")

	// ErrProviderUnavailable indicates a call against a provider with no
	// model configured for the requested capability.
	ErrProviderUnavailable = errors.New("llm: provider has no model configured")

	// ErrProviderCall indicates a failed or empty provider response.
	ErrProviderCall = errors.New("llm: provider call failed")
)

package testutil

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/ragstack/ragstack/internal/llm"
)

// GenerateCall records one GenerateText invocation on the fake provider.
type GenerateCall struct {
	Prompt  string
	History []llm.Message
}

// EmbedCall records one GetEmbedding invocation on the fake provider.
type EmbedCall struct {
	Texts     []string
	InputType llm.InputType
}

// FakeProvider is a deterministic in-memory llm.Provider. Embeddings are
// derived from the text content, so equal texts always embed equally, and
// completions replay the scripted response.
type FakeProvider struct {
	// Completion is returned by every GenerateText call.
	Completion string

	// GenerateErr and EmbedErr, when set, fail the corresponding calls.
	GenerateErr error
	EmbedErr    error

	// Recorded calls, in order.
	GenerateCalls []GenerateCall
	EmbedCalls    []EmbedCall

	generationModel string
	embeddingModel  string
	embeddingSize   int
}

// NewFakeProvider builds a fake bound to models of the given embedding
// dimensionality.
func NewFakeProvider(size int) *FakeProvider {
	return &FakeProvider{
		Completion:      "fake completion",
		generationModel: "fake-generation",
		embeddingModel:  "fake-embedding",
		embeddingSize:   size,
	}
}

func (p *FakeProvider) SetGenerationModel(modelID string) { p.generationModel = modelID }

func (p *FakeProvider) SetEmbeddingModel(modelID string, size int) {
	p.embeddingModel = modelID
	p.embeddingSize = size
}

func (p *FakeProvider) EmbeddingSize() int { return p.embeddingSize }

func (p *FakeProvider) ProcessText(text string) string { return text }

func (p *FakeProvider) ConstructMessage(content string, role llm.Role) llm.Message {
	return llm.Message{Role: string(role), Content: content}
}

func (p *FakeProvider) GenerateText(_ context.Context, prompt string, history []llm.Message, _ ...llm.GenerateOption) (string, error) {
	p.GenerateCalls = append(p.GenerateCalls, GenerateCall{Prompt: prompt, History: history})
	if p.GenerateErr != nil {
		return "", p.GenerateErr
	}
	if p.generationModel == "" {
		return "", fmt.Errorf("%w: generation model not set", llm.ErrProviderUnavailable)
	}
	return p.Completion, nil
}

// GetEmbedding returns one deterministic pseudo-vector per text, seeded from
// the text bytes.
func (p *FakeProvider) GetEmbedding(_ context.Context, texts []string, inputType llm.InputType) ([][]float32, error) {
	p.EmbedCalls = append(p.EmbedCalls, EmbedCall{Texts: texts, InputType: inputType})
	if p.EmbedErr != nil {
		return nil, p.EmbedErr
	}
	if p.embeddingModel == "" {
		return nil, fmt.Errorf("%w: embedding model not set", llm.ErrProviderUnavailable)
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = Embed(text, p.embeddingSize)
	}
	return vectors, nil
}

// Embed derives a deterministic vector of the given size from text.
func Embed(text string, size int) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, size)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed>>33)) / float32(1<<31)
	}
	return vec
}

package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/ragstack/ragstack/internal/log"
)

// Gemini task types for asymmetric retrieval embeddings.
const (
	googleTaskDocument = "RETRIEVAL_DOCUMENT"
	googleTaskQuery    = "RETRIEVAL_QUERY"
)

// Google talks to the Gemini API through the official SDK. The API has no
// flat role/content chat shape for this use, so messages are rendered as
// role-prefixed text blocks and concatenated into a single prompt.
type Google struct {
	cfg    Config
	client *genai.Client
	logger log.Logger

	generationModel string
	embeddingModel  string
	embeddingSize   int
}

// NewGoogle builds an unbound Gemini provider. The SDK client is created
// eagerly so a bad key or environment surfaces at construction.
func NewGoogle(ctx context.Context, cfg Config, logger log.Logger) (*Google, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Google{cfg: cfg, client: client, logger: logger}, nil
}

func (p *Google) SetGenerationModel(modelID string) { p.generationModel = modelID }

func (p *Google) SetEmbeddingModel(modelID string, size int) {
	p.embeddingModel = modelID
	p.embeddingSize = size
}

func (p *Google) EmbeddingSize() int { return p.embeddingSize }

func (p *Google) ProcessText(text string) string {
	return truncate(text, p.cfg.MaxInputCharacters)
}

// ConstructMessage renders the message as a role-prefixed text block.
func (p *Google) ConstructMessage(content string, role Role) Message {
	return Message{
		Role:    string(role),
		Content: fmt.Sprintf("role: %s\ncontent: %s", role, content),
	}
}

func (p *Google) GenerateText(ctx context.Context, prompt string, history []Message, opts ...GenerateOption) (string, error) {
	if p.generationModel == "" {
		return "", fmt.Errorf("%w: generation model not set", ErrProviderUnavailable)
	}

	maxTokens, temperature := p.cfg.resolve(opts)

	blocks := make([]string, 0, len(history)+1)
	for _, m := range history {
		blocks = append(blocks, m.Content)
	}
	blocks = append(blocks, p.ConstructMessage(p.ProcessText(prompt), RoleUser).Content)

	resp, err := p.client.Models.GenerateContent(ctx,
		p.generationModel,
		genai.Text(strings.Join(blocks, "\n\n")),
		&genai.GenerateContentConfig{
			MaxOutputTokens: int32(maxTokens),
			Temperature:     genai.Ptr(temperature),
		},
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderCall, err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty completion", ErrProviderCall)
	}

	p.logger.Debug("generated completion",
		"provider", "google",
		"model", p.generationModel,
	)
	return text, nil
}

func (p *Google) GetEmbedding(ctx context.Context, texts []string, inputType InputType) ([][]float32, error) {
	if p.embeddingModel == "" {
		return nil, fmt.Errorf("%w: embedding model not set", ErrProviderUnavailable)
	}

	taskType := googleTaskDocument
	if inputType == InputQuery {
		taskType = googleTaskQuery
	}

	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(p.ProcessText(t), genai.RoleUser)
	}

	cfg := &genai.EmbedContentConfig{TaskType: taskType}
	if p.embeddingSize > 0 {
		cfg.OutputDimensionality = genai.Ptr(int32(p.embeddingSize))
	}

	resp, err := p.client.Models.EmbedContent(ctx, p.embeddingModel, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderCall, err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs", ErrProviderCall, len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		vectors[i] = e.Values
	}
	return vectors, nil
}

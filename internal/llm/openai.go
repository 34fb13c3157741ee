package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ragstack/ragstack/internal/log"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAI talks to the OpenAI chat and embeddings API, or to any compatible
// server selected through the base URL override.
type OpenAI struct {
	cfg     Config
	baseURL string
	http    *http.Client
	logger  log.Logger

	generationModel string
	embeddingModel  string
	embeddingSize   int
}

// NewOpenAI builds an unbound OpenAI provider.
func NewOpenAI(cfg Config, logger log.Logger) *OpenAI {
	baseURL := defaultOpenAIBaseURL
	if cfg.BaseURL != "" {
		baseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &OpenAI{
		cfg:     cfg,
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultHTTPTimeout},
		logger:  logger,
	}
}

func (p *OpenAI) SetGenerationModel(modelID string) { p.generationModel = modelID }

func (p *OpenAI) SetEmbeddingModel(modelID string, size int) {
	p.embeddingModel = modelID
	p.embeddingSize = size
}

func (p *OpenAI) EmbeddingSize() int { return p.embeddingSize }

func (p *OpenAI) ProcessText(text string) string {
	return truncate(text, p.cfg.MaxInputCharacters)
}

// ConstructMessage maps the portable role to the OpenAI wire role. The API
// names the system role "developer".
func (p *OpenAI) ConstructMessage(content string, role Role) Message {
	wireRole := string(role)
	if role == RoleSystem {
		wireRole = "developer"
	}
	return Message{Role: wireRole, Content: content}
}

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float32         `json:"temperature"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
}

func (p *OpenAI) GenerateText(ctx context.Context, prompt string, history []Message, opts ...GenerateOption) (string, error) {
	if p.generationModel == "" {
		return "", fmt.Errorf("%w: generation model not set", ErrProviderUnavailable)
	}

	maxTokens, temperature := p.cfg.resolve(opts)

	messages := make([]openAIMessage, 0, len(history)+1)
	for _, m := range history {
		messages = append(messages, openAIMessage{Role: m.Role, Content: m.Content})
	}
	user := p.ConstructMessage(p.ProcessText(prompt), RoleUser)
	messages = append(messages, openAIMessage{Role: user.Role, Content: user.Content})

	req := openAIChatRequest{
		Model:       p.generationModel,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	var resp openAIChatResponse
	if err := postJSON(ctx, p.http, p.baseURL+"/chat/completions", p.cfg.APIKey, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: empty completion", ErrProviderCall)
	}

	p.logger.Debug("generated completion",
		"provider", "openai",
		"model", p.generationModel,
	)
	return resp.Choices[0].Message.Content, nil
}

type openAIEmbeddingsRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type openAIEmbeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (p *OpenAI) GetEmbedding(ctx context.Context, texts []string, _ InputType) ([][]float32, error) {
	if p.embeddingModel == "" {
		return nil, fmt.Errorf("%w: embedding model not set", ErrProviderUnavailable)
	}

	input := make([]string, len(texts))
	for i, t := range texts {
		input[i] = p.ProcessText(t)
	}

	req := openAIEmbeddingsRequest{
		Model: p.embeddingModel,
		Input: input,
	}

	var resp openAIEmbeddingsResponse
	if err := postJSON(ctx, p.http, p.baseURL+"/embeddings", p.cfg.APIKey, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs", ErrProviderCall, len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", ErrProviderCall, d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

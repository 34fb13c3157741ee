package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ragstack/ragstack/internal/log"
)

const defaultCohereBaseURL = "https://api.cohere.com/v2"

// Cohere talks to the Cohere v2 chat and embed API. Its embeddings are
// asymmetric, so the input type distinguishes stored documents from search
// queries.
type Cohere struct {
	cfg     Config
	baseURL string
	http    *http.Client
	logger  log.Logger

	generationModel string
	embeddingModel  string
	embeddingSize   int
}

// NewCohere builds an unbound Cohere provider.
func NewCohere(cfg Config, logger log.Logger) *Cohere {
	baseURL := defaultCohereBaseURL
	if cfg.BaseURL != "" {
		baseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &Cohere{
		cfg:     cfg,
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultHTTPTimeout},
		logger:  logger,
	}
}

func (p *Cohere) SetGenerationModel(modelID string) { p.generationModel = modelID }

func (p *Cohere) SetEmbeddingModel(modelID string, size int) {
	p.embeddingModel = modelID
	p.embeddingSize = size
}

func (p *Cohere) EmbeddingSize() int { return p.embeddingSize }

func (p *Cohere) ProcessText(text string) string {
	return truncate(text, p.cfg.MaxInputCharacters)
}

func (p *Cohere) ConstructMessage(content string, role Role) Message {
	return Message{Role: string(role), Content: content}
}

type cohereChatRequest struct {
	Model       string          `json:"model"`
	Messages    []cohereMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float32         `json:"temperature"`
}

type cohereMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type cohereChatResponse struct {
	Message struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"message"`
}

func (p *Cohere) GenerateText(ctx context.Context, prompt string, history []Message, opts ...GenerateOption) (string, error) {
	if p.generationModel == "" {
		return "", fmt.Errorf("%w: generation model not set", ErrProviderUnavailable)
	}

	maxTokens, temperature := p.cfg.resolve(opts)

	messages := make([]cohereMessage, 0, len(history)+1)
	for _, m := range history {
		messages = append(messages, cohereMessage{Role: m.Role, Content: m.Content})
	}
	user := p.ConstructMessage(p.ProcessText(prompt), RoleUser)
	messages = append(messages, cohereMessage{Role: user.Role, Content: user.Content})

	req := cohereChatRequest{
		Model:       p.generationModel,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	var resp cohereChatResponse
	if err := postJSON(ctx, p.http, p.baseURL+"/chat", p.cfg.APIKey, req, &resp); err != nil {
		return "", err
	}
	for _, part := range resp.Message.Content {
		if part.Type == "text" && part.Text != "" {
			p.logger.Debug("generated completion",
				"provider", "cohere",
				"model", p.generationModel,
			)
			return part.Text, nil
		}
	}
	return "", fmt.Errorf("%w: empty completion", ErrProviderCall)
}

type cohereEmbedRequest struct {
	Model          string   `json:"model"`
	Texts          []string `json:"texts"`
	InputType      string   `json:"input_type"`
	EmbeddingTypes []string `json:"embedding_types"`
}

type cohereEmbedResponse struct {
	Embeddings struct {
		Float [][]float32 `json:"float"`
	} `json:"embeddings"`
}

// cohereInputType maps the portable input type onto Cohere's wire values.
func cohereInputType(t InputType) string {
	if t == InputQuery {
		return "search_query"
	}
	return "search_document"
}

func (p *Cohere) GetEmbedding(ctx context.Context, texts []string, inputType InputType) ([][]float32, error) {
	if p.embeddingModel == "" {
		return nil, fmt.Errorf("%w: embedding model not set", ErrProviderUnavailable)
	}

	input := make([]string, len(texts))
	for i, t := range texts {
		input[i] = p.ProcessText(t)
	}

	req := cohereEmbedRequest{
		Model:          p.embeddingModel,
		Texts:          input,
		InputType:      cohereInputType(inputType),
		EmbeddingTypes: []string{"float"},
	}

	var resp cohereEmbedResponse
	if err := postJSON(ctx, p.http, p.baseURL+"/embed", p.cfg.APIKey, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embeddings.Float) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs", ErrProviderCall, len(resp.Embeddings.Float), len(texts))
	}
	return resp.Embeddings.Float, nil
}

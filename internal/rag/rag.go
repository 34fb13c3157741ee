// Package rag composes retrieval-augmented answers: embed the query, search
// the project's collection, render the hits into a numbered prompt, and ask
// the generation model.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/ragstack/ragstack/internal/llm"
	"github.com/ragstack/ragstack/internal/log"
	"github.com/ragstack/ragstack/internal/vectordb"
)

// Answer carries the generated text together with the exact prompt artifacts
// that produced it, for caller-side auditing and display.
type Answer struct {
	FullPrompt string
	History    []llm.Message
	Text       string
}

// Searcher is the slice of the vector store the composer consumes.
type Searcher interface {
	SearchByVector(ctx context.Context, name string, vector []float32, topK int) ([]vectordb.RetrievedDocument, error)
}

// Composer wires retrieval and generation together. The embedder and the
// generator may be the same provider or two different ones, depending on
// configuration.
type Composer struct {
	vectors   Searcher
	embedder  llm.Provider
	generator llm.Provider
	templates Templates
	logger    log.Logger
}

// NewComposer builds a Composer with the default prompt templates.
func NewComposer(vectors Searcher, embedder, generator llm.Provider, logger log.Logger) *Composer {
	return &Composer{
		vectors:   vectors,
		embedder:  embedder,
		generator: generator,
		templates: DefaultTemplates(),
		logger:    logger,
	}
}

// WithTemplates swaps the prompt set, for locale overrides.
func (c *Composer) WithTemplates(t Templates) *Composer {
	c.templates = t
	return c
}

// Search embeds text as a query and returns the closest documents in the
// project's collection, best first. Zero matches is an empty slice with a
// nil error.
func (c *Composer) Search(ctx context.Context, projectID, text string, limit int) ([]vectordb.RetrievedDocument, error) {
	vectors, err := c.embedder.GetEmbedding(ctx, []string{text}, llm.InputQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("%w: empty query embedding", llm.ErrProviderCall)
	}

	collection := vectordb.CollectionName(projectID)
	docs, err := c.vectors.SearchByVector(ctx, collection, vectors[0], limit)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", collection, err)
	}
	return docs, nil
}

// Answer runs the full pipeline for one question. When the search returns
// nothing it reports (nil, nil): no prompt is assembled and the generation
// model is never called.
//
// The document blocks keep the similarity-descending order returned by
// search, and the chat history is seeded with only the system message; the
// rendered documents travel as the user-turn prompt instead.
func (c *Composer) Answer(ctx context.Context, projectID, query string, topK int) (*Answer, error) {
	docs, err := c.Search(ctx, projectID, query, topK)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		c.logger.Debug("no documents retrieved", "project", projectID)
		return nil, nil
	}

	blocks := make([]string, 0, len(docs)+1)
	for i, doc := range docs {
		block, err := c.templates.renderDocument(i+1, c.generator.ProcessText(doc.Text), doc.Metadata)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	footer, err := c.templates.renderFooter(query)
	if err != nil {
		return nil, err
	}
	blocks = append(blocks, footer)

	fullPrompt := strings.Join(blocks, "\n")
	history := []llm.Message{
		c.generator.ConstructMessage(c.templates.System, llm.RoleSystem),
	}

	text, err := c.generator.GenerateText(ctx, fullPrompt, history)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	c.logger.Info("answered question",
		"project", projectID,
		"documents", len(docs),
	)
	return &Answer{
		FullPrompt: fullPrompt,
		History:    history,
		Text:       text,
	}, nil
}

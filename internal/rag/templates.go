package rag

import (
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// Default prompt texts. The document and footer shapes are part of the
// observable output (FullPrompt is returned to callers), so changes here
// show up in audit trails.
const (
	defaultSystemPrompt = "You are an assistant to generate a response for the user. " +
		"You will be provided by a set of documents associated with the user's query. " +
		"You have to generate a response based on the documents provided. " +
		"Ignore the documents that are not relevant to the user's query. " +
		"You can apologize to the user if you are not able to generate a response. " +
		"You have to generate response in the same language as the user's query. " +
		"Be polite and respectful to the user. " +
		"Be precise and concise in your response. Avoid unnecessary information."

	defaultDocumentPrompt = "## Document No: {{.Num}}\n" +
		"### Content: {{.Content}}\n" +
		"### Metadata: {{.Metadata}}"

	defaultFooterPrompt = "Based only on the above documents, please generate an answer for the user.\n" +
		"## Question:\n{{.Query}}\n\n" +
		"## Answer:"
)

// Templates holds the three prompt building blocks of an answer.
type Templates struct {
	System   string
	Document *template.Template
	Footer   *template.Template
}

// DefaultTemplates returns the built-in English prompt set.
func DefaultTemplates() Templates {
	return Templates{
		System:   defaultSystemPrompt,
		Document: template.Must(template.New("document").Parse(defaultDocumentPrompt)),
		Footer:   template.Must(template.New("footer").Parse(defaultFooterPrompt)),
	}
}

type documentData struct {
	Num      int
	Content  string
	Metadata string
}

type footerData struct {
	Query string
}

// renderDocument fills the numbered document block.
func (t Templates) renderDocument(num int, content string, metadata map[string]string) (string, error) {
	var b strings.Builder
	err := t.Document.Execute(&b, documentData{
		Num:      num,
		Content:  content,
		Metadata: formatMetadata(metadata),
	})
	if err != nil {
		return "", fmt.Errorf("render document block %d: %w", num, err)
	}
	return b.String(), nil
}

// renderFooter fills the closing block with the literal user query.
func (t Templates) renderFooter(query string) (string, error) {
	var b strings.Builder
	if err := t.Footer.Execute(&b, footerData{Query: query}); err != nil {
		return "", fmt.Errorf("render footer block: %w", err)
	}
	return b.String(), nil
}

// formatMetadata renders metadata deterministically, sorted by key.
func formatMetadata(metadata map[string]string) string {
	if len(metadata) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf("%s: %s", k, metadata[k])
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

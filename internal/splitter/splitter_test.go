package splitter

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
		overlap   int
		wantErr   error
	}{
		{name: "minimal valid", chunkSize: 1, overlap: 0},
		{name: "typical", chunkSize: 512, overlap: 64},
		{name: "zero chunk size", chunkSize: 0, overlap: 0, wantErr: ErrInvalidChunkSize},
		{name: "negative chunk size", chunkSize: -5, overlap: 0, wantErr: ErrInvalidChunkSize},
		{name: "negative overlap", chunkSize: 10, overlap: -1, wantErr: ErrInvalidOverlap},
		{name: "overlap equals chunk size", chunkSize: 10, overlap: 10, wantErr: ErrInvalidOverlap},
		{name: "overlap exceeds chunk size", chunkSize: 10, overlap: 11, wantErr: ErrInvalidOverlap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.chunkSize, tt.overlap)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, s)
		})
	}
}

func TestSplit_WordBoundaries(t *testing.T) {
	s, err := New(12, 3)
	require.NoError(t, err)

	chunks := s.Split("Alpha beta. Gamma delta. Epsilon zeta.", map[string]string{"source": "doc-1"})

	require.GreaterOrEqual(t, len(chunks), 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Text), 12)
		assert.NotEmpty(t, c.Text)
		assert.Equal(t, "doc-1", c.Metadata["source"])
	}
	assert.Equal(t, "Alpha beta.", chunks[0].Text)
}

func TestSplit_ParagraphsStayWhole(t *testing.T) {
	s, err := New(16, 0)
	require.NoError(t, err)

	chunks := s.Split("para one line.\n\npara two line.", nil)

	require.Len(t, chunks, 2)
	assert.Equal(t, "para one line.", chunks[0].Text)
	assert.Equal(t, "para two line.", chunks[1].Text)
}

func TestSplit_OverlapSharesTrailingWords(t *testing.T) {
	s, err := New(20, 10)
	require.NoError(t, err)

	chunks := s.Split("one two three four five six", nil)

	require.Len(t, chunks, 2)
	assert.Equal(t, "one two three four", chunks[0].Text)
	assert.Equal(t, "four five six", chunks[1].Text)
}

func TestSplit_OversizedWordPassesThroughWhole(t *testing.T) {
	s, err := New(5, 0)
	require.NoError(t, err)

	chunks := s.Split("tiny abcdefghijklmnop tiny", nil)

	require.Len(t, chunks, 3)
	assert.Equal(t, "tiny", chunks[0].Text)
	assert.Equal(t, "abcdefghijklmnop", chunks[1].Text)
	assert.Equal(t, "tiny", chunks[2].Text)
}

func TestSplit_MultiByteRunesNeverBroken(t *testing.T) {
	s, err := New(2, 0)
	require.NoError(t, err)

	chunks := s.Split("日本語テキスト", nil)

	require.Len(t, chunks, 1)
	assert.True(t, utf8.ValidString(chunks[0].Text))
	assert.Equal(t, "日本語テキスト", chunks[0].Text)
}

func TestSplit_EmptyInput(t *testing.T) {
	s, err := New(10, 2)
	require.NoError(t, err)

	assert.Empty(t, s.Split("", nil))
	assert.Empty(t, s.Split("   \n\n  \t ", nil))
}

func TestSplit_ChunksAreSubstringsOfInput(t *testing.T) {
	s, err := New(50, 10)
	require.NoError(t, err)

	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("the quick brown fox jumps over the lazy dog. ")
		if i%7 == 0 {
			b.WriteString("\n\n")
		}
	}
	text := b.String()

	chunks := s.Split(text, nil)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Text), 50)
		assert.Contains(t, text, c.Text)
	}
}

func TestSplit_Deterministic(t *testing.T) {
	s, err := New(30, 6)
	require.NoError(t, err)

	text := "Determinism matters.\nThe same input must always yield the same chunks, run after run."
	first := s.Split(text, map[string]string{"k": "v"})
	second := s.Split(text, map[string]string{"k": "v"})

	assert.Equal(t, first, second)
}

func TestSplitDocuments(t *testing.T) {
	s, err := New(64, 8)
	require.NoError(t, err)

	texts := []string{
		"First document body with enough words to survive trimming.",
		"Second document body, kept apart from the first.",
	}
	metadatas := []map[string]string{
		{"asset": "a.txt"},
	}

	chunks := s.SplitDocuments(texts, metadatas)

	require.Len(t, chunks, 2)
	assert.Equal(t, "a.txt", chunks[0].Metadata["asset"])
	assert.Nil(t, chunks[1].Metadata)
	// Inputs never merge into one chunk even when both would fit.
	assert.Equal(t, texts[0], chunks[0].Text)
	assert.Equal(t, texts[1], chunks[1].Text)
}

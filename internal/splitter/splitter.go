// Package splitter implements recursive, boundary-preferring text chunking.
//
// Text is split on the coarsest separator that still yields segments within
// the chunk size: paragraph, then line, then word. Adjacent chunks share a
// configurable number of trailing characters so that context crossing a
// chunk boundary is not lost at retrieval time.
//
// Splitting is pure and deterministic: the same input and parameters always
// produce the same chunks.
package splitter

import (
	"errors"
	"fmt"
	"strings"
)

// separators, in descending coarseness. A word that no separator can break
// passes through whole, even over the chunk size.
var separators = []string{"\n\n", "\n", " "}

var (
	// ErrInvalidChunkSize indicates a chunk size below 1.
	ErrInvalidChunkSize = errors.New("chunk size must be at least 1")

	// ErrInvalidOverlap indicates an overlap that is negative or not smaller
	// than the chunk size.
	ErrInvalidOverlap = errors.New("overlap must be in [0, chunk size)")
)

// Chunk is one bounded segment of source text. Metadata is inherited verbatim
// from the input the segment came from.
type Chunk struct {
	Text     string
	Metadata map[string]string
}

// Splitter splits raw text into bounded, overlapping chunks.
type Splitter struct {
	chunkSize int
	overlap   int
}

// New creates a Splitter. chunkSize is the maximum chunk length in
// characters; overlap is the number of trailing characters each chunk shares
// with its successor.
func New(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidChunkSize, chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: got %d for chunk size %d", ErrInvalidOverlap, overlap, chunkSize)
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}, nil
}

// Split chunks a single text. Every returned chunk carries the given
// metadata. Empty or whitespace-only input yields no chunks.
//
// A single word longer than the chunk size is emitted as its own oversized
// chunk rather than dropped, so no input text is ever lost.
func (s *Splitter) Split(text string, metadata map[string]string) []Chunk {
	pieces := s.splitRecursive(text, separators)

	merged := s.mergePieces(pieces)

	chunks := make([]Chunk, 0, len(merged))
	for _, m := range merged {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		chunks = append(chunks, Chunk{Text: m, Metadata: metadata})
	}
	return chunks
}

// SplitDocuments chunks several texts in one call. Each text keeps its own
// metadata; nothing is merged across inputs. metadatas may be shorter than
// texts, in which case the missing entries default to nil.
func (s *Splitter) SplitDocuments(texts []string, metadatas []map[string]string) []Chunk {
	var chunks []Chunk
	for i, text := range texts {
		var md map[string]string
		if i < len(metadatas) {
			md = metadatas[i]
		}
		chunks = append(chunks, s.Split(text, md)...)
	}
	return chunks
}

// splitRecursive breaks text into pieces no longer than the chunk size where
// possible, descending to a finer separator only for pieces that still
// exceed it. A piece the finest separator cannot break stays whole; the
// merge step emits it as its own oversized chunk.
func (s *Splitter) splitRecursive(text string, seps []string) []string {
	if text == "" {
		return nil
	}

	sep := seps[0]
	splits := strings.Split(text, sep)

	var pieces []string
	for i, part := range splits {
		// Keep the separator attached to the preceding piece so the merge
		// step can reconstruct the original spacing.
		if i < len(splits)-1 {
			part += sep
		}
		if part == "" {
			continue
		}
		if len(part) <= s.chunkSize || len(seps) == 1 {
			pieces = append(pieces, part)
			continue
		}
		pieces = append(pieces, s.splitRecursive(part, seps[1:])...)
	}
	return pieces
}

// mergePieces greedily packs pieces into chunks of at most chunkSize
// characters. When a chunk is emitted, whole trailing pieces totalling at
// most overlap characters stay in the window and open the next chunk, so
// neighbouring chunks share complete boundary units rather than arbitrary
// character slices. A piece that alone exceeds the chunk size (an
// indivisible oversized token) passes through as its own chunk.
func (s *Splitter) mergePieces(pieces []string) []string {
	var (
		out    []string
		window []string
		total  int
	)

	for _, piece := range pieces {
		if total+len(piece) > s.chunkSize && total > 0 {
			out = append(out, strings.Join(window, ""))
			// Shrink the window to the overlap budget, and further until
			// the incoming piece fits.
			for total > s.overlap || (total+len(piece) > s.chunkSize && total > 0) {
				total -= len(window[0])
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += len(piece)
	}
	if len(window) > 0 {
		out = append(out, strings.Join(window, ""))
	}

	return out
}

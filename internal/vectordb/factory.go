package vectordb

import (
	"fmt"

	"github.com/ragstack/ragstack/internal/log"
)

// Backend selects a concrete store implementation.
type Backend string

const (
	BackendChromem  Backend = "chromem"
	BackendPGVector Backend = "pgvector"
)

// Options carries the union of backend construction parameters. Each backend
// reads only the fields it understands.
type Options struct {
	// Path is the embedded database directory (chromem).
	Path string

	// ConnString is the database connection string (pgvector).
	ConnString string

	// Distance selects the similarity measure (pgvector; chromem is always
	// cosine).
	Distance Distance

	// IndexThreshold is the row count that triggers index creation
	// (pgvector).
	IndexThreshold int
}

// NewStore builds the store for the given backend. The set of backends is
// closed; an unrecognised value returns ErrUnknownBackend.
func NewStore(backend Backend, opts Options, logger log.Logger) (Store, error) {
	switch backend {
	case BackendChromem:
		return NewChromem(opts.Path, logger), nil
	case BackendPGVector:
		return NewPGVector(PGVectorOptions{
			ConnString:     opts.ConnString,
			Distance:       opts.Distance,
			IndexThreshold: opts.IndexThreshold,
		}, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

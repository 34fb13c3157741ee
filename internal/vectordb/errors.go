package vectordb

import "errors"

var (
	// ErrUnknownBackend indicates a backend name outside the supported set.
	ErrUnknownBackend = errors.New("vectordb: unknown backend")

	// ErrNotConnected indicates an operation before Connect or after
	// Disconnect.
	ErrNotConnected = errors.New("vectordb: store is not connected")

	// ErrCollectionNotFound indicates an operation against a collection
	// that does not exist.
	ErrCollectionNotFound = errors.New("vectordb: collection not found")

	// ErrInvalidCollectionName indicates a collection name unsafe to use as
	// a database identifier.
	ErrInvalidCollectionName = errors.New("vectordb: invalid collection name")
)

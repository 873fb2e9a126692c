package storage

import (
	"context"
	"errors"
	"io"
)

// ErrFileNotFound is returned when the identifier has no stored object.
var ErrFileNotFound = errors.New("file not found")

// Provider abstracts the object store that holds photo originals.
type Provider interface {
	// SaveWithContext stores the file under identifier.
	SaveWithContext(ctx context.Context, identifier string, file io.Reader) error

	// GetWithContext opens the stored file for reading.
	GetWithContext(ctx context.Context, identifier string) (io.ReadSeeker, error)

	// DeleteWithContext removes the stored file.
	DeleteWithContext(ctx context.Context, identifier string) error

	// Exists reports whether the identifier has a stored object.
	Exists(ctx context.Context, identifier string) (bool, error)

	// Health verifies the backend is reachable.
	Health(ctx context.Context) error

	// Name returns the storage name.
	Name() string
}

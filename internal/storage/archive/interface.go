// internal/storage/archive/interface.go
package archive

import "context"

// Storage is where run artifacts (equity/trade/stats CSVs) are kept.
// Paths are slash-separated and relative to the backend root, typically
// "<run id>/<artifact>.csv".
type Storage interface {
	// Write stores data at the given path, replacing any prior content
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths under the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the data at the given path
	Delete(ctx context.Context, path string) error

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}

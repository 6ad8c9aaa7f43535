package session

import "context"

// Store is the durable mirror of the registry. The registry is the source of
// truth while the process runs; a Store is only read at startup.
type Store interface {
	// Load returns every persisted record. Implementations skip and remove
	// records they cannot decode.
	Load(ctx context.Context) ([]Record, error)

	// Save creates or replaces the record for r.SessionID.
	Save(ctx context.Context, r Record) error

	// Delete removes the record for sessionID. Deleting a missing record is not an error.
	Delete(ctx context.Context, sessionID string) error
}

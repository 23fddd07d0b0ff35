package birthday

import (
	"context"
)

// Repository defines the operations for persisting and retrieving birthday records.
// Every method is atomic with respect to its own key.
type Repository interface {
	Get(ctx context.Context, key string) (*Record, error) // ErrRecordNotFound when absent
	Upsert(ctx context.Context, rec *Record) error        // Full overwrite, no field merge
	// Delete reports whether a record was removed. An absent key is not an error.
	Delete(ctx context.Context, key string) (bool, error)
	// ListAll returns a point-in-time snapshot ordered by key.
	ListAll(ctx context.Context) ([]*Record, error)
}

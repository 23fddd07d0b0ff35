// internal/domain/notification/repository.go
package notification

import (
	"context"
	"errors"
)

// ErrCursorNotFound is returned when no scan has completed yet for a scanner.
var ErrCursorNotFound = errors.New("scan cursor not found")

// CursorRepository persists the scan cursor across restarts.
type CursorRepository interface {
	GetCursor(ctx context.Context, name string) (*ScanCursor, error)
	SaveCursor(ctx context.Context, cursor *ScanCursor) error
}

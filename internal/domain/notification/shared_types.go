// internal/domain/notification/shared_types.go
package notification

import (
	"context"

	"birthday_bot/internal/domain/birthday"
)

// MatchEvent is produced for each record whose anniversary is today. Never persisted.
type MatchEvent struct {
	Key    string
	Record *birthday.Record
	IsTest bool // Forced by the test command, bypasses the date match
}

// Notifier delivers a MatchEvent to its destination.
type Notifier interface {
	Notify(ctx context.Context, event MatchEvent) error
}

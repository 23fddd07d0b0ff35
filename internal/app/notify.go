package app

import (
	"context"
	"fmt"
	"time"

	"birthday_bot/internal/domain/notification"
)

// notifyWithTimeout bounds a single Notify call. The call runs in its own goroutine so a
// notifier that ignores ctx still cannot hold the caller past the deadline.
func notifyWithTimeout(ctx context.Context, n notification.Notifier, event notification.MatchEvent, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- n.Notify(ctx, event)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("notify %s: %w", event.Key, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("notify %s: %w", event.Key, ctx.Err())
	}
}

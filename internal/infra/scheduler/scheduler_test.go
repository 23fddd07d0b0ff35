package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"birthday_bot/internal/app"
	"birthday_bot/internal/infra/logger"
)

type countingScanner struct {
	calls atomic.Int32
	delay time.Duration
}

func (c *countingScanner) Scan(ctx context.Context) (app.ScanReport, error) {
	c.calls.Add(1)
	time.Sleep(c.delay)
	return app.ScanReport{}, nil
}

func TestBirthdayScheduler_RunsOnStartAndStopsCleanly(t *testing.T) {
	scanner := &countingScanner{delay: 50 * time.Millisecond}
	s := NewBirthdayScheduler(scanner, logger.Discard(), time.UTC, "@every 1h", time.Minute)

	require.NoError(t, s.Start())
	assert.Eventually(t, func() bool { return scanner.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	// Stop waits for the startup scan to finish.
	s.Stop()
	assert.Equal(t, int32(1), scanner.calls.Load())
}

func TestBirthdayScheduler_InvalidSpec(t *testing.T) {
	s := NewBirthdayScheduler(&countingScanner{}, logger.Discard(), time.UTC, "not a cron spec", time.Minute)
	assert.Error(t, s.Start())
}

package app

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"birthday_bot/internal/domain/birthday"
	"birthday_bot/internal/infra/logger"
	"birthday_bot/internal/infra/memstore"
)

func seed(t *testing.T, store birthday.Repository, records ...*birthday.Record) {
	t.Helper()
	for _, r := range records {
		require.NoError(t, store.Upsert(context.Background(), r))
	}
}

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func TestScanner_FiresOncePerDay(t *testing.T) {
	store := memstore.New()
	seed(t, store,
		&birthday.Record{Key: "a", DateOfBirth: "2000-06-15"},
		&birthday.Record{Key: "b", DateOfBirth: "1990-06-15"},
		&birthday.Record{Key: "c", DateOfBirth: "1990-06-16"},
	)
	notifier := newFakeNotifier()
	clock := newFakeClock(at(2024, time.June, 15))
	s := NewScanner(store, notifier, logger.Discard(), WithClock(clock.Now))

	first, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.False(t, first.Skipped)
	assert.Equal(t, 2, first.Matched)
	assert.Equal(t, 2, first.Sent)
	assert.ElementsMatch(t, []string{"a", "b"}, notifier.keys())

	second, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Len(t, notifier.keys(), 2)

	clock.Set(at(2024, time.June, 16))
	third, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, third.Sent)
	assert.Equal(t, []string{"a", "b", "c"}, sortedCopy(notifier.keys()))
}

func TestScanner_SkipsUnparseableRecords(t *testing.T) {
	store := memstore.New()
	seed(t, store,
		&birthday.Record{Key: "a", DateOfBirth: "2000-06-15"},
		&birthday.Record{Key: "broken", DateOfBirth: "15/06/2000"},
		&birthday.Record{Key: "z", DateOfBirth: "1980-06-15"},
	)
	notifier := newFakeNotifier()
	s := NewScanner(store, notifier, logger.Discard(), WithClock(newFakeClock(at(2024, time.June, 15)).Now))

	report, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.ParseErrors)
	assert.Equal(t, 2, report.Sent)
	assert.ElementsMatch(t, []string{"a", "z"}, notifier.keys())
}

func TestScanner_NotifierFailureDoesNotStopPass(t *testing.T) {
	store := memstore.New()
	seed(t, store,
		&birthday.Record{Key: "a", DateOfBirth: "2000-06-15"},
		&birthday.Record{Key: "b", DateOfBirth: "2000-06-15"},
		&birthday.Record{Key: "c", DateOfBirth: "2000-06-15"},
	)
	notifier := newFakeNotifier()
	notifier.fail["b"] = true
	s := NewScanner(store, notifier, logger.Discard(), WithClock(newFakeClock(at(2024, time.June, 15)).Now))

	report, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Matched)
	assert.Equal(t, 2, report.Sent)
	assert.Equal(t, 1, report.Failed)
	assert.ElementsMatch(t, []string{"a", "c"}, notifier.keys())

	// The cursor still advances after send failures.
	again, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.True(t, again.Skipped)
}

func TestScanner_SlowNotifierTimesOut(t *testing.T) {
	store := memstore.New()
	seed(t, store,
		&birthday.Record{Key: "a", DateOfBirth: "2000-06-15"},
		&birthday.Record{Key: "slow", DateOfBirth: "2000-06-15"},
	)
	notifier := newFakeNotifier()
	notifier.block["slow"] = true
	defer close(notifier.release)
	s := NewScanner(store, notifier, logger.Discard(),
		WithClock(newFakeClock(at(2024, time.June, 15)).Now),
		WithNotifyTimeout(20*time.Millisecond),
	)

	done := make(chan ScanReport, 1)
	go func() {
		report, err := s.Scan(context.Background())
		assert.NoError(t, err)
		done <- report
	}()

	select {
	case report := <-done:
		assert.Equal(t, 1, report.Sent)
		assert.Equal(t, 1, report.Failed)
		assert.Equal(t, []string{"a"}, notifier.keys())
	case <-time.After(5 * time.Second):
		t.Fatal("scan stalled on a slow notifier")
	}
}

func TestScanner_StorageErrorAbortsWithoutAdvancingCursor(t *testing.T) {
	store := memstore.New()
	seed(t, store, &birthday.Record{Key: "a", DateOfBirth: "2000-06-15"})
	repo := &flakyRepo{Repository: store}
	repo.setDown(true)
	notifier := newFakeNotifier()
	s := NewScanner(repo, notifier, logger.Discard(), WithClock(newFakeClock(at(2024, time.June, 15)).Now))

	_, err := s.Scan(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, birthday.ErrStorage)
	assert.Empty(t, notifier.keys())

	repo.setDown(false)
	report, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Skipped)
	assert.Equal(t, []string{"a"}, notifier.keys())
}

func TestScanner_PersistedCursorSurvivesRestart(t *testing.T) {
	store := memstore.New()
	seed(t, store, &birthday.Record{Key: "a", DateOfBirth: "2000-06-15"})
	notifier := newFakeNotifier()
	clock := newFakeClock(at(2024, time.June, 15))

	first := NewScanner(store, notifier, logger.Discard(), WithClock(clock.Now), WithCursorRepository(store))
	_, err := first.Scan(context.Background())
	require.NoError(t, err)

	restarted := NewScanner(store, notifier, logger.Discard(), WithClock(clock.Now), WithCursorRepository(store))
	report, err := restarted.Scan(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Skipped)
	assert.Equal(t, []string{"a"}, notifier.keys())
}

func TestScanner_UsesReferenceLocation(t *testing.T) {
	store := memstore.New()
	seed(t, store, &birthday.Record{Key: "a", DateOfBirth: "2000-06-15"})
	notifier := newFakeNotifier()
	// 22:00 UTC on the 14th is already the 15th at UTC+5.
	clock := newFakeClock(time.Date(2024, time.June, 14, 22, 0, 0, 0, time.UTC))
	s := NewScanner(store, notifier, logger.Discard(),
		WithClock(clock.Now),
		WithLocation(time.FixedZone("UTC+5", 5*60*60)),
	)

	report, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-06-15", report.Date.Format(birthday.DateLayout))
	assert.Equal(t, []string{"a"}, notifier.keys())
}

func TestScanner_Feb29FiresOnFeb28InNonLeapYear(t *testing.T) {
	store := memstore.New()
	seed(t, store, &birthday.Record{Key: "leap", DateOfBirth: "2000-02-29"})
	notifier := newFakeNotifier()
	clock := newFakeClock(at(2023, time.February, 28))
	s := NewScanner(store, notifier, logger.Discard(), WithClock(clock.Now))

	_, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"leap"}, notifier.keys())

	clock.Set(at(2023, time.March, 1))
	_, err = s.Scan(context.Background())
	require.NoError(t, err)
	assert.Len(t, notifier.keys(), 1)
}

func TestScanner_RejectsConcurrentScan(t *testing.T) {
	store := memstore.New()
	seed(t, store, &birthday.Record{Key: "slow", DateOfBirth: "2000-06-15"})
	notifier := newFakeNotifier()
	notifier.block["slow"] = true
	s := NewScanner(store, notifier, logger.Discard(),
		WithClock(newFakeClock(at(2024, time.June, 15)).Now),
		WithNotifyTimeout(5*time.Second),
	)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.Scan(context.Background())
		assert.NoError(t, err)
	}()
	<-notifier.started

	_, err := s.Scan(context.Background())
	assert.ErrorIs(t, err, ErrScanInProgress)

	close(notifier.release)
	wg.Wait()
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

// internal/app/scanner.go
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"birthday_bot/internal/domain/birthday"
	"birthday_bot/internal/domain/notification"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrScanInProgress is returned when Scan is called while another pass is running.
var ErrScanInProgress = errors.New("birthday scan already in progress")

const (
	defaultScannerName   = "daily_birthdays"
	defaultNotifyTimeout = 15 * time.Second
)

// ScanReport summarizes one Scan call.
type ScanReport struct {
	ScanID      string
	Date        time.Time // Calendar day the scan ran for
	Skipped     bool      // Today was already scanned
	Matched     int
	Sent        int
	Failed      int
	ParseErrors int
}

// Scanner finds today's birthdays and notifies each one at most once per calendar day.
// It moves Idle -> Scanning -> Idle; mu is held for the whole Scanning state.
type Scanner struct {
	name          string
	records       birthday.Repository
	cursors       notification.CursorRepository // Optional
	notifier      notification.Notifier
	recorder      ScanRecorder
	logger        *logrus.Entry
	location      *time.Location
	now           func() time.Time
	notifyTimeout time.Duration

	mu           sync.Mutex
	cursor       time.Time
	cursorLoaded bool
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithCursorRepository persists the scan cursor so a restart does not re-notify the same day.
func WithCursorRepository(repo notification.CursorRepository) ScannerOption {
	return func(s *Scanner) { s.cursors = repo }
}

// WithLocation sets the reference clock used to decide what "today" is.
func WithLocation(loc *time.Location) ScannerOption {
	return func(s *Scanner) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithClock(now func() time.Time) ScannerOption {
	return func(s *Scanner) {
		if now != nil {
			s.now = now
		}
	}
}

func WithNotifyTimeout(d time.Duration) ScannerOption {
	return func(s *Scanner) {
		if d > 0 {
			s.notifyTimeout = d
		}
	}
}

func WithScanRecorder(r ScanRecorder) ScannerOption {
	return func(s *Scanner) {
		if r != nil {
			s.recorder = r
		}
	}
}

func NewScanner(records birthday.Repository, notifier notification.Notifier, logger *logrus.Entry, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		name:          defaultScannerName,
		records:       records,
		notifier:      notifier,
		recorder:      nopRecorder{},
		logger:        logger,
		location:      time.UTC,
		now:           time.Now,
		notifyTimeout: defaultNotifyTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Scan runs one pass for the current day. A second call on the same day is a no-op.
// The cursor only advances once the pass completes, so an aborted pass is retried on the
// next tick. Individual parse or delivery failures never abort the pass.
func (s *Scanner) Scan(ctx context.Context) (ScanReport, error) {
	if !s.mu.TryLock() {
		return ScanReport{}, ErrScanInProgress
	}
	defer s.mu.Unlock()

	started := time.Now()
	today := birthday.Today(s.now().In(s.location))
	report := ScanReport{ScanID: uuid.NewString(), Date: today}
	log := s.logger.WithFields(logrus.Fields{
		"scan_id":   report.ScanID,
		"scan_date": today.Format(birthday.DateLayout),
	})

	s.loadCursor(ctx, log)
	if !s.cursor.IsZero() && s.cursor.Equal(today) {
		log.Debug("Birthdays already scanned today, skipping")
		report.Skipped = true
		s.recorder.ScanSkipped()
		return report, nil
	}

	records, err := s.records.ListAll(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list birthday records, scan will be retried on the next tick")
		s.recorder.ScanFailed()
		return report, fmt.Errorf("list birthday records: %w", err)
	}
	log.WithField("records", len(records)).Info("Scanning birthday records")

	for _, rec := range records {
		dob, err := rec.Birthdate()
		if err != nil {
			var perr *birthday.ParseError
			if !errors.As(err, &perr) {
				return report, fmt.Errorf("read birthday of %s: %w", rec.Key, err)
			}
			report.ParseErrors++
			s.recorder.ParseError()
			log.WithError(err).WithField("user_key", rec.Key).Warn("Skipping record with unreadable date of birth")
			continue
		}
		if !birthday.IsAnniversary(dob, today) {
			continue
		}

		report.Matched++
		event := notification.MatchEvent{Key: rec.Key, Record: rec}
		if err := notifyWithTimeout(ctx, s.notifier, event, s.notifyTimeout); err != nil {
			report.Failed++
			s.recorder.NotificationFailed(false)
			log.WithError(err).WithField("user_key", rec.Key).Error("Failed to send birthday notification")
			continue
		}
		report.Sent++
		s.recorder.NotificationSent(false)
		log.WithField("user_key", rec.Key).Info("Birthday notification sent")
	}

	// A pass cut short by its deadline is treated like a crash: retry it next tick.
	if err := ctx.Err(); err != nil {
		log.WithError(err).Error("Birthday scan interrupted, cursor not advanced")
		s.recorder.ScanFailed()
		return report, fmt.Errorf("birthday scan interrupted: %w", err)
	}

	s.advanceCursor(ctx, today, log)
	s.recorder.ScanCompleted(time.Since(started))
	log.WithFields(logrus.Fields{
		"matched":      report.Matched,
		"sent":         report.Sent,
		"failed":       report.Failed,
		"parse_errors": report.ParseErrors,
	}).Info("Birthday scan completed")
	return report, nil
}

// loadCursor reads the persisted cursor once. A read failure is retried on the next scan.
func (s *Scanner) loadCursor(ctx context.Context, log *logrus.Entry) {
	if s.cursorLoaded || s.cursors == nil {
		return
	}
	c, err := s.cursors.GetCursor(ctx, s.name)
	switch {
	case err == nil:
		if c.ScanDate.After(s.cursor) {
			s.cursor = c.ScanDate
		}
		s.cursorLoaded = true
	case errors.Is(err, notification.ErrCursorNotFound):
		s.cursorLoaded = true
	default:
		log.WithError(err).Warn("Could not load persisted scan cursor, using in-memory cursor")
	}
}

// advanceCursor moves the in-memory cursor first, so a persistence failure cannot cause a
// second pass in this process.
func (s *Scanner) advanceCursor(ctx context.Context, today time.Time, log *logrus.Entry) {
	s.cursor = today
	if s.cursors == nil {
		return
	}
	if err := s.cursors.SaveCursor(ctx, &notification.ScanCursor{Name: s.name, ScanDate: today}); err != nil {
		log.WithError(err).Error("Failed to persist scan cursor")
	}
}

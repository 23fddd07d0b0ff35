package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"birthday_bot/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scanner is the job the scheduler drives.
type Scanner interface {
	Scan(ctx context.Context) (app.ScanReport, error)
}

type BirthdayScheduler struct {
	cronEngine  *cron.Cron
	scanner     Scanner
	logger      *logrus.Entry
	cronSpec    string
	scanTimeout time.Duration
	wg          sync.WaitGroup // Tracks the startup scan, which cron does not own
}

func NewBirthdayScheduler(
	scanner Scanner,
	logger *logrus.Entry,
	location *time.Location,
	cronSpec string, // e.g., "0 9 * * *" (9 AM daily)
	scanTimeout time.Duration,
) *BirthdayScheduler {
	if location == nil {
		location = time.Local
	}
	return &BirthdayScheduler{
		cronEngine: cron.New(
			cron.WithLocation(location),
			// A tick that arrives while a scan is still running is dropped.
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		scanner:     scanner,
		logger:      logger,
		cronSpec:    cronSpec,
		scanTimeout: scanTimeout,
	}
}

// Start registers the daily scan and starts the cron engine. It should be called once the
// bot is ready to deliver messages. One scan runs immediately; the cursor makes it a no-op
// if today was already handled.
func (s *BirthdayScheduler) Start() error {
	s.logger.Info("Starting birthday scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.logger.Info("Cron job triggered for birthday scan.")
		s.runScan()
	})
	if err != nil {
		return err
	}

	s.cronEngine.Start()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runScan()
	}()
	s.logger.WithField("cron_spec", s.cronSpec).Info("Birthday scheduler started.")
	return nil
}

func (s *BirthdayScheduler) runScan() {
	ctx, cancel := context.WithTimeout(context.Background(), s.scanTimeout)
	defer cancel()

	report, err := s.scanner.Scan(ctx)
	switch {
	case errors.Is(err, app.ErrScanInProgress):
		s.logger.Debug("Birthday scan already running, tick dropped.")
	case err != nil:
		s.logger.WithError(err).Error("Error during birthday scan.")
	case report.Skipped:
		s.logger.Debug("Birthday scan skipped, today already handled.")
	}
}

// Stop stops the scheduler from starting new scans and waits for a running one to finish.
func (s *BirthdayScheduler) Stop() {
	s.logger.Info("Stopping birthday scheduler...")
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.wg.Wait()
	s.logger.Info("Birthday scheduler gracefully stopped.")
}

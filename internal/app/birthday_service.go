package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"birthday_bot/internal/domain/birthday"
	"birthday_bot/internal/domain/notification"

	"github.com/sirupsen/logrus"
)

// RecordInput is the user-supplied content of a register or update command.
type RecordInput struct {
	Key         string
	DateOfBirth string
	DisplayName string
	Alias       string
	Age         string
}

type BirthdayService struct {
	repo          birthday.Repository
	notifier      notification.Notifier
	logger        *logrus.Entry
	location      *time.Location
	now           func() time.Time
	notifyTimeout time.Duration
}

func NewBirthdayService(repo birthday.Repository, notifier notification.Notifier, logger *logrus.Entry, location *time.Location, notifyTimeout time.Duration) *BirthdayService {
	if location == nil {
		location = time.UTC
	}
	if notifyTimeout <= 0 {
		notifyTimeout = defaultNotifyTimeout
	}
	return &BirthdayService{
		repo:          repo,
		notifier:      notifier,
		logger:        logger,
		location:      location,
		now:           time.Now,
		notifyTimeout: notifyTimeout,
	}
}

// Register stores a new record. An existing record for the key is left untouched and
// ErrAlreadyExists is returned; Update is the way to change it.
func (s *BirthdayService) Register(ctx context.Context, in RecordInput) (*birthday.Record, error) {
	rec, err := s.buildRecord(in)
	if err != nil {
		return nil, err
	}

	_, err = s.repo.Get(ctx, rec.Key)
	if err == nil {
		return nil, birthday.ErrAlreadyExists
	}
	if !errors.Is(err, birthday.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing birthday: %w", err)
	}

	if err := s.repo.Upsert(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save birthday: %w", err)
	}
	s.logger.WithField("user_key", rec.Key).Info("Birthday registered")
	return rec, nil
}

// Update fully replaces an existing record. Fields left empty in the input are cleared.
func (s *BirthdayService) Update(ctx context.Context, in RecordInput) (*birthday.Record, error) {
	rec, err := s.buildRecord(in)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.Get(ctx, rec.Key)
	if err != nil {
		if errors.Is(err, birthday.ErrRecordNotFound) {
			return nil, birthday.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get birthday for update: %w", err)
	}
	rec.CreatedAt = existing.CreatedAt

	if err := s.repo.Upsert(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save birthday: %w", err)
	}
	s.logger.WithField("user_key", rec.Key).Info("Birthday updated")
	return rec, nil
}

// Delete removes the record for key, returning ErrRecordNotFound if there was none.
func (s *BirthdayService) Delete(ctx context.Context, key string) error {
	removed, err := s.repo.Delete(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to delete birthday: %w", err)
	}
	if !removed {
		return birthday.ErrRecordNotFound
	}
	s.logger.WithField("user_key", key).Info("Birthday deleted")
	return nil
}

// TestNotify sends the greeting for key right away, ignoring the date.
func (s *BirthdayService) TestNotify(ctx context.Context, key string) (*birthday.Record, error) {
	rec, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, birthday.ErrRecordNotFound) {
			return nil, birthday.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get birthday for test: %w", err)
	}

	event := notification.MatchEvent{Key: key, Record: rec, IsTest: true}
	if err := notifyWithTimeout(ctx, s.notifier, event, s.notifyTimeout); err != nil {
		return nil, err
	}
	s.logger.WithField("user_key", key).Info("Test birthday notification sent")
	return rec, nil
}

// ListUpcoming returns the limit soonest birthdays counted from today.
func (s *BirthdayService) ListUpcoming(ctx context.Context, limit int) ([]birthday.Upcoming, error) {
	if limit <= 0 {
		return nil, &birthday.ValidationError{Field: "limit", Message: "must be a positive number"}
	}
	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list birthdays: %w", err)
	}
	return birthday.RankUpcoming(records, s.now().In(s.location), limit), nil
}

// Today returns the current calendar day in the service's reference clock.
func (s *BirthdayService) Today() time.Time {
	return birthday.Today(s.now().In(s.location))
}

func (s *BirthdayService) buildRecord(in RecordInput) (*birthday.Record, error) {
	rec := &birthday.Record{
		Key:         strings.TrimSpace(in.Key),
		DateOfBirth: strings.TrimSpace(in.DateOfBirth),
		DisplayName: strings.TrimSpace(in.DisplayName),
		Alias:       strings.TrimSpace(in.Alias),
		Age:         strings.TrimSpace(in.Age),
	}
	if rec.Key == "" {
		return nil, &birthday.ValidationError{Field: "key", Message: "must not be empty"}
	}
	dob, err := birthday.ParseDate(rec.DateOfBirth)
	if err != nil {
		return nil, &birthday.ValidationError{Field: "date of birth", Message: "use the YYYY-MM-DD format with a real date"}
	}
	if dob.After(s.Today()) {
		return nil, &birthday.ValidationError{Field: "date of birth", Message: "must not be in the future"}
	}
	if rec.Age != "" && !birthday.ValidateIntegerField(rec.Age) {
		return nil, &birthday.ValidationError{Field: "age", Message: "must be a number"}
	}
	return rec, nil
}

// Package kvstore is the Redis-backed birthday store. All records live in one hash so a
// single HGETALL yields a consistent snapshot.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"birthday_bot/internal/domain/birthday"
	"birthday_bot/internal/domain/notification"
)

const (
	defaultRecordsKey   = "birthdays"
	cursorKeyPrefix     = "birthdays:cursor:"
	cursorUpdatedSuffix = ":updated_at"
)

var (
	_ birthday.Repository           = (*Store)(nil)
	_ notification.CursorRepository = (*Store)(nil)
)

// storedRecord is the JSON shape of a hash value. The field names follow the legacy
// {"dob", "game_name", "actual_name", "age"} layout so existing data loads as-is.
type storedRecord struct {
	DOB        string    `json:"dob"`
	GameName   string    `json:"game_name,omitempty"`
	ActualName string    `json:"actual_name,omitempty"`
	Age        string    `json:"age,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

type Store struct {
	client     *redis.Client
	recordsKey string
}

// Option configures a Store.
type Option func(*Store)

// WithRecordsKey overrides the hash that holds the records.
func WithRecordsKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.recordsKey = key
		}
	}
}

func New(client *redis.Client, opts ...Option) *Store {
	s := &Store{client: client, recordsKey: defaultRecordsKey}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Store) Get(ctx context.Context, key string) (*birthday.Record, error) {
	raw, err := s.client.HGet(ctx, s.recordsKey, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, birthday.ErrRecordNotFound
	}
	if err != nil {
		return nil, birthday.StorageError("redis hget", err)
	}
	return decode(key, raw)
}

// Upsert replaces the whole hash field with one HSET.
func (s *Store) Upsert(ctx context.Context, rec *birthday.Record) error {
	now := time.Now().UTC()
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	payload, err := json.Marshal(storedRecord{
		DOB:        rec.DateOfBirth,
		GameName:   rec.Alias,
		ActualName: rec.DisplayName,
		Age:        rec.Age,
		CreatedAt:  createdAt,
		UpdatedAt:  now,
	})
	if err != nil {
		return fmt.Errorf("encode birthday record %q: %w", rec.Key, err)
	}
	if err := s.client.HSet(ctx, s.recordsKey, rec.Key, payload).Err(); err != nil {
		return birthday.StorageError("redis hset", err)
	}
	rec.CreatedAt, rec.UpdatedAt = createdAt, now
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	n, err := s.client.HDel(ctx, s.recordsKey, key).Result()
	if err != nil {
		return false, birthday.StorageError("redis hdel", err)
	}
	return n > 0, nil
}

// ListAll decodes every hash field. A value that is not valid JSON is still returned,
// with an empty date, so the scanner can report and skip it instead of losing the listing.
func (s *Store) ListAll(ctx context.Context) ([]*birthday.Record, error) {
	all, err := s.client.HGetAll(ctx, s.recordsKey).Result()
	if err != nil {
		return nil, birthday.StorageError("redis hgetall", err)
	}
	out := make([]*birthday.Record, 0, len(all))
	for key, raw := range all {
		rec, err := decode(key, raw)
		if err != nil {
			rec = &birthday.Record{Key: key}
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *Store) GetCursor(ctx context.Context, name string) (*notification.ScanCursor, error) {
	raw, err := s.client.Get(ctx, cursorKeyPrefix+name).Result()
	if errors.Is(err, redis.Nil) {
		return nil, notification.ErrCursorNotFound
	}
	if err != nil {
		return nil, birthday.StorageError("redis get cursor", err)
	}
	day, err := birthday.ParseDate(raw)
	if err != nil {
		return nil, fmt.Errorf("read scan cursor %q: %w", name, err)
	}
	cursor := &notification.ScanCursor{Name: name, ScanDate: day}
	if updated, err := s.client.Get(ctx, cursorKeyPrefix+name+cursorUpdatedSuffix).Time(); err == nil {
		cursor.UpdatedAt = updated
	}
	return cursor, nil
}

func (s *Store) SaveCursor(ctx context.Context, cursor *notification.ScanCursor) error {
	cursor.UpdatedAt = time.Now().UTC()
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, cursorKeyPrefix+cursor.Name, cursor.ScanDate.Format(birthday.DateLayout), 0)
		pipe.Set(ctx, cursorKeyPrefix+cursor.Name+cursorUpdatedSuffix, cursor.UpdatedAt, 0)
		return nil
	})
	if err != nil {
		return birthday.StorageError("redis set cursor", err)
	}
	return nil
}

func decode(key, raw string) (*birthday.Record, error) {
	var sr storedRecord
	if err := json.Unmarshal([]byte(raw), &sr); err != nil {
		return nil, fmt.Errorf("decode birthday record %q: %w", key, err)
	}
	return &birthday.Record{
		Key:         key,
		DateOfBirth: sr.DOB,
		DisplayName: sr.ActualName,
		Alias:       sr.GameName,
		Age:         sr.Age,
		CreatedAt:   sr.CreatedAt,
		UpdatedAt:   sr.UpdatedAt,
	}, nil
}

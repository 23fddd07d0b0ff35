// Package memstore keeps birthday records and scan cursors in process memory.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"birthday_bot/internal/domain/birthday"
	"birthday_bot/internal/domain/notification"
)

var (
	_ birthday.Repository           = (*Store)(nil)
	_ notification.CursorRepository = (*Store)(nil)
)

// Store is a mutex-guarded map. Records are copied on the way in and out so callers never
// share memory with the stored value.
type Store struct {
	mu      sync.RWMutex
	records map[string]*birthday.Record
	cursors map[string]notification.ScanCursor
}

func New() *Store {
	return &Store{
		records: make(map[string]*birthday.Record),
		cursors: make(map[string]notification.ScanCursor),
	}
}

func (s *Store) Get(_ context.Context, key string) (*birthday.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	if !ok {
		return nil, birthday.ErrRecordNotFound
	}
	return rec.Clone(), nil
}

func (s *Store) Upsert(_ context.Context, rec *birthday.Record) error {
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := rec.Clone()
	stored.UpdatedAt = now
	if existing, ok := s.records[rec.Key]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	s.records[rec.Key] = stored
	rec.CreatedAt, rec.UpdatedAt = stored.CreatedAt, stored.UpdatedAt
	return nil
}

func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; !ok {
		return false, nil
	}
	delete(s.records, key)
	return true, nil
}

func (s *Store) ListAll(_ context.Context) ([]*birthday.Record, error) {
	s.mu.RLock()
	out := make([]*birthday.Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *Store) GetCursor(_ context.Context, name string) (*notification.ScanCursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cursors[name]
	if !ok {
		return nil, notification.ErrCursorNotFound
	}
	return &c, nil
}

func (s *Store) SaveCursor(_ context.Context, cursor *notification.ScanCursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cursor.UpdatedAt = time.Now().UTC()
	s.cursors[cursor.Name] = *cursor
	return nil
}

package kvstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"birthday_bot/internal/domain/birthday"
	"birthday_bot/internal/domain/notification"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return New(client), mr
}

func TestStore_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	rec := &birthday.Record{Key: "7", DateOfBirth: "1999-03-04", DisplayName: "Bob", Alias: "bobby", Age: "25"}
	require.NoError(t, s.Upsert(ctx, rec))

	got, err := s.Get(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, rec.DateOfBirth, got.DateOfBirth)
	assert.Equal(t, rec.DisplayName, got.DisplayName)
	assert.Equal(t, rec.Alias, got.Alias)
	assert.Equal(t, rec.Age, got.Age)
}

func TestStore_ReadsLegacyLayout(t *testing.T) {
	s, mr := newTestStore(t)
	mr.HSet("birthdays", "9", `{"dob":"2001-02-03","game_name":"g","actual_name":"a","age":"23"}`)

	got, err := s.Get(context.Background(), "9")
	require.NoError(t, err)
	assert.Equal(t, "2001-02-03", got.DateOfBirth)
	assert.Equal(t, "g", got.Alias)
	assert.Equal(t, "a", got.DisplayName)
}

func TestStore_DeleteAndMissing(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, &birthday.Record{Key: "7", DateOfBirth: "1999-03-04"}))

	removed, err := s.Delete(ctx, "7")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.Delete(ctx, "7")
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = s.Get(ctx, "7")
	assert.ErrorIs(t, err, birthday.ErrRecordNotFound)
}

func TestStore_ListAllKeepsUndecodableEntries(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, &birthday.Record{Key: "b", DateOfBirth: "1999-03-04"}))
	require.NoError(t, s.Upsert(ctx, &birthday.Record{Key: "a", DateOfBirth: "1998-03-04"}))
	mr.HSet("birthdays", "c", "{not json")

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].Key)
	assert.Equal(t, "b", all[1].Key)
	assert.Equal(t, "c", all[2].Key)
	assert.Empty(t, all[2].DateOfBirth)
}

func TestStore_WithRecordsKey(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	s := New(client, WithRecordsKey("guild:1:birthdays"))

	require.NoError(t, s.Upsert(context.Background(), &birthday.Record{Key: "1", DateOfBirth: "2000-01-01"}))
	assert.True(t, mr.Exists("guild:1:birthdays"))
	assert.False(t, mr.Exists("birthdays"))
}

func TestStore_Cursor(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetCursor(ctx, "daily")
	assert.ErrorIs(t, err, notification.ErrCursorNotFound)

	day := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveCursor(ctx, &notification.ScanCursor{Name: "daily", ScanDate: day}))

	got, err := s.GetCursor(ctx, "daily")
	require.NoError(t, err)
	assert.True(t, got.Covers(day))
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestStore_ServerDownIsStorageError(t *testing.T) {
	s, mr := newTestStore(t)
	mr.Close()

	_, err := s.ListAll(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, birthday.ErrStorage))
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"birthday_bot/internal/domain/birthday"
)

// compile-time check that *BirthdayRepository implements birthday.Repository
var _ birthday.Repository = (*BirthdayRepository)(nil)

// BirthdayRepository stores birthday records in a SQL table, one row per identity key.
type BirthdayRepository struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

func NewBirthdayRepository(db *sql.DB, dialect Dialect) *BirthdayRepository {
	return &BirthdayRepository{db: db, dialect: dialect, now: time.Now}
}

func (r *BirthdayRepository) Get(ctx context.Context, key string) (*birthday.Record, error) {
	query := rebind(r.dialect, `SELECT user_key, date_of_birth, display_name, alias, age, created_at, updated_at
               FROM birthdays WHERE user_key = ?`)
	rec := &birthday.Record{}
	err := r.db.QueryRowContext(ctx, query, key).Scan(
		&rec.Key, &rec.DateOfBirth, &rec.DisplayName, &rec.Alias, &rec.Age, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, birthday.ErrRecordNotFound
		}
		return nil, birthday.StorageError("error getting birthday record", err)
	}
	return rec, nil
}

// Upsert writes every field of rec in a single statement, so a concurrent reader sees
// either the old row or the new one.
func (r *BirthdayRepository) Upsert(ctx context.Context, rec *birthday.Record) error {
	query := rebind(r.dialect, `INSERT INTO birthdays (user_key, date_of_birth, display_name, alias, age, created_at, updated_at)
               VALUES (?, ?, ?, ?, ?, ?, ?)
               ON CONFLICT (user_key) DO UPDATE SET
                   date_of_birth = excluded.date_of_birth,
                   display_name  = excluded.display_name,
                   alias         = excluded.alias,
                   age           = excluded.age,
                   updated_at    = excluded.updated_at`)

	now := r.now().UTC()
	_, err := r.db.ExecContext(ctx, query, rec.Key, rec.DateOfBirth, rec.DisplayName, rec.Alias, rec.Age, now, now)
	if err != nil {
		return birthday.StorageError("error upserting birthday record", err)
	}
	rec.UpdatedAt = now
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	return nil
}

func (r *BirthdayRepository) Delete(ctx context.Context, key string) (bool, error) {
	query := rebind(r.dialect, `DELETE FROM birthdays WHERE user_key = ?`)
	res, err := r.db.ExecContext(ctx, query, key)
	if err != nil {
		return false, birthday.StorageError("error deleting birthday record", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, birthday.StorageError("error reading deleted rows", err)
	}
	return n > 0, nil
}

// ListAll reads the table with a single SELECT, which both Postgres and SQLite serve
// from one consistent snapshot.
func (r *BirthdayRepository) ListAll(ctx context.Context) ([]*birthday.Record, error) {
	query := `SELECT user_key, date_of_birth, display_name, alias, age, created_at, updated_at
               FROM birthdays ORDER BY user_key`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, birthday.StorageError("error listing birthday records", err)
	}
	defer rows.Close()

	records := make([]*birthday.Record, 0)
	for rows.Next() {
		rec := &birthday.Record{}
		if err := rows.Scan(&rec.Key, &rec.DateOfBirth, &rec.DisplayName, &rec.Alias, &rec.Age, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, birthday.StorageError("error scanning birthday record", err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, birthday.StorageError("error iterating birthday records", err)
	}
	return records, nil
}

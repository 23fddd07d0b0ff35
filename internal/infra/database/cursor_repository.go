package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"birthday_bot/internal/domain/birthday"
	"birthday_bot/internal/domain/notification"
)

var _ notification.CursorRepository = (*CursorRepository)(nil)

type CursorRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewCursorRepository(db *sql.DB, dialect Dialect) *CursorRepository {
	return &CursorRepository{db: db, dialect: dialect}
}

func (r *CursorRepository) GetCursor(ctx context.Context, name string) (*notification.ScanCursor, error) {
	query := rebind(r.dialect, `SELECT name, scan_date, updated_at FROM scan_cursors WHERE name = ?`)
	var (
		cursor   notification.ScanCursor
		scanDate string
	)
	err := r.db.QueryRowContext(ctx, query, name).Scan(&cursor.Name, &scanDate, &cursor.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notification.ErrCursorNotFound
		}
		return nil, birthday.StorageError("error getting scan cursor", err)
	}
	cursor.ScanDate, err = birthday.ParseDate(scanDate)
	if err != nil {
		return nil, fmt.Errorf("error reading scan cursor %q: %w", name, err)
	}
	return &cursor, nil
}

func (r *CursorRepository) SaveCursor(ctx context.Context, cursor *notification.ScanCursor) error {
	query := rebind(r.dialect, `INSERT INTO scan_cursors (name, scan_date, updated_at)
               VALUES (?, ?, ?)
               ON CONFLICT (name) DO UPDATE SET scan_date = excluded.scan_date, updated_at = excluded.updated_at`)

	cursor.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, cursor.Name, cursor.ScanDate.Format(birthday.DateLayout), cursor.UpdatedAt)
	if err != nil {
		return birthday.StorageError("error saving scan cursor", err)
	}
	return nil
}

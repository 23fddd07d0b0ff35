package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"birthday_bot/internal/domain/birthday"
	"birthday_bot/internal/domain/notification"
	"birthday_bot/internal/infra/config"
	"birthday_bot/internal/infra/database"
	"birthday_bot/internal/infra/kvstore"
	"birthday_bot/internal/infra/memstore"

	"github.com/sirupsen/logrus"
)

// Stores bundles the repositories of one backend with the function releasing it.
type Stores struct {
	Records birthday.Repository
	Cursors notification.CursorRepository
	Close   func() error
}

// Open builds the stores for the configured backend. SQL backends are migrated on open.
func Open(ctx context.Context, cfg *config.AppConfig, log *logrus.Entry) (*Stores, error) {
	log = log.WithField("backend", string(cfg.StorageBackend))

	switch cfg.StorageBackend {
	case config.StoragePostgres:
		db, err := database.NewPostgresConnection(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db, database.DialectPostgres); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("Postgres storage ready")
		return &Stores{
			Records: database.NewBirthdayRepository(db, database.DialectPostgres),
			Cursors: database.NewCursorRepository(db, database.DialectPostgres),
			Close:   db.Close,
		}, nil

	case config.StorageSQLite:
		if cfg.SQLitePath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		db, err := database.NewSQLiteConnection(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db, database.DialectSQLite); err != nil {
			db.Close()
			return nil, err
		}
		log.WithField("path", cfg.SQLitePath).Info("SQLite storage ready")
		return &Stores{
			Records: database.NewBirthdayRepository(db, database.DialectSQLite),
			Cursors: database.NewCursorRepository(db, database.DialectSQLite),
			Close:   db.Close,
		}, nil

	case config.StorageRedis:
		client, err := kvstore.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		store := kvstore.New(client)
		log.Info("Redis storage ready")
		return &Stores{Records: store, Cursors: store, Close: client.Close}, nil

	case config.StorageMemory:
		store := memstore.New()
		log.Warn("In-memory storage: records are lost on restart")
		return &Stores{Records: store, Cursors: store, Close: func() error { return nil }}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

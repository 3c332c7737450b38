// Package store opens the configured posting and subscriber backend.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/remote-digest/internal/digest"
	"github.com/spigell/remote-digest/internal/posting"
	"github.com/spigell/remote-digest/internal/store/file"
	"github.com/spigell/remote-digest/internal/store/postgres"
	"github.com/spigell/remote-digest/internal/store/sqlite"
	"github.com/spigell/remote-digest/internal/subscriber"
)

const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver          string
	PostingsFile    string
	SubscribersFile string
	SQLitePath      string
	PostgresDSN     string
}

// Store is a backend serving both postings and subscribers.
type Store interface {
	digest.PostingStore
	digest.SubscriberStore
	Close() error
}

// Database is a Store that can create its schema and accept imported records.
type Database interface {
	Store
	Migrate(ctx context.Context) error
	SavePosting(ctx context.Context, p *posting.Posting) error
	SaveSubscriber(ctx context.Context, p *subscriber.Profile) error
}

type fileStore struct {
	*file.Store
}

func (fileStore) Close() error { return nil }

// Open returns the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (Store, error) {
	switch driver := strings.ToLower(strings.TrimSpace(cfg.Driver)); driver {
	case DriverFile, "":
		return fileStore{file.New(cfg.PostingsFile, cfg.SubscribersFile, logger)}, nil
	case DriverSQLite, DriverPostgres:
		return OpenDatabase(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}

// OpenDatabase returns a SQL backend; the file driver is rejected.
func OpenDatabase(ctx context.Context, cfg Config, logger *zap.Logger) (Database, error) {
	switch driver := strings.ToLower(strings.TrimSpace(cfg.Driver)); driver {
	case DriverSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("store.sqlite-path is required for the sqlite driver")
		}
		db, err := sqlite.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite: %w", err)
		}
		return db, nil
	case DriverPostgres:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN, logger)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("store driver %q does not support migrations or imports", cfg.Driver)
	}
}

// Import copies every posting and subscriber from src into dst.
func Import(ctx context.Context, src Store, dst Database, logger *zap.Logger) (int, int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	pool, err := src.ListPostings(ctx, time.Time{})
	if err != nil {
		return 0, 0, fmt.Errorf("reading postings: %w", err)
	}
	for _, p := range pool.Items {
		if err := dst.SavePosting(ctx, p); err != nil {
			return 0, 0, err
		}
	}

	profiles, err := src.ListSubscribers(ctx)
	if err != nil {
		return pool.Len(), 0, fmt.Errorf("reading subscribers: %w", err)
	}
	imported := 0
	for _, p := range profiles {
		if !p.HasIdentity() {
			logger.Warn("skipping subscriber without email", zap.String("id", p.ID))
			continue
		}
		if err := dst.SaveSubscriber(ctx, p); err != nil {
			return pool.Len(), imported, err
		}
		imported++
	}

	return pool.Len(), imported, nil
}

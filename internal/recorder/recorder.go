package recorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"CryptoTracker/internal/model"
	"CryptoTracker/internal/recorder/gormstore"
	"CryptoTracker/internal/recorder/sqlitestore"
)

// ErrUnsupportedDriver is returned by Open for an unknown driver name.
var ErrUnsupportedDriver = errors.New("unsupported recorder driver")

// Recorder persists price history and the latest snapshot per symbol.
//
// RecordPrice appends to the symbol's history, overwrites its snapshot and
// evicts history beyond the retention bound in one atomic step, so readers
// never see a snapshot without its history row.
type Recorder interface {
	RecordPrice(ctx context.Context, p model.PricePoint) error
	// CurrentPrices returns every snapshot ordered by symbol.
	CurrentPrices(ctx context.Context) ([]model.Snapshot, error)
	// History returns the symbol's points newer than now-window, oldest first.
	// A window <= 0 means model.DefaultHistoryWindow.
	History(ctx context.Context, symbol string, window time.Duration) ([]model.HistoryPoint, error)
	// Count returns the number of stored history rows.
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
	Close() error
}

// Config controls how the store is opened.
type Config struct {
	Driver         string // memory, sqlite, postgres
	DSN            string
	MaxPoints      int
	CreateDatabase bool // postgres only
}

// Open constructs a Recorder for the configured driver.
func Open(ctx context.Context, cfg Config, log *zap.Logger) (Recorder, error) {
	if cfg.MaxPoints <= 0 {
		cfg.MaxPoints = model.DefaultMaxPoints
	}
	switch cfg.Driver {
	case "", "memory":
		log.Info("recorder: using in-memory backend", zap.Int("max_points", cfg.MaxPoints))
		return NewMemoryRecorder(cfg.MaxPoints), nil

	case "sqlite":
		st, err := sqlitestore.Open(ctx, cfg.DSN, cfg.MaxPoints, log)
		if err != nil {
			return nil, fmt.Errorf("open sqlite recorder: %w", err)
		}
		return st, nil

	case "postgres":
		if cfg.CreateDatabase {
			if err := gormstore.EnsureDatabase(ctx, cfg.DSN); err != nil {
				return nil, fmt.Errorf("ensure database: %w", err)
			}
		}
		st, err := gormstore.OpenPostgres(ctx, cfg.DSN, cfg.MaxPoints, log)
		if err != nil {
			return nil, fmt.Errorf("open postgres recorder: %w", err)
		}
		return st, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}

func windowStart(now time.Time, window time.Duration) time.Time {
	if window <= 0 {
		window = model.DefaultHistoryWindow
	}
	return now.Add(-window)
}

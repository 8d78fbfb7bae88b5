// Package sqlitestore implements the price store on SQLite.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"CryptoTracker/internal/model"
)

// Store persists price history and snapshots to a SQLite database.
type Store struct {
	db        *sql.DB
	mu        sync.Mutex // serializes writers
	maxPoints int
	log       *zap.Logger
}

// Open opens (or creates) the database at path and applies migrations.
func Open(ctx context.Context, path string, maxPoints int, log *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if maxPoints <= 0 {
		maxPoints = model.DefaultMaxPoints
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// WAL lets the API read while the scheduler writes.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if err := migrate(ctx, db, log); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info("sqlite recorder opened", zap.String("path", path), zap.Int("max_points", maxPoints))
	return &Store{db: db, maxPoints: maxPoints, log: log}, nil
}

// RecordPrice inserts the point, upserts the snapshot and evicts points past
// the bound in one transaction.
func (s *Store) RecordPrice(ctx context.Context, p model.PricePoint) error {
	ms := p.Timestamp.UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO price_history
		(symbol, price_usd, price_change_24h, recorded_at) VALUES (?,?,?,?)`,
		p.Symbol, p.PriceUSD, p.Change24h, ms,
	); err != nil {
		return fmt.Errorf("insert history %s: %w", p.Symbol, err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO current_prices
		(symbol, price_usd, price_change_24h, last_updated) VALUES (?,?,?,?)
		ON CONFLICT(symbol) DO UPDATE SET
			price_usd = excluded.price_usd,
			price_change_24h = excluded.price_change_24h,
			last_updated = excluded.last_updated`,
		p.Symbol, p.PriceUSD, p.Change24h, ms,
	); err != nil {
		return fmt.Errorf("upsert snapshot %s: %w", p.Symbol, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM price_history
		WHERE symbol = ? AND id NOT IN (
			SELECT id FROM price_history WHERE symbol = ?
			ORDER BY recorded_at DESC, id DESC LIMIT ?
		)`,
		p.Symbol, p.Symbol, s.maxPoints,
	); err != nil {
		return fmt.Errorf("evict history %s: %w", p.Symbol, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// CurrentPrices returns every snapshot ordered by symbol.
func (s *Store) CurrentPrices(ctx context.Context) ([]model.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT symbol, price_usd, price_change_24h, last_updated
		FROM current_prices ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []model.Snapshot
	for rows.Next() {
		var (
			snap model.Snapshot
			ms   int64
		)
		if err := rows.Scan(&snap.Symbol, &snap.PriceUSD, &snap.Change24h, &ms); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.LastUpdated = time.UnixMilli(ms).UTC()
		out = append(out, snap)
	}
	return out, rows.Err()
}

// History returns the points inside window, oldest first.
func (s *Store) History(ctx context.Context, symbol string, window time.Duration) ([]model.HistoryPoint, error) {
	if window <= 0 {
		window = model.DefaultHistoryWindow
	}
	since := time.Now().Add(-window).UnixMilli()

	rows, err := s.db.QueryContext(ctx, `SELECT recorded_at, price_usd FROM price_history
		WHERE symbol = ? AND recorded_at >= ?
		ORDER BY recorded_at ASC, id ASC`,
		strings.ToUpper(symbol), since,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]model.HistoryPoint, 0)
	for rows.Next() {
		var (
			hp model.HistoryPoint
			ms int64
		)
		if err := rows.Scan(&ms, &hp.Price); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		hp.Timestamp = time.UnixMilli(ms).UTC()
		out = append(out, hp)
	}
	return out, rows.Err()
}

// Count returns the number of history rows.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM price_history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	s.log.Info("closing sqlite recorder")
	return s.db.Close()
}

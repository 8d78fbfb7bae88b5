// Package gormstore implements the price store on GORM, targeting PostgreSQL.
package gormstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"CryptoTracker/internal/model"
)

// Store is a GORM-backed price store. Writes are serialized.
type Store struct {
	db        *gorm.DB
	mu        sync.Mutex
	maxPoints int
	log       *zap.Logger
}

// OpenPostgres connects to PostgreSQL and migrates the price tables.
func OpenPostgres(ctx context.Context, dsn string, maxPoints int, log *zap.Logger) (*Store, error) {
	return Open(ctx, postgres.Open(dsn), maxPoints, log)
}

// Open connects through any GORM dialector and migrates the price tables.
func Open(ctx context.Context, dialector gorm.Dialector, maxPoints int, log *zap.Logger) (*Store, error) {
	if maxPoints <= 0 {
		maxPoints = model.DefaultMaxPoints
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("gorm open: %w", err)
	}

	s := &Store{db: db, maxPoints: maxPoints, log: log}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info("gorm recorder opened", zap.String("dialect", dialector.Name()), zap.Int("max_points", maxPoints))
	return s, nil
}

// Migrate creates or updates the price tables.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&PriceHistory{}, &CurrentPrice{})
}

// RecordPrice inserts the point, upserts the snapshot and evicts points past
// the bound in one transaction.
func (s *Store) RecordPrice(ctx context.Context, p model.PricePoint) error {
	ms := p.Timestamp.UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := PriceHistory{Symbol: p.Symbol, PriceUSD: p.PriceUSD, Change24h: p.Change24h, RecordedAt: ms}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("insert history %s: %w", p.Symbol, err)
		}

		snap := CurrentPrice{Symbol: p.Symbol, PriceUSD: p.PriceUSD, Change24h: p.Change24h, LastUpdated: ms}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}},
			DoUpdates: clause.AssignmentColumns([]string{"price_usd", "price_change_24h", "last_updated"}),
		}).Create(&snap).Error; err != nil {
			return fmt.Errorf("upsert snapshot %s: %w", p.Symbol, err)
		}

		keep := tx.Model(&PriceHistory{}).
			Select("id").
			Where("symbol = ?", p.Symbol).
			Order("recorded_at DESC, id DESC").
			Limit(s.maxPoints)
		if err := tx.Where("symbol = ? AND id NOT IN (?)", p.Symbol, keep).
			Delete(&PriceHistory{}).Error; err != nil {
			return fmt.Errorf("evict history %s: %w", p.Symbol, err)
		}
		return nil
	})
}

// CurrentPrices returns every snapshot ordered by symbol.
func (s *Store) CurrentPrices(ctx context.Context) ([]model.Snapshot, error) {
	var rows []CurrentPrice
	if err := s.db.WithContext(ctx).Order("symbol").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	out := make([]model.Snapshot, len(rows))
	for i, r := range rows {
		out[i] = model.Snapshot{
			Symbol:      r.Symbol,
			PriceUSD:    r.PriceUSD,
			Change24h:   r.Change24h,
			LastUpdated: time.UnixMilli(r.LastUpdated).UTC(),
		}
	}
	return out, nil
}

// History returns the points inside window, oldest first.
func (s *Store) History(ctx context.Context, symbol string, window time.Duration) ([]model.HistoryPoint, error) {
	if window <= 0 {
		window = model.DefaultHistoryWindow
	}
	since := time.Now().Add(-window).UnixMilli()

	var rows []PriceHistory
	if err := s.db.WithContext(ctx).
		Where("symbol = ? AND recorded_at >= ?", strings.ToUpper(symbol), since).
		Order("recorded_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	out := make([]model.HistoryPoint, len(rows))
	for i, r := range rows {
		out[i] = model.HistoryPoint{Timestamp: time.UnixMilli(r.RecordedAt).UTC(), Price: r.PriceUSD}
	}
	return out, nil
}

// Count returns the number of history rows.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&PriceHistory{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return int(n), nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("retrieve raw DB: %w", err)
	}
	s.log.Info("closing gorm recorder")
	return sqlDB.Close()
}

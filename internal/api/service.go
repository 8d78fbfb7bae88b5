package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"CryptoTracker/internal/calculator"
	"CryptoTracker/internal/model"
)

// Reader is the read side of the price store.
type Reader interface {
	CurrentPrices(ctx context.Context) ([]model.Snapshot, error)
	History(ctx context.Context, symbol string, window time.Duration) ([]model.HistoryPoint, error)
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

// PriceView is one row of the current price list. The 24h change is
// published under both keys the dashboard reads.
type PriceView struct {
	Symbol         string    `json:"symbol"`
	PriceUSD       float64   `json:"price_usd"`
	Change24h      float64   `json:"price_change_24h"`
	Change24hAlias float64   `json:"24h_change"`
	LastUpdated    time.Time `json:"last_updated"`
}

// HistoryView is the /api/history response body.
type HistoryView struct {
	Symbol     string                   `json:"symbol"`
	History    []model.HistoryPoint     `json:"history"`
	DataPoints int                      `json:"data_points"`
	Stats      *calculator.HistoryStats `json:"stats,omitempty"`
}

// Health is the /health response body.
type Health struct {
	Status          string    `json:"status"`
	DatabaseRecords int       `json:"database_records"`
	HistoryRecords  int       `json:"history_records"`
	TrackedCoins    int       `json:"tracked_coins"`
	Timestamp       time.Time `json:"timestamp"`
	Error           string    `json:"error,omitempty"`
}

const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// Service answers dashboard queries from the price store.
type Service struct {
	store  Reader
	coins  *model.CoinTable
	window time.Duration
	now    func() time.Time
}

// NewService creates a Service over store serving the coins in the table.
func NewService(store Reader, coins *model.CoinTable) *Service {
	return &Service{
		store:  store,
		coins:  coins,
		window: model.DefaultHistoryWindow,
		now:    time.Now,
	}
}

// ListCurrentPrices returns snapshots in tracked-table order. Symbols never
// fetched are left out.
func (s *Service) ListCurrentPrices(ctx context.Context) ([]PriceView, error) {
	snaps, err := s.store.CurrentPrices(ctx)
	if err != nil {
		return nil, fmt.Errorf("current prices: %w", err)
	}
	bySymbol := make(map[string]model.Snapshot, len(snaps))
	for _, snap := range snaps {
		bySymbol[snap.Symbol] = snap
	}

	out := make([]PriceView, 0, len(snaps))
	for _, coin := range s.coins.Coins() {
		snap, ok := bySymbol[coin.Symbol]
		if !ok {
			continue
		}
		out = append(out, PriceView{
			Symbol:         snap.Symbol,
			PriceUSD:       snap.PriceUSD,
			Change24h:      snap.Change24h,
			Change24hAlias: snap.Change24h,
			LastUpdated:    snap.LastUpdated,
		})
	}
	return out, nil
}

// GetHistory returns the trailing window of a symbol, oldest first.
// Untracked symbols yield an empty history without a store read.
func (s *Service) GetHistory(ctx context.Context, symbol string) (HistoryView, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if !s.coins.Has(symbol) {
		return HistoryView{Symbol: symbol, History: []model.HistoryPoint{}}, nil
	}
	points, err := s.store.History(ctx, symbol, s.window)
	if err != nil {
		return HistoryView{}, fmt.Errorf("history %s: %w", symbol, err)
	}
	if points == nil {
		points = []model.HistoryPoint{}
	}
	return HistoryView{
		Symbol:     symbol,
		History:    points,
		DataPoints: len(points),
		Stats:      calculator.Summarize(points),
	}, nil
}

// HealthStatus reports store reachability and record counts.
func (s *Service) HealthStatus(ctx context.Context) Health {
	h := Health{
		Status:       StatusHealthy,
		TrackedCoins: s.coins.Len(),
		Timestamp:    s.now().UTC(),
	}
	if err := s.store.Ping(ctx); err != nil {
		h.Status = StatusDegraded
		h.Error = err.Error()
		return h
	}
	snaps, err := s.store.CurrentPrices(ctx)
	if err != nil {
		h.Status = StatusDegraded
		h.Error = err.Error()
		return h
	}
	h.DatabaseRecords = len(snaps)
	if n, err := s.store.Count(ctx); err == nil {
		h.HistoryRecords = n
	}
	return h
}

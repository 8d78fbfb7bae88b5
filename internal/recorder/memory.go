package recorder

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"CryptoTracker/internal/model"
)

// MemoryRecorder keeps history and snapshots in process memory.
// It is used for the memory driver and in tests.
type MemoryRecorder struct {
	mu        sync.RWMutex
	maxPoints int
	history   map[string][]model.HistoryPoint
	snapshots map[string]model.Snapshot
}

// NewMemoryRecorder creates a MemoryRecorder keeping maxPoints per symbol.
func NewMemoryRecorder(maxPoints int) *MemoryRecorder {
	if maxPoints <= 0 {
		maxPoints = model.DefaultMaxPoints
	}
	return &MemoryRecorder{
		maxPoints: maxPoints,
		history:   make(map[string][]model.HistoryPoint),
		snapshots: make(map[string]model.Snapshot),
	}
}

// RecordPrice appends to the symbol's history, trims the oldest points and
// replaces its snapshot, all under one lock.
func (m *MemoryRecorder) RecordPrice(_ context.Context, p model.PricePoint) error {
	ts := p.Timestamp.UTC()

	m.mu.Lock()
	defer m.mu.Unlock()

	series := append(m.history[p.Symbol], model.HistoryPoint{Timestamp: ts, Price: p.PriceUSD})
	if over := len(series) - m.maxPoints; over > 0 {
		series = append([]model.HistoryPoint(nil), series[over:]...)
	}
	m.history[p.Symbol] = series
	m.snapshots[p.Symbol] = model.Snapshot{
		Symbol:      p.Symbol,
		PriceUSD:    p.PriceUSD,
		Change24h:   p.Change24h,
		LastUpdated: ts,
	}
	return nil
}

// CurrentPrices returns every snapshot ordered by symbol.
func (m *MemoryRecorder) CurrentPrices(_ context.Context) ([]model.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Snapshot, 0, len(m.snapshots))
	for _, s := range m.snapshots {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

// History returns the points inside window, oldest first.
func (m *MemoryRecorder) History(_ context.Context, symbol string, window time.Duration) ([]model.HistoryPoint, error) {
	since := windowStart(time.Now(), window)

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.HistoryPoint, 0)
	for _, hp := range m.history[strings.ToUpper(symbol)] {
		if !hp.Timestamp.Before(since) {
			out = append(out, hp)
		}
	}
	return out, nil
}

// Count returns the number of history points across all symbols.
func (m *MemoryRecorder) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, series := range m.history {
		n += len(series)
	}
	return n, nil
}

// Ping always succeeds.
func (m *MemoryRecorder) Ping(_ context.Context) error { return nil }

// Close is a no-op.
func (m *MemoryRecorder) Close() error { return nil }

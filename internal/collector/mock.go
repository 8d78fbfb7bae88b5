package collector

import (
	"context"
	"sync"

	"CryptoTracker/internal/model"
)

// MockSource returns controllable fixed quotes for development and testing.
type MockSource struct {
	mu     sync.Mutex
	Quotes map[string]model.Quote
	Err    error
	Calls  int
}

// Name identifies the source in logs.
func (m *MockSource) Name() string { return "mock" }

// FetchPrices returns Quotes for the requested ids, or price 1 for every id when Quotes is nil.
func (m *MockSource) FetchPrices(_ context.Context, ids []string) (map[string]model.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	out := make(map[string]model.Quote, len(ids))
	for _, id := range ids {
		if m.Quotes == nil {
			out[id] = model.Quote{PriceUSD: 1, Change24h: 0}
			continue
		}
		if q, ok := m.Quotes[id]; ok {
			out[id] = q
		}
	}
	return out, nil
}

// Package recordertest holds the behaviour checks shared by every price store.
package recordertest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"CryptoTracker/internal/model"
)

// Store is the subset of the recorder contract exercised by Run.
type Store interface {
	RecordPrice(ctx context.Context, p model.PricePoint) error
	CurrentPrices(ctx context.Context) ([]model.Snapshot, error)
	History(ctx context.Context, symbol string, window time.Duration) ([]model.HistoryPoint, error)
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

// OpenFunc returns an empty store bounded to maxPoints per symbol.
type OpenFunc func(t *testing.T, maxPoints int) Store

// Run executes the shared store checks against stores created by open.
func Run(t *testing.T, open OpenFunc) {
	t.Run("RecordsSnapshotAndHistory", func(t *testing.T) { testRecordsSnapshotAndHistory(t, open) })
	t.Run("KeepsLatestNPoints", func(t *testing.T) { testKeepsLatestNPoints(t, open) })
	t.Run("EvictsEarliestAfterDefaultBound", func(t *testing.T) { testEvictsEarliestAfterDefaultBound(t, open) })
	t.Run("SnapshotReflectsLatestWrite", func(t *testing.T) { testSnapshotReflectsLatestWrite(t, open) })
	t.Run("UnknownSymbol", func(t *testing.T) { testUnknownSymbol(t, open) })
	t.Run("HistoryWindow", func(t *testing.T) { testHistoryWindow(t, open) })
	t.Run("EvictionIsPerSymbol", func(t *testing.T) { testEvictionIsPerSymbol(t, open) })
	t.Run("ConcurrentReadWrite", func(t *testing.T) { testConcurrentReadWrite(t, open) })
}

func testRecordsSnapshotAndHistory(t *testing.T, open OpenFunc) {
	ctx := context.Background()
	st := open(t, model.DefaultMaxPoints)
	ts := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, st.RecordPrice(ctx, model.PricePoint{Symbol: "BTC", PriceUSD: 65000.5, Change24h: 2.3, Timestamp: ts}))

	snaps, err := st.CurrentPrices(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	require.Equal(t, "BTC", snaps[0].Symbol)
	require.Equal(t, 65000.5, snaps[0].PriceUSD)
	require.Equal(t, 2.3, snaps[0].Change24h)
	require.True(t, ts.Equal(snaps[0].LastUpdated), "last_updated %v != %v", snaps[0].LastUpdated, ts)

	hist, err := st.History(ctx, "BTC", 0)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	require.Equal(t, 65000.5, hist[0].Price)
	require.True(t, ts.Equal(hist[0].Timestamp))

	n, err := st.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.NoError(t, st.Ping(ctx))
}

func testKeepsLatestNPoints(t *testing.T, open OpenFunc) {
	ctx := context.Background()
	st := open(t, 5)
	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)

	for i := 1; i <= 12; i++ {
		require.NoError(t, st.RecordPrice(ctx, model.PricePoint{
			Symbol: "SOL", PriceUSD: float64(i), Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
		hist, err := st.History(ctx, "SOL", 0)
		require.NoError(t, err)
		require.LessOrEqual(t, len(hist), 5)
	}

	hist, err := st.History(ctx, "SOL", 0)
	require.NoError(t, err)
	got := make([]float64, len(hist))
	for i, hp := range hist {
		got[i] = hp.Price
	}
	require.Equal(t, []float64{8, 9, 10, 11, 12}, got)
}

func testEvictsEarliestAfterDefaultBound(t *testing.T, open OpenFunc) {
	ctx := context.Background()
	st := open(t, model.DefaultMaxPoints)
	base := time.Now().UTC().Add(-2 * time.Hour).Truncate(time.Millisecond)

	for i := 1; i <= 97; i++ {
		require.NoError(t, st.RecordPrice(ctx, model.PricePoint{
			Symbol: "ETH", PriceUSD: 3000 + float64(i), Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	hist, err := st.History(ctx, "ETH", 0)
	require.NoError(t, err)
	require.Len(t, hist, 96)
	require.Equal(t, 3002.0, hist[0].Price, "earliest retained point should be write #2")
	require.Equal(t, 3097.0, hist[95].Price)
	for i := 1; i < len(hist); i++ {
		require.False(t, hist[i].Timestamp.Before(hist[i-1].Timestamp), "history must be oldest first")
	}
}

func testSnapshotReflectsLatestWrite(t *testing.T, open OpenFunc) {
	ctx := context.Background()
	st := open(t, model.DefaultMaxPoints)
	ts := time.Now().UTC().Add(-time.Minute).Truncate(time.Millisecond)

	require.NoError(t, st.RecordPrice(ctx, model.PricePoint{Symbol: "ADA", PriceUSD: 0.40, Change24h: -1, Timestamp: ts}))
	require.NoError(t, st.RecordPrice(ctx, model.PricePoint{Symbol: "ADA", PriceUSD: 0.42, Change24h: 1.5, Timestamp: ts.Add(time.Second)}))

	snaps, err := st.CurrentPrices(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	require.Equal(t, 0.42, snaps[0].PriceUSD)
	require.Equal(t, 1.5, snaps[0].Change24h)
}

func testUnknownSymbol(t *testing.T, open OpenFunc) {
	ctx := context.Background()
	st := open(t, model.DefaultMaxPoints)
	require.NoError(t, st.RecordPrice(ctx, model.PricePoint{Symbol: "BTC", PriceUSD: 1, Timestamp: time.Now().UTC()}))

	hist, err := st.History(ctx, "DOGE", 0)
	require.NoError(t, err)
	require.Empty(t, hist)

	snaps, err := st.CurrentPrices(ctx)
	require.NoError(t, err)
	for _, s := range snaps {
		require.NotEqual(t, "DOGE", s.Symbol)
	}
}

func testHistoryWindow(t *testing.T, open OpenFunc) {
	ctx := context.Background()
	st := open(t, model.DefaultMaxPoints)
	now := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, st.RecordPrice(ctx, model.PricePoint{Symbol: "XRP", PriceUSD: 0.5, Timestamp: now.Add(-48 * time.Hour)}))
	require.NoError(t, st.RecordPrice(ctx, model.PricePoint{Symbol: "XRP", PriceUSD: 0.6, Timestamp: now.Add(-time.Hour)}))

	hist, err := st.History(ctx, "xrp", 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	require.Equal(t, 0.6, hist[0].Price)

	hist, err = st.History(ctx, "XRP", 72*time.Hour)
	require.NoError(t, err)
	require.Len(t, hist, 2)
}

func testEvictionIsPerSymbol(t *testing.T, open OpenFunc) {
	ctx := context.Background()
	st := open(t, 3)
	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)

	require.NoError(t, st.RecordPrice(ctx, model.PricePoint{Symbol: "LTC", PriceUSD: 80, Timestamp: base}))
	for i := 1; i <= 10; i++ {
		require.NoError(t, st.RecordPrice(ctx, model.PricePoint{
			Symbol: "BNB", PriceUSD: float64(i), Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	ltc, err := st.History(ctx, "LTC", 0)
	require.NoError(t, err)
	require.Len(t, ltc, 1)

	n, err := st.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, n)
}

func testConcurrentReadWrite(t *testing.T, open OpenFunc) {
	ctx := context.Background()
	const bound = 10
	st := open(t, bound)
	symbols := []string{"BTC", "ETH", "SOL"}
	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for _, sym := range symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				err := st.RecordPrice(ctx, model.PricePoint{
					Symbol: sym, PriceUSD: float64(i), Timestamp: base.Add(time.Duration(i) * time.Second),
				})
				if err != nil {
					errs <- fmt.Errorf("write %s: %w", sym, err)
					return
				}
			}
		}(sym)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 25; i++ {
			if _, err := st.CurrentPrices(ctx); err != nil {
				errs <- fmt.Errorf("read snapshots: %w", err)
				return
			}
			hist, err := st.History(ctx, "BTC", 0)
			if err != nil {
				errs <- fmt.Errorf("read history: %w", err)
				return
			}
			if len(hist) > bound {
				errs <- fmt.Errorf("history exceeded bound: %d", len(hist))
				return
			}
		}
	}()
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	for _, sym := range symbols {
		hist, err := st.History(ctx, sym, 0)
		require.NoError(t, err)
		require.Len(t, hist, bound)
		require.Equal(t, 24.0, hist[bound-1].Price)
	}
}

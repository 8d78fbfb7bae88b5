package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"CryptoTracker/internal/model"
	"CryptoTracker/internal/recorder"
)

func testCoins(t *testing.T) *model.CoinTable {
	t.Helper()
	table, err := model.NewCoinTable([]model.TrackedCoin{
		{Symbol: "USDT", ProviderID: "tether"},
		{Symbol: "BTC", ProviderID: "bitcoin"},
		{Symbol: "ETH", ProviderID: "ethereum"},
	})
	require.NoError(t, err)
	return table
}

// brokenStore fails every read.
type brokenStore struct{}

func (brokenStore) CurrentPrices(context.Context) ([]model.Snapshot, error) {
	return nil, errors.New("database is locked")
}

func (brokenStore) History(context.Context, string, time.Duration) ([]model.HistoryPoint, error) {
	return nil, errors.New("database is locked")
}

func (brokenStore) Count(context.Context) (int, error) { return 0, errors.New("database is locked") }
func (brokenStore) Ping(context.Context) error        { return errors.New("database is locked") }

func seededServer(t *testing.T) (*httptest.Server, *recorder.MemoryRecorder) {
	t.Helper()
	store := recorder.NewMemoryRecorder(model.DefaultMaxPoints)
	now := time.Now().UTC()
	ctx := context.Background()
	require.NoError(t, store.RecordPrice(ctx, model.PricePoint{Symbol: "BTC", PriceUSD: 65000.5, Change24h: 2.3, Timestamp: now.Add(-30 * time.Minute)}))
	require.NoError(t, store.RecordPrice(ctx, model.PricePoint{Symbol: "BTC", PriceUSD: 65500, Change24h: 2.9, Timestamp: now.Add(-15 * time.Minute)}))
	require.NoError(t, store.RecordPrice(ctx, model.PricePoint{Symbol: "USDT", PriceUSD: 1, Change24h: 0.01, Timestamp: now.Add(-15 * time.Minute)}))

	srv := httptest.NewServer(NewHandler(NewService(store, testCoins(t)), zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv, store
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	return res
}

func TestListPrices(t *testing.T) {
	srv, _ := seededServer(t)

	var body struct {
		Prices []map[string]any `json:"prices"`
		Total  int              `json:"total_coins"`
	}
	res := getJSON(t, srv.URL+"/api/prices", &body)

	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
	require.Equal(t, 2, body.Total)
	require.Len(t, body.Prices, 2)
	// tracked-table order, ETH never fetched
	require.Equal(t, "USDT", body.Prices[0]["symbol"])
	require.Equal(t, "BTC", body.Prices[1]["symbol"])
	require.Equal(t, 65500.0, body.Prices[1]["price_usd"])
	require.Equal(t, 2.9, body.Prices[1]["24h_change"])
	require.Equal(t, 2.9, body.Prices[1]["price_change_24h"])
	require.NotEmpty(t, body.Prices[1]["last_updated"])
}

func TestGetHistory(t *testing.T) {
	srv, _ := seededServer(t)

	var view HistoryView
	res := getJSON(t, srv.URL+"/api/history/btc", &view)

	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "BTC", view.Symbol)
	require.Equal(t, 2, view.DataPoints)
	require.Equal(t, 65000.5, view.History[0].Price)
	require.Equal(t, 65500.0, view.History[1].Price)
	require.NotNil(t, view.Stats)
	require.Equal(t, 65500.0, view.Stats.High)
	require.Equal(t, 1.0, view.Stats.Position)
}

func TestGetHistory_UnknownSymbol(t *testing.T) {
	srv, _ := seededServer(t)

	var raw map[string]any
	res := getJSON(t, srv.URL+"/api/history/DOGE", &raw)

	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, []any{}, raw["history"])
	require.Equal(t, 0.0, raw["data_points"])
	require.NotContains(t, raw, "stats")
}

func TestHealth(t *testing.T) {
	srv, _ := seededServer(t)

	var h Health
	res := getJSON(t, srv.URL+"/health", &h)

	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, StatusHealthy, h.Status)
	require.Equal(t, 2, h.DatabaseRecords)
	require.Equal(t, 3, h.HistoryRecords)
	require.Equal(t, 3, h.TrackedCoins)
}

func TestStoreFailures(t *testing.T) {
	srv := httptest.NewServer(NewHandler(NewService(brokenStore{}, testCoins(t)), zap.NewNop()))
	defer srv.Close()

	var h Health
	res := getJSON(t, srv.URL+"/health", &h)
	require.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
	require.Equal(t, StatusDegraded, h.Status)

	var e errorResponse
	res = getJSON(t, srv.URL+"/api/prices", &e)
	require.Equal(t, http.StatusInternalServerError, res.StatusCode)
	require.NotEmpty(t, e.Error)

	res = getJSON(t, srv.URL+"/api/history/BTC", &e)
	require.Equal(t, http.StatusInternalServerError, res.StatusCode)

	// untracked symbols never reach the store
	var view HistoryView
	res = getJSON(t, srv.URL+"/api/history/DOGE", &view)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Empty(t, view.History)
}

func TestMetricsAndMethods(t *testing.T) {
	srv, _ := seededServer(t)

	res, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Post(srv.URL+"/api/prices", "application/json", nil)
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/prices", nil)
	require.NoError(t, err)
	res, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusNoContent, res.StatusCode)
}

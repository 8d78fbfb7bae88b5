package collector_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"CryptoTracker/internal/collector"
)

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestCoinGecko_BuildsRequest(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock http client
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: the request carries the ids, currency, change flag and api key.
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, http.MethodGet, req.Method)
			require.True(t, strings.HasPrefix(req.URL.String(), "http://cg.local/api/v3/simple/price?"), req.URL.String())
			q := req.URL.Query()
			require.Equal(t, "bitcoin,ethereum", q.Get("ids"))
			require.Equal(t, "usd", q.Get("vs_currencies"))
			require.Equal(t, "true", q.Get("include_24hr_change"))
			require.Equal(t, "demo-key", req.Header.Get("x-cg-demo-api-key"))
			return jsonResponse(http.StatusOK, `{}`), nil
		}).
		Times(1)

	src, err := collector.NewCoinGeckoSource(
		collector.WithHTTPClient(httpClient),
		collector.WithBaseURL("http://cg.local/api/v3/"),
		collector.WithAPIKey("demo-key"),
	)
	require.NoError(t, err)

	// Act
	_, err = src.FetchPrices(t.Context(), []string{"bitcoin", "ethereum"})
	require.NoError(t, err)
}

func TestCoinGecko_DecodesQuotes(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(jsonResponse(http.StatusOK, `{
			"bitcoin": {"usd": 65000.5, "usd_24h_change": 2.3},
			"tether": {"usd": 1.0, "usd_24h_change": null},
			"pepe": {}
		}`), nil)

	src, err := collector.NewCoinGeckoSource(collector.WithHTTPClient(httpClient))
	require.NoError(t, err)

	quotes, err := src.FetchPrices(t.Context(), []string{"bitcoin", "tether", "pepe", "solana"})
	require.NoError(t, err)

	require.Equal(t, 65000.5, quotes["bitcoin"].PriceUSD)
	require.Equal(t, 2.3, quotes["bitcoin"].Change24h)
	require.Equal(t, 1.0, quotes["tether"].PriceUSD)
	require.Zero(t, quotes["tether"].Change24h)
	require.Contains(t, quotes, "pepe")
	require.Zero(t, quotes["pepe"].PriceUSD)
	require.NotContains(t, quotes, "solana")
}

func TestCoinGecko_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		res     *http.Response
		doErr   error
		wantMsg string
	}{
		{name: "rate limited", res: jsonResponse(http.StatusTooManyRequests, `{"status":{"error_code":429}}`), wantMsg: "status 429"},
		{name: "server error", res: jsonResponse(http.StatusBadGateway, strings.Repeat("x", 2048)), wantMsg: "status 502"},
		{name: "null payload", res: jsonResponse(http.StatusOK, `null`), wantMsg: "empty payload"},
		{name: "malformed", res: jsonResponse(http.StatusOK, `{"bitcoin":`), wantMsg: "decoding"},
		{name: "transport", doErr: errors.New("connection refused"), wantMsg: "performing request"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			httpClient := NewMockHTTPClient(ctrl)
			httpClient.EXPECT().Do(gomock.Any()).Return(tc.res, tc.doErr)

			src, err := collector.NewCoinGeckoSource(collector.WithHTTPClient(httpClient))
			require.NoError(t, err)

			_, err = src.FetchPrices(t.Context(), []string{"bitcoin"})
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantMsg)
			require.Less(t, len(err.Error()), 1024, "error body must be truncated")
		})
	}
}

func TestCoinGecko_TooManyIDs(t *testing.T) {
	t.Parallel()

	// no request may be sent
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	src, err := collector.NewCoinGeckoSource(collector.WithHTTPClient(httpClient))
	require.NoError(t, err)

	ids := make([]string, collector.MaxIDsPerRequest+1)
	for i := range ids {
		ids[i] = "coin"
	}
	_, err = src.FetchPrices(t.Context(), ids)
	require.ErrorIs(t, err, collector.ErrTooManyIDs)
}

func TestCoinGecko_HTTPServer(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/simple/price", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ethereum":{"usd":3100.25,"usd_24h_change":-1.2}}`)
	}))
	defer srv.Close()

	src, err := collector.NewCoinGeckoSource(collector.WithBaseURL(srv.URL))
	require.NoError(t, err)

	quotes, err := src.FetchPrices(context.Background(), []string{"ethereum"})
	require.NoError(t, err)
	require.Equal(t, 3100.25, quotes["ethereum"].PriceUSD)
	require.Equal(t, -1.2, quotes["ethereum"].Change24h)
}

func TestCoinGecko_BadProxy(t *testing.T) {
	t.Parallel()

	_, err := collector.NewCoinGeckoSource(collector.WithProxy("://bad"))
	require.Error(t, err)
}

func TestCoinGecko_ClientTimeoutFollowsOption(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(300 * time.Millisecond):
		case <-r.Context().Done():
			return
		}
		_, _ = io.WriteString(w, `{"bitcoin":{"usd":1}}`)
	}))
	defer srv.Close()

	short, err := collector.NewCoinGeckoSource(collector.WithBaseURL(srv.URL), collector.WithTimeout(50*time.Millisecond))
	require.NoError(t, err)
	_, err = short.FetchPrices(context.Background(), []string{"bitcoin"})
	require.Error(t, err)

	// a longer configured timeout outlasts the slow response
	long, err := collector.NewCoinGeckoSource(collector.WithBaseURL(srv.URL), collector.WithTimeout(5*time.Second))
	require.NoError(t, err)
	quotes, err := long.FetchPrices(context.Background(), []string{"bitcoin"})
	require.NoError(t, err)
	require.Equal(t, 1.0, quotes["bitcoin"].PriceUSD)
}

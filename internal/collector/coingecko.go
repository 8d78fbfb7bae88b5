package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"CryptoTracker/internal/model"
)

const (
	defaultBaseURL = "https://api.coingecko.com/api/v3"

	// MaxIDsPerRequest is the most identifiers one simple/price call accepts.
	MaxIDsPerRequest = 250

	maxErrorBody = 512
)

// ErrTooManyIDs is returned when a batch exceeds MaxIDsPerRequest.
var ErrTooManyIDs = errors.New("too many ids in one request")

// CoinGeckoSource implements PriceSource using the CoinGecko simple/price endpoint.
type CoinGeckoSource struct {
	baseURL    string
	httpClient HTTPClient
	header     http.Header
	currency   string
	proxyURL   string
	timeout    time.Duration
}

// CoinGeckoOption is a configuration option for CoinGeckoSource.
type CoinGeckoOption func(*CoinGeckoSource)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) CoinGeckoOption {
	return func(s *CoinGeckoSource) {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client. It takes precedence over WithProxy.
func WithHTTPClient(httpClient HTTPClient) CoinGeckoOption {
	return func(s *CoinGeckoSource) {
		s.httpClient = httpClient
	}
}

// WithAPIKey sends a demo API key with every request.
func WithAPIKey(key string) CoinGeckoOption {
	return func(s *CoinGeckoSource) {
		if key != "" {
			s.header.Set("x-cg-demo-api-key", key)
		}
	}
}

// WithCurrency sets the quote currency. Defaults to usd.
func WithCurrency(currency string) CoinGeckoOption {
	return func(s *CoinGeckoSource) {
		if currency != "" {
			s.currency = strings.ToLower(currency)
		}
	}
}

// WithProxy routes requests through an HTTP proxy.
func WithProxy(proxyURL string) CoinGeckoOption {
	return func(s *CoinGeckoSource) {
		s.proxyURL = proxyURL
	}
}

// WithTimeout sets the HTTP client timeout. Defaults to DefaultTimeout.
func WithTimeout(timeout time.Duration) CoinGeckoOption {
	return func(s *CoinGeckoSource) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// NewCoinGeckoSource creates a CoinGecko price source.
func NewCoinGeckoSource(options ...CoinGeckoOption) (*CoinGeckoSource, error) {
	s := &CoinGeckoSource{
		baseURL:  defaultBaseURL,
		header:   http.Header{},
		currency: "usd",
		timeout:  DefaultTimeout,
	}
	s.header.Set("Accept", "application/json")
	for _, option := range options {
		option(s)
	}

	if s.httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if s.proxyURL != "" {
			u, err := url.Parse(s.proxyURL)
			if err != nil {
				return nil, fmt.Errorf("parse proxy url: %w", err)
			}
			transport.Proxy = http.ProxyURL(u)
		}
		s.httpClient = &http.Client{Timeout: s.timeout, Transport: transport}
	}
	return s, nil
}

// Name identifies the source in logs.
func (s *CoinGeckoSource) Name() string { return "coingecko" }

// FetchPrices issues one simple/price request for all ids.
func (s *CoinGeckoSource) FetchPrices(ctx context.Context, ids []string) (map[string]model.Quote, error) {
	if len(ids) == 0 {
		return map[string]model.Quote{}, nil
	}
	if len(ids) > MaxIDsPerRequest {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyIDs, len(ids), MaxIDsPerRequest)
	}

	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))
	query.Set("vs_currencies", s.currency)
	query.Set("include_24hr_change", "true")

	reqURL := fmt.Sprintf("%s/simple/price?%s", s.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = s.header.Clone()

	res, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return nil, fmt.Errorf("coingecko status %d: %s", res.StatusCode, strings.TrimSpace(string(b)))
	}

	// {"bitcoin": {"usd": 65000.5, "usd_24h_change": 2.3}}; null decodes as 0.
	var body map[string]map[string]float64
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding price response: %w", err)
	}
	if body == nil {
		return nil, errors.New("decoding price response: empty payload")
	}

	changeKey := s.currency + "_24h_change"
	quotes := make(map[string]model.Quote, len(body))
	for id, fields := range body {
		quotes[id] = model.Quote{
			PriceUSD:  fields[s.currency],
			Change24h: fields[changeKey],
		}
	}
	return quotes, nil
}

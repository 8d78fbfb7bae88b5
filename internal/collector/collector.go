package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"CryptoTracker/internal/metrics"
	"CryptoTracker/internal/model"
)

// DefaultTimeout bounds one provider call.
const DefaultTimeout = 10 * time.Second

// Store is the write side of the price store.
type Store interface {
	RecordPrice(ctx context.Context, p model.PricePoint) error
}

// Collector fetches quotes for every tracked coin and writes them to the store.
type Collector struct {
	Source  PriceSource
	Coins   *model.CoinTable
	Store   Store
	Timeout time.Duration
	log     *zap.Logger
	now     func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(source PriceSource, coins *model.CoinTable, store Store, log *zap.Logger) *Collector {
	return &Collector{
		Source:  source,
		Coins:   coins,
		Store:   store,
		Timeout: DefaultTimeout,
		log:     log,
		now:     time.Now,
	}
}

// FetchAll runs one cycle: one provider request for all tracked coins, then
// one store write per quoted coin. It never retries; the next cycle does.
func (c *Collector) FetchAll(ctx context.Context) (res model.CycleResult) {
	started := c.now().UTC()
	res = model.CycleResult{ID: uuid.NewString(), StartedAt: started}
	log := c.log.With(zap.String("cycle_id", res.ID), zap.String("source", c.Source.Name()))
	defer func() { res.Duration = time.Since(started) }()

	quotes, err := c.fetch(ctx)
	if err != nil {
		res.Err = err
		log.Error("price fetch failed", zap.Error(err))
		return res
	}

	for _, coin := range c.Coins.Coins() {
		q, ok := quotes[coin.ProviderID]
		if !ok {
			res.Skipped++
			metrics.SymbolsMissingTotal.Inc()
			log.Warn("symbol missing from response", zap.String("symbol", coin.Symbol), zap.String("id", coin.ProviderID))
			continue
		}

		p := model.PricePoint{
			Symbol:    coin.Symbol,
			PriceUSD:  q.PriceUSD,
			Change24h: q.Change24h,
			Timestamp: started,
		}
		if err := c.Store.RecordPrice(ctx, p); err != nil {
			res.Failed++
			metrics.StoreWriteErrorsTotal.Inc()
			log.Error("store write failed", zap.String("symbol", coin.Symbol), zap.Error(err))
			if res.Err == nil {
				res.Err = fmt.Errorf("record %s: %w", coin.Symbol, err)
			}
			continue
		}
		res.Stored++
	}
	metrics.PricesStoredTotal.Add(float64(res.Stored))

	res.OK = res.Failed == 0
	log.Info("price cycle finished",
		zap.Int("stored", res.Stored),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
	)
	return res
}

func (c *Collector) fetch(ctx context.Context) (map[string]model.Quote, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	quotes, err := c.Source.FetchPrices(ctx, c.Coins.ProviderIDs())
	metrics.ProviderRequestDurationSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("fetch from %s: %w", c.Source.Name(), err)
	}
	return quotes, nil
}

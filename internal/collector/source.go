package collector

import (
	"context"

	"CryptoTracker/internal/model"
)

// PriceSource fetches current quotes for a batch of provider identifiers.
// Identifiers absent from the returned map were not quoted by the provider.
type PriceSource interface {
	FetchPrices(ctx context.Context, ids []string) (map[string]model.Quote, error)
	Name() string
}

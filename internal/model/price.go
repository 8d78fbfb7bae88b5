package model

import "time"

// Quote is one provider observation before it is bound to a symbol and time.
type Quote struct {
	PriceUSD  float64
	Change24h float64 // percent
}

// PricePoint is one fetched observation for a symbol.
type PricePoint struct {
	Symbol    string
	PriceUSD  float64
	Change24h float64
	Timestamp time.Time
}

// Snapshot is the latest known price of a symbol.
type Snapshot struct {
	Symbol      string    `json:"symbol"`
	PriceUSD    float64   `json:"price_usd"`
	Change24h   float64   `json:"price_change_24h"`
	LastUpdated time.Time `json:"last_updated"`
}

// HistoryPoint is one entry of a symbol's price history.
type HistoryPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

// DefaultHistoryWindow is the trailing window served for charts.
const DefaultHistoryWindow = 24 * time.Hour

// DefaultMaxPoints is the per-symbol history bound: 24h of 15-minute samples.
const DefaultMaxPoints = 96

package gormstore

// PriceHistory is one retained price sample. Times are unix milliseconds.
type PriceHistory struct {
	ID         uint    `gorm:"primaryKey;column:id"`
	Symbol     string  `gorm:"column:symbol;not null;index:idx_price_history_symbol_time,priority:1"`
	PriceUSD   float64 `gorm:"column:price_usd;not null"`
	Change24h  float64 `gorm:"column:price_change_24h;not null;default:0"`
	RecordedAt int64   `gorm:"column:recorded_at;not null;index:idx_price_history_symbol_time,priority:2"`
}

func (PriceHistory) TableName() string { return "price_history" }

// CurrentPrice is the latest snapshot of one symbol.
type CurrentPrice struct {
	Symbol      string  `gorm:"primaryKey;column:symbol"`
	PriceUSD    float64 `gorm:"column:price_usd;not null"`
	Change24h   float64 `gorm:"column:price_change_24h;not null;default:0"`
	LastUpdated int64   `gorm:"column:last_updated;not null"`
}

func (CurrentPrice) TableName() string { return "current_prices" }

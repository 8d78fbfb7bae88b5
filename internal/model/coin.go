package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCoinTable is returned when a coin table fails validation.
var ErrInvalidCoinTable = errors.New("invalid coin table")

// TrackedCoin maps an internal ticker symbol to the price provider's identifier.
type TrackedCoin struct {
	Symbol     string `yaml:"symbol" json:"symbol"`
	ProviderID string `yaml:"id" json:"id"`
}

// CoinTable is the fixed set of tracked coins. It is built once at startup
// and never mutated afterwards, so it is safe to share between goroutines.
type CoinTable struct {
	coins    []TrackedCoin
	bySymbol map[string]TrackedCoin
	byID     map[string]string
}

// NewCoinTable validates the coins and returns an immutable table.
// Symbols are upper-cased; symbols and provider identifiers must both be unique.
func NewCoinTable(coins []TrackedCoin) (*CoinTable, error) {
	if len(coins) == 0 {
		return nil, fmt.Errorf("%w: no coins", ErrInvalidCoinTable)
	}
	t := &CoinTable{
		coins:    make([]TrackedCoin, 0, len(coins)),
		bySymbol: make(map[string]TrackedCoin, len(coins)),
		byID:     make(map[string]string, len(coins)),
	}
	for i, c := range coins {
		sym := strings.ToUpper(strings.TrimSpace(c.Symbol))
		id := strings.TrimSpace(c.ProviderID)
		if sym == "" || id == "" {
			return nil, fmt.Errorf("%w: entry %d has empty symbol or id", ErrInvalidCoinTable, i)
		}
		if _, dup := t.bySymbol[sym]; dup {
			return nil, fmt.Errorf("%w: duplicate symbol %q", ErrInvalidCoinTable, sym)
		}
		if other, dup := t.byID[id]; dup {
			return nil, fmt.Errorf("%w: provider id %q used by %s and %s", ErrInvalidCoinTable, id, other, sym)
		}
		tc := TrackedCoin{Symbol: sym, ProviderID: id}
		t.coins = append(t.coins, tc)
		t.bySymbol[sym] = tc
		t.byID[id] = sym
	}
	return t, nil
}

// Coins returns a copy of the table in definition order.
func (t *CoinTable) Coins() []TrackedCoin {
	out := make([]TrackedCoin, len(t.coins))
	copy(out, t.coins)
	return out
}

// Len returns the number of tracked coins.
func (t *CoinTable) Len() int { return len(t.coins) }

// ProviderIDs returns the provider identifiers in definition order.
func (t *CoinTable) ProviderIDs() []string {
	ids := make([]string, len(t.coins))
	for i, c := range t.coins {
		ids[i] = c.ProviderID
	}
	return ids
}

// Has reports whether the symbol is tracked. The lookup is case-insensitive.
func (t *CoinTable) Has(symbol string) bool {
	_, ok := t.bySymbol[strings.ToUpper(symbol)]
	return ok
}

// DefaultCoins is the built-in watch list used when the config defines none.
var DefaultCoins = []TrackedCoin{
	{"USDT", "tether"},
	{"BTC", "bitcoin"},
	{"ETH", "ethereum"},
	{"USDC", "usd-coin"},
	{"SOL", "solana"},
	{"XRP", "ripple"},
	{"BNB", "binancecoin"},
	{"DOGE", "dogecoin"},
	{"ADA", "cardano"},
	{"SUI", "sui"},
	{"LINK", "chainlink"},
	{"ICP", "internet-computer"},
	{"TRX", "tron"},
	{"LTC", "litecoin"},
	{"AVAX", "avalanche-2"},
	{"AAVE", "aave"},
	{"PEPE", "pepe"},
	{"APT", "aptos"},
	{"DOT", "polkadot"},
	{"NEAR", "near"},
	{"HBAR", "hedera-hashgraph"},
	{"BCH", "bitcoin-cash"},
	{"1INCH", "1inch"},
	{"ARB", "arbitrum"},
	{"SHIB", "shiba-inu"},
	{"FIL", "filecoin"},
	{"BONK", "bonk"},
	{"TON", "toncoin"},
	{"CRV", "curve-dao-token"},
	{"SEI", "sei"},
	{"OP", "optimism"},
	{"INJ", "injective-protocol"},
	{"FET", "fetch-ai"},
	{"ETC", "ethereum-classic"},
	{"ATOM", "cosmos"},
	{"ALGO", "algorand"},
	{"RENDER", "render-token"},
	{"LDO", "lido-dao"},
	{"FLOKI", "floki"},
	{"JASMY", "jasmy"},
	{"CHZ", "chiliz"},
	{"FIDA", "bonfida"},
	{"STX", "stacks"},
	{"MAGIC", "magic"},
	{"EOS", "eos"},
}

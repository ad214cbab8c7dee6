package domain

import "strings"

// PricePoint is the closing USD price of a coin on one calendar day.
type PricePoint struct {
	Symbol   string  `json:"symbol"`
	Date     string  `json:"date"`
	PriceUSD float64 `json:"price_usd"`
}

// CoinGeckoID maps internal symbols to CoinGecko API identifiers.
var CoinGeckoID = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"DOGE":  "dogecoin",
	"DOT":   "polkadot",
	"AVAX":  "avalanche-2",
	"LINK":  "chainlink",
	"MATIC": "matic-network",
	"LTC":   "litecoin",
}

// CoinGeckoIDToSymbol is the reverse mapping.
var CoinGeckoIDToSymbol map[string]string

func init() {
	CoinGeckoIDToSymbol = make(map[string]string, len(CoinGeckoID))
	for sym, id := range CoinGeckoID {
		CoinGeckoIDToSymbol[id] = sym
	}
}

// SupportedSymbols lists all tracked crypto symbols, in selector order.
var SupportedSymbols = []string{
	"BTC", "ETH", "LTC", "SOL", "XRP", "ADA",
	"DOGE", "DOT", "AVAX", "LINK", "MATIC",
}

// IsSupportedSymbol reports whether symbol (any case) is tracked.
func IsSupportedSymbol(symbol string) bool {
	_, ok := CoinGeckoID[strings.ToUpper(symbol)]
	return ok
}

// CoinMetricsAsset returns the Coin Metrics asset id for a symbol.
func CoinMetricsAsset(symbol string) string {
	return strings.ToLower(symbol)
}

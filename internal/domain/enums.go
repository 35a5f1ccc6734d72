package domain

import "strings"

// TradeType is a closed set of trade directions as reported by the trading client.
type TradeType string

const (
	TradeTypeBuy  TradeType = "buy"
	TradeTypeSell TradeType = "sell"
)

func (t TradeType) String() string { return string(t) }
func (t TradeType) Valid() bool {
	return t == TradeTypeBuy || t == TradeTypeSell
}

func ParseTradeType(s string) (TradeType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return TradeTypeBuy, true
	case "sell":
		return TradeTypeSell, true
	default:
		return "", false
	}
}

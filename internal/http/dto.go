package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uvtradelab/forex-dashboard/internal/models"
	"github.com/uvtradelab/forex-dashboard/internal/trades"
)

// uploadTrade is the wire form of a trade as the trading client sends it.
// Timestamps arrive as strings in either the client's "2006-01-02 15:04:05"
// format or RFC 3339.
type uploadTrade struct {
	TradeID    string   `json:"trade_id"`
	Symbol     string   `json:"symbol"`
	TradeType  string   `json:"trade_type"`
	Lots       float64  `json:"lots"`
	OpenPrice  *float64 `json:"open_price"`
	ClosePrice *float64 `json:"close_price"`
	Profit     float64  `json:"profit"`
	Timestamp  string   `json:"timestamp"`
	CloseTime  string   `json:"close_time"`
}

// decodeUploadBody accepts either a single trade object or an array of them.
func decodeUploadBody(body []byte) ([]uploadTrade, error) {
	var list []uploadTrade
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}
	var one uploadTrade
	if err := json.Unmarshal(body, &one); err != nil {
		return nil, errors.New("body must be a trade object or an array of trade objects")
	}
	return []uploadTrade{one}, nil
}

func (u uploadTrade) toModel() (models.Trade, error) {
	ts, err := parseTimestamp(u.Timestamp)
	if err != nil {
		return models.Trade{}, fmt.Errorf("invalid timestamp: %w", err)
	}

	var closeTime *time.Time
	if u.CloseTime != "" {
		ct, err := parseTimestamp(u.CloseTime)
		if err != nil {
			return models.Trade{}, fmt.Errorf("invalid close_time: %w", err)
		}
		closeTime = &ct
	}

	t := models.Trade{
		TradeID:    strings.TrimSpace(u.TradeID),
		Symbol:     u.Symbol,
		TradeType:  u.TradeType,
		Lots:       u.Lots,
		OpenPrice:  u.OpenPrice,
		ClosePrice: u.ClosePrice,
		Profit:     u.Profit,
		Timestamp:  ts,
		CloseTime:  closeTime,
	}
	if err := trades.Normalize(&t); err != nil {
		return models.Trade{}, err
	}
	return t, nil
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999",
	time.RFC3339,
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("timestamp is required")
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

package models

import "time"

type Trade struct {
	TradeID    string     `json:"trade_id"`
	Symbol     string     `json:"symbol"`
	TradeType  string     `json:"trade_type"`
	Lots       float64    `json:"lots"`
	OpenPrice  *float64   `json:"open_price,omitempty"`
	ClosePrice *float64   `json:"close_price,omitempty"`
	Profit     float64    `json:"profit"`
	Timestamp  time.Time  `json:"timestamp"`
	CloseTime  *time.Time `json:"close_time,omitempty"`
}

type Stats struct {
	TotalTrades   int     `json:"total_trades"`
	TotalProfit   float64 `json:"total_profit"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	AvgProfit     float64 `json:"avg_profit"`
	LastTradeTime string  `json:"last_trade_time"`
}

type EquityPoint struct {
	Date   time.Time `json:"date"`
	Equity float64   `json:"equity"`
}

package cache

import "fmt"

// Keys identify dashboard queries. Parameters are part of the key so that
// different limits or filters never collide.

func StatsKey() string { return "stats" }

func TradesKey(limit int, symbol string) string {
	if symbol == "" {
		symbol = "all"
	}
	return fmt.Sprintf("trades:%s:%d", symbol, limit)
}

func EquityKey(limit int) string {
	return fmt.Sprintf("equity:%d", limit)
}

package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "stats", StatsKey())
	assert.Equal(t, "trades:all:50", TradesKey(50, ""))
	assert.Equal(t, "trades:EURUSD:100", TradesKey(100, "EURUSD"))
	assert.Equal(t, "equity:100", EquityKey(100))
}

func TestTradesKeyDistinguishesQueries(t *testing.T) {
	keys := map[string]bool{
		TradesKey(50, ""):        true,
		TradesKey(100, ""):       true,
		TradesKey(50, "EURUSD"):  true,
		TradesKey(100, "EURUSD"): true,
	}
	assert.Len(t, keys, 4)
}

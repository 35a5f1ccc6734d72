package trades

import (
	"fmt"
	"strings"
	"time"

	"github.com/uvtradelab/forex-dashboard/internal/models"
)

// MakeTradeID derives a deterministic ID from symbol and open time so that
// re-uploading the same trade is a no-op at the storage layer.
func MakeTradeID(symbol string, ts time.Time) string {
	return fmt.Sprintf("%s_%s", strings.ToUpper(strings.TrimSpace(symbol)), ts.UTC().Format("2006-01-02_15-04-05"))
}

// FillTradeID sets a derived ID on trades that arrived without one.
// Client-provided IDs are kept as-is.
func FillTradeID(t *models.Trade) {
	if t.TradeID == "" {
		t.TradeID = MakeTradeID(t.Symbol, t.Timestamp)
	}
}

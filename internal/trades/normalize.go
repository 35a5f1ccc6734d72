package trades

import (
	"errors"
	"fmt"
	"strings"

	"github.com/uvtradelab/forex-dashboard/internal/domain"
	"github.com/uvtradelab/forex-dashboard/internal/models"
)

// Normalize canonicalizes a trade before storage: symbol uppercased and
// required, trade type folded through the domain parser so the stored value
// always matches the schema's CHECK constraint. Both ingestion paths (HTTP
// upload and Kafka) go through here.
func Normalize(t *models.Trade) error {
	t.Symbol = strings.ToUpper(strings.TrimSpace(t.Symbol))
	if t.Symbol == "" {
		return errors.New("symbol is required")
	}

	tt, ok := domain.ParseTradeType(t.TradeType)
	if !ok {
		return fmt.Errorf("invalid trade_type %q (use 'buy' or 'sell')", t.TradeType)
	}
	t.TradeType = tt.String()

	return nil
}

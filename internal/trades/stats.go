package trades

import (
	"math"
	"sort"

	"github.com/uvtradelab/forex-dashboard/internal/models"
)

const noTradesYet = "No trades yet"

// ComputeStats folds a newest-first trade list into dashboard aggregates.
// A trade counts as winning when its profit is strictly positive.
func ComputeStats(list []models.Trade) models.Stats {
	if len(list) == 0 {
		return models.Stats{LastTradeTime: noTradesYet}
	}

	total := len(list)
	var totalProfit float64
	winning := 0
	for _, t := range list {
		totalProfit += t.Profit
		if t.Profit > 0 {
			winning++
		}
	}

	return models.Stats{
		TotalTrades:   total,
		TotalProfit:   round2(totalProfit),
		WinningTrades: winning,
		LosingTrades:  total - winning,
		WinRate:       round2(float64(winning) / float64(total) * 100),
		AvgProfit:     round2(totalProfit / float64(total)),
		LastTradeTime: list[0].Timestamp.UTC().Format("2006-01-02 15:04:05"),
	}
}

// BuildEquityCurve turns a trade list into cumulative-profit points ordered by
// open time ascending. Each point is dated by close time when known.
func BuildEquityCurve(list []models.Trade) []models.EquityPoint {
	sorted := make([]models.Trade, len(list))
	copy(sorted, list)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	points := make([]models.EquityPoint, 0, len(sorted))
	running := 0.0
	for _, t := range sorted {
		running += t.Profit
		date := t.Timestamp
		if t.CloseTime != nil {
			date = *t.CloseTime
		}
		points = append(points, models.EquityPoint{Date: date, Equity: round2(running)})
	}
	return points
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

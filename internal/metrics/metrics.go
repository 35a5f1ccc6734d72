// Package metrics exposes Prometheus counters for trade ingestion.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TradesIngested counts rows actually written, by ingestion source.
	TradesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forex_trades_ingested_total",
		Help: "Trades written to storage, labelled by ingestion source.",
	}, []string{"source"})

	// TradesSkipped counts records rejected as duplicates or invalid.
	TradesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forex_trades_skipped_total",
		Help: "Trade records skipped during ingestion, labelled by reason.",
	}, []string{"reason"})
)

// Handler returns the scrape endpoint handler.
func Handler() http.Handler { return promhttp.Handler() }

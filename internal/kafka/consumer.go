package kafka

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/uvtradelab/forex-dashboard/internal/metrics"
	"github.com/uvtradelab/forex-dashboard/internal/models"
	"github.com/uvtradelab/forex-dashboard/internal/trades"
)

// TradeInserter is the storage surface the consumer needs.
type TradeInserter interface {
	InsertTrades(ctx context.Context, list []models.Trade) (inserted, failed int, err error)
}

// Consumer streams trades from Kafka into storage. It is the second ingestion
// path next to the HTTP upload endpoint and applies the same normalization
// and dedup rules.
type Consumer struct {
	Reader *kafka.Reader
	Svc    TradeInserter
	Logger *zap.Logger
}

func NewConsumer(brokers, topic, groupID string, svc TradeInserter, logger *zap.Logger) *Consumer {
	return &Consumer{
		Reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  strings.Split(brokers, ","),
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1e3,
			MaxBytes: 1e6,
			MaxWait:  500 * time.Millisecond,
		}),
		Svc:    svc,
		Logger: logger,
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.Reader.Close()
	for {
		m, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			return err
		}
		c.handleMessage(ctx, m.Value)
	}
}

// handleMessage decodes, normalizes, and stores one message. Bad messages are
// logged and dropped, never fatal to the consumer loop.
func (c *Consumer) handleMessage(ctx context.Context, value []byte) {
	var t models.Trade
	if err := json.Unmarshal(value, &t); err != nil {
		c.Logger.Warn("bad message", zap.Error(err))
		metrics.TradesSkipped.WithLabelValues("invalid").Inc()
		return
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now().UTC()
	}
	if err := trades.Normalize(&t); err != nil {
		c.Logger.Warn("invalid trade", zap.Error(err))
		metrics.TradesSkipped.WithLabelValues("invalid").Inc()
		return
	}

	inserted, failed, err := c.Svc.InsertTrades(ctx, []models.Trade{t})
	if err != nil {
		c.Logger.Error("insert trade", zap.Error(err))
		return
	}
	switch {
	case failed > 0:
		metrics.TradesSkipped.WithLabelValues("error").Inc()
	case inserted == 0:
		metrics.TradesSkipped.WithLabelValues("duplicate").Inc()
	default:
		metrics.TradesIngested.WithLabelValues("kafka").Inc()
		c.Logger.Debug("trade applied", zap.String("trade_id", t.TradeID))
	}
}

package trades

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/uvtradelab/forex-dashboard/internal/models"
)

const defaultStatsWindow = 1000

// Service persists and queries forex trades in Postgres.
type Service struct {
	DB          *pgxpool.Pool
	Logger      *zap.Logger
	StatsWindow int
}

func New(db *pgxpool.Pool, logger *zap.Logger, statsWindow int) *Service {
	if statsWindow <= 0 {
		statsWindow = defaultStatsWindow
	}
	return &Service{DB: db, Logger: logger, StatsWindow: statsWindow}
}

// EnsureSchema creates the trades table and its indexes if they do not exist.
func (s *Service) EnsureSchema(ctx context.Context) error {
	_, err := s.DB.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS trades (
		  trade_id    text PRIMARY KEY,
		  symbol      text    NOT NULL,
		  trade_type  text    NOT NULL CHECK (trade_type IN ('buy', 'sell')),
		  lots        double precision NOT NULL DEFAULT 0,
		  open_price  double precision,
		  close_price double precision,
		  profit      double precision NOT NULL,
		  ts          timestamptz NOT NULL,
		  close_ts    timestamptz,
		  created_at  timestamptz NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS trades_ts_idx ON trades (ts DESC);
		CREATE INDEX IF NOT EXISTS trades_symbol_ts_idx ON trades (symbol, ts DESC);
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// InsertTrades stores a batch, skipping records whose trade_id already exists.
// A record that fails to insert is logged, counted as failed, and skipped
// rather than aborting the batch. A record that neither inserts nor fails was
// a duplicate.
func (s *Service) InsertTrades(ctx context.Context, list []models.Trade) (inserted, failed int, err error) {
	for _, t := range list {
		FillTradeID(&t)
		tag, execErr := s.DB.Exec(ctx, `
			INSERT INTO trades (trade_id, symbol, trade_type, lots, open_price, close_price, profit, ts, close_ts)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (trade_id) DO NOTHING
		`, t.TradeID, t.Symbol, t.TradeType, t.Lots, t.OpenPrice, t.ClosePrice, t.Profit, t.Timestamp, t.CloseTime)
		if execErr != nil {
			if ctx.Err() != nil {
				return inserted, failed, ctx.Err()
			}
			s.Logger.Warn("insert trade failed",
				zap.String("trade_id", t.TradeID),
				zap.Error(execErr))
			failed++
			continue
		}
		if tag.RowsAffected() > 0 {
			inserted++
		}
	}
	return inserted, failed, nil
}

// ListTrades returns the most recent trades, newest first. An empty symbol
// means no filter.
func (s *Service) ListTrades(ctx context.Context, limit int, symbol string) ([]models.Trade, error) {
	q := `SELECT trade_id, symbol, trade_type, lots, open_price, close_price, profit, ts, close_ts FROM trades`
	var args []any
	if symbol != "" {
		q += ` WHERE symbol = $1`
		args = append(args, symbol)
	}
	q += ` ORDER BY ts DESC LIMIT ` + fmt.Sprint(limit)

	rows, err := s.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	out := make([]models.Trade, 0)
	for rows.Next() {
		var t models.Trade
		if err := rows.Scan(&t.TradeID, &t.Symbol, &t.TradeType, &t.Lots, &t.OpenPrice, &t.ClosePrice, &t.Profit, &t.Timestamp, &t.CloseTime); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Stats aggregates over the most recent StatsWindow trades.
func (s *Service) Stats(ctx context.Context) (models.Stats, error) {
	list, err := s.ListTrades(ctx, s.StatsWindow, "")
	if err != nil {
		return models.Stats{}, err
	}
	return ComputeStats(list), nil
}

// EquityCurve returns cumulative profit points over the most recent trades.
func (s *Service) EquityCurve(ctx context.Context, limit int) ([]models.EquityPoint, error) {
	list, err := s.ListTrades(ctx, limit, "")
	if err != nil {
		return nil, err
	}
	return BuildEquityCurve(list), nil
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.DB.QueryRow(ctx, `SELECT count(*) FROM trades`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count trades: %w", err)
	}
	return n, nil
}

// Sample returns the newest trade, or nil when the table is empty.
func (s *Service) Sample(ctx context.Context) (*models.Trade, error) {
	var t models.Trade
	err := s.DB.QueryRow(ctx, `
		SELECT trade_id, symbol, trade_type, lots, open_price, close_price, profit, ts, close_ts
		FROM trades ORDER BY ts DESC LIMIT 1
	`).Scan(&t.TradeID, &t.Symbol, &t.TradeType, &t.Lots, &t.OpenPrice, &t.ClosePrice, &t.Profit, &t.Timestamp, &t.CloseTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sample trade: %w", err)
	}
	return &t, nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.DB.Ping(ctx)
}

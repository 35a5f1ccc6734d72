package http

import (
	"io"
	"net/http"
	"strconv"
	"time"

	gin "github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/uvtradelab/forex-dashboard/internal/cache"
	"github.com/uvtradelab/forex-dashboard/internal/metrics"
	"github.com/uvtradelab/forex-dashboard/internal/models"
)

type uploadResponse struct {
	Success       bool   `json:"success"`
	UploadedCount int    `json:"uploaded_count"`
	Message       string `json:"message"`
}

// --- Helpers ---

func (s *Server) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, apiError{Code: "bad_request", Message: msg})
}

func (s *Server) internalError(c *gin.Context, where string, err error) {
	s.Logger.Error("internal_error", zap.String("where", where), zap.Error(err))
	c.JSON(http.StatusInternalServerError, apiError{Code: "internal_server_error", Message: "internal server error"})
}

func parseLimit(v string, def, min, max int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min || n > max {
		return def
	}
	return n
}

func (s *Server) cacheGet(key string) (any, bool) {
	if s.Cache == nil {
		return nil, false
	}
	return s.Cache.Get(key)
}

func (s *Server) cacheSet(key string, val any) {
	if s.Cache != nil {
		s.Cache.Set(key, val)
	}
}

// --- Handlers ---

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"message":   "Forex Dashboard is running",
	})
}

func (s *Server) getStats(c *gin.Context) {
	key := cache.StatsKey()
	if v, ok := s.cacheGet(key); ok {
		if stats, ok := v.(models.Stats); ok {
			c.JSON(http.StatusOK, stats)
			return
		}
	}

	stats, err := s.Store.Stats(c.Request.Context())
	if err != nil {
		s.internalError(c, "Stats", err)
		return
	}

	s.cacheSet(key, stats)
	c.JSON(http.StatusOK, stats)
}

func (s *Server) getTrades(c *gin.Context) {
	limit := parseLimit(c.Query("limit"), 50, 1, 1000)
	symbol := c.Query("symbol")

	key := cache.TradesKey(limit, symbol)
	if v, ok := s.cacheGet(key); ok {
		if rows, ok := v.([]models.Trade); ok && rows != nil {
			c.JSON(http.StatusOK, rows)
			return
		}
	}

	rows, err := s.Store.ListTrades(c.Request.Context(), limit, symbol)
	if err != nil {
		s.internalError(c, "ListTrades", err)
		return
	}
	if rows == nil {
		rows = []models.Trade{}
	}

	s.cacheSet(key, rows)
	c.JSON(http.StatusOK, rows)
}

func (s *Server) getEquityCurve(c *gin.Context) {
	limit := parseLimit(c.Query("limit"), 100, 1, 1000)

	key := cache.EquityKey(limit)
	if v, ok := s.cacheGet(key); ok {
		if points, ok := v.([]models.EquityPoint); ok && points != nil {
			c.JSON(http.StatusOK, points)
			return
		}
	}

	points, err := s.Store.EquityCurve(c.Request.Context(), limit)
	if err != nil {
		s.internalError(c, "EquityCurve", err)
		return
	}
	if points == nil {
		points = []models.EquityPoint{}
	}

	s.cacheSet(key, points)
	c.JSON(http.StatusOK, points)
}

func (s *Server) uploadTrades(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.badRequest(c, "cannot read request body")
		return
	}

	incoming, err := decodeUploadBody(body)
	if err != nil {
		s.badRequest(c, err.Error())
		return
	}

	// Invalid records are skipped, the rest of the batch still goes through.
	valid := make([]models.Trade, 0, len(incoming))
	for _, u := range incoming {
		t, err := u.toModel()
		if err != nil {
			s.Logger.Warn("skipping invalid trade", zap.Error(err))
			metrics.TradesSkipped.WithLabelValues("invalid").Inc()
			continue
		}
		valid = append(valid, t)
	}

	inserted, failed, err := s.Store.InsertTrades(c.Request.Context(), valid)
	if err != nil {
		s.internalError(c, "InsertTrades", err)
		return
	}

	metrics.TradesIngested.WithLabelValues("http").Add(float64(inserted))
	if failed > 0 {
		metrics.TradesSkipped.WithLabelValues("error").Add(float64(failed))
	}
	if dup := len(valid) - inserted - failed; dup > 0 {
		metrics.TradesSkipped.WithLabelValues("duplicate").Add(float64(dup))
	}
	if inserted > 0 && s.Cache != nil {
		s.Cache.Clear()
	}

	c.JSON(http.StatusOK, uploadResponse{
		Success:       true,
		UploadedCount: inserted,
		Message:       "Successfully uploaded " + strconv.Itoa(inserted) + " trades",
	})
}

func (s *Server) testConnection(c *gin.Context) {
	ctx := c.Request.Context()

	if err := s.Store.Ping(ctx); err != nil {
		s.Logger.Error("database ping failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"database_connected": false,
			"message":            "database connection failed",
		})
		return
	}

	count, err := s.Store.Count(ctx)
	if err != nil {
		s.internalError(c, "Count", err)
		return
	}
	sample, err := s.Store.Sample(ctx)
	if err != nil {
		s.internalError(c, "Sample", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"database_connected": true,
		"trade_count":        count,
		"sample_trade":       sample,
		"server_time":        time.Now().UTC().Format(time.RFC3339),
		"message":            "database connection successful",
	})
}

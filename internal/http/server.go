package http

import (
	"context"
	_ "embed"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uvtradelab/forex-dashboard/internal/cache"
	"github.com/uvtradelab/forex-dashboard/internal/metrics"
	"github.com/uvtradelab/forex-dashboard/internal/models"
)

//go:embed assets/dashboard.html
var dashboardHTML []byte

// TradeStore is the storage surface the handlers need.
type TradeStore interface {
	InsertTrades(ctx context.Context, list []models.Trade) (inserted, failed int, err error)
	ListTrades(ctx context.Context, limit int, symbol string) ([]models.Trade, error)
	Stats(ctx context.Context) (models.Stats, error)
	EquityCurve(ctx context.Context, limit int) ([]models.EquityPoint, error)
	Count(ctx context.Context) (int64, error)
	Sample(ctx context.Context) (*models.Trade, error)
	Ping(ctx context.Context) error
}

type Server struct {
	R      *gin.Engine
	Store  TradeStore
	Cache  *cache.Cache
	Logger *zap.Logger
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewServer wires the router, store, cache, and middleware.
func NewServer(store TradeStore, respCache *cache.Cache, logger *zap.Logger, corsOrigin string) *Server {
	g := gin.New()

	// Request ID
	g.Use(func(cn *gin.Context) {
		id := cn.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		cn.Header("X-Request-ID", id)
		cn.Set("request_id", id)
		cn.Next()
	})

	// Request logging
	g.Use(func(cn *gin.Context) {
		start := time.Now()
		cn.Next()
		logger.Info("http_request",
			zap.String("method", cn.Request.Method),
			zap.String("path", cn.Request.URL.Path),
			zap.Int("status", cn.Writer.Status()),
			zap.String("ip", cn.ClientIP()),
			zap.String("request_id", cn.GetString("request_id")),
			zap.Duration("latency", time.Since(start)),
		)
	})

	g.Use(gin.Recovery())

	// CORS
	g.Use(func(cn *gin.Context) {
		origin := cn.GetHeader("Origin")
		cn.Writer.Header().Set("Vary", "Origin")
		cn.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		cn.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		cn.Writer.Header().Set("Access-Control-Max-Age", "86400")
		if corsOrigin == "*" {
			cn.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else if origin != "" && origin == corsOrigin {
			cn.Writer.Header().Set("Access-Control-Allow-Origin", corsOrigin)
		}
		if cn.Request.Method == http.MethodOptions {
			cn.AbortWithStatus(http.StatusNoContent)
			return
		}
		cn.Next()
	})

	s := &Server{
		R:      g,
		Store:  store,
		Cache:  respCache,
		Logger: logger,
	}

	g.GET("/", func(cn *gin.Context) {
		cn.Data(http.StatusOK, "text/html; charset=utf-8", dashboardHTML)
	})
	g.GET("/health", s.health)
	g.GET("/api/stats", s.getStats)
	g.GET("/api/trades", s.getTrades)
	g.GET("/api/equity-curve", s.getEquityCurve)
	g.POST("/api/upload-trades", s.uploadTrades)
	g.GET("/api/test", s.testConnection)
	g.GET("/metrics", gin.WrapH(metrics.Handler()))

	return s
}

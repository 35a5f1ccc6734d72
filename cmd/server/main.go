package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/uvtradelab/forex-dashboard/internal/cache"
	"github.com/uvtradelab/forex-dashboard/internal/config"
	"github.com/uvtradelab/forex-dashboard/internal/db"
	httpserver "github.com/uvtradelab/forex-dashboard/internal/http"
	kafkaconsumer "github.com/uvtradelab/forex-dashboard/internal/kafka"
	"github.com/uvtradelab/forex-dashboard/internal/trades"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbpool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db", zap.Error(err))
	}
	defer dbpool.Close()

	svc := trades.New(dbpool, logger, cfg.StatsWindow)
	if err := svc.EnsureSchema(ctx); err != nil {
		logger.Fatal("schema", zap.Error(err))
	}

	respCache, err := cache.New(1<<26 /* ~64MB */, cfg.CacheTTL)
	if err != nil {
		logger.Fatal("cache", zap.Error(err))
	}

	if cfg.KafkaEnabled() {
		cons := kafkaconsumer.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, svc, logger)
		go func() {
			if err := cons.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("consumer", zap.Error(err))
				cancel()
			}
		}()
	}

	s := httpserver.NewServer(svc, respCache, logger, cfg.CORSOrigin)

	server := &http.Server{Addr: ":" + cfg.Port, Handler: s.R}
	go func() {
		logger.Info("http listening", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http", zap.Error(err))
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	ctxShut, cancelShut := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShut()
	_ = server.Shutdown(ctxShut)
	logger.Info("shutdown complete")
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Simplici0/shopfloor/internal/config"
	"github.com/Simplici0/shopfloor/internal/db"
	"github.com/Simplici0/shopfloor/internal/logger"
	"github.com/Simplici0/shopfloor/internal/metrics"
	"github.com/Simplici0/shopfloor/internal/migrations"
	"github.com/Simplici0/shopfloor/internal/seed"
	"github.com/Simplici0/shopfloor/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	database, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		zlog.Fatal("failed to open database", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer database.Close()

	if cfg.MigrateOnStart {
		if err := migrations.Up(database, cfg.DBDriver); err != nil {
			zlog.Fatal("failed to run database migrations", zap.Error(err))
		}
		zlog.Info("migrations applied")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := store.New(database, cfg.DBDriver)
	stats, err := seed.Run(ctx, st, seed.Config{})
	if err != nil {
		zlog.Fatal("failed to seed database", zap.Error(err))
	}
	zlog.Info("seed complete", zap.Int("inserts", stats.Inserts), zap.Int("updates", stats.Updates))

	srv := newServer(st, zlog, metrics.New(prometheus.DefaultRegisterer))
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(cfg.MetricsEnabled),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Error("http server error", zap.Error(err))
			stop()
		}
	}()
	zlog.Info("listening", zap.String("addr", httpSrv.Addr), zap.String("env", cfg.Env))

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
		return
	}
	zlog.Info("graceful shutdown complete")
}

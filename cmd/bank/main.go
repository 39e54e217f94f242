package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chubank/internal/api"
	"chubank/internal/cache"
	"chubank/internal/calendar"
	"chubank/internal/config"
	"chubank/internal/service"
	"chubank/internal/storage/postgres"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DBConnString)
	if err != nil {
		logger.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	var c cache.Cache = cache.Noop{}
	if cfg.RedisAddr != "" {
		rdb := cache.NewRedis(cfg.RedisAddr, cfg.RedisPass)
		if err := rdb.Ping(ctx); err != nil {
			logger.Warn("failed to connect to redis, reads fall through to storage", "err", err)
		}
		defer rdb.Close()
		c = rdb
	}

	store := postgres.NewRepo(pool)
	cal := calendar.NewHolidayAPI(cfg.HolidayAPIBase, c, logger)

	accounts := service.NewAccountService(store, c, logger)
	transfers := service.NewTransferService(store, cal, c, logger)
	statements := service.NewStatementService(store, c, logger)
	auth := service.NewAuthService(store, c, cfg.JWTSecret, cfg.JWTIssuer, logger)

	a := api.NewAPI(accounts, transfers, statements, auth, logger)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      a.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}

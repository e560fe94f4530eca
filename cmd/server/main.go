package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nexogym/internal/config"
	"nexogym/internal/infra"
	"nexogym/internal/repository"
	"nexogym/internal/router"
	"nexogym/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	zerolog.TimeFieldFormat = time.RFC3339
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	if cfg.RunMigrations {
		if err := infra.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL, !cfg.IsProduction())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = infra.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
	} else {
		log.Warn().Msg("REDIS_URL empty: receipt emails and gym cache disabled")
	}

	metrics := infra.NewMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background work is wired here (composition root) so that the pool
	// has full access to the infrastructure dependencies.
	if rdb != nil {
		mailer := infra.NewMailer(cfg)
		cbCfg := infra.DefaultCBConfig()
		cbCfg.OnStateChange = metrics.BreakerStateChanged
		breaker := infra.NewCircuitBreaker("smtp", cbCfg)
		handlers := &worker.WorkerHandlers{
			Receipt: worker.NewReceiptWorker(
				repository.NewSaleRepository(db),
				repository.NewGymRepository(db),
				mailer,
				breaker,
				cfg.ReceiptStoragePath,
				metrics,
			),
		}
		worker.StartWorkerPool(ctx, rdb, handlers, metrics, cfg.WorkerPoolSize)
	}

	worker.StartShiftMonitor(ctx, worker.ShiftMonitorConfig{
		Reports:    repository.NewReportRepository(db),
		Metrics:    metrics,
		AlertAfter: time.Duration(cfg.OpenShiftAlertHours) * time.Hour,
	})

	r := router.New(cfg, db, rdb, metrics, ctx.Done())

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("NexoGym backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	log.Info().Msg("server exited")
}

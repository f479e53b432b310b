package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinicflow/internal/config"
	"clinicflow/internal/infra"
	"clinicflow/internal/repository"
	"clinicflow/internal/router"
	"clinicflow/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// The stats cache sits behind a circuit breaker: a flapping Redis
	// degrades to straight DB reads instead of piling up timeouts.
	cacheCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	cache := infra.NewCache(rdb, cacheCB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r, workerHandlers := router.New(router.Deps{Cfg: cfg, DB: db, RDB: rdb, Cache: cache})

	// Background workers: stock-alert queue consumers and the no-show sweeper.
	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, workerHandlers)
	worker.StartNoShowSweeper(ctx, worker.SweeperConfig{
		AppointmentRepo: repository.NewAppointmentRepository(db),
		GracePeriod:     time.Duration(cfg.NoShowGraceMinutes) * time.Minute,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("clinicflow backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}

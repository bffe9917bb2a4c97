package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dofus-graal/auth-manager/internal/api"
	"github.com/dofus-graal/auth-manager/internal/infrastructure/config"
	"github.com/dofus-graal/auth-manager/internal/infrastructure/db/postgres"
	"github.com/dofus-graal/auth-manager/internal/infrastructure/db/redis"
	"github.com/dofus-graal/auth-manager/internal/infrastructure/queue"
	"github.com/dofus-graal/auth-manager/pkg/logger"
)

const shutdownGrace = 10 * time.Second

// main is the always-on server entry point. Startup is fail-closed: a
// missing secret or an unreachable dependency aborts the process instead of
// deferring the failure to the first request.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger may not be configured yet; stderr is all we have.
		os.Stderr.WriteString("fatal: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: !cfg.IsProduction(),
	})
	log.Info().Str("env", cfg.Env).Msg("starting auth-manager")

	db, err := postgres.Connect(ctx, postgres.Config{
		URL:      cfg.Database.URL,
		MaxConns: cfg.Database.MaxConns,
		Timeout:  cfg.Database.ConnTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer db.Close()

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	recorder := queue.NewAttemptRecorder(0, postgres.NewLoginAttemptRepository(db), log)
	recorder.Start(ctx)

	e, err := api.NewRouter(db, rdb, recorder, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("router setup failed")
	}

	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Msg("http server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http server shutdown failed")
	}
	log.Info().Msg("goodbye")
}

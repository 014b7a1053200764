package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oggyb/polysms/internal/bootstrap"
	"github.com/oggyb/polysms/internal/cache"
	"github.com/oggyb/polysms/internal/cache/redis"
	"github.com/oggyb/polysms/internal/config"
	"github.com/oggyb/polysms/internal/handler"
	"github.com/oggyb/polysms/internal/logger"
	"github.com/oggyb/polysms/internal/manager"
	"github.com/oggyb/polysms/internal/metric"
	routes "github.com/oggyb/polysms/internal/router"
	"github.com/oggyb/polysms/internal/scheduler"
	"github.com/oggyb/polysms/internal/server"
	"github.com/oggyb/polysms/internal/service"
)

// @title       polysms API
// @version     1.0
// @description Multi-gateway SMS dispatch service.
// @BasePath    /
func main() {
	// Base context for the whole application lifetime.
	rootCtx := context.Background()

	// Load configuration from environment/.env.
	cfg := config.New()

	logger.Init(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	l := logger.Component("main")

	if err := cfg.Validate(); err != nil {
		l.Fatal().Err(err).Msg("invalid configuration")
	}

	// Metrics.
	metrics := metric.New()

	// Gateway definitions and the dispatch core.
	defs, def, err := bootstrap.Definitions(rootCtx, cfg)
	if err != nil {
		l.Fatal().Err(err).Str("source", cfg.Gateways.Source).Msg("failed to load gateway definitions")
	}
	core, err := bootstrap.NewCore(defs, def, manager.WithActionErrorHandler(metrics.ActionError))
	if err != nil {
		l.Fatal().Err(err).Msg("failed to build dispatch core")
	}
	m := core.Manager

	// Init cache. Without Redis, sent records live in process memory.
	var store cache.Cache = cache.NewMemory()
	if cfg.Redis.Enabled {
		rc := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := rc.Ping(rootCtx); err != nil {
			l.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("failed to connect to redis")
		}
		store = rc
	}
	defer store.Close()

	// After-send actions: metrics first, then the sent log.
	sentLog := service.NewSentLog(store, cfg.Cache.SentTTL)
	if cfg.Metrics.Enabled {
		if err := m.OnAfterSmsSent(manager.NewAction(metrics.AfterSend), 20); err != nil {
			l.Fatal().Err(err).Msg("failed to install metrics action")
		}
	}
	if err := m.OnAfterSmsSent(manager.NewAction(sentLog.AfterSend), 10); err != nil {
		l.Fatal().Err(err).Msg("failed to install sent log action")
	}

	// Services.
	sender := service.NewSenderService(
		m,
		cfg.Worker.MaxWorkers,
		cfg.Worker.PerMessageTimeout,
		cfg.Worker.MaxBulk,
		service.WithBulkObserver(metrics.ObserveBulk),
	)
	health := service.NewHealthService(m, cfg.Health.Timeout, cfg.Worker.MaxWorkers, metrics.ObserveHealth)

	// Periodic health probing.
	var probe scheduler.Scheduler
	if cfg.Health.Enabled {
		probe = scheduler.New(
			"gateway-health",
			health,
			cfg.Health.Interval,
			cfg.Health.Timeout+5*time.Second,
			scheduler.WithRunOnStart(),
		)
	}

	// HTTP dependencies & server wiring.
	deps := routes.AppDeps{
		Home:    handler.NewHomeHandler(cfg.App.Name),
		SMS:     handler.NewSMSHandler(sender, sentLog),
		Gateway: handler.NewGatewayHandler(m, health, probe),
	}
	if cfg.Metrics.Enabled {
		deps.Metrics = metrics.Handler()
	}

	addr := cfg.Addr()
	srv := server.New(addr, deps)

	// Create a context that is cancelled on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		l.Info().Str("addr", addr).Msg("HTTP server listening")

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	if probe != nil {
		if err := probe.Start(); err != nil {
			l.Fatal().Err(err).Msg("failed to start health probe")
		}
	}

	// Block until we receive a shutdown signal.
	<-ctx.Done()
	l.Info().Msg("shutdown signal received, starting graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer cancel()

	// Stop the probe (waits for an in-flight round).
	if probe != nil {
		if err := probe.Stop(); err != nil {
			l.Error().Err(err).Msg("health probe did not stop cleanly")
		}
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("HTTP server graceful shutdown failed")
	} else {
		l.Info().Msg("HTTP server stopped")
	}

	l.Info().Msg("shutdown complete")
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"userflat/internal/flatten"
	"userflat/internal/flatten/handler"
	"userflat/internal/flatten/service"
	httpapi "userflat/internal/http"
	jwttoken "userflat/internal/jwt_token"
	"userflat/internal/platform/config"
	"userflat/internal/platform/httpserver"
	"userflat/internal/platform/logger"
	"userflat/internal/platform/metrics"
	"userflat/internal/platform/middleware"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Flattening lives in internal/flatten.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	level, _ := config.ParseLogLevel(cfg.Server.LogLevel)
	log := logger.New(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, prometheus.DefaultRegisterer, prometheus.DefaultGatherer); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger, reg prometheus.Registerer, gatherer prometheus.Gatherer) error {
	mode, err := flatten.ParseTitleCaseMode(cfg.Flatten.TitleCaseMode)
	if err != nil {
		return err
	}
	m := metrics.NewWithRegistry(reg)

	sinks, err := buildSinks(ctx, cfg, m, log)
	if err != nil {
		return err
	}
	defer sinks.close(log)

	pipeline := flatten.New(
		flatten.WithTitleCaseMode(mode),
		flatten.WithRequireUsername(cfg.Flatten.RequireUsername),
	)
	svc := service.New(pipeline,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithSink(sinks.multi),
	)

	opts := []handler.Option{handler.WithMaxBodyBytes(cfg.Server.MaxBodyBytes)}
	for _, c := range sinks.checks {
		opts = append(opts, handler.WithHealthCheck(c.name, c.check))
	}
	if cfg.Auth.Enabled() {
		jwtService := jwttoken.NewJWTService(cfg.Auth.SigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
		opts = append(opts, handler.WithGuard(
			middleware.RequireAuth(jwttoken.NewJWTServiceAdapter(jwtService), log),
		))
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Flatten:  handler.New(svc, log, opts...),
		Logger:   log,
		Gatherer: gatherer,
	})
	srv := httpserver.New(cfg.Server.Addr, router,
		httpserver.WithReadTimeout(cfg.Server.ReadTimeout),
		httpserver.WithWriteTimeout(cfg.Server.WriteTimeout),
		httpserver.WithErrorLog(log),
	)

	log.Info("starting userflat",
		"addr", cfg.Server.Addr,
		"titlecase_mode", mode.String(),
		"require_username", cfg.Flatten.RequireUsername,
		"sinks", sinks.names(),
		"auth", cfg.Auth.Enabled(),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", "wait", cfg.Server.ShutdownWait)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownWait)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

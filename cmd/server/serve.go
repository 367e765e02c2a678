package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/pandeptwidyaop/window-opener/internal/config"
	"github.com/pandeptwidyaop/window-opener/internal/desktop"
	"github.com/pandeptwidyaop/window-opener/internal/endpoint"
	"github.com/pandeptwidyaop/window-opener/internal/logging"
	"github.com/pandeptwidyaop/window-opener/internal/metrics"
	"github.com/pandeptwidyaop/window-opener/internal/middleware"
	"github.com/pandeptwidyaop/window-opener/internal/program"
	"github.com/pandeptwidyaop/window-opener/internal/router"
	"github.com/pandeptwidyaop/window-opener/internal/services"
	"github.com/pandeptwidyaop/window-opener/internal/version"
)

const shutdownTimeout = 10 * time.Second

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	logger := logging.New(logging.Options{Level: cfg.Log.Level, Development: cfg.Log.Development})
	defer func() { _ = logger.Sync() }()

	desk, err := desktop.Detect()
	if err != nil {
		logger.Warn("Desktop automation unavailable, window verbs will fail", zap.Error(err))
	}

	local := endpoint.NewLocal(endpoint.LocalName, desk, logging.Component(logger, "endpoint"),
		endpoint.WithPollInterval(cfg.Execution.PollInterval),
		endpoint.WithDefaultMaxWait(cfg.Execution.MaxWait),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	programs, err := services.NewProgramService(ctx, programLoader(cfg, local, logger), logging.Component(logger, "program"), m)
	if err != nil {
		return err
	}
	lowlevel := services.NewLowLevelService(local, logging.Component(logger, "lowlevel"), m)

	var limiter *middleware.RateLimiter
	if cfg.Server.RateLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst, 10*time.Minute)
		go limiter.Run(ctx.Done())
	}

	r := router.New(router.Deps{
		Config:      cfg,
		Programs:    programs,
		LowLevel:    lowlevel,
		Desktop:     desk,
		Metrics:     m,
		Gatherer:    reg,
		RateLimiter: limiter,
		Logger:      logging.Component(logger, "http"),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-hup:
				_ = programs.Reload()
			case <-ctx.Done():
				return
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("window-opener starting",
			zap.String("version", version.Version),
			zap.String("addr", srv.Addr),
			zap.String("desktop", desk.Name()),
			zap.Bool("lowlevel", cfg.API.LowLevelEnabled()),
			zap.Bool("program", cfg.API.ProgramEnabled()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
		return err
	}
	return nil
}

// programLoader reads the programs and secrets files on every call, so a
// reload picks up edits. A missing programs file leaves an empty manager.
func programLoader(cfg *config.Config, local endpoint.Endpoint, logger *zap.Logger) services.ProgramLoader {
	configLog := logging.Component(logger, "config")
	endpointLog := logging.Component(logger, "endpoint")

	return func(opts ...program.ManagerOption) (*program.Manager, string, error) {
		defs, err := config.LoadPrograms(cfg.Files.Programs, cfg.Files.Secrets, configLog)
		switch {
		case errors.Is(err, config.ErrNoPrograms):
			configLog.Error("No programs file found", zap.String("path", cfg.Files.Programs))
		case err != nil:
			return nil, "", err
		}

		opts = append(opts, program.WithRemoteFactory(func(name, url, token string) endpoint.Endpoint {
			return endpoint.NewRemote(name, url, token, cfg.Execution.RemoteTimeout, endpointLog)
		}))
		m := defs.Build(local, logging.Component(logger, "program"), opts...)
		configLog.Info("Configuration loaded",
			zap.Int("programs", len(defs.Programs)),
			zap.Int("endpoints", len(defs.Endpoints)),
		)
		return m, defs.Token, nil
	}
}

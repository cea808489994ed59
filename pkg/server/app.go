package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"EquityPulse/internal/domain/repository"
	"EquityPulse/internal/scheduler"
	pkgcache "EquityPulse/pkg/cache"
	pkgch "EquityPulse/pkg/clickhouse"
	"EquityPulse/pkg/config"
	xhttp "EquityPulse/pkg/http"
	applogger "EquityPulse/pkg/logger"
)

// App encapsulates the application lifecycle: HTTP server, scheduler, and
// infrastructure clients.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	handler    xhttp.Handler
	sched      *scheduler.Scheduler
	chClient   *pkgch.Client
	publisher  repository.EventPublisher
	hot        pkgcache.Service
	httpServer *xhttp.Server
}

// New creates a new App instance. sched, publisher, and hot may be nil when
// the corresponding feature is disabled.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	sched *scheduler.Scheduler,
	chClient *pkgch.Client,
	publisher repository.EventPublisher,
	hot pkgcache.Service,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		handler:   handler,
		sched:     sched,
		chClient:  chClient,
		publisher: publisher,
		hot:       hot,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(a.cfg.Metrics.Path),
	)

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	if a.sched != nil {
		if err := a.sched.Start(); err != nil {
			a.log.Error("scheduler start error", applogger.Error(err))
			return err
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	if a.sched != nil {
		a.sched.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
		}
	}

	if a.hot != nil {
		if err := a.hot.Close(); err != nil {
			a.log.Warn("hot cache close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}

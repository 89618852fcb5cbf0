package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SpinSignal/internal/handler/api"
	mid "SpinSignal/internal/middleware"
	"SpinSignal/internal/usecase"
	"SpinSignal/pkg/config"
	xhttp "SpinSignal/pkg/http"
	applogger "SpinSignal/pkg/logger"
)

// Subscribers are attached to the event bus before it starts.
type Subscribers []mid.Subscriber

// Closers release infrastructure clients on shutdown, in order.
type Closers []io.Closer

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	bus         *mid.EventBus
	machine     *usecase.Machine
	collector   *usecase.FeedCollector
	dispatcher  *usecase.NotificationDispatcher
	broadcaster *usecase.StatsBroadcaster
	hub         *api.StreamHub
	httpServer  *xhttp.Server
	subscribers Subscribers
	closers     Closers
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	bus *mid.EventBus,
	machine *usecase.Machine,
	collector *usecase.FeedCollector,
	dispatcher *usecase.NotificationDispatcher,
	broadcaster *usecase.StatsBroadcaster,
	hub *api.StreamHub,
	httpServer *xhttp.Server,
	subscribers Subscribers,
	closers Closers,
) *App {
	return &App{
		cfg:         cfg,
		logger:      logger.With("app"),
		bus:         bus,
		machine:     machine,
		collector:   collector,
		dispatcher:  dispatcher,
		broadcaster: broadcaster,
		hub:         hub,
		httpServer:  httpServer,
		subscribers: subscribers,
		closers:     closers,
	}
}

// Machine exposes the bet machine, mainly for tests and tooling.
func (a *App) Machine() *usecase.Machine { return a.machine }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts every component and blocks until ctx ends or the HTTP
// server fails.
func (a *App) RunContext(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The bus outlives runCtx so Stop can drain what is buffered.
	busCtx := context.WithoutCancel(ctx)
	for _, s := range a.subscribers {
		a.bus.Subscribe(busCtx, s)
	}
	a.bus.Start(busCtx)

	if a.broadcaster != nil {
		if err := a.broadcaster.Start(); err != nil {
			a.bus.Stop()
			return err
		}
	}

	if a.cfg.Bot.Autostart {
		a.machine.Start()
	}
	if err := a.collector.Start(runCtx); err != nil {
		return fmt.Errorf("start collector: %w", err)
	}

	var serveErr error
	if a.httpServer != nil {
		if err := a.httpServer.Start(); err != nil {
			a.logger.Error("http server start error", applogger.Error(err))
			serveErr = err
			cancel()
		}
	}
	a.logger.Info("spinsignal started",
		applogger.String("environment", a.cfg.Environment),
		applogger.Bool("running", a.machine.Running()),
		applogger.Int("subscribers", len(a.subscribers)),
	)

	select {
	case <-runCtx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-a.serverErrors():
		serveErr = err
	}

	return errors.Join(serveErr, a.shutdown())
}

func (a *App) serverErrors() <-chan error {
	if a.httpServer == nil {
		return nil
	}
	return a.httpServer.Errors()
}

// shutdown stops producers before consumers so buffered events still reach
// the sinks.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer cancel()

	var errs []error
	if err := a.collector.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("collector: %w", err))
	}
	if a.broadcaster != nil {
		if err := a.broadcaster.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stats broadcaster: %w", err))
		}
	}
	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http: %w", err))
		}
	}
	if a.hub != nil {
		a.hub.Close()
	}

	a.bus.Stop()
	if a.dispatcher != nil {
		a.dispatcher.Wait()
	}

	// Flushes pending log batches while the producer is still open.
	a.logger.RemoveCollector()

	for _, c := range a.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			a.logger.Warn("close error", applogger.Error(err))
		}
	}

	if len(errs) > 0 {
		a.logger.Warn("shutdown finished with errors", applogger.Error(errors.Join(errs...)))
	} else {
		a.logger.Info("shutdown complete")
	}
	return errors.Join(errs...)
}

func (a *App) shutdownTimeout() time.Duration {
	if a.cfg.Server.ShutdownTimeout > 0 {
		return a.cfg.Server.ShutdownTimeout
	}
	return 10 * time.Second
}

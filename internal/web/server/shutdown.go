package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// ShutdownHook releases a resource once the HTTP server has drained
type ShutdownHook struct {
	Name string
	Fn   func(ctx context.Context) error
}

// GracefulShutdown serves until a signal or context cancellation, then
// drains the server and runs hooks in registration order
type GracefulShutdown struct {
	server  *Server
	timeout time.Duration
	signals []os.Signal
	logger  *zap.Logger

	mu    sync.Mutex
	hooks []ShutdownHook

	once sync.Once
	done chan struct{}
	err  error
}

// NewGracefulShutdown creates a shutdown handler. A zero timeout means 30s.
func NewGracefulShutdown(server *Server, timeout time.Duration, logger *zap.Logger) *GracefulShutdown {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GracefulShutdown{
		server:  server,
		timeout: timeout,
		signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// RegisterHook adds a hook run after the server stops
func (gs *GracefulShutdown) RegisterHook(name string, fn func(ctx context.Context) error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.hooks = append(gs.hooks, ShutdownHook{Name: name, Fn: fn})
}

// Run serves until ctx is done, a shutdown signal arrives or the server
// fails, then shuts down
func (gs *GracefulShutdown) Run(ctx context.Context) error {
	if err := gs.server.Listen(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, gs.signals...)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		gs.logger.Info("server listening", zap.String("addr", gs.server.Addr()))
		errCh <- gs.server.Serve()
	}()

	select {
	case <-ctx.Done():
		gs.logger.Info("shutdown requested")
		return gs.Shutdown()
	case err := <-errCh:
		if err != nil {
			err = fmt.Errorf("server failed: %w", err)
		}
		return errors.Join(err, gs.Shutdown())
	}
}

// Shutdown drains the server and runs every hook, even after a failure.
// Later calls wait for the first and return its result.
func (gs *GracefulShutdown) Shutdown() error {
	gs.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), gs.timeout)
		defer cancel()

		var errs []error
		if err := gs.server.Shutdown(ctx); err != nil {
			gs.logger.Error("server shutdown failed", zap.Error(err))
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}

		gs.mu.Lock()
		hooks := append([]ShutdownHook(nil), gs.hooks...)
		gs.mu.Unlock()

		for _, h := range hooks {
			if err := h.Fn(ctx); err != nil {
				gs.logger.Error("shutdown hook failed", zap.String("hook", h.Name), zap.Error(err))
				errs = append(errs, fmt.Errorf("%s: %w", h.Name, err))
			}
		}

		gs.err = errors.Join(errs...)
		gs.logger.Info("shutdown complete")
		close(gs.done)
	})

	<-gs.done
	return gs.err
}

// Wait blocks until shutdown is complete
func (gs *GracefulShutdown) Wait() error {
	<-gs.done
	return gs.err
}

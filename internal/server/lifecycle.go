// Package server runs the parlor services (transports, recipe ticker,
// autosave, metrics endpoint) and stops them in reverse order on a signal,
// a cancelled context, or the first service failure.
package server

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Service is a long-running component. Start blocks until Stop is called or
// the service fails.
type Service interface {
	Start() error
	Stop()
}

// FuncService adapts a pair of functions to Service.
type FuncService struct {
	StartFn func() error
	StopFn  func()
}

// Start calls StartFn.
func (f *FuncService) Start() error { return f.StartFn() }

// Stop calls StopFn.
func (f *FuncService) Stop() { f.StopFn() }

type entry struct {
	name string
	svc  Service
}

// Lifecycle owns the server's services. They start in the order added and
// stop in reverse.
type Lifecycle struct {
	logger      *zap.Logger
	stopTimeout time.Duration
	entries     []entry
}

// NewLifecycle returns an empty Lifecycle. Each Stop call gets stopTimeout
// to return before shutdown moves on; 0 waits indefinitely.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger, stopTimeout time.Duration) *Lifecycle {
	return &Lifecycle{logger: logger, stopTimeout: stopTimeout}
}

// Add registers svc under name. Add must not be called once Run has started.
func (l *Lifecycle) Add(name string, svc Service) {
	l.entries = append(l.entries, entry{name: name, svc: svc})
}

// Run starts every service and blocks until SIGINT or SIGTERM arrives, ctx
// is cancelled, or a service's Start fails. It then stops the services.
//
// Postcondition: every Stop has been called (or timed out). The error is the
// first service failure, or nil.
func (l *Lifecycle) Run(ctx context.Context) error {
	start := time.Now()

	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	g, gctx := errgroup.WithContext(ctx)
	for _, e := range l.entries {
		g.Go(func() error {
			l.logger.Info("starting service", zap.String("service", e.name))
			began := time.Now()
			if err := e.svc.Start(); err != nil {
				l.logger.Error("service failed",
					zap.String("service", e.name),
					zap.Error(err),
					zap.Duration("uptime", time.Since(began)),
				)
				return fmt.Errorf("service %s: %w", e.name, err)
			}
			return nil
		})
	}
	l.logger.Info("all services started",
		zap.Int("count", len(l.entries)),
		zap.Duration("startup", time.Since(start)),
	)

	<-gctx.Done()
	var runErr error
	if ctx.Err() == nil {
		// Only a failing service cancels gctx without cancelling ctx.
		runErr = context.Cause(gctx)
		l.logger.Error("service error, shutting down", zap.Error(runErr))
	} else {
		l.logger.Info("shutting down", zap.Error(context.Cause(ctx)))
	}

	l.shutdown()
	l.await(g)

	l.logger.Info("shutdown complete", zap.Duration("total_uptime", time.Since(start)))
	return runErr
}

func (l *Lifecycle) shutdown() {
	began := time.Now()
	for i := len(l.entries) - 1; i >= 0; i-- {
		e := l.entries[i]
		stopStart := time.Now()
		l.logger.Info("stopping service", zap.String("service", e.name))
		if !l.within(e.svc.Stop) {
			l.logger.Warn("service stop timed out",
				zap.String("service", e.name),
				zap.Duration("timeout", l.stopTimeout),
			)
			continue
		}
		l.logger.Info("service stopped",
			zap.String("service", e.name),
			zap.Duration("elapsed", time.Since(stopStart)),
		)
	}
	l.logger.Info("all services stopped", zap.Duration("shutdown_elapsed", time.Since(began)))
}

// await waits for every Start to return, bounded by the stop timeout.
func (l *Lifecycle) await(g *errgroup.Group) {
	if !l.within(func() { _ = g.Wait() }) {
		l.logger.Warn("services still running after shutdown", zap.Duration("timeout", l.stopTimeout))
	}
}

// within runs fn and reports whether it returned inside the stop timeout.
// fn keeps running in the background when it does not.
func (l *Lifecycle) within(fn func()) bool {
	if l.stopTimeout <= 0 {
		fn()
		return true
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	timer := time.NewTimer(l.stopTimeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

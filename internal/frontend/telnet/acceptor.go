package telnet

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/parlor/internal/config"
)

// FullMessage is sent to a client turned away by the connection limit.
const FullMessage = "The parlor is full. Please try again later."

// SessionHandler runs one client session to completion. ctx is cancelled
// when the acceptor stops.
type SessionHandler interface {
	HandleSession(ctx context.Context, conn *Conn) error
}

// Acceptor accepts Telnet clients on a TCP listener and gives each its own
// goroutine running the SessionHandler.
type Acceptor struct {
	cfg     config.TelnetConfig
	handler SessionHandler
	logger  *zap.Logger

	// base is cancelled by Stop; every session context derives from it.
	base     context.Context
	shutdown context.CancelFunc
	wg       sync.WaitGroup

	mu       sync.Mutex
	listener net.Listener
	open     map[*Conn]struct{}
	stopped  bool
}

// NewAcceptor returns an Acceptor that has not started listening.
//
// Precondition: handler and logger must be non-nil.
func NewAcceptor(cfg config.TelnetConfig, handler SessionHandler, logger *zap.Logger) *Acceptor {
	base, shutdown := context.WithCancel(context.Background())
	return &Acceptor{
		cfg:      cfg,
		handler:  handler,
		logger:   logger,
		base:     base,
		shutdown: shutdown,
		open:     make(map[*Conn]struct{}),
	}
}

// ListenAndServe listens on the configured address and serves until Stop.
func (a *Acceptor) ListenAndServe() error {
	l, err := net.Listen("tcp", a.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.cfg.Addr(), err)
	}
	return a.Serve(l)
}

// Serve accepts clients on l until Stop is called, then returns nil.
//
// Postcondition: l is closed.
func (a *Acceptor) Serve(l net.Listener) error {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return l.Close()
	}
	a.listener = l
	a.mu.Unlock()

	a.logger.Info("telnet acceptor listening", zap.String("addr", l.Addr().String()))

	for {
		raw, err := l.Accept()
		if err != nil {
			if a.base.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			a.logger.Warn("accepting connection", zap.Error(err))
			continue
		}
		a.admit(NewConn(raw, a.cfg.ReadTimeout, a.cfg.WriteTimeout))
	}
}

// admit starts a session for conn, or turns it away when stopping or full.
func (a *Acceptor) admit(conn *Conn) {
	a.mu.Lock()
	switch {
	case a.stopped:
		a.mu.Unlock()
		_ = conn.Close()
		return
	case a.cfg.MaxConnections > 0 && len(a.open) >= a.cfg.MaxConnections:
		a.mu.Unlock()
		a.logger.Warn("connection limit reached",
			zap.String("remote_addr", conn.RemoteAddr()),
			zap.Int("max_connections", a.cfg.MaxConnections),
		)
		_ = conn.WriteLine(FullMessage)
		_ = conn.Close()
		return
	}
	a.open[conn] = struct{}{}
	a.wg.Add(1)
	a.mu.Unlock()

	go a.serveConn(conn)
}

func (a *Acceptor) serveConn(conn *Conn) {
	defer a.wg.Done()
	defer func() {
		a.mu.Lock()
		delete(a.open, conn)
		a.mu.Unlock()
		_ = conn.Close()
	}()

	start := time.Now()
	log := a.logger.With(zap.String("remote_addr", conn.RemoteAddr()))
	log.Info("client connected")

	if err := conn.Negotiate(); err != nil {
		log.Warn("telnet negotiation failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(a.base)
	defer cancel()
	err := a.handler.HandleSession(ctx, conn)
	if err != nil {
		log.Debug("session ended", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return
	}
	log.Info("session ended cleanly", zap.Duration("duration", time.Since(start)))
}

// Stop closes the listener and every open connection and waits for their
// sessions to return. It is safe to call more than once.
func (a *Acceptor) Stop() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.stopped = true
	a.shutdown()
	if a.listener != nil {
		_ = a.listener.Close()
	}
	for conn := range a.open {
		_ = conn.Close()
	}
	a.mu.Unlock()

	a.wg.Wait()
	a.logger.Info("telnet acceptor stopped")
}

// Addr returns the listening address, or "" before Serve.
func (a *Acceptor) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// IsRunning reports whether the acceptor is serving.
func (a *Acceptor) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listener != nil && !a.stopped
}

// Sessions returns the number of connected clients.
func (a *Acceptor) Sessions() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.open)
}

package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/parlor/internal/game/world"
)

// ErrAlreadyConnected is returned when a player who already has a session
// tries to attach again.
var ErrAlreadyConnected = errors.New("player already connected")

// PlayerSession tracks one connected player.
type PlayerSession struct {
	// Player is the world player the session controls.
	Player *world.Player
	// Transport names the frontend the player connected through (telnet, websocket).
	Transport string
	// RemoteAddr is the client address, for logging.
	RemoteAddr string
	// ConnectedAt is when the session was attached.
	ConnectedAt time.Time
	// Outbox carries text addressed to the player.
	Outbox *Outbox
}

// Metrics observes connection counts. delta is +1 on attach and -1 on detach.
type Metrics interface {
	SessionsChanged(transport string, delta int)
}

// Manager tracks all active sessions by player name and implements the
// narrator the action layer writes to.
// All methods are safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*PlayerSession
	buffer   int
	logger   *zap.Logger

	// Metrics may be nil.
	Metrics Metrics
}

// NewManager creates an empty session Manager whose outboxes hold buffer
// lines each. A nil logger discards delivery warnings.
func NewManager(buffer int, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessions: make(map[string]*PlayerSession),
		buffer:   buffer,
		logger:   logger,
	}
}

// Attach registers a session for p.
//
// Precondition: p must be non-nil; transport must be non-empty.
// Postcondition: Returns the created session, or ErrAlreadyConnected if p already has one.
func (m *Manager) Attach(p *world.Player, transport, remoteAddr string) (*PlayerSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[p.Name]; exists {
		return nil, fmt.Errorf("attaching %s: %w", p.Name, ErrAlreadyConnected)
	}
	sess := &PlayerSession{
		Player:      p,
		Transport:   transport,
		RemoteAddr:  remoteAddr,
		ConnectedAt: time.Now(),
		Outbox:      NewOutbox(p.Name, m.buffer),
	}
	m.sessions[p.Name] = sess
	if m.Metrics != nil {
		m.Metrics.SessionsChanged(transport, 1)
	}
	m.logger.Info("session attached",
		zap.String("player", p.Name),
		zap.String("transport", transport),
		zap.String("remote_addr", remoteAddr),
	)
	return sess, nil
}

// Detach removes the named player's session and closes its outbox.
//
// Postcondition: The session is gone. Returns an error if none was attached.
func (m *Manager) Detach(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, exists := m.sessions[name]
	if !exists {
		return fmt.Errorf("player %q not connected", name)
	}
	_ = sess.Outbox.Close()
	delete(m.sessions, name)
	if m.Metrics != nil {
		m.Metrics.SessionsChanged(sess.Transport, -1)
	}
	m.logger.Info("session detached",
		zap.String("player", name),
		zap.String("transport", sess.Transport),
		zap.Duration("duration", time.Since(sess.ConnectedAt)),
	)
	return nil
}

// Get returns the session of the named player.
func (m *Manager) Get(name string) (*PlayerSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[name]
	return sess, ok
}

// Names returns the connected player names, sorted.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.sessions))
	for name := range m.sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of connected players.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Notify queues text for p if p is connected.
func (m *Manager) Notify(p *world.Player, text string) {
	if sess, ok := m.Get(p.Name); ok {
		m.deliver(sess, text)
	}
}

// Narrate queues text for every connected player in room except the listed ones.
//
// Precondition: the world lock is held, since player locations are read.
func (m *Manager) Narrate(room *world.Room, text string, except ...*world.Player) {
	for _, sess := range m.snapshot() {
		if sess.Player.Room != room || excluded(sess.Player, except) {
			continue
		}
		m.deliver(sess, text)
	}
}

// Broadcast queues text for every connected player.
func (m *Manager) Broadcast(text string) {
	for _, sess := range m.snapshot() {
		m.deliver(sess, text)
	}
}

func (m *Manager) snapshot() []*PlayerSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*PlayerSession, 0, len(m.sessions))
	for _, sess := range m.sessions {
		out = append(out, sess)
	}
	return out
}

// deliver pushes text, logging instead of failing when the client lags.
func (m *Manager) deliver(sess *PlayerSession, text string) {
	if err := sess.Outbox.Push(text); err != nil {
		m.logger.Warn("dropping message",
			zap.String("player", sess.Player.Name),
			zap.Error(err),
		)
	}
}

func excluded(p *world.Player, except []*world.Player) bool {
	for _, e := range except {
		if e == p {
			return true
		}
	}
	return false
}

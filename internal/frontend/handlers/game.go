// Package handlers runs the login and command loop shared by every transport.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/parlor/internal/frontend/telnet"
	"github.com/cory-johannsen/parlor/internal/game/command"
	"github.com/cory-johannsen/parlor/internal/game/session"
	"github.com/cory-johannsen/parlor/internal/game/world"
)

// Transport names reported to the session manager.
const (
	TransportTelnet    = "telnet"
	TransportWebSocket = "websocket"
)

// LineConn is a line-oriented client connection.
type LineConn interface {
	ReadLine() (string, error)
	WriteLine(text string) error
	WritePrompt(prompt string) error
	RemoteAddr() string
	Close() error
}

const banner = `Welcome to the parlor.
Type the name of your character to begin, or quit to leave.`

// GameHandler logs a client in as a world player and relays commands and
// game text until the client quits or disconnects.
type GameHandler struct {
	world    *world.World
	sessions *session.Manager
	executor *command.Executor
	logger   *zap.Logger
}

// NewGameHandler creates a GameHandler.
//
// Precondition: all arguments must be non-nil.
func NewGameHandler(w *world.World, sessions *session.Manager, executor *command.Executor, logger *zap.Logger) *GameHandler {
	return &GameHandler{world: w, sessions: sessions, executor: executor, logger: logger}
}

// HandleSession implements telnet.SessionHandler.
func (h *GameHandler) HandleSession(ctx context.Context, conn *telnet.Conn) error {
	return h.Serve(ctx, conn, TransportTelnet)
}

// Serve runs one client session over conn.
//
// Postcondition: Returns nil when the client quits, or the read/write error
// that ended the session. The player's session is detached either way.
func (h *GameHandler) Serve(ctx context.Context, conn LineConn, transport string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	pal := telnet.Plain
	if transport == TransportTelnet {
		pal = telnet.DefaultPalette
	}
	if err := conn.WriteLine(telnet.Paint(pal.Banner, banner)); err != nil {
		return fmt.Errorf("writing banner: %w", err)
	}

	sess, err := h.login(conn, transport)
	if err != nil || sess == nil {
		return err
	}
	p := sess.Player
	var wg sync.WaitGroup
	defer func() {
		// Detach closes the outbox, which ends forward.
		if err := h.sessions.Detach(p.Name); err != nil {
			h.logger.Warn("detaching session", zap.String("player", p.Name), zap.Error(err))
		}
		wg.Wait()
	}()

	prompt := telnet.Paint(pal.Prompt, fmt.Sprintf("[%s]> ", p.Name))
	var view string
	_ = h.world.Do(func() error {
		view = command.RoomView(h.world, p)
		return nil
	})
	if err := conn.WriteLine(fmt.Sprintf("Welcome, %s.\n\n%s", p.Name, view)); err != nil {
		return fmt.Errorf("writing room view: %w", err)
	}
	if err := conn.WritePrompt(prompt); err != nil {
		return fmt.Errorf("writing prompt: %w", err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		h.forward(sess, conn, prompt)
	}()

	return h.commandLoop(ctx, conn, p, prompt, pal)
}

// login asks for a character name until one can be attached. It returns a
// nil session and nil error when the client quits at the prompt.
func (h *GameHandler) login(conn LineConn, transport string) (*session.PlayerSession, error) {
	for {
		if err := conn.WritePrompt("What is your name? "); err != nil {
			return nil, fmt.Errorf("writing login prompt: %w", err)
		}
		line, err := conn.ReadLine()
		if err != nil {
			return nil, fmt.Errorf("reading name: %w", err)
		}
		name := strings.TrimSpace(line)
		switch {
		case name == "":
			continue
		case strings.EqualFold(name, "quit"):
			_ = conn.WriteLine("Goodbye.")
			return nil, nil
		}

		var p *world.Player
		_ = h.world.Do(func() error {
			p, _ = h.world.Player(name)
			return nil
		})
		if p == nil {
			_ = conn.WriteLine(fmt.Sprintf("There is no one named %q here.", name))
			continue
		}
		sess, err := h.sessions.Attach(p, transport, conn.RemoteAddr())
		if errors.Is(err, session.ErrAlreadyConnected) {
			_ = conn.WriteLine(fmt.Sprintf("%s is already connected.", p.Name))
			continue
		}
		if err != nil {
			return nil, err
		}
		return sess, nil
	}
}

// commandLoop reads lines and executes them until quit or a read error.
func (h *GameHandler) commandLoop(ctx context.Context, conn LineConn, p *world.Player, prompt string, pal telnet.Palette) error {
	for {
		line, err := conn.ReadLine()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reading command: %w", err)
		}
		res, err := h.executor.Execute(p, line)
		if err != nil {
			res.Reply = telnet.Paint(pal.Error, "Something went wrong. Please try again.")
		}
		if res.Reply != "" {
			if err := conn.WriteLine(res.Reply); err != nil {
				return fmt.Errorf("writing reply: %w", err)
			}
		}
		if res.Quit {
			return nil
		}
		if err := conn.WritePrompt(prompt); err != nil {
			return fmt.Errorf("writing prompt: %w", err)
		}
	}
}

// forward writes queued game text to the client, re-displaying the prompt
// after each line, until the outbox closes.
func (h *GameHandler) forward(sess *session.PlayerSession, conn LineConn, prompt string) {
	for text := range sess.Outbox.Lines() {
		if err := conn.WriteLine("\n" + text); err != nil {
			h.logger.Debug("forwarding game text",
				zap.String("player", sess.Player.Name),
				zap.Error(err),
			)
			return
		}
		_ = conn.WritePrompt(prompt)
	}
}

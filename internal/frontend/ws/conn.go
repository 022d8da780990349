// Package ws provides the WebSocket transport. Each text message from the
// client is one command line; each line of game text is one message back.
package ws

import (
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn adapts a WebSocket connection to line-oriented reads and writes.
// Writes are serialized; gorilla connections allow one concurrent writer.
type Conn struct {
	raw          *websocket.Conn
	writeTimeout time.Duration
	mu           sync.Mutex
	closeOnce    sync.Once
}

// NewConn wraps raw.
//
// Precondition: raw must be an upgraded, open connection.
func NewConn(raw *websocket.Conn, writeTimeout time.Duration) *Conn {
	return &Conn{raw: raw, writeTimeout: writeTimeout}
}

// ReadLine returns the next text message with trailing line breaks removed.
// Binary messages are skipped.
func (c *Conn) ReadLine() (string, error) {
	for {
		kind, payload, err := c.raw.ReadMessage()
		if err != nil {
			return "", err
		}
		if kind != websocket.TextMessage {
			continue
		}
		return strings.TrimRight(string(payload), "\r\n"), nil
	}
}

// WriteLine sends text as one message.
func (c *Conn) WriteLine(text string) error {
	return c.write(websocket.TextMessage, []byte(text))
}

// WritePrompt sends the prompt as its own message.
func (c *Conn) WritePrompt(prompt string) error {
	return c.write(websocket.TextMessage, []byte(prompt))
}

func (c *Conn) write(kind int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.raw.WriteMessage(kind, data)
}

// Close sends a normal closure frame and closes the connection. Later calls do nothing.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.write(websocket.CloseMessage, msg)
		err = c.raw.Close()
	})
	return err
}

// RemoteAddr returns the client address.
func (c *Conn) RemoteAddr() string {
	return c.raw.RemoteAddr().String()
}

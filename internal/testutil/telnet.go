package testutil

import (
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/cory-johannsen/parlor/internal/frontend/telnet"
)

// TelnetClient is a line-oriented test client for the Telnet frontend. Output
// is kept with negotiation bytes and ANSI colour removed; text read past a
// match is kept for the next ReadUntil.
type TelnetClient struct {
	t       *testing.T
	conn    net.Conn
	pending string
}

// NewTelnetClient dials addr and closes the connection when the test ends.
func NewTelnetClient(t *testing.T, addr string) *TelnetClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting to %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &TelnetClient{t: t, conn: conn}
}

// ReadUntil returns everything received up to and including the first
// occurrence of substr, failing the test if it does not arrive within timeout.
//
// Precondition: substr must be non-empty.
func (c *TelnetClient) ReadUntil(substr string, timeout time.Duration) string {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	buf := make([]byte, 1024)
	for {
		if i := strings.Index(c.pending, substr); i >= 0 {
			end := i + len(substr)
			out := c.pending[:end]
			c.pending = c.pending[end:]
			return out
		}
		n, err := c.conn.Read(buf)
		if n > 0 {
			c.pending += telnet.StripANSI(string(telnet.FilterIAC(buf[:n])))
		}
		if err != nil {
			c.t.Fatalf("waiting for %q: got %q: %v", substr, c.pending, err)
		}
	}
}

// Send writes text followed by CRLF.
func (c *TelnetClient) Send(text string) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := fmt.Fprintf(c.conn, "%s\r\n", text); err != nil {
		c.t.Fatalf("sending %q: %v", text, err)
	}
}

// Login answers the name prompt with name.
func (c *TelnetClient) Login(name string, timeout time.Duration) {
	c.t.Helper()
	c.ReadUntil("What is your name?", timeout)
	c.Send(name)
}

// Close closes the connection.
func (c *TelnetClient) Close() {
	_ = c.conn.Close()
}

package ws

import (
	"context"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/parlor/internal/config"
	"github.com/cory-johannsen/parlor/internal/frontend/handlers"
)

// echoHandler echoes each line until "quit", closing the connection when
// the server context ends.
type echoHandler struct {
	transports chan string
}

func (h *echoHandler) Serve(ctx context.Context, conn handlers.LineConn, transport string) error {
	h.transports <- transport
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	for {
		line, err := conn.ReadLine()
		if err != nil {
			return err
		}
		if line == "quit" {
			return conn.WriteLine("bye")
		}
		if err := conn.WriteLine("echo: " + line); err != nil {
			return err
		}
	}
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(payload)
}

func TestServer_EchoesLines(t *testing.T) {
	h := &echoHandler{transports: make(chan string, 1)}
	s := NewServer(config.WebSocketConfig{Path: "/ws", WriteTimeout: time.Second}, h, zaptest.NewLogger(t))
	srv := httptest.NewServer(s.http.Handler)
	t.Cleanup(srv.Close)

	conn := dial(t, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws")
	assert.Equal(t, handlers.TransportWebSocket, <-h.transports)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("look\r\n")))
	assert.Equal(t, "echo: look", read(t, conn))

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3}))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("quit")))
	assert.Equal(t, "bye", read(t, conn))
}

func TestServer_StopEndsSessions(t *testing.T) {
	h := &echoHandler{transports: make(chan string, 1)}
	s := NewServer(config.WebSocketConfig{Path: "/ws"}, h, zaptest.NewLogger(t))
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	served := make(chan error, 1)
	go func() { served <- s.Serve(l) }()
	require.Eventually(t, func() bool { return s.Addr() != "" }, 2*time.Second, 10*time.Millisecond)

	conn := dial(t, "ws://"+s.Addr()+"/ws")
	<-h.transports

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.NoError(t, <-served)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/parlor/internal/game/world"
)

func TestOutbox_Push(t *testing.T) {
	o := NewOutbox("test", 4)
	require.NoError(t, o.Push("hello"))

	assert.Equal(t, "hello", <-o.Lines())
}

func TestOutbox_PushClosed(t *testing.T) {
	o := NewOutbox("test", 4)
	require.NoError(t, o.Close())
	assert.True(t, o.IsClosed())
	assert.Error(t, o.Push("fail"))
}

func TestOutbox_PushFull(t *testing.T) {
	o := NewOutbox("test", 1)
	require.NoError(t, o.Push("first"))
	err := o.Push("overflow")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "buffer full")
}

func TestOutbox_CloseIdempotent(t *testing.T) {
	o := NewOutbox("test", 4)
	require.NoError(t, o.Close())
	require.NoError(t, o.Close())
	assert.True(t, o.IsClosed())
}

type gauge map[string]int

func (g gauge) SessionsChanged(transport string, delta int) { g[transport] += delta }

func rooms() (*world.Room, *world.Room) {
	return &world.Room{ID: "parlor", Title: "Parlor"}, &world.Room{ID: "kitchen", Title: "Kitchen"}
}

func TestManager_Attach(t *testing.T) {
	parlor, _ := rooms()
	m := NewManager(8, nil)
	g := gauge{}
	m.Metrics = g

	sess, err := m.Attach(&world.Player{Name: "Kyra", Room: parlor}, "telnet", "127.0.0.1:5000")
	require.NoError(t, err)
	assert.Equal(t, "telnet", sess.Transport)
	assert.Equal(t, "Kyra", sess.Outbox.Name())
	assert.Equal(t, 1, m.Count())
	assert.Equal(t, 1, g["telnet"])
}

func TestManager_AttachDuplicate(t *testing.T) {
	parlor, _ := rooms()
	m := NewManager(8, nil)
	kyra := &world.Player{Name: "Kyra", Room: parlor}
	_, err := m.Attach(kyra, "telnet", "")
	require.NoError(t, err)

	_, err = m.Attach(kyra, "websocket", "")
	assert.True(t, errors.Is(err, ErrAlreadyConnected))
}

func TestManager_Detach(t *testing.T) {
	parlor, _ := rooms()
	m := NewManager(8, nil)
	g := gauge{}
	m.Metrics = g
	sess, err := m.Attach(&world.Player{Name: "Kyra", Room: parlor}, "websocket", "")
	require.NoError(t, err)

	require.NoError(t, m.Detach("Kyra"))
	assert.Equal(t, 0, m.Count())
	assert.True(t, sess.Outbox.IsClosed())
	assert.Equal(t, 0, g["websocket"])

	assert.Error(t, m.Detach("Kyra"))
}

func TestManager_NotifyReachesOnlyThePlayer(t *testing.T) {
	parlor, _ := rooms()
	m := NewManager(8, nil)
	kyra := &world.Player{Name: "Kyra", Room: parlor}
	viktor := &world.Player{Name: "Viktor", Room: parlor}
	ks, _ := m.Attach(kyra, "telnet", "")
	vs, _ := m.Attach(viktor, "telnet", "")

	m.Notify(kyra, "You take a key from the DESK.")
	m.Notify(&world.Player{Name: "Offline"}, "lost")

	assert.Equal(t, "You take a key from the DESK.", <-ks.Outbox.Lines())
	assert.Empty(t, vs.Outbox.Lines())
}

func TestManager_NarrateRespectsRoomAndExceptions(t *testing.T) {
	parlor, kitchen := rooms()
	m := NewManager(8, nil)
	kyra := &world.Player{Name: "Kyra", Room: parlor}
	viktor := &world.Player{Name: "Viktor", Room: parlor}
	nero := &world.Player{Name: "Nero", Room: kitchen}
	ks, _ := m.Attach(kyra, "telnet", "")
	vs, _ := m.Attach(viktor, "telnet", "")
	ns, _ := m.Attach(nero, "websocket", "")

	m.Narrate(parlor, "Kyra takes a key from the DESK.", kyra)

	assert.Empty(t, ks.Outbox.Lines())
	assert.Equal(t, "Kyra takes a key from the DESK.", <-vs.Outbox.Lines())
	assert.Empty(t, ns.Outbox.Lines())

	m.Broadcast("The server is shutting down.")
	assert.Len(t, ks.Outbox.Lines(), 1)
	assert.Len(t, ns.Outbox.Lines(), 1)
}

func TestManager_FullOutboxDropsText(t *testing.T) {
	parlor, _ := rooms()
	m := NewManager(1, nil)
	kyra := &world.Player{Name: "Kyra", Room: parlor}
	sess, _ := m.Attach(kyra, "telnet", "")

	m.Notify(kyra, "first")
	m.Notify(kyra, "second")

	assert.Equal(t, "first", <-sess.Outbox.Lines())
	assert.Empty(t, sess.Outbox.Lines())
}

func TestManager_Names(t *testing.T) {
	parlor, _ := rooms()
	m := NewManager(8, nil)
	for _, name := range []string{"Viktor", "Kyra", "Nero"} {
		_, err := m.Attach(&world.Player{Name: name, Room: parlor}, "telnet", "")
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"Kyra", "Nero", "Viktor"}, m.Names())
}

func TestManager_ConcurrentAttachDetach(t *testing.T) {
	parlor, _ := rooms()
	m := NewManager(8, nil)
	const n = 100
	var wg sync.WaitGroup

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, _ = m.Attach(&world.Player{Name: fmt.Sprintf("Player%d", i), Room: parlor}, "telnet", "")
		}(i)
	}
	wg.Wait()
	assert.Equal(t, n, m.Count())

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			m.Narrate(parlor, "noise")
			_ = m.Detach(fmt.Sprintf("Player%d", i))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 0, m.Count())
}

func TestPropertySessionGaugeMatchesCount(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		parlor, _ := rooms()
		m := NewManager(4, nil)
		g := gauge{}
		m.Metrics = g
		transports := []string{"telnet", "websocket"}

		ops := rapid.IntRange(1, 40).Draw(t, "ops")
		for i := 0; i < ops; i++ {
			name := fmt.Sprintf("P%d", rapid.IntRange(0, 5).Draw(t, "player"))
			if rapid.Bool().Draw(t, "attach") {
				tr := transports[rapid.IntRange(0, 1).Draw(t, "transport")]
				_, _ = m.Attach(&world.Player{Name: name, Room: parlor}, tr, "")
			} else {
				_ = m.Detach(name)
			}
		}

		if total := g["telnet"] + g["websocket"]; total != m.Count() {
			t.Fatalf("gauge total %d != session count %d", total, m.Count())
		}
	})
}

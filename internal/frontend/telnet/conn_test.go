package telnet

import (
	"io"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestFilterIAC(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  []byte
	}{
		{"plain", []byte("hello world"), []byte("hello world")},
		{"will", []byte{IAC, WILL, OptEcho, 'h', 'i'}, []byte("hi")},
		{"do", []byte{'a', IAC, DO, OptLinemode, 'b'}, []byte("ab")},
		{"dont only", []byte{IAC, DONT, OptEcho}, []byte{}},
		{"subnegotiation", []byte{IAC, SB, 24, 0, 'x', 't', 'e', 'r', 'm', IAC, SE, 'z'}, []byte("z")},
		{"escaped", []byte{'a', IAC, IAC, 'b'}, []byte{'a', IAC, 'b'}},
		{"nop", []byte{'x', IAC, NOP, 'y'}, []byte("xy")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterIAC(tt.input))
		})
	}
}

func TestEncode(t *testing.T) {
	assert.Equal(t, []byte("a\r\nb\r\n"), Encode("a\nb\n"))
	assert.Equal(t, []byte("a\r\nb"), Encode("a\r\nb"))
	assert.Equal(t, []byte{'x', IAC, IAC}, Encode(string([]byte{'x', IAC})))
}

// pipe returns a Conn reading from the returned client end.
func pipe(t *testing.T) (*Conn, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	return NewConn(server, 0, 0), client
}

func TestReadLine_FiltersNegotiation(t *testing.T) {
	c, client := pipe(t)
	go func() {
		_, _ = client.Write([]byte{IAC, DO, OptSuppressGoAhead})
		_, _ = client.Write([]byte("take\x07 key\r\n"))
		_, _ = client.Write([]byte("look\r\x00"))
		_, _ = client.Write([]byte("i\n"))
	}()

	line, err := c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "take key", line)

	line, err = c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "look", line)

	line, err = c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "i", line)
}

func TestReadLine_Backspace(t *testing.T) {
	c, client := pipe(t)
	go func() {
		_, _ = client.Write([]byte("lokk\x08\x08ok\x7f\x7fok\r\n"))
	}()

	line, err := c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "look", line)
}

func TestReadLine_SequenceSplitAcrossWrites(t *testing.T) {
	c, client := pipe(t)
	go func() {
		_, _ = client.Write([]byte{'g', IAC})
		_, _ = client.Write([]byte{SB, 31, 0, 80})
		_, _ = client.Write([]byte{0, 24, IAC, SE, 'o', '\n'})
	}()

	line, err := c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "go", line)
}

func TestReadLine_BareCRDoesNotSwallowNextLine(t *testing.T) {
	c, client := pipe(t)
	go func() {
		_, _ = client.Write([]byte("look\r"))
		_, _ = client.Write([]byte("inventory\r\n"))
	}()

	line, err := c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "look", line)

	line, err = c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "inventory", line)
}

func TestReadLine_TruncatesLongLines(t *testing.T) {
	c, client := pipe(t)
	go func() {
		_, _ = client.Write([]byte(strings.Repeat("x", MaxLineLength+50) + "\n"))
		_, _ = client.Write([]byte("look\n"))
	}()

	line, err := c.ReadLine()
	require.NoError(t, err)
	assert.Len(t, line, MaxLineLength)

	line, err = c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "look", line)
}

func TestReadLine_EOF(t *testing.T) {
	c, client := pipe(t)
	go func() {
		_, _ = client.Write([]byte("partial"))
		client.Close()
	}()

	line, err := c.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "partial", line)
}

func TestWriteLine_UsesCRLF(t *testing.T) {
	c, client := pipe(t)
	go func() {
		_ = c.WriteLine("Parlor\nExits: east")
	}()

	buf := make([]byte, 64)
	n, err := io.ReadAtLeast(client, buf, len("Parlor\r\nExits: east\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "Parlor\r\nExits: east\r\n", string(buf[:n]))
}

// Property: FilterIAC on input without any IAC bytes returns the input unchanged.
func TestPropertyFilterIAC_NoIACBytesPassThrough(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		length := rapid.IntRange(0, 200).Draw(t, "length")
		input := make([]byte, length)
		for i := range input {
			input[i] = byte(rapid.IntRange(0, 254).Draw(t, "byte"))
		}
		assert.Equal(t, input, FilterIAC(input))
	})
}

// Property: filtering an encoded payload without newlines restores it.
func TestPropertyEncodeThenFilterRoundTrips(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		length := rapid.IntRange(0, 100).Draw(t, "length")
		input := make([]byte, length)
		for i := range input {
			b := byte(rapid.IntRange(0, 255).Draw(t, "byte"))
			if b == '\n' || b == '\r' {
				b = ' '
			}
			input[i] = b
		}
		got := FilterIAC(Encode(string(input)))
		if string(got) != string(input) {
			t.Fatalf("round trip of %v gave %v", input, got)
		}
	})
}

// Property: FilterIAC output length is always <= input length.
func TestPropertyFilterIAC_OutputNeverLongerThanInput(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		length := rapid.IntRange(0, 200).Draw(t, "length")
		input := make([]byte, length)
		for i := range input {
			input[i] = byte(rapid.IntRange(0, 255).Draw(t, "byte"))
		}
		assert.LessOrEqual(t, len(FilterIAC(input)), len(input))
	})
}

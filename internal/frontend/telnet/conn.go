package telnet

import (
	"bufio"
	"net"
	"strings"
	"sync"
	"time"
)

// Protocol bytes from RFC 854 and the option numbers parlor negotiates.
const (
	IAC  byte = 255
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	SB   byte = 250
	GA   byte = 249
	NOP  byte = 241
	SE   byte = 240

	OptEcho            byte = 1
	OptSuppressGoAhead byte = 3
	OptLinemode        byte = 34
)

// MaxLineLength caps one line of player input. Bytes past the cap are
// discarded up to the next line break.
const MaxLineLength = 1024

const (
	backspace = 0x08
	del       = 0x7f
)

type decodeState uint8

const (
	stateData decodeState = iota
	stateCommand
	stateOption
	stateSub
	stateSubCommand
)

// decoder strips command sequences from an inbound byte stream one byte at a
// time, so a sequence split across reads is still recognised.
type decoder struct {
	state decodeState
}

// feed consumes b and reports the data byte it carries, if any.
func (d *decoder) feed(b byte) (byte, bool) {
	switch d.state {
	case stateCommand:
		switch b {
		case IAC:
			d.state = stateData
			return IAC, true
		case WILL, WONT, DO, DONT:
			d.state = stateOption
		case SB:
			d.state = stateSub
		default:
			d.state = stateData
		}
	case stateOption:
		d.state = stateData
	case stateSub:
		if b == IAC {
			d.state = stateSubCommand
		}
	case stateSubCommand:
		if b == SE {
			d.state = stateData
		} else {
			d.state = stateSub
		}
	default:
		if b == IAC {
			d.state = stateCommand
			return 0, false
		}
		return b, true
	}
	return 0, false
}

// Conn is one Telnet client. Reads must come from a single goroutine; writes
// may come from any.
type Conn struct {
	raw    net.Conn
	reader *bufio.Reader
	dec    decoder
	// afterCR is set when the last line ended on CR, whose LF or NUL partner
	// may still be in flight.
	afterCR bool

	mu           sync.Mutex
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewConn wraps raw. A zero timeout disables that deadline.
func NewConn(raw net.Conn, readTimeout, writeTimeout time.Duration) *Conn {
	return &Conn{
		raw:          raw,
		reader:       bufio.NewReaderSize(raw, 4096),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// Negotiate offers to suppress go-ahead, putting the client in
// character-at-a-time friendly mode.
func (c *Conn) Negotiate() error {
	return c.writeRaw([]byte{IAC, WILL, OptSuppressGoAhead})
}

// ReadLine returns the next line of input without its terminator. Command
// sequences and control bytes other than tab are dropped, and backspace or
// DEL erases the previous byte.
//
// Postcondition: on error the partial line read so far is returned with it.
func (c *Conn) ReadLine() (string, error) {
	if c.readTimeout > 0 {
		_ = c.raw.SetReadDeadline(time.Now().Add(c.readTimeout))
	}

	line := make([]byte, 0, 64)
	for {
		raw, err := c.reader.ReadByte()
		if err != nil {
			return string(line), err
		}
		b, ok := c.dec.feed(raw)
		if !ok {
			continue
		}

		if c.afterCR {
			c.afterCR = false
			if b == '\n' || b == 0 {
				continue
			}
		}

		switch {
		case b == '\n':
			return string(line), nil
		case b == '\r':
			c.afterCR = true
			return string(line), nil
		case b == backspace || b == del:
			if len(line) > 0 {
				line = line[:len(line)-1]
			}
		case b < ' ' && b != '\t':
		case len(line) < MaxLineLength:
			line = append(line, b)
		}
	}
}

// WriteLine sends text and a line break.
func (c *Conn) WriteLine(text string) error {
	return c.writeRaw(Encode(text + "\n"))
}

// WritePrompt sends text with no line break.
func (c *Conn) WritePrompt(prompt string) error {
	return c.writeRaw(Encode(prompt))
}

func (c *Conn) writeRaw(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	_, err := c.raw.Write(data)
	return err
}

// Close closes the TCP connection.
func (c *Conn) Close() error {
	return c.raw.Close()
}

// RemoteAddr returns the client address as host:port.
func (c *Conn) RemoteAddr() string {
	return c.raw.RemoteAddr().String()
}

// Encode prepares text for the wire: every line break becomes CRLF and a
// literal 0xFF byte is doubled so the client does not read it as IAC.
func Encode(text string) []byte {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	out := make([]byte, 0, len(text)+len(text)/16+2)
	for i := 0; i < len(text); i++ {
		switch b := text[i]; b {
		case '\n':
			out = append(out, '\r', '\n')
		case IAC:
			out = append(out, IAC, IAC)
		default:
			out = append(out, b)
		}
	}
	return out
}

// FilterIAC returns input with every command sequence removed and escaped
// 0xFF bytes restored. A sequence cut off at the end of input is dropped.
func FilterIAC(input []byte) []byte {
	out := make([]byte, 0, len(input))
	var d decoder
	for _, raw := range input {
		if b, ok := d.feed(raw); ok {
			out = append(out, b)
		}
	}
	return out
}

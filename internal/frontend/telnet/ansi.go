// Package telnet provides the Telnet transport: the protocol codec, a
// line-based connection, a TCP acceptor and ANSI styling for game text.
package telnet

// SGR codes parlor styles text with.
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red          = "\033[31m"
	Green        = "\033[32m"
	Yellow       = "\033[33m"
	Cyan         = "\033[36m"
	BrightYellow = "\033[93m"
	BrightCyan   = "\033[96m"
)

// Palette assigns a style to each kind of text the server writes outside of
// command replies. An empty field leaves that kind unstyled.
type Palette struct {
	Banner string
	Prompt string
	Error  string
}

// DefaultPalette is used for Telnet clients.
var DefaultPalette = Palette{
	Banner: BrightCyan,
	Prompt: Cyan,
	Error:  Red,
}

// Plain styles nothing. WebSocket clients receive plain text.
var Plain = Palette{}

// Paint wraps text in code and a reset. Empty text or an empty code leaves
// text unchanged.
func Paint(code, text string) string {
	if code == "" || text == "" {
		return text
	}
	return code + text + Reset
}

// StripANSI removes CSI escape sequences (ESC '[' parameters final-byte)
// from s. An unterminated sequence at the end of s is kept as text.
func StripANSI(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\033' || i+1 >= len(s) || s[i+1] != '[' {
			out = append(out, s[i])
			continue
		}
		end := csiEnd(s, i+2)
		if end < 0 {
			out = append(out, s[i:]...)
			break
		}
		i = end
	}
	return string(out)
}

// csiEnd returns the index of the final byte of a CSI sequence whose
// parameters start at from, or -1 if the sequence is unterminated.
func csiEnd(s string, from int) int {
	for j := from; j < len(s); j++ {
		if c := s[j]; c >= 0x40 && c <= 0x7e {
			return j
		}
	}
	return -1
}

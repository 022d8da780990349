package command

import (
	"strings"
	"unicode"
)

// ParseResult holds the parsed command name and arguments from a text line.
type ParseResult struct {
	// Command is the first word of the input, lowercased.
	Command string
	// Args are the remaining words after the command.
	Args []string
	// RawArgs is the text after the command with its inner spacing preserved.
	// Resolvers normalize it themselves.
	RawArgs string
}

// Parse splits a text line into a command and arguments. A leading "." is
// dropped so that chat-style ".take key" works the same as "take key".
// Any Unicode space separates the command from its arguments.
func Parse(line string) ParseResult {
	line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "."))
	if line == "" {
		return ParseResult{}
	}
	end := strings.IndexFunc(line, unicode.IsSpace)
	if end < 0 {
		return ParseResult{Command: strings.ToLower(line)}
	}
	rest := strings.TrimSpace(line[end:])
	return ParseResult{
		Command: strings.ToLower(line[:end]),
		Args:    strings.Fields(rest),
		RawArgs: rest,
	}
}

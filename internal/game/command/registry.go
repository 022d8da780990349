package command

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Registry maps command names, aliases and unambiguous name prefixes to
// Command definitions.
type Registry struct {
	byName  map[string]*Command
	aliases map[string]string // alias → canonical name
	names   []string          // canonical names, sorted
}

// NewRegistry creates a Registry populated with the given commands.
//
// Precondition: No two commands may share a canonical name or alias.
// Postcondition: Returns a Registry or an error naming every collision.
func NewRegistry(cmds []Command) (*Registry, error) {
	r := &Registry{
		byName:  make(map[string]*Command, len(cmds)),
		aliases: make(map[string]string),
	}
	var errs []error
	for i := range cmds {
		cmd := &cmds[i]
		switch {
		case cmd.Name == "" || cmd.Handler == "":
			errs = append(errs, fmt.Errorf("command %d needs a name and a handler", i+1))
			continue
		case r.byName[cmd.Name] != nil:
			errs = append(errs, fmt.Errorf("duplicate command name: %q", cmd.Name))
			continue
		}
		r.byName[cmd.Name] = cmd
		r.names = append(r.names, cmd.Name)
	}
	for name, cmd := range r.byName {
		for _, alias := range cmd.Aliases {
			if _, clash := r.byName[alias]; clash {
				errs = append(errs, fmt.Errorf("alias %q of %q conflicts with command name %q", alias, name, alias))
				continue
			}
			if other, clash := r.aliases[alias]; clash {
				a, b := min(other, name), max(other, name)
				errs = append(errs, fmt.Errorf("duplicate alias %q: used by %q and %q", alias, a, b))
				continue
			}
			r.aliases[alias] = name
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	slices.Sort(r.names)
	return r, nil
}

// DefaultRegistry creates a Registry with all built-in commands.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(BuiltinCommands())
	if err != nil {
		panic(fmt.Sprintf("building default registry: %v", err))
	}
	return r
}

// Resolve looks up a command by name, alias or a prefix of exactly one
// command name, ignoring case. Exact names and aliases win over prefixes.
func (r *Registry) Resolve(input string) (*Command, bool) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return nil, false
	}
	if cmd, ok := r.byName[input]; ok {
		return cmd, true
	}
	if name, ok := r.aliases[input]; ok {
		return r.byName[name], true
	}
	var match *Command
	for _, name := range r.names {
		if !strings.HasPrefix(name, input) {
			continue
		}
		if match != nil {
			return nil, false
		}
		match = r.byName[name]
	}
	return match, match != nil
}

// Commands returns all registered commands sorted by name.
func (r *Registry) Commands() []*Command {
	out := make([]*Command, len(r.names))
	for i, name := range r.names {
		out[i] = r.byName[name]
	}
	return out
}

// CommandsByCategory returns commands grouped by category, each group sorted by name.
func (r *Registry) CommandsByCategory() map[string][]*Command {
	out := make(map[string][]*Command)
	for _, cmd := range r.Commands() {
		out[cmd.Category] = append(out[cmd.Category], cmd)
	}
	return out
}

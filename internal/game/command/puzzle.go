package command

import (
	"strings"

	"github.com/cory-johannsen/parlor/internal/game/action"
	"github.com/cory-johannsen/parlor/internal/game/resolve"
	"github.com/cory-johannsen/parlor/internal/game/world"
)

// handleUse processes "use <puzzle> [answer]" and "use <item> on <puzzle>".
// Using an activatable fixture that has no puzzle switches it on or off.
func handleUse(x *Executor, p *world.Player, args string) (string, error) {
	text := resolve.Normalize(args, false)
	if text == "" {
		return "", resolve.Errorf("You need to specify what to use.")
	}
	if itemText, target, ok := cutLast(text, " ON "); ok {
		if pz, rest := puzzlePrefix(p.Room, target); pz != nil && rest == "" {
			t, err := resolve.Item(itemText, resolve.Scope{Items: held(p)})
			if err != nil {
				return "", err
			}
			_, err = x.act(p).Attempt(pz, t.Item, "", action.CommandUse)
			return "", err
		}
	}
	if pz, answer := puzzlePrefix(p.Room, text); pz != nil {
		_, err := x.act(p).Attempt(pz, nil, answer, action.CommandUse)
		return "", err
	}
	if f, ok := fixtureNamed(p.Room, text); ok && f.Activatable {
		if f.Activated {
			return "", x.act(p).Deactivate(f)
		}
		return "", x.act(p).Activate(f)
	}
	return "", resolve.Errorf("Couldn't find %q.", text)
}

// handleUnlock processes "unlock <lock> [with <key or combination>]".
func handleUnlock(x *Executor, p *world.Player, args string) (string, error) {
	return lockCommand(x, p, args, action.CommandUnlock)
}

// handleLock processes "lock <lock> [with <key>]".
func handleLock(x *Executor, p *world.Player, args string) (string, error) {
	return lockCommand(x, p, args, action.CommandLock)
}

func lockCommand(x *Executor, p *world.Player, args, command string) (string, error) {
	text := resolve.Normalize(args, false)
	pz, rest := puzzlePrefix(p.Room, text)
	if pz == nil {
		return "", resolve.Errorf("Couldn't find %q.", text)
	}
	if pz.Type != world.PuzzleKeyLock && pz.Type != world.PuzzleCombinationLock {
		return "", resolve.Errorf("The %s is not a lock.", pz.Label())
	}
	rest = strings.TrimSpace(strings.TrimPrefix(rest, "WITH"))
	var key *world.Item
	if rest != "" && pz.Type == world.PuzzleKeyLock {
		t, err := resolve.Item(rest, resolve.Scope{Items: held(p)})
		if err != nil {
			return "", err
		}
		key, rest = t.Item, ""
	}
	_, err := x.act(p).Attempt(pz, key, rest, command)
	return "", err
}

// handleActivate processes "activate <fixture>".
func handleActivate(x *Executor, p *world.Player, args string) (string, error) {
	f, err := fixtureArg(p, args)
	if err != nil {
		return "", err
	}
	return "", x.act(p).Activate(f)
}

// handleDeactivate processes "deactivate <fixture>".
func handleDeactivate(x *Executor, p *world.Player, args string) (string, error) {
	f, err := fixtureArg(p, args)
	if err != nil {
		return "", err
	}
	return "", x.act(p).Deactivate(f)
}

func fixtureArg(p *world.Player, args string) (*world.Fixture, error) {
	text := resolve.Normalize(args, false)
	if text == "" {
		return nil, resolve.Errorf("You need to specify a fixture.")
	}
	f, ok := fixtureNamed(p.Room, text)
	if !ok {
		return nil, resolve.Errorf("Couldn't find %q.", text)
	}
	return f, nil
}

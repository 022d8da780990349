package command

import (
	"strings"

	"github.com/cory-johannsen/parlor/internal/game/resolve"
	"github.com/cory-johannsen/parlor/internal/game/world"
)

// handleEquip processes "equip <item> [to <slot>]".
//
// Precondition: the world lock is held.
// Postcondition: On success the item leaves p's hand for an equipment slot.
func handleEquip(x *Executor, p *world.Player, args string) (string, error) {
	text := resolve.Normalize(args, false)
	itemText, slot := text, ""
	if before, after, ok := cutLast(text, " TO "); ok {
		if _, isSlot := p.Slot(after); isSlot {
			itemText, slot = before, after
		}
	}
	t, err := resolve.Item(itemText, resolve.Scope{Items: held(p)})
	if err != nil {
		return "", err
	}
	return "", x.act(p).Equip(t.Item, slot)
}

// handleUnequip processes "unequip <item>". The item goes to a free hand.
func handleUnequip(x *Executor, p *world.Player, args string) (string, error) {
	t, err := resolve.Item(args, resolve.Scope{Items: worn(p)})
	if err != nil {
		return "", err
	}
	return "", x.act(p).Unequip(t.Item, "")
}

// handleDress processes "dress [from] <container>".
func handleDress(x *Executor, p *world.Player, args string) (string, error) {
	text := resolve.Normalize(args, false)
	if text == "" {
		return "", resolve.Errorf("You need to specify what to dress from.")
	}
	if !strings.HasPrefix(text, "FROM ") {
		text = "FROM " + text
	}
	scope := placeScope(p.Room, nil)
	scope.Links = []string{"FROM"}
	place, _, err := resolve.Place(text, scope)
	if err != nil {
		return "", err
	}
	_, err = x.act(p).Dress(p.Room.ItemsIn(place.Container), place.Container)
	return "", err
}

// handleUndress processes "undress [on|in <container>]". Without a container
// everything lands on the floor.
func handleUndress(x *Executor, p *world.Player, args string) (string, error) {
	if strings.TrimSpace(args) == "" {
		_, err := x.act(p).Undress(nil, "")
		return "", err
	}
	place, _, err := resolve.Place(args, placeScope(p.Room, nil))
	if err != nil {
		return "", err
	}
	_, err = x.act(p).Undress(place.Container, place.Slot)
	return "", err
}

package command

import (
	"strings"

	"github.com/cory-johannsen/parlor/internal/game/resolve"
	"github.com/cory-johannsen/parlor/internal/game/world"
)

// handleTake processes "take <item> [from <container>]".
//
// Precondition: the world lock is held.
// Postcondition: On success the item is in one of p's hands.
func handleTake(x *Executor, p *world.Player, args string) (string, error) {
	t, err := resolve.Item(args, roomScope(p.Room))
	if err != nil {
		return "", err
	}
	_, err = x.act(p).Take(t.Item, "")
	return "", err
}

// handleDrop processes "drop <item> [on|in <container>]". Without a container
// the item goes on the floor.
func handleDrop(x *Executor, p *world.Player, args string) (string, error) {
	t, err := resolve.Item(args, placeScope(p.Room, held(p)))
	if err != nil {
		return "", err
	}
	return "", x.act(p).Drop(t.Item, t.Container, t.Slot)
}

// handleGive processes "give <item> to <player>".
func handleGive(x *Executor, p *world.Player, args string) (string, error) {
	itemText, name, ok := cutLast(resolve.Normalize(args, false), " TO ")
	if !ok {
		return "", resolve.Errorf("You need to specify who to give it to.")
	}
	recipient, ok := playerNamed(x.env.World, p.Room, name)
	if !ok {
		return "", resolve.Errorf("Couldn't find player %q.", name)
	}
	t, err := resolve.Item(itemText, resolve.Scope{Items: held(p)})
	if err != nil {
		return "", err
	}
	return "", x.act(p).Give(t.Item, recipient)
}

// handleSteal processes "steal from [<slot> of] <player>'s <container>".
// Apostrophes are dropped by normalization, so the owner reads as "NAMES".
func handleSteal(x *Executor, p *world.Player, args string) (string, error) {
	text := strings.TrimPrefix(resolve.Normalize(args, false), "FROM ")
	if text == "" {
		return "", resolve.Errorf("You need to specify who to steal from.")
	}
	for _, victim := range x.env.World.PlayersIn(p.Room) {
		if victim.HidingSpot != "" && victim != p {
			continue
		}
		name := resolve.Normalize(victim.Name, false)
		for _, owner := range []string{name + "S ", name + " "} {
			i := strings.Index(text, owner)
			if i < 0 || (i > 0 && !strings.HasSuffix(text[:i], " OF ")) {
				continue
			}
			ref := text[:i] + text[i+len(owner):]
			c, slot, err := resolve.ContainerSlot(ref, containers(victim.Inventory()))
			if err != nil {
				return "", err
			}
			_, err = x.act(p).Steal(victim, c, slot, "")
			return "", err
		}
	}
	return "", resolve.Errorf("Couldn't find %q.", text)
}

// handleStash processes "stash <item> in [<slot> of] <container>".
func handleStash(x *Executor, p *world.Player, args string) (string, error) {
	t, err := resolve.Item(args, resolve.Scope{
		Items:      held(p),
		Containers: containers(p.Inventory()),
	})
	if err != nil {
		return "", err
	}
	c, ok := t.Container.(*world.Item)
	if !ok {
		return "", resolve.Errorf("You need to specify where to stash %s.", t.Item.SingleContainingPhrase())
	}
	return "", x.act(p).Stash(t.Item, c, t.Slot)
}

// handleUnstash processes "unstash <item> [from [<slot> of] <container>]".
func handleUnstash(x *Executor, p *world.Player, args string) (string, error) {
	t, err := resolve.Item(args, resolve.Scope{
		Items:      stashed(p),
		Containers: containers(p.Inventory()),
		Inside:     true,
	})
	if err != nil {
		return "", err
	}
	_, err = x.act(p).Unstash(t.Item, "")
	return "", err
}

package command

import (
	"github.com/cory-johannsen/parlor/internal/game/resolve"
	"github.com/cory-johannsen/parlor/internal/game/world"
)

// handleCraft processes "craft <item> with <item>" and "combine <item> and <item>".
func handleCraft(x *Executor, p *world.Player, args string) (string, error) {
	text := resolve.Normalize(args, false)
	first, second, ok := cutLast(text, " WITH ")
	if !ok {
		first, second, ok = cutLast(text, " AND ")
	}
	if !ok {
		return "", resolve.Errorf("You need to name two items to combine.")
	}
	hands := resolve.Scope{Items: held(p)}
	a, err := resolve.Item(first, hands)
	if err != nil {
		return "", err
	}
	// Two identical names refer to the item in each hand.
	hands.Items = without(hands.Items, a.Item)
	b, err := resolve.Item(second, hands)
	if err != nil {
		return "", err
	}
	_, err = x.act(p).Craft(a.Item, b.Item)
	return "", err
}

// handleUncraft processes "uncraft <item>".
func handleUncraft(x *Executor, p *world.Player, args string) (string, error) {
	t, err := resolve.Item(args, resolve.Scope{Items: held(p)})
	if err != nil {
		return "", err
	}
	_, err = x.act(p).Uncraft(t.Item)
	return "", err
}

func without(items []*world.Item, drop *world.Item) []*world.Item {
	out := make([]*world.Item, 0, len(items))
	for _, it := range items {
		if it != drop {
			out = append(out, it)
		}
	}
	return out
}

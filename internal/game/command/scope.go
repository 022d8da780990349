package command

import (
	"strings"

	"github.com/cory-johannsen/parlor/internal/game/resolve"
	"github.com/cory-johannsen/parlor/internal/game/world"
)

// held returns the items in p's hands, right hand first.
func held(p *world.Player) []*world.Item {
	var out []*world.Item
	for _, id := range []string{world.RightHand, world.LeftHand} {
		if s, ok := p.Slot(id); ok && s.Equipped != nil {
			out = append(out, s.Equipped)
		}
	}
	return out
}

// worn returns the items equipped outside the hands.
func worn(p *world.Player) []*world.Item {
	var out []*world.Item
	for _, s := range p.Equipment {
		if s.Equipped != nil && !world.IsHand(s.ID) {
			out = append(out, s.Equipped)
		}
	}
	return out
}

// stashed returns the items p carries inside other items.
func stashed(p *world.Player) []*world.Item {
	var out []*world.Item
	for _, it := range p.Inventory() {
		if _, ok := it.Container.(*world.Item); ok {
			out = append(out, it)
		}
	}
	return out
}

// containers returns the items among its that have inventory slots.
func containers(its []*world.Item) []*world.Item {
	var out []*world.Item
	for _, it := range its {
		if len(it.Inventory) > 0 {
			out = append(out, it)
		}
	}
	return out
}

// visible returns the accessible items in room.
func visible(r *world.Room) []*world.Item {
	var out []*world.Item
	for _, it := range r.Items {
		if it.Accessible && it.Quantity != 0 {
			out = append(out, it)
		}
	}
	return out
}

// roomScope is the candidate set for commands that pick something up in a room.
func roomScope(r *world.Room) resolve.Scope {
	items := visible(r)
	return resolve.Scope{
		Items:      items,
		Containers: containers(items),
		Fixtures:   r.Fixtures,
		Puzzles:    r.Puzzles,
		Links:      []string{"FROM"},
		Inside:     true,
	}
}

// placeScope is the candidate set for commands that put something down in a room.
func placeScope(r *world.Room, items []*world.Item) resolve.Scope {
	return resolve.Scope{
		Items:      items,
		Containers: containers(visible(r)),
		Fixtures:   r.Fixtures,
		Puzzles:    r.Puzzles,
	}
}

// playerNamed finds a visible player in r by name or display name.
func playerNamed(w *world.World, r *world.Room, name string) (*world.Player, bool) {
	name = resolve.Normalize(name, false)
	for _, p := range w.PlayersIn(r) {
		if p.HidingSpot != "" {
			continue
		}
		if resolve.Normalize(p.Name, false) == name || (p.DisplayName != "" && resolve.Normalize(p.DisplayName, false) == name) {
			return p, true
		}
	}
	return nil, false
}

func fixtureNamed(r *world.Room, name string) (*world.Fixture, bool) {
	for _, f := range r.Fixtures {
		if resolve.Normalize(f.Name, false) == name {
			return f, true
		}
	}
	return nil, false
}

// puzzlePrefix finds the puzzle whose name, or whose fixture's name, opens
// text. The longest name wins; the remainder is returned as rest.
func puzzlePrefix(r *world.Room, text string) (pz *world.Puzzle, rest string) {
	best := -1
	for _, candidate := range r.Puzzles {
		for _, n := range []string{candidate.Name, candidate.Label()} {
			n = resolve.Normalize(n, false)
			if len(n) <= best {
				continue
			}
			if text == n {
				pz, rest, best = candidate, "", len(n)
			} else if tail, ok := strings.CutPrefix(text, n+" "); ok {
				pz, rest, best = candidate, strings.TrimSpace(tail), len(n)
			}
		}
	}
	return pz, rest
}

// cutLast splits text around the last occurrence of sep.
func cutLast(text, sep string) (before, after string, found bool) {
	i := strings.LastIndex(text, sep)
	if i < 0 {
		return text, "", false
	}
	return strings.TrimSpace(text[:i]), strings.TrimSpace(text[i+len(sep):]), true
}

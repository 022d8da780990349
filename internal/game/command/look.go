package command

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cory-johannsen/parlor/internal/game/description"
	"github.com/cory-johannsen/parlor/internal/game/resolve"
	"github.com/cory-johannsen/parlor/internal/game/world"
)

// handleLook renders the player's room: title, description, exits and the
// other players who are not hiding.
func handleLook(x *Executor, p *world.Player, _ string) (string, error) {
	return RoomView(x.env.World, p), nil
}

// RoomView is the text "look" shows p.
//
// Precondition: the world lock is held.
func RoomView(w *world.World, p *world.Player) string {
	r := p.Room
	var sb strings.Builder
	sb.WriteString(r.Title)
	sb.WriteString("\n")
	if text := description.Render(r.Description); text != "" {
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	if len(r.Exits) > 0 {
		dirs := make([]string, 0, len(r.Exits))
		for _, e := range r.Exits {
			dirs = append(dirs, string(e.Direction))
		}
		sb.WriteString("Exits: " + strings.Join(dirs, ", ") + "\n")
	}
	var here []string
	for _, other := range w.PlayersIn(r) {
		if other != p && other.HidingSpot == "" {
			here = append(here, other.Name)
		}
	}
	if len(here) > 0 {
		sb.WriteString("Also here: " + strings.Join(here, ", ") + ".\n")
	}
	if p.HidingSpot != "" {
		sb.WriteString(fmt.Sprintf("You are hiding in the %s.\n", p.HidingSpot))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// handleInspect processes "inspect <thing>". The thing is tried as the room,
// a player, a fixture, a free-standing puzzle, then an item the player carries
// or can see, in that order.
func handleInspect(x *Executor, p *world.Player, args string) (string, error) {
	text := resolve.Normalize(args, false)
	a := x.act(p)
	if text == "" || text == "ROOM" {
		_, err := a.Inspect(p.Room)
		return "", err
	}
	if other, ok := playerNamed(x.env.World, p.Room, text); ok {
		_, err := a.InspectPlayer(other)
		return "", err
	}
	if f, ok := fixtureNamed(p.Room, text); ok {
		_, err := a.Inspect(f)
		return "", err
	}
	for _, pz := range p.Room.Puzzles {
		if pz.ParentFixture == nil && resolve.Normalize(pz.Name, false) == text {
			_, err := a.Inspect(pz)
			return "", err
		}
	}
	if it, ok := othersItem(x.env.World, p, text); ok {
		_, err := a.Inspect(it)
		return "", err
	}
	scope := roomScope(p.Room)
	scope.Items = append(p.Inventory(), scope.Items...)
	scope.Containers = append(containers(p.Inventory()), scope.Containers...)
	scope.Links = []string{"FROM", "IN", "ON"}
	t, err := resolve.Item(text, scope)
	if err != nil {
		return "", err
	}
	_, err = a.Inspect(t.Item)
	return "", err
}

// othersItem resolves "<player>'s <item>" against what another player wears or holds.
func othersItem(w *world.World, p *world.Player, text string) (*world.Item, bool) {
	for _, other := range w.PlayersIn(p.Room) {
		if other == p || other.HidingSpot != "" {
			continue
		}
		rest, ok := strings.CutPrefix(text, resolve.Normalize(other.Name, false)+"S ")
		if !ok {
			continue
		}
		for _, it := range append(held(other), worn(other)...) {
			if resolve.Named(rest, it) {
				return it, true
			}
		}
	}
	return nil, false
}

// handleHelp lists the commands by category.
func handleHelp(x *Executor, _ *world.Player, _ string) (string, error) {
	byCat := x.registry.CommandsByCategory()
	cats := make([]string, 0, len(byCat))
	for c := range byCat {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	var sb strings.Builder
	for _, c := range cats {
		sb.WriteString("=== " + c + " ===\n")
		for _, cmd := range byCat[c] {
			line := fmt.Sprintf("  %-45s %s", cmd.Usage, cmd.Help)
			if len(cmd.Aliases) > 0 {
				line += " (" + strings.Join(cmd.Aliases, ", ") + ")"
			}
			sb.WriteString(line + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

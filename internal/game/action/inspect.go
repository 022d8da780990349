package action

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/parlor/internal/game/description"
	"github.com/cory-johannsen/parlor/internal/game/world"
)

// Inspect shows the actor the description of a room, fixture, puzzle or item
// and returns the text sent. Items inside another player's inventory are
// shown without their contents. Inspecting a fixture that is a hiding spot
// finds everyone hiding there.
func (a *Action) Inspect(target world.Container) (string, error) {
	var text string
	err := a.run(TypeInspect, func() error {
		var desc string
		switch t := target.(type) {
		case *world.Room:
			desc = t.Description
		case *world.Fixture:
			desc = t.Description
			if t.ChildPuzzle != nil && t.ChildPuzzle.ItemsAccessible() {
				desc = t.ChildPuzzle.AlreadySolvedDescription
			}
			a.narrate("%s inspects the %s.", displayName(a.Player), t.Name)
			defer a.findHidden(t)
		case *world.Puzzle:
			desc = t.AlreadySolvedDescription
			if t.ParentFixture != nil && !t.ItemsAccessible() {
				desc = t.ParentFixture.Description
			}
			a.narrate("%s inspects the %s.", displayName(a.Player), t.Label())
		case *world.Item:
			if !t.Accessible && t.Owner != a.Player {
				return failf("Couldn't find item %q.", t.Name())
			}
			desc = t.Description
			switch {
			case t.Owner == nil:
				if !t.Discreet() {
					a.narrate("%s inspects %s.", displayName(a.Player), t.SingleContainingPhrase())
				}
			case t.Owner != a.Player:
				desc = description.ClearLists(desc)
				if !t.Discreet() {
					a.narrate("%s inspects %s's %s.", displayName(a.Player), displayName(t.Owner), t.Name())
				}
			default:
				if !t.Discreet() {
					a.narrate("%s inspects %s %s.", displayName(a.Player), a.Player.Pronouns.Dpos, t.Name())
				}
			}
		default:
			return failf("There is nothing to inspect.")
		}
		text = renderOr(desc, "You see nothing special.")
		a.notify(a.Player, "%s", text)
		a.log("inspected", itemOf(target), zap.String("target", target.Label()))
		return nil
	})
	return text, err
}

// InspectPlayer shows the actor another player's description.
func (a *Action) InspectPlayer(p *world.Player) (string, error) {
	var text string
	err := a.run(TypeInspect, func() error {
		if p.Room != a.Room || (p.HidingSpot != "" && p != a.Player) {
			return failf("Couldn't find %s.", displayName(p))
		}
		text = renderOr(p.Description, "You see nothing special.")
		a.notify(a.Player, "%s", text)
		if p != a.Player {
			a.narrator().Narrate(a.Room, displayName(a.Player)+" looks at "+displayName(p)+".", a.Player)
		}
		a.log("inspected", nil, zap.String("target", p.Name))
		return nil
	})
	return text, err
}

func (a *Action) findHidden(f *world.Fixture) {
	if f.HidingSpot == 0 {
		return
	}
	for _, p := range a.world().PlayersIn(a.Room) {
		if p == a.Player || p.HidingSpot != f.Name {
			continue
		}
		a.notify(a.Player, "You find %s hiding in the %s!", displayName(p), f.Name)
		a.notify(p, "You've been found by %s!", displayName(a.Player))
		a.narrator().Narrate(a.Room, displayName(a.Player)+" finds "+displayName(p)+" hiding in the "+f.Name+"!", a.Player, p)
	}
}

func itemOf(c world.Container) *world.Item {
	it, _ := c.(*world.Item)
	return it
}

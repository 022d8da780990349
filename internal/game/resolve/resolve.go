// Package resolve maps free command text onto items, containers and slots.
//
// Every item-locating command shares one algorithm: an exact name match wins
// outright; otherwise the text may end with a container item (optionally
// "SLOT OF CONTAINER") or a fixture introduced by a preposition, and the text
// before that reference names the item.
package resolve

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/parlor/internal/game/world"
)

// Error is a failure to understand the user's input. Its message is shown to
// the user verbatim.
type Error struct {
	Msg      string
	notFound bool
}

func (e *Error) Error() string { return e.Msg }

// Errorf returns a *Error with a formatted message.
func Errorf(format string, args ...any) error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...any) error {
	return &Error{Msg: fmt.Sprintf(format, args...), notFound: true}
}

// IsNotFound reports whether err is a *Error raised because nothing matched.
func IsNotFound(err error) bool {
	e, ok := err.(*Error)
	return ok && e.notFound
}

// Normalize upper-cases s, strips apostrophes and collapses runs of spaces.
// When dashes is set, dashes become spaces.
func Normalize(s string, dashes bool) string {
	s = strings.ToUpper(s)
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, "’", "")
	if dashes {
		s = strings.ReplaceAll(s, "-", " ")
	}
	return strings.Join(strings.Fields(s), " ")
}

// Scope is the candidate set a command resolves against. Every list is scanned
// in order and the first match wins.
type Scope struct {
	// Items are the candidates the text can name.
	Items []*world.Item
	// Containers are container-capable items that may close the text.
	Containers []*world.Item
	// Fixtures may close the text as "PREP FIXTURE" or "IN FIXTURE". A fixture
	// with a child puzzle resolves to the puzzle.
	Fixtures []*world.Fixture
	// Puzzles without a parent fixture may close the text the same way.
	Puzzles []*world.Puzzle
	// Links are extra words accepted before a fixture or puzzle, e.g. "FROM".
	Links []string
	// Inside requires the named item to sit directly in the resolved container.
	Inside bool
	// NoSlots rejects "SLOT OF CONTAINER" references.
	NoSlots bool
}

// Target is a resolved item and the place the text pointed at. Container is
// nil when the text named only the item.
type Target struct {
	Item      *world.Item
	Container world.Container
	Slot      string
}

// Names returns the normalized names an item answers to: identifier, prefab
// id, name and plural name.
func Names(it *world.Item) []string {
	var out []string
	if it.Identifier != "" {
		out = append(out, Normalize(it.Identifier, false))
	}
	out = append(out, Normalize(it.Prefab.ID, false), Normalize(it.Prefab.Name, false))
	if it.Prefab.PluralName != "" {
		out = append(out, Normalize(it.Prefab.PluralName, false))
	}
	return out
}

// Named reports whether the normalized text names it exactly.
func Named(text string, it *world.Item) bool {
	for _, n := range Names(it) {
		if n == text {
			return true
		}
	}
	return false
}

// Item resolves input against s.
//
// Precondition: s.Items is in display order.
// Postcondition: On success Target.Item is non-nil; on failure the error is a *Error.
func Item(input string, s Scope) (Target, error) {
	text := Normalize(input, false)
	if text == "" {
		return Target{}, Errorf("You need to specify an item.")
	}
	for _, it := range s.Items {
		if Named(text, it) {
			return Target{Item: it}, nil
		}
	}

	place, explicit, rest, err := trailing(text, s)
	if err != nil {
		return Target{}, err
	}
	if place == nil {
		return Target{}, notFoundf("Couldn't find item %q.", text)
	}
	for _, it := range s.Items {
		if !Named(rest, it) {
			continue
		}
		if !s.Inside {
			return Target{Item: it, Container: place.Container, Slot: place.Slot}, nil
		}
		if it.Container != place.Container || (explicit && it.Slot != place.Slot) {
			continue
		}
		return Target{Item: it, Container: place.Container, Slot: it.Slot}, nil
	}
	return Target{}, notFoundf("Couldn't find %q %s %s.", rest, prepOf(place.Container), place.Container.Label())
}

// Place resolves input that names only a destination, such as "ON DESK" or
// "MAIN POCKET OF BACKPACK". Leading text that is not part of the reference is
// returned as rest.
func Place(input string, s Scope) (Target, string, error) {
	text := Normalize(input, false)
	place, _, rest, err := trailing(" "+text, s)
	if err != nil {
		return Target{}, "", err
	}
	if place == nil {
		return Target{}, text, notFoundf("Couldn't find %q.", text)
	}
	return *place, rest, nil
}

// ContainerSlot resolves "CONTAINER" or "SLOT OF CONTAINER" exactly against
// containers. The slot defaults to the container's first slot.
func ContainerSlot(input string, containers []*world.Item) (*world.Item, string, error) {
	text := Normalize(input, false)
	for _, c := range containers {
		if Named(text, c) {
			if len(c.Inventory) == 0 {
				return nil, "", Errorf("%s cannot hold items.", c.Name())
			}
			return c, c.Inventory[0].ID, nil
		}
	}
	for _, c := range containers {
		for _, n := range Names(c) {
			head, ok := strings.CutSuffix(text, " OF "+n)
			if !ok {
				continue
			}
			if s, ok := c.InventorySlot(head); ok {
				return c, s.ID, nil
			}
			return nil, "", Errorf("Couldn't find %q of %s.", head, c.Name())
		}
	}
	return nil, "", notFoundf("Couldn't find %q.", text)
}

// trailing looks for a container reference closing text. It returns nil when
// there is none; explicit is set when the text chose an inventory slot.
func trailing(text string, s Scope) (place *Target, explicit bool, rest string, err error) {
	for _, c := range s.Containers {
		for _, n := range Names(c) {
			head, ok := strings.CutSuffix(text, " "+n)
			if !ok {
				continue
			}
			if len(c.Inventory) == 0 {
				return nil, false, "", Errorf("%s cannot hold items.", c.Name())
			}
			slot, chosen := c.Inventory[0].ID, false
			if h, ok := strings.CutSuffix(head, " OF"); ok {
				if s.NoSlots {
					return nil, false, "", Errorf("You cannot choose a slot of %s here.", c.Name())
				}
				found := false
				for _, is := range c.Inventory {
					if hh, ok := strings.CutSuffix(h, " "+is.ID); ok || h == is.ID {
						slot, head, found, chosen = is.ID, hh, true, true
						break
					}
				}
				if !found {
					words := strings.Fields(h)
					last := ""
					if len(words) > 0 {
						last = words[len(words)-1]
					}
					return nil, false, "", Errorf("Couldn't find %q of %s.", last, c.Name())
				}
			}
			return &Target{Container: c, Slot: slot}, chosen, dropLink(head, c.Preposition(), s.Links), nil
		}
	}
	for _, f := range s.Fixtures {
		head, link, ok := cutReference(text, Normalize(f.Name, false), f.Prep, s.Links)
		if !ok {
			continue
		}
		if !f.CanHoldItems() {
			return nil, false, "", Errorf("%s cannot hold items.", f.Name)
		}
		if !link {
			return nil, false, "", Errorf("You need to supply a preposition.")
		}
		var c world.Container = f
		if f.ChildPuzzle != nil {
			c = f.ChildPuzzle
		}
		return &Target{Container: c}, false, head, nil
	}
	for _, pz := range s.Puzzles {
		if pz.ParentFixture != nil {
			continue
		}
		head, link, ok := cutReference(text, Normalize(pz.Name, false), pz.Preposition(), s.Links)
		if !ok {
			continue
		}
		if !link {
			return nil, false, "", Errorf("You need to supply a preposition.")
		}
		return &Target{Container: pz}, false, head, nil
	}
	return nil, false, "", nil
}

// cutReference reports whether text ends with name. link is set when the word
// before name is prep, IN or one of links, in which case head excludes it.
func cutReference(text, name, prep string, links []string) (head string, link, ok bool) {
	before, ok := strings.CutSuffix(text, " "+name)
	if !ok {
		return "", false, false
	}
	words := append([]string{"IN"}, links...)
	if prep != "" {
		words = append(words, strings.ToUpper(prep))
	}
	for _, w := range words {
		if h, found := strings.CutSuffix(before, " "+w); found {
			return strings.TrimSpace(h), true, true
		}
		if before == w {
			return "", true, true
		}
	}
	return "", false, true
}

// itemLinks may stand between an item and the container item holding it.
var itemLinks = []string{"IN", "INTO", "INSIDE", "ON", "FROM"}

// dropLink removes a trailing preposition or link word from head. Any other
// last word belongs to the item name and is kept.
func dropLink(head, prep string, links []string) string {
	head = strings.TrimSpace(head)
	words := append(append([]string{}, itemLinks...), links...)
	if prep != "" {
		words = append(words, strings.ToUpper(prep))
	}
	for _, w := range words {
		if h, ok := strings.CutSuffix(head, " "+w); ok {
			return strings.TrimSpace(h)
		}
		if head == w {
			return ""
		}
	}
	return head
}

func prepOf(c world.Container) string {
	if p := c.Preposition(); p != "" {
		return p
	}
	return "in"
}

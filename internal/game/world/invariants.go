package world

import (
	"errors"
	"strconv"
	"strings"
)

// CheckInvariants walks the whole graph and reports every inconsistency found:
// slot totals, item weights, identifier uniqueness, carry weights, container
// references and the room display index.
//
// Postcondition: returns nil, or an error joining one InvariantError per violation.
func (w *World) CheckInvariants() error {
	const op = "CheckInvariants"
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, invariant(op, format, args...))
	}

	reachable := make(map[*Item]bool)
	identifiers := make(map[string]*Item)

	var walk func(it *Item)
	walk = func(it *Item) {
		reachable[it] = true
		if it.Quantity == 0 {
			fail("%s has zero quantity", it.Ref())
		}
		if live, ok := w.items[it.ID]; !ok || live != it {
			fail("%s is reachable but not registered", it.Ref())
		}
		if it.Identifier != "" {
			if other, dup := identifiers[it.Identifier]; dup && other != it {
				fail("identifier %q is used twice", it.Identifier)
			}
			identifiers[it.Identifier] = it
			n, ok := strings.CutPrefix(it.Identifier, it.Prefab.ID+" ")
			if _, err := strconv.Atoi(n); !ok || err != nil {
				fail("identifier %q does not match prefab %s", it.Identifier, it.Prefab.ID)
			}
		} else if it.Prefab.HasInventory() {
			fail("%s holds items but has no identifier", it.Ref())
		}
		weight := it.Prefab.Weight
		for _, s := range it.Inventory {
			space, sw := 0, 0
			for _, child := range s.Items {
				if child.Container != it || child.Slot != s.ID {
					fail("%s in %s/%s points at another container", child.Ref(), it.Ref(), s.ID)
				}
				if child.Owner != it.Owner || child.Room != it.Room || child.EquipmentSlot != it.EquipmentSlot {
					fail("%s in %s has a different location", child.Ref(), it.Ref())
				}
				if child.Quantity != Unlimited {
					space += child.Prefab.Size * child.Quantity
					sw += child.Weight * child.Quantity
				}
				walk(child)
			}
			if space != s.TakenSpace {
				fail("%s/%s taken space %d, items sum to %d", it.Ref(), s.ID, s.TakenSpace, space)
			}
			if sw != s.Weight {
				fail("%s/%s weight %d, items sum to %d", it.Ref(), s.ID, s.Weight, sw)
			}
			weight += s.Weight
		}
		if weight != it.Weight {
			fail("%s weight %d, expected %d", it.Ref(), it.Weight, weight)
		}
	}

	for _, r := range w.rooms {
		seen := make(map[*Item]bool)
		for i, it := range r.Items {
			if it.Room != r || it.Owner != nil {
				fail("%s is indexed in %s but located elsewhere", it.Ref(), r.ID)
			}
			if seen[it] {
				fail("%s is indexed twice in %s", it.Ref(), r.ID)
			}
			seen[it] = true
			switch c := it.Container.(type) {
			case *Item:
				pos := -1
				for j, other := range r.Items[:i] {
					if other == c {
						pos = j
					}
				}
				if pos == -1 {
					fail("%s is listed before its container %s", it.Ref(), c.Ref())
				}
			case *Fixture:
				if c.Room != r {
					fail("%s is in fixture %s of another room", it.Ref(), c.Name)
				}
			case *Puzzle:
				if c.Room != r {
					fail("%s is in puzzle %s of another room", it.Ref(), c.Name)
				}
			case *Room:
				if c != r {
					fail("%s is in another room", it.Ref())
				}
			case nil:
				fail("%s has no container", it.Ref())
			}
			if _, nested := it.Container.(*Item); !nested {
				walk(it)
			}
		}
		for it := range reachable {
			if it.Owner == nil && it.Room == r && !seen[it] {
				fail("%s is missing from the index of %s", it.Ref(), r.ID)
			}
		}
	}

	for _, p := range w.players {
		carry := 0
		for _, s := range p.Equipment {
			it := s.Equipped
			if it == nil {
				continue
			}
			if it.Owner != p || it.EquipmentSlot != s.ID || it.Container != nil {
				fail("%s in %s's %s has a different location", it.Ref(), p.Name, s.ID)
			}
			if it.Quantity != Unlimited {
				carry += it.Weight * it.Quantity
			}
			walk(it)
		}
		if carry != p.CarryWeight {
			fail("%s carry weight %d, equipment sums to %d", p.Name, p.CarryWeight, carry)
		}
	}

	for _, it := range w.items {
		if !reachable[it] {
			fail("%s is registered but unreachable", it.Ref())
		}
	}
	return errors.Join(errs...)
}

package action

import (
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/parlor/internal/game/world"
)

// Dress equips every listed room item that fits an empty equipment slot.
// Items the actor cannot carry are skipped. Each item passes through a free
// hand on the way, so the actor needs one.
//
// Precondition: items sit in the actor's room.
// Postcondition: the returned items are equipped.
func (a *Action) Dress(items []*world.Item, from world.Container) ([]*world.Item, error) {
	var worn []*world.Item
	err := a.run(TypeDress, func() error {
		hand, ok := a.Player.FreeHand()
		if !ok {
			return failf("You do not have a free hand to dress. Either drop an item you're currently holding or stash it in one of your equipped items.")
		}
		if f, ok := runningFixture(from); ok && !a.Forced {
			return failf("You cannot take items from the %s while it is turned on.", f.Name)
		}
		for _, it := range items {
			if !it.Prefab.Equippable || !it.Accessible {
				continue
			}
			if !a.Forced && a.Player.CarryWeight+it.Weight > a.Player.MaxCarryWeight() {
				continue
			}
			slot := a.emptySlotFor(it)
			if slot == "" {
				continue
			}
			moved, err := a.world().Take(a.Player, it, hand)
			if err != nil {
				return err
			}
			if err := a.world().Equip(a.Player, moved, slot); err != nil {
				return err
			}
			worn = append(worn, moved)
		}
		if len(worn) == 0 {
			return failf("There is nothing in the %s you can put on.", from.Label())
		}
		list := phraseList(worn)
		a.notify(a.Player, "You dress from the %s, putting on %s.", from.Label(), list)
		a.narrate("%s dresses from the %s, putting on %s.", displayName(a.Player), from.Label(), list)
		a.log("dressed", nil, append(containerFields(from, ""), zap.Strings("items", refs(worn)))...)
		a.react(from)
		return nil
	})
	return worn, err
}

func (a *Action) emptySlotFor(it *world.Item) string {
	for _, id := range it.Prefab.EquipmentSlots {
		if s, ok := a.Player.Slot(id); ok && s.Equipped == nil && !world.IsHand(id) {
			return id
		}
	}
	return ""
}

// Undress empties the actor's hands into c, then takes off every equippable
// item and puts it there too. A nil c is the floor. An item container must have
// room for everything at once.
func (a *Action) Undress(c world.Container, slot string) ([]*world.Item, error) {
	var removed []*world.Item
	err := a.run(TypeUndress, func() error {
		if c == nil {
			c = a.Room
		}
		worn := a.removable()
		if len(worn) == 0 {
			return failf("You are not wearing anything you can take off.")
		}
		if f, ok := runningFixture(c); ok && !a.Forced {
			return failf("You cannot put items %s the %s while it is turned on.", f.Prep, f.Name)
		}
		if pz, ok := c.(*world.Puzzle); ok && !pz.ItemsAccessible() && !a.Forced {
			return failf("You cannot put items %s the %s right now.", pz.Preposition(), pz.Label())
		}
		held := a.inHands()
		if ci, ok := c.(*world.Item); ok {
			if ci.Owner != nil {
				return failf("You cannot undress into something you are carrying.")
			}
			var err error
			if slot, err = a.checkFitAll(append(held, worn...), ci, slot); err != nil {
				return err
			}
		}
		for _, it := range held {
			if _, err := a.world().Drop(a.Player, it, c, slot); err != nil {
				return err
			}
		}
		for _, it := range worn {
			if err := a.world().Unequip(a.Player, it, world.RightHand); err != nil {
				return err
			}
			if _, err := a.world().Drop(a.Player, it, c, slot); err != nil {
				return err
			}
			removed = append(removed, it)
		}
		list := phraseList(removed)
		to := containerPhrase(c, slot)
		a.notify(a.Player, "You undress, putting %s %s %s.", list, prepOf(c), to)
		a.narrate("%s undresses, putting %s %s %s.", displayName(a.Player), list, prepOf(c), to)
		fields := append(containerFields(c, slot), zap.Strings("items", refs(removed)))
		if len(held) > 0 {
			fields = append(fields, zap.Strings("emptied_hands", refs(held)))
		}
		a.log("undressed", nil, fields...)
		a.react(c)
		return nil
	})
	return removed, err
}

// removable is the actor's worn equipment that Undress takes off, in slot order.
func (a *Action) removable() []*world.Item {
	var out []*world.Item
	for _, s := range a.Player.Equipment {
		if it := s.Equipped; it != nil && !world.IsHand(s.ID) && it.Prefab.Equippable {
			out = append(out, it)
		}
	}
	return out
}

// inHands is what the actor holds, right hand first.
func (a *Action) inHands() []*world.Item {
	var out []*world.Item
	for _, h := range []string{world.RightHand, world.LeftHand} {
		if s, ok := a.Player.Slot(h); ok && s.Equipped != nil {
			out = append(out, s.Equipped)
		}
	}
	return out
}

// checkFitAll is checkFit for a batch: each item must fit the slot on its own
// and their sizes together must fit the space left.
func (a *Action) checkFitAll(items []*world.Item, c *world.Item, slot string) (string, error) {
	if len(c.Inventory) == 0 {
		return "", failf("%s cannot hold items.", c.Name())
	}
	if slot == "" {
		slot = c.Inventory[0].ID
	}
	s, ok := c.InventorySlot(slot)
	if !ok {
		return "", failf("Couldn't find %q of %s.", slot, c.Name())
	}
	if a.Forced {
		return slot, nil
	}
	size := 0
	for _, it := range items {
		if it.Prefab.Size > s.Capacity {
			return "", failf("%s will not fit in %sthe %s because it is too large.", it.Name(), slotPhrase(c, slot), c.Name())
		}
		if it.Quantity != world.Unlimited {
			size += it.Prefab.Size * it.Quantity
		}
	}
	if !s.Fits(size) {
		return "", failf("Your things will not fit in %sthe %s because there isn't enough space left.", slotPhrase(c, slot), c.Name())
	}
	return slot, nil
}

// phraseList joins single containing phrases with an Oxford comma.
func phraseList(items []*world.Item) string {
	phrases := make([]string, 0, len(items))
	for _, it := range items {
		phrases = append(phrases, it.SingleContainingPhrase())
	}
	switch len(phrases) {
	case 0:
		return ""
	case 1:
		return phrases[0]
	case 2:
		return phrases[0] + " and " + phrases[1]
	}
	return strings.Join(phrases[:len(phrases)-1], ", ") + ", and " + phrases[len(phrases)-1]
}

func refs(items []*world.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Ref())
	}
	return out
}

package action

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/parlor/internal/game/world"
)

const takeHandReason = "take an item. Either drop an item you're currently holding or stash it in one of your equipped items"

func displayName(p *world.Player) string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Name
}

// Take moves one instance of the room item it into a hand. An empty hand
// picks the first free one.
//
// Precondition: it is a live room item in the actor's room.
// Postcondition: on success the returned item is equipped in the chosen hand.
func (a *Action) Take(it *world.Item, hand string) (*world.Item, error) {
	var taken *world.Item
	err := a.run(TypeTake, func() error {
		if err := a.checkAttribute(AttrDisableTake); err != nil {
			return err
		}
		h, err := a.hand(hand, takeHandReason)
		if err != nil {
			return err
		}
		if !a.Forced && !it.Accessible {
			return failf("You cannot take %s right now.", it.SingleContainingPhrase())
		}
		c, slot := it.Container, it.Slot
		if f, ok := runningFixture(c); ok && !a.Forced {
			return failf("You cannot take items from the %s while it is turned on.", f.Name)
		}
		phrase, from := it.SingleContainingPhrase(), containerPhrase(c, slot)
		if err := a.checkLift(it, phrase, from); err != nil {
			return err
		}
		moved, err := a.world().Take(a.Player, it, h)
		if err != nil {
			return err
		}
		a.notify(a.Player, "You take %s from %s.", phrase, from)
		if !moved.Discreet() {
			a.narrate("%s takes %s from %s.", displayName(a.Player), phrase, from)
		}
		a.log("took", moved, containerFields(c, slot)...)
		a.react(c)
		taken = moved
		return nil
	})
	return taken, err
}

// checkLift rejects items too heavy for the actor. The attempt is narrated
// unless the item is discreet.
func (a *Action) checkLift(it *world.Item, phrase, from string) error {
	if a.Forced {
		return nil
	}
	p := a.Player
	if it.Weight > p.MaxCarryWeight() {
		if !it.Discreet() {
			a.narrate("%s tries to take %s from %s, but it is too heavy for %s to lift.", displayName(p), phrase, from, p.Pronouns.Obj)
		}
		return failf("You try to take %s from %s, but it is too heavy for you to lift.", phrase, from)
	}
	if p.CarryWeight+it.Weight > p.MaxCarryWeight() {
		return failf("You try to take %s from %s, but you're carrying too much weight.", phrase, from)
	}
	return nil
}

// Drop puts the item held in one of the actor's hands into c. A nil c is the
// floor of the actor's room; an empty slot is the container item's first slot.
func (a *Action) Drop(it *world.Item, c world.Container, slot string) error {
	return a.run(TypeDrop, func() error {
		if err := a.checkAttribute(AttrDisableDrop); err != nil {
			return err
		}
		if _, err := a.held(it); err != nil {
			return err
		}
		if c == nil {
			c = a.Room
		}
		slot, err := a.checkPlace(it, c, slot)
		if err != nil {
			return err
		}
		phrase := it.SingleContainingPhrase()
		if _, err := a.world().Drop(a.Player, it, c, slot); err != nil {
			return err
		}
		to := containerPhrase(c, slot)
		if _, floor := c.(*world.Room); floor {
			a.notify(a.Player, "You discard %s on the floor.", phrase)
			a.narrate("%s discards %s on the floor.", displayName(a.Player), phrase)
		} else {
			a.notify(a.Player, "You put %s %s %s.", phrase, prepOf(c), to)
			a.narrate("%s puts %s %s %s.", displayName(a.Player), phrase, prepOf(c), to)
		}
		a.log("dropped", it, containerFields(c, slot)...)
		a.react(c)
		return nil
	})
}

// checkPlace validates putting it into room container c and returns the slot to use.
func (a *Action) checkPlace(it *world.Item, c world.Container, slot string) (string, error) {
	switch c := c.(type) {
	case *world.Fixture:
		if !c.CanHoldItems() {
			return "", failf("%s cannot hold items.", c.Name)
		}
	case *world.Puzzle:
		if !c.ItemsAccessible() && !a.Forced {
			return "", failf("You cannot put items %s the %s right now.", c.Preposition(), c.Label())
		}
	case *world.Item:
		if c == it {
			return "", failf("You cannot put %s inside itself.", it.SingleContainingPhrase())
		}
		s, err := a.checkFit(it, c, slot)
		if err != nil {
			return "", err
		}
		slot = s
	}
	if f, ok := runningFixture(c); ok && !a.Forced {
		return "", failf("You cannot put items %s the %s while it is turned on.", f.Prep, f.Name)
	}
	return slot, nil
}

// checkFit rejects items too large for the container slot.
func (a *Action) checkFit(it *world.Item, c *world.Item, slot string) (string, error) {
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
	if it.Prefab.Size > s.Capacity {
		return "", failf("%s will not fit in %sthe %s because it is too large.", it.Name(), slotPhrase(c, slot), c.Name())
	}
	if !s.Fits(it.Prefab.Size) {
		return "", failf("%s will not fit in %sthe %s because there isn't enough space left.", it.Name(), slotPhrase(c, slot), c.Name())
	}
	return slot, nil
}

// Give moves the item in one of the actor's hands into a free hand of recipient.
func (a *Action) Give(it *world.Item, recipient *world.Player) error {
	return a.run(TypeGive, func() error {
		if err := a.checkAttribute(AttrDisableGive); err != nil {
			return err
		}
		if _, err := a.held(it); err != nil {
			return err
		}
		if recipient == a.Player {
			return failf("You cannot give an item to yourself.")
		}
		if recipient.Room != a.Room {
			return failf("%s is not here.", displayName(recipient))
		}
		hand, ok := recipient.FreeHand()
		if !ok {
			return failf("%s does not have a free hand to receive %s.", displayName(recipient), it.SingleContainingPhrase())
		}
		phrase := it.SingleContainingPhrase()
		giver := displayName(a.Player)
		if !a.Forced {
			if it.Weight > recipient.MaxCarryWeight() {
				a.notify(recipient, "%s tries to give you %s, but it is too heavy for you to lift.", giver, phrase)
				return failf("You try to give %s %s, but it is too heavy for %s to lift.", displayName(recipient), phrase, recipient.Pronouns.Obj)
			}
			if recipient.CarryWeight+it.Weight > recipient.MaxCarryWeight() {
				a.notify(recipient, "%s tries to give you %s, but you're carrying too much weight.", giver, phrase)
				return failf("You try to give %s %s, but %s %s carrying too much weight.", displayName(recipient), phrase, recipient.Pronouns.Sbj, be(recipient))
			}
		}
		moved, err := a.world().Give(a.Player, it, recipient, hand)
		if err != nil {
			return err
		}
		a.notify(a.Player, "You give %s to %s.", phrase, displayName(recipient))
		a.notify(recipient, "%s gives you %s!", giver, phrase)
		if !moved.Discreet() && a.Player.HidingSpot == "" {
			a.narrator().Narrate(a.Room, fmt.Sprintf("%s gives %s to %s.", giver, phrase, displayName(recipient)), a.Player, recipient)
		}
		a.log("gave", moved, zap.String("recipient", recipient.Name))
		return nil
	})
}

// be conjugates "to be" for the player's pronouns.
func be(p *world.Player) string {
	if p.Pronouns.Plural {
		return "are"
	}
	return "is"
}

// Stash moves the item in one of the actor's hands into a slot of a container
// item the actor holds. An empty slot is the container's first slot.
func (a *Action) Stash(it *world.Item, container *world.Item, slot string) error {
	return a.run(TypeStash, func() error {
		if _, err := a.held(it); err != nil {
			return err
		}
		if container.Owner != a.Player {
			return failf("You are not carrying %s.", container.SingleContainingPhrase())
		}
		if container == it || world.IsInside(container, it) {
			return failf("You cannot stash %s inside itself.", it.SingleContainingPhrase())
		}
		slot, err := a.checkFit(it, container, slot)
		if err != nil {
			return err
		}
		phrase := it.SingleContainingPhrase()
		moved, err := a.world().Stash(a.Player, it, container, slot)
		if err != nil {
			return err
		}
		prep, sp := container.Preposition(), slotPhrase(container, slot)
		a.notify(a.Player, "You stash %s %s %syour %s.", phrase, prep, sp, container.Name())
		if !moved.Discreet() {
			a.narrate("%s stashes %s %s %s%s %s.", displayName(a.Player), phrase, prep, sp, a.Player.Pronouns.Dpos, container.Name())
		}
		a.log("stashed", moved, containerFields(container, slot)...)
		return nil
	})
}

// Unstash moves one instance of an item stashed in the actor's inventory into
// a hand. An empty hand picks the first free one.
func (a *Action) Unstash(it *world.Item, hand string) (*world.Item, error) {
	var taken *world.Item
	err := a.run(TypeUnstash, func() error {
		if it.Owner != a.Player || it.Equipped() {
			return failf("Couldn't find %s in your inventory.", it.Name())
		}
		h, err := a.hand(hand, "retrieve an item")
		if err != nil {
			return err
		}
		container, _ := it.Container.(*world.Item)
		slot, phrase := it.Slot, it.SingleContainingPhrase()
		moved, err := a.world().Unstash(a.Player, it, h)
		if err != nil {
			return err
		}
		sp := slotPhrase(container, slot)
		a.notify(a.Player, "You take %s out of %syour %s.", phrase, sp, container.Name())
		if !moved.Discreet() {
			a.narrate("%s takes %s out of %s%s %s.", displayName(a.Player), phrase, sp, a.Player.Pronouns.Dpos, container.Name())
		}
		a.log("unstashed", moved, containerFields(container, slot)...)
		taken = moved
		return nil
	})
	return taken, err
}

// Equip moves the item in one of the actor's hands to an equipment slot. An
// empty slot picks the first of the prefab's slots.
func (a *Action) Equip(it *world.Item, slot string) error {
	return a.run(TypeEquip, func() error {
		if _, err := a.held(it); err != nil {
			return err
		}
		if !it.Prefab.Equippable || len(it.Prefab.EquipmentSlots) == 0 {
			return failf("You cannot equip the %s.", it.Name())
		}
		if slot == "" {
			slot = it.Prefab.EquipmentSlots[0]
		}
		if !it.Prefab.FitsSlot(slot) {
			return failf("You cannot equip the %s to your %s.", it.Name(), slot)
		}
		s, ok := a.Player.Slot(slot)
		if !ok {
			return failf("You do not have a %s equipment slot.", slot)
		}
		if s.Equipped != nil {
			return failf("You cannot equip the %s because you are already wearing the %s.", it.Name(), s.Equipped.Name())
		}
		if err := a.world().Equip(a.Player, it, slot); err != nil {
			return err
		}
		a.notify(a.Player, "You put on %s.", it.SingleContainingPhrase())
		a.narrate("%s puts on %s.", displayName(a.Player), it.SingleContainingPhrase())
		a.log("equipped", it, zap.String("slot", slot))
		return nil
	})
}

// Unequip moves an equipped item into a hand. An empty hand picks the first free one.
func (a *Action) Unequip(it *world.Item, hand string) error {
	return a.run(TypeUnequip, func() error {
		if it.Owner != a.Player || !it.Equipped() || world.IsHand(it.EquipmentSlot) {
			return failf("You are not wearing the %s.", it.Name())
		}
		h, err := a.hand(hand, "unequip an item")
		if err != nil {
			return err
		}
		slot := it.EquipmentSlot
		if err := a.world().Unequip(a.Player, it, h); err != nil {
			return err
		}
		a.notify(a.Player, "You take off your %s.", it.Name())
		a.narrate("%s takes off %s %s.", displayName(a.Player), a.Player.Pronouns.Dpos, it.Name())
		a.log("unequipped", it, zap.String("slot", slot))
		return nil
	})
}

package action

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/parlor/internal/game/dice"
	"github.com/cory-johannsen/parlor/internal/game/world"
)

// StealResult describes how a steal attempt went. Item is nil when the slot was empty.
type StealResult struct {
	Item        *world.Item
	Roll        int
	Successful  bool
	VictimAware bool
}

// Steal tries to take one random instance from a slot of a container item the
// victim carries. Instances are weighted by quantity. The outcome is a
// dexterity check: a thief always rolls the maximum, a non-discreet item caps
// the roll at the partial band, a roll above the fail band succeeds, and a
// victim who is awake notices any roll that is not above the partial band.
//
// Precondition: container belongs to victim; slot names one of its inventory slots.
// Postcondition: an empty slot changes nothing and only the actor is told.
func (a *Action) Steal(victim *world.Player, container *world.Item, slot, hand string) (StealResult, error) {
	var res StealResult
	err := a.run(TypeSteal, func() error {
		if err := a.checkAttribute(AttrDisableSteal); err != nil {
			return err
		}
		if victim == a.Player {
			return failf("You cannot steal from yourself.")
		}
		if victim.Room != a.Room {
			return failf("%s is not here.", displayName(victim))
		}
		if container.Owner != victim {
			return failf("%s is not carrying %s.", displayName(victim), container.SingleContainingPhrase())
		}
		s, ok := container.InventorySlot(slot)
		if !ok {
			return failf("Couldn't find %q of %s.", slot, container.Name())
		}
		h, err := a.hand(hand, "steal an item")
		if err != nil {
			return err
		}
		sp := slotPhrase(container, slot)
		if len(s.Items) == 0 {
			a.notify(a.Player, "You try to steal from %s%s's %s, but it's empty.", sp, displayName(victim), container.Name())
			return nil
		}
		it := a.pick(s.Items)
		res.Item = it
		res.Roll = a.stealRoll(it)
		b := a.env.Dice
		res.Successful = res.Roll > b.FailMax()
		phrase := it.SingleContainingPhrase()
		thief := displayName(a.Player)
		if !res.Successful {
			a.notify(a.Player, "You try to steal %s from %s%s's %s, but %s %s before you can.",
				phrase, sp, displayName(victim), container.Name(), victim.Pronouns.Sbj, verbS(victim, "notice"))
			a.notify(victim, "%s attempts to steal %s from %syour %s, but you notice in time!", thief, phrase, sp, container.Name())
			a.log("stole", it, append(containerFields(container, slot), zap.String("victim", victim.Name), zap.Bool("successful", false))...)
			return nil
		}
		if !a.Forced && a.Player.CarryWeight+it.Weight > a.Player.MaxCarryWeight() {
			return failf("You try to steal %s, but you're carrying too much weight.", phrase)
		}
		res.VictimAware = res.Roll <= b.PartialMax() && !victim.HasAttribute(AttrUnconscious)
		moved, err := a.world().Steal(a.Player, it, h)
		if err != nil {
			return err
		}
		res.Item = moved
		a.notify(a.Player, "You steal %s from %s%s's %s.", phrase, sp, displayName(victim), container.Name())
		if res.VictimAware {
			a.notify(victim, "%s steals %s from %syour %s!", thief, phrase, sp, container.Name())
		}
		if !moved.Discreet() && a.Player.HidingSpot == "" {
			tail := fmt.Sprintf(" without %s noticing!", victim.Pronouns.Obj)
			if res.VictimAware {
				tail = fmt.Sprintf(", but %s %s to notice.", victim.Pronouns.Sbj, verbS(victim, "seem"))
			}
			a.narrator().Narrate(a.Room, fmt.Sprintf("%s steals %s from %s%s's %s%s", thief, phrase, sp, displayName(victim), container.Name(), tail), a.Player, victim)
		}
		a.log("stole", moved, append(containerFields(container, slot), zap.String("victim", victim.Name), zap.Bool("successful", true))...)
		return nil
	})
	return res, err
}

// pick chooses one entry with probability proportional to its quantity.
func (a *Action) pick(items []*world.Item) *world.Item {
	total := 0
	for _, it := range items {
		total += weightOf(it)
	}
	if a.env.Roller == nil || total <= 1 {
		return items[0]
	}
	n := a.env.Roller.Intn(total)
	for _, it := range items {
		n -= weightOf(it)
		if n < 0 {
			return it
		}
	}
	return items[len(items)-1]
}

func weightOf(it *world.Item) int {
	if it.Quantity == world.Unlimited {
		return 1
	}
	return it.Quantity
}

func (a *Action) stealRoll(it *world.Item) int {
	b := a.env.Dice
	var roll int
	switch {
	case a.Player.HasAttribute(AttrThief):
		roll = b.Max
	case a.env.Roller != nil:
		roll = a.env.Roller.Check(a.Player.Stats.Dexterity, b).Total()
	default:
		roll = b.Min + dice.StatModifier(a.Player.Stats.Dexterity, b)
	}
	if !it.Discreet() && roll > b.PartialMax() {
		roll = b.PartialMax()
	}
	return roll
}

// verbS conjugates a regular verb for the player's pronouns.
func verbS(p *world.Player, verb string) string {
	if p.Pronouns.Plural {
		return verb
	}
	return verb + "s"
}

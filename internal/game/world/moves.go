package world

import "go.uber.org/zap"

// Each transfer below removes from the source and inserts into the destination
// without returning in between, so callers holding the world lock observe
// either the old graph or the new one.

func (w *World) checkHand(op string, p *Player, hand string) error {
	s, ok := p.Slot(hand)
	if !ok || !IsHand(hand) {
		return invariant(op, "%s has no hand %q", p.Name, hand)
	}
	if s.Equipped != nil {
		return invariant(op, "%s's %s is occupied", p.Name, hand)
	}
	return nil
}

func (w *World) checkLive(op string, it *Item) error {
	if it == nil {
		return invariant(op, "nil item")
	}
	if live, ok := w.items[it.ID]; !ok || live != it || it.Quantity == 0 {
		return invariant(op, "%s is not live", it.Ref())
	}
	return nil
}

// Take moves one instance of the room item it into the player's empty hand.
//
// Precondition: it is a live room item; hand is empty.
// Postcondition: the container lists one fewer instance; the hand holds the
// returned item and carry weight grew by its weight.
func (w *World) Take(p *Player, it *Item, hand string) (*Item, error) {
	const op = "Take"
	if err := w.checkLive(op, it); err != nil {
		return nil, err
	}
	if it.Owner != nil {
		return nil, invariant(op, "%s is an inventory item", it.Ref())
	}
	if err := w.checkHand(op, p, hand); err != nil {
		return nil, err
	}
	moved := w.splitOne(it)
	w.equipTo(p, hand, moved)
	return moved, nil
}

// Drop moves the item held in one of the player's hands into container c of
// the player's room. slot names the inventory slot when c is an item.
//
// Postcondition: the hand is empty; the returned entry holds the dropped quantity.
func (w *World) Drop(p *Player, it *Item, c Container, slot string) (*Item, error) {
	const op = "Drop"
	if err := w.checkLive(op, it); err != nil {
		return nil, err
	}
	if it.Owner != p || !it.Equipped() || !IsHand(it.EquipmentSlot) {
		return nil, invariant(op, "%s is not in %s's hands", it.Ref(), p.Name)
	}
	if err := w.checkRoomContainer(op, p.Room, c, slot); err != nil {
		return nil, err
	}
	w.detach(it)
	setLocation(it, p.Room, nil, "")
	it.Container = c
	it.Slot = slot
	it.Accessible = accessibleIn(c)
	return w.place(it), nil
}

// Give moves the item in one of from's hands into an empty hand of to.
func (w *World) Give(from *Player, it *Item, to *Player, hand string) (*Item, error) {
	const op = "Give"
	if err := w.checkLive(op, it); err != nil {
		return nil, err
	}
	if it.Owner != from || !it.Equipped() || !IsHand(it.EquipmentSlot) {
		return nil, invariant(op, "%s is not in %s's hands", it.Ref(), from.Name)
	}
	if err := w.checkHand(op, to, hand); err != nil {
		return nil, err
	}
	w.detach(it)
	w.equipTo(to, hand, it)
	return it, nil
}

// Stash moves the item in one of the player's hands into a slot of a container
// item the player holds.
func (w *World) Stash(p *Player, it *Item, container *Item, slot string) (*Item, error) {
	const op = "Stash"
	if err := w.checkLive(op, it); err != nil {
		return nil, err
	}
	if it.Owner != p || !it.Equipped() || !IsHand(it.EquipmentSlot) {
		return nil, invariant(op, "%s is not in %s's hands", it.Ref(), p.Name)
	}
	if container == it || IsInside(container, it) {
		return nil, invariant(op, "%s cannot hold itself", it.Ref())
	}
	if container.Owner != p {
		return nil, invariant(op, "%s does not belong to %s", container.Ref(), p.Name)
	}
	if _, ok := container.InventorySlot(slot); !ok {
		return nil, invariant(op, "%s has no slot %q", container.Ref(), slot)
	}
	w.detach(it)
	setLocation(it, nil, p, container.EquipmentSlot)
	it.Container = container
	it.Slot = slot
	it.Accessible = true
	return w.place(it), nil
}

// Unstash moves one instance of an item stashed in the player's inventory into an empty hand.
func (w *World) Unstash(p *Player, it *Item, hand string) (*Item, error) {
	const op = "Unstash"
	if err := w.checkLive(op, it); err != nil {
		return nil, err
	}
	if it.Owner != p || it.Equipped() {
		return nil, invariant(op, "%s is not stashed by %s", it.Ref(), p.Name)
	}
	if err := w.checkHand(op, p, hand); err != nil {
		return nil, err
	}
	moved := w.splitOne(it)
	w.equipTo(p, hand, moved)
	return moved, nil
}

// Equip moves the item in one of the player's hands to the empty equipment slot.
func (w *World) Equip(p *Player, it *Item, slot string) error {
	const op = "Equip"
	if err := w.checkLive(op, it); err != nil {
		return err
	}
	if it.Owner != p || !it.Equipped() || !IsHand(it.EquipmentSlot) {
		return invariant(op, "%s is not in %s's hands", it.Ref(), p.Name)
	}
	s, ok := p.Slot(slot)
	if !ok || IsHand(slot) {
		return invariant(op, "%s has no equipment slot %q", p.Name, slot)
	}
	if s.Equipped != nil {
		return invariant(op, "%s's %s is occupied", p.Name, slot)
	}
	w.detach(it)
	w.equipTo(p, slot, it)
	return nil
}

// Unequip moves an equipped item into the player's empty hand.
func (w *World) Unequip(p *Player, it *Item, hand string) error {
	const op = "Unequip"
	if err := w.checkLive(op, it); err != nil {
		return err
	}
	if it.Owner != p || !it.Equipped() || IsHand(it.EquipmentSlot) {
		return invariant(op, "%s is not equipped by %s", it.Ref(), p.Name)
	}
	if err := w.checkHand(op, p, hand); err != nil {
		return err
	}
	w.detach(it)
	w.equipTo(p, hand, it)
	return nil
}

// Steal moves one instance of an item held in the victim's inventory into the
// thief's empty hand.
func (w *World) Steal(thief *Player, it *Item, hand string) (*Item, error) {
	const op = "Steal"
	if err := w.checkLive(op, it); err != nil {
		return nil, err
	}
	if it.Owner == nil || it.Owner == thief || it.Equipped() {
		return nil, invariant(op, "%s is not stashed by another player", it.Ref())
	}
	if err := w.checkHand(op, thief, hand); err != nil {
		return nil, err
	}
	moved := w.splitOne(it)
	w.equipTo(thief, hand, moved)
	return moved, nil
}

// UseUp spends one use of an inventory item. An item whose uses run out
// becomes its next stage, or is destroyed when it has none.
//
// Postcondition: returns true when the item changed prefab or was destroyed.
func (w *World) UseUp(it *Item) (bool, error) {
	if err := w.checkLive("UseUp", it); err != nil {
		return false, err
	}
	if it.Uses == Unlimited {
		return false, nil
	}
	if it.Uses-1 > 0 {
		it.Uses--
		return false, nil
	}
	if it.Owner == nil {
		return true, w.Destroy(it, it.Quantity, true)
	}
	return true, w.ReplaceInventoryItem(it, it.Prefab.NextStage)
}

// LogAction writes one game log entry for an action performed by p on it.
func (w *World) LogAction(event string, p *Player, it *Item, fields ...zap.Field) {
	base := []zap.Field{zap.String("player", p.Name)}
	if it != nil {
		base = append(base, zap.String("item", it.Ref()))
	}
	if p.Room != nil {
		base = append(base, zap.String("room", p.Room.ID))
	}
	w.gamelog.Info(event, append(base, fields...)...)
}

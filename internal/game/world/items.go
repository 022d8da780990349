package world

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/parlor/internal/game/description"
	"github.com/cory-johannsen/parlor/internal/game/prefab"
)

// accessibleIn reports whether an item placed in c starts out accessible.
func accessibleIn(c Container) bool {
	if p, ok := c.(*Puzzle); ok {
		return p.ItemsAccessible()
	}
	return true
}

// ChildItems returns every item nested at any depth inside it, depth first.
func ChildItems(it *Item) []*Item {
	return appendChildren(nil, it)
}

// Instantiate creates quantity new instances of p in container c of room.
// slot names the inventory slot when c is an item.
//
// Precondition: quantity > 0 or quantity == Unlimited; c belongs to room.
// Postcondition: the container's description lists the new instances and the
// returned entry holds them; capacity is not checked.
func (w *World) Instantiate(p *prefab.Prefab, room *Room, c Container, slot string, quantity int) (*Item, error) {
	const op = "Instantiate"
	if quantity == 0 || quantity < Unlimited {
		return nil, invariant(op, "quantity %d", quantity)
	}
	if err := w.checkRoomContainer(op, room, c, slot); err != nil {
		return nil, err
	}
	it := w.newItem(p, quantity)
	it.Room = room
	it.Container = c
	it.Slot = slot
	it.Accessible = accessibleIn(c)
	holder := w.place(it)
	w.gamelog.Info("instantiated",
		zap.String("item", it.Ref()),
		zap.Int("quantity", quantity),
		zap.String("container", c.Label()),
		zap.String("slot", slot),
		zap.String("room", room.ID),
	)
	return holder, nil
}

// InstantiateInventory creates quantity new instances of p for player. With a
// container the instances are stashed in its slot; otherwise they are equipped
// to equipSlot.
//
// Precondition: quantity > 0 or quantity == Unlimited; container, when given, belongs to player.
// Postcondition: carry weight and descriptions reflect the new instances.
func (w *World) InstantiateInventory(p *prefab.Prefab, player *Player, equipSlot string, container *Item, slot string, quantity int) (*Item, error) {
	const op = "InstantiateInventory"
	if quantity == 0 || quantity < Unlimited {
		return nil, invariant(op, "quantity %d", quantity)
	}
	it := w.newItem(p, quantity)
	it.Owner = player
	it.Accessible = true
	var holder *Item
	if container != nil {
		if container.Owner != player {
			return nil, invariant(op, "container %s does not belong to %s", container.Ref(), player.Name)
		}
		if _, ok := container.InventorySlot(slot); !ok {
			return nil, invariant(op, "%s has no slot %q", container.Ref(), slot)
		}
		it.EquipmentSlot = container.EquipmentSlot
		it.Container = container
		it.Slot = slot
		holder = w.place(it)
	} else {
		s, ok := player.Slot(equipSlot)
		if !ok {
			return nil, invariant(op, "%s has no equipment slot %q", player.Name, equipSlot)
		}
		if s.Equipped != nil {
			return nil, invariant(op, "%s's %s is occupied", player.Name, equipSlot)
		}
		w.equipTo(player, equipSlot, it)
		holder = it
	}
	w.gamelog.Info("instantiated",
		zap.String("item", it.Ref()),
		zap.Int("quantity", quantity),
		zap.String("player", player.Name),
		zap.String("equipment_slot", holder.EquipmentSlot),
		zap.String("slot", slot),
	)
	return holder, nil
}

// ReplaceInventoryItem evolves it into next in place: its contents are
// destroyed and its slots, uses and description are reset from next. A nil
// next destroys it.
//
// Precondition: it is a live inventory item.
// Postcondition: the owner's carry weight reflects the weight change.
func (w *World) ReplaceInventoryItem(it *Item, next *prefab.Prefab) error {
	const op = "ReplaceInventoryItem"
	if it.Owner == nil {
		return invariant(op, "%s is not an inventory item", it.Ref())
	}
	if next == nil {
		return w.destroy(it, it.Quantity, true)
	}
	for _, s := range it.Inventory {
		for len(s.Items) > 0 {
			child := s.Items[0]
			if err := w.destroy(child, child.Quantity, true); err != nil {
				return err
			}
		}
	}
	w.unlist(it, it.Quantity)
	if parent, ok := it.Container.(*Item); ok && it.Quantity != Unlimited {
		if s, ok := parent.InventorySlot(it.Slot); ok {
			s.TakenSpace += (next.Size - it.Prefab.Size) * it.Quantity
		}
	}
	w.adjustWeight(it, next.Weight-it.Weight)
	it.Prefab = next
	it.Identifier = ""
	it.Identifier = w.generateIdentifier(next)
	it.Uses = next.Uses
	it.Inventory = newSlots(next.Inventory)
	it.Description = next.Description
	w.list(it, it.Quantity)
	return nil
}

// Destroy removes quantity of the room item it. With children set, everything
// nested inside is destroyed first regardless of quantity. An item whose
// quantity reaches zero always takes its contents with it.
//
// Precondition: quantity > 0 or quantity == Unlimited.
// Postcondition: returns an InvariantError when quantity exceeds what exists.
func (w *World) Destroy(it *Item, quantity int, children bool) error {
	if it.Owner != nil {
		return invariant("Destroy", "%s is an inventory item", it.Ref())
	}
	return w.destroy(it, quantity, children)
}

// DestroyInventory is Destroy for an inventory item. An equipped item is unequipped.
func (w *World) DestroyInventory(it *Item, quantity int, children bool) error {
	if it.Owner == nil {
		return invariant("DestroyInventory", "%s is not an inventory item", it.Ref())
	}
	return w.destroy(it, quantity, children)
}

func (w *World) destroy(it *Item, quantity int, children bool) error {
	const op = "Destroy"
	if _, live := w.items[it.ID]; !live {
		return invariant(op, "%s is not live", it.Ref())
	}
	if quantity == 0 || quantity < Unlimited {
		return invariant(op, "quantity %d", quantity)
	}
	full := quantity == Unlimited || (it.Quantity != Unlimited && quantity == it.Quantity)
	if it.Quantity != Unlimited && quantity != Unlimited && quantity > it.Quantity {
		return invariant(op, "destroying %d of %s leaves a negative quantity (%d held)", quantity, it.Ref(), it.Quantity)
	}
	if children || full {
		for _, s := range it.Inventory {
			for len(s.Items) > 0 {
				child := s.Items[0]
				if err := w.destroy(child, child.Quantity, true); err != nil {
					return err
				}
			}
		}
	}
	fields := []zap.Field{
		zap.String("item", it.Ref()),
		zap.Int("quantity", quantity),
		zap.String("slot", it.Slot),
	}
	if it.Container != nil {
		fields = append(fields, zap.String("container", it.Container.Label()))
	}
	if it.Owner != nil {
		fields = append(fields, zap.String("player", it.Owner.Name), zap.String("equipment_slot", it.EquipmentSlot))
	} else {
		fields = append(fields, zap.String("room", it.Room.ID))
	}

	if full {
		w.detach(it)
		it.Quantity = 0
		w.unregister(it)
	} else if it.Quantity != Unlimited {
		w.reduce(it, quantity)
	}
	w.gamelog.Info("destroyed", fields...)
	return nil
}

// reduce takes quantity off a finite stack that stays in place.
func (w *World) reduce(it *Item, quantity int) {
	it.Quantity -= quantity
	w.unlist(it, quantity)
	switch c := it.Container.(type) {
	case *Item:
		if s, ok := c.InventorySlot(it.Slot); ok {
			s.Remove(it, quantity)
		}
		w.adjustWeight(c, -it.Weight*quantity)
	case nil:
		if it.Owner != nil {
			it.Owner.CarryWeight -= it.Weight * quantity
		}
	}
}

// splitOne separates a single instance from it. A lone instance is detached
// whole; otherwise the stack shrinks by one and a copy carrying the contents is
// returned unattached.
func (w *World) splitOne(it *Item) *Item {
	if it.Quantity == 1 {
		w.detach(it)
		return it
	}
	if it.Quantity != Unlimited {
		w.reduce(it, 1)
	}
	moved := w.copyItem(it, 1)
	if moved.Identifier != "" {
		moved.Identifier = ""
		moved.Identifier = w.generateIdentifier(moved.Prefab)
	}
	w.clearContents(it)
	return moved
}

// copyItem deep-copies it with a new quantity. Nested items are copied with
// their own quantities and new ids. The copy is not attached anywhere.
func (w *World) copyItem(it *Item, quantity int) *Item {
	cp := &Item{
		ID:            w.newID(),
		Prefab:        it.Prefab,
		Identifier:    it.Identifier,
		Room:          it.Room,
		Owner:         it.Owner,
		EquipmentSlot: it.EquipmentSlot,
		Container:     it.Container,
		Slot:          it.Slot,
		Quantity:      quantity,
		Uses:          it.Uses,
		Weight:        it.Prefab.Weight,
		Accessible:    it.Accessible,
		Description:   it.Description,
		Inventory:     newSlots(slotDefs(it)),
	}
	for i, s := range it.Inventory {
		for _, child := range s.Items {
			cc := w.copyItem(child, child.Quantity)
			cc.Container = cp
			cc.Slot = s.ID
			cp.Inventory[i].Insert(cc)
		}
		cp.Weight += cp.Inventory[i].Weight
	}
	return cp
}

func slotDefs(it *Item) []prefab.SlotDef {
	defs := make([]prefab.SlotDef, len(it.Inventory))
	for i, s := range it.Inventory {
		defs[i] = prefab.SlotDef{ID: s.ID, Capacity: s.Capacity}
	}
	return defs
}

// clearContents removes everything nested in it without logging; the contents
// are assumed to have moved elsewhere.
func (w *World) clearContents(it *Item) {
	removed := 0
	for _, s := range it.Inventory {
		for _, child := range s.Items {
			w.unregister(child)
			if child.Owner == nil && child.Room != nil {
				w.roomIndexRemove(child.Room, child)
			}
		}
		removed += s.Weight
		s.Items = nil
		s.Weight = 0
		s.TakenSpace = 0
	}
	if removed != 0 {
		w.adjustWeight(it, -removed)
	}
	it.Description = description.ClearLists(it.Description)
}

func (w *World) newItem(p *prefab.Prefab, quantity int) *Item {
	return &Item{
		ID:          w.newID(),
		Prefab:      p,
		Identifier:  w.generateIdentifier(p),
		Quantity:    quantity,
		Uses:        p.Uses,
		Weight:      p.Weight,
		Description: p.Description,
		Inventory:   newSlots(p.Inventory),
	}
}

// register adds it and everything nested inside it to the arena.
func (w *World) register(it *Item) {
	w.items[it.ID] = it
	for _, child := range ChildItems(it) {
		w.items[child.ID] = child
	}
}

// unregister removes it and everything nested inside it from the arena and room index.
func (w *World) unregister(it *Item) {
	delete(w.items, it.ID)
	for _, child := range ChildItems(it) {
		delete(w.items, child.ID)
	}
	if it.Owner == nil && it.Room != nil {
		w.roomIndexRemove(it.Room, it)
	}
}

// setLocation re-homes it and its contents to a room or an owner's equipment tree.
func setLocation(it *Item, room *Room, owner *Player, equipSlot string) {
	it.Room = room
	it.Owner = owner
	it.EquipmentSlot = equipSlot
	for _, child := range ChildItems(it) {
		child.Room = room
		child.Owner = owner
		child.EquipmentSlot = equipSlot
		child.Accessible = true
	}
}

// place inserts it at the location already recorded on it, merging with an
// equivalent entry, and returns the entry holding the quantity.
func (w *World) place(it *Item) *Item {
	holder := it
	switch c := it.Container.(type) {
	case *Item:
		s, _ := c.InventorySlot(it.Slot)
		before := s.Weight
		holder = s.Insert(it)
		w.adjustWeight(c, s.Weight-before)
	case nil:
		w.equipTo(it.Owner, it.EquipmentSlot, it)
		return it
	default:
		if match := w.findRoomMatch(it); match != nil {
			holder = match
			switch {
			case match.Quantity == Unlimited:
			case it.Quantity == Unlimited:
				match.Quantity = Unlimited
			default:
				match.Quantity += it.Quantity
			}
		}
	}
	w.list(it, it.Quantity)
	if holder == it {
		w.register(it)
		if it.Owner == nil {
			w.roomIndexAdd(it.Room, it)
		}
	} else {
		delete(w.items, it.ID)
	}
	return holder
}

func (w *World) findRoomMatch(it *Item) *Item {
	if it.Owner != nil || it.Room == nil {
		return nil
	}
	for _, other := range it.Room.Items {
		if other != it && other.Container == it.Container && other.Quantity != 0 &&
			other.Accessible == it.Accessible && equivalent(other, it) {
			return other
		}
	}
	return nil
}

// detach removes the whole entry it from wherever it sits, keeping its
// quantity and contents intact and its arena registration unchanged.
func (w *World) detach(it *Item) {
	q := it.Quantity
	switch c := it.Container.(type) {
	case *Item:
		w.unlist(it, q)
		if s, ok := c.InventorySlot(it.Slot); ok {
			it.Quantity = 0
			s.Remove(it, q)
			it.Quantity = q
		}
		if q != Unlimited {
			w.adjustWeight(c, -it.Weight*q)
		}
	case nil:
		if it.Owner != nil {
			w.unequipFrom(it.Owner, it.EquipmentSlot)
		}
	default:
		w.unlist(it, q)
	}
	if it.Owner == nil && it.Room != nil {
		w.roomIndexRemove(it.Room, it)
	}
}

// adjustWeight changes the unit weight of it by delta and carries the change up
// to its parent items and finally its owner's carry weight.
func (w *World) adjustWeight(it *Item, delta int) {
	if delta == 0 {
		return
	}
	it.Weight += delta
	if it.Quantity == Unlimited || it.Quantity == 0 {
		return
	}
	total := delta * it.Quantity
	switch c := it.Container.(type) {
	case *Item:
		if s, ok := c.InventorySlot(it.Slot); ok {
			s.Weight += total
		}
		w.adjustWeight(c, total)
	case nil:
		if it.Owner != nil {
			it.Owner.CarryWeight += total
		}
	}
}

// list records quantity of it in the description of whatever holds it.
func (w *World) list(it *Item, quantity int) {
	phr := it.Phrases()
	switch c := it.Container.(type) {
	case *Room:
		c.Description = description.AddItem(c.Description, phr, "", quantity)
	case *Fixture:
		c.Description = description.AddItem(c.Description, phr, "", quantity)
	case *Puzzle:
		c.AlreadySolvedDescription = description.AddItem(c.AlreadySolvedDescription, phr, "", quantity)
	case *Item:
		c.Description = description.AddItem(c.Description, phr, slotList(c, it.Slot), quantity)
	case nil:
		p := it.Owner
		if p == nil {
			return
		}
		if IsHand(it.EquipmentSlot) {
			if !it.Discreet() {
				p.Description = description.AddItem(p.Description, phr, HandsList, quantity)
			}
		} else if !w.covered(p, it.EquipmentSlot, it) {
			p.Description = description.AddItem(p.Description, phr, EquipmentList, quantity)
		}
	}
}

// unlist is the inverse of list.
func (w *World) unlist(it *Item, quantity int) {
	phr := it.Phrases()
	switch c := it.Container.(type) {
	case *Room:
		c.Description = description.RemoveItem(c.Description, phr, "", quantity)
	case *Fixture:
		c.Description = description.RemoveItem(c.Description, phr, "", quantity)
	case *Puzzle:
		c.AlreadySolvedDescription = description.RemoveItem(c.AlreadySolvedDescription, phr, "", quantity)
	case *Item:
		c.Description = description.RemoveItem(c.Description, phr, slotList(c, it.Slot), quantity)
	case nil:
		p := it.Owner
		if p == nil {
			return
		}
		if IsHand(it.EquipmentSlot) {
			if !it.Discreet() {
				p.Description = description.RemoveItem(p.Description, phr, HandsList, quantity)
			}
		} else if !w.covered(p, it.EquipmentSlot, it) {
			p.Description = description.RemoveItem(p.Description, phr, EquipmentList, quantity)
		}
	}
}

// slotList is the description list for slot. A single-slot container may use
// an unnamed list.
func slotList(c *Item, slot string) string {
	if len(c.Inventory) == 1 && !description.HasList(c.Description, slot) {
		return ""
	}
	return slot
}

// covered reports whether an equipped non-hand item other than exclude covers slot.
func (w *World) covered(p *Player, slot string, exclude *Item) bool {
	for _, s := range p.Equipment {
		eq := s.Equipped
		if eq == nil || eq == exclude || IsHand(s.ID) {
			continue
		}
		for _, c := range eq.Prefab.CoveredEquipmentSlots {
			if c == slot {
				return true
			}
		}
	}
	return false
}

// equipTo puts it in the player's equipment slot and updates carry weight and
// the player's hands or equipment list. Items the new one covers are hidden
// from the equipment list.
func (w *World) equipTo(p *Player, slotID string, it *Item) {
	s, _ := p.Slot(slotID)
	setLocation(it, nil, p, slotID)
	it.Container = nil
	it.Slot = ""
	it.Accessible = true
	if !IsHand(slotID) {
		for _, id := range it.Prefab.CoveredEquipmentSlots {
			cs, ok := p.Slot(id)
			if !ok || cs == s || cs.Equipped == nil || w.covered(p, id, nil) {
				continue
			}
			p.Description = description.RemoveItem(p.Description, cs.Equipped.Phrases(), EquipmentList, cs.Equipped.Quantity)
		}
	}
	s.Equipped = it
	w.register(it)
	if it.Quantity != Unlimited {
		p.CarryWeight += it.Weight * it.Quantity
	}
	w.list(it, it.Quantity)
}

// unequipFrom empties the player's equipment slot, restoring any items the
// removed one was covering to the equipment list.
func (w *World) unequipFrom(p *Player, slotID string) *Item {
	s, ok := p.Slot(slotID)
	if !ok || s.Equipped == nil {
		return nil
	}
	it := s.Equipped
	w.unlist(it, it.Quantity)
	s.Equipped = nil
	if it.Quantity != Unlimited {
		p.CarryWeight -= it.Weight * it.Quantity
	}
	if !IsHand(slotID) {
		for _, id := range it.Prefab.CoveredEquipmentSlots {
			cs, ok := p.Slot(id)
			if !ok || cs.Equipped == nil || w.covered(p, id, nil) {
				continue
			}
			p.Description = description.AddItem(p.Description, cs.Equipped.Phrases(), EquipmentList, cs.Equipped.Quantity)
		}
	}
	return it
}

// roomIndexAdd inserts it, followed by its contents, into the room's display
// order next to the items sharing its container.
func (w *World) roomIndexAdd(room *Room, it *Item) {
	at := -1
	for i, other := range room.Items {
		if other.Container == it.Container {
			at = i
		}
	}
	if at == -1 {
		if parent, ok := it.Container.(*Item); ok {
			for i, other := range room.Items {
				if other == parent {
					at = i
				}
			}
		}
	}
	if at != -1 {
		// Skip past the contents of the preceding sibling.
		for at+1 < len(room.Items) && IsInside(room.Items[at+1], room.Items[at]) {
			at++
		}
	}
	entries := append([]*Item{it}, ChildItems(it)...)
	if at == -1 {
		room.Items = append(room.Items, entries...)
		return
	}
	tail := append([]*Item{}, room.Items[at+1:]...)
	room.Items = append(append(room.Items[:at+1], entries...), tail...)
}

func (w *World) roomIndexRemove(room *Room, it *Item) {
	gone := map[*Item]bool{it: true}
	for _, child := range ChildItems(it) {
		gone[child] = true
	}
	kept := room.Items[:0]
	for _, other := range room.Items {
		if !gone[other] {
			kept = append(kept, other)
		}
	}
	for i := len(kept); i < len(room.Items); i++ {
		room.Items[i] = nil
	}
	room.Items = kept
}

// IsInside reports whether it is nested at any depth inside ancestor.
func IsInside(it, ancestor *Item) bool {
	for c, ok := it.Container.(*Item); ok; c, ok = c.Container.(*Item) {
		if c == ancestor {
			return true
		}
	}
	return false
}

func (w *World) checkRoomContainer(op string, room *Room, c Container, slot string) error {
	switch c := c.(type) {
	case *Room:
		if c != room {
			return invariant(op, "container room %s is not %s", c.ID, room.ID)
		}
	case *Fixture:
		if c.Room != room {
			return invariant(op, "fixture %s is not in %s", c.Name, room.ID)
		}
	case *Puzzle:
		if c.Room != room {
			return invariant(op, "puzzle %s is not in %s", c.Name, room.ID)
		}
	case *Item:
		if c.Owner != nil || c.Room != room {
			return invariant(op, "item %s is not in %s", c.Ref(), room.ID)
		}
		if _, ok := c.InventorySlot(slot); !ok {
			return invariant(op, "%s has no slot %q", c.Ref(), slot)
		}
	case nil:
		return invariant(op, "nil container")
	}
	return nil
}

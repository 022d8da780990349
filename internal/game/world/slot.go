package world

import "github.com/cory-johannsen/parlor/internal/game/prefab"

// InventorySlot is a capacity-bounded bag of items inside a container item.
// TakenSpace and Weight always equal the sums of size*quantity and
// weight*quantity over the finite-quantity items held.
type InventorySlot struct {
	ID         string
	Capacity   int
	TakenSpace int
	Weight     int
	Items      []*Item
}

func newSlots(defs []prefab.SlotDef) []*InventorySlot {
	out := make([]*InventorySlot, 0, len(defs))
	for _, d := range defs {
		out = append(out, &InventorySlot{ID: d.ID, Capacity: d.Capacity})
	}
	return out
}

// equivalent reports whether a and b are interchangeable copies that may share one entry.
func equivalent(a, b *Item) bool {
	return a.Prefab.ID == b.Prefab.ID &&
		a.Identifier == b.Identifier &&
		a.ContainerKey() == b.ContainerKey() &&
		a.Slot == b.Slot &&
		a.Uses == b.Uses &&
		a.Description == b.Description
}

// Insert adds item to the slot. An equivalent entry already present absorbs the
// item's quantity; an unlimited entry absorbs it without changing. The entry
// that now holds the quantity is returned.
//
// Precondition: item is non-nil with a non-zero quantity.
// Postcondition: TakenSpace and Weight count only finite entries. An entry
// that becomes unlimited stops counting. Capacity is not checked.
func (s *InventorySlot) Insert(item *Item) *Item {
	match := s.find(item)
	switch {
	case match == nil:
		s.Items = append(s.Items, item)
		if item.Quantity != Unlimited {
			s.account(item, item.Quantity)
		}
		return item
	case match.Quantity == Unlimited:
	case item.Quantity == Unlimited:
		s.account(match, -match.Quantity)
		match.Quantity = Unlimited
	default:
		match.Quantity += item.Quantity
		s.account(item, item.Quantity)
	}
	return match
}

// account adds quantity finite units of it to the slot totals.
func (s *InventorySlot) account(it *Item, quantity int) {
	s.TakenSpace += it.Prefab.Size * quantity
	s.Weight += it.Weight * quantity
}

// Remove accounts for removedQuantity of item leaving the slot. The entry is
// spliced out once its quantity has reached zero.
//
// Precondition: item is held by the slot and its Quantity already reflects the removal.
func (s *InventorySlot) Remove(item *Item, removedQuantity int) {
	for i, held := range s.Items {
		if held != item {
			continue
		}
		if item.Quantity == 0 {
			s.Items = append(s.Items[:i], s.Items[i+1:]...)
		}
		if removedQuantity != Unlimited && item.Quantity != Unlimited {
			s.TakenSpace -= item.Prefab.Size * removedQuantity
			s.Weight -= item.Weight * removedQuantity
		}
		return
	}
}

// Fits reports whether size more units of space are free.
func (s *InventorySlot) Fits(size int) bool {
	return s.TakenSpace+size <= s.Capacity
}

func (s *InventorySlot) find(item *Item) *Item {
	for _, held := range s.Items {
		if held != item && held.Quantity != 0 && equivalent(held, item) {
			return held
		}
	}
	return nil
}

package command

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/cory-johannsen/parlor/internal/game/world"
)

// handleInventory shows what the player carries.
func handleInventory(_ *Executor, p *world.Player, _ string) (string, error) {
	return InventoryView(p), nil
}

type row struct {
	label, value string
}

// InventoryView renders p's equipment slots with the items in them and the
// contents of every container slot, followed by the carried weight. Columns
// are aligned by display width so names with wide runes line up.
//
// Precondition: the world lock is held.
func InventoryView(p *world.Player) string {
	var rows []row
	for _, s := range p.Equipment {
		if s.Equipped == nil {
			if world.IsHand(s.ID) {
				rows = append(rows, row{s.ID, "(empty)"})
			}
			continue
		}
		rows = append(rows, row{s.ID, phrase(s.Equipped)})
		rows = appendSlots(rows, s.Equipped, "  ")
	}

	width := 0
	for _, r := range rows {
		if w := runewidth.StringWidth(r.label); w > width {
			width = w
		}
	}
	var sb strings.Builder
	for _, r := range rows {
		sb.WriteString(runewidth.FillRight(r.label, width))
		sb.WriteString("  ")
		sb.WriteString(r.value)
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Carrying %d of %d.", p.CarryWeight, p.MaxCarryWeight())
	return sb.String()
}

func appendSlots(rows []row, it *world.Item, indent string) []row {
	for _, s := range it.Inventory {
		var names []string
		for _, child := range s.Items {
			names = append(names, phrase(child))
		}
		value := "(empty)"
		if len(names) > 0 {
			value = strings.Join(names, ", ")
		}
		if s.Capacity > 0 {
			value += fmt.Sprintf(" [%d/%d]", s.TakenSpace, s.Capacity)
		}
		rows = append(rows, row{indent + s.ID, value})
		for _, child := range s.Items {
			if len(child.Inventory) > 0 {
				rows = appendSlots(rows, child, indent+"  ")
			}
		}
	}
	return rows
}

func phrase(it *world.Item) string {
	return it.Phrases().Phrase(it.Quantity)
}

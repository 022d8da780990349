package world

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SnapshotVersion is bumped whenever the snapshot layout changes incompatibly.
const SnapshotVersion = 1

// Snapshot is a storage-neutral copy of the mutable world state. Static content
// (prefabs, room layout, puzzle rules) is not included; it is reloaded from YAML.
type Snapshot struct {
	Version  int             `json:"version"`
	TakenAt  time.Time       `json:"taken_at"`
	Rooms    []RoomRecord    `json:"rooms"`
	Fixtures []FixtureRecord `json:"fixtures"`
	Puzzles  []PuzzleRecord  `json:"puzzles"`
	Players  []PlayerRecord  `json:"players"`
	Items    []ItemRecord    `json:"items"`
}

// RoomRecord holds a room's current description.
type RoomRecord struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// FixtureRecord holds a fixture's mutable state.
type FixtureRecord struct {
	Room        string `json:"room"`
	Name        string `json:"name"`
	Accessible  bool   `json:"accessible"`
	Activated   bool   `json:"activated"`
	Description string `json:"description"`
}

// PuzzleRecord holds a puzzle's mutable state.
type PuzzleRecord struct {
	Room                     string `json:"room"`
	Name                     string `json:"name"`
	Solved                   bool   `json:"solved"`
	Outcome                  string `json:"outcome"`
	Accessible               bool   `json:"accessible"`
	RemainingAttempts        int    `json:"remaining_attempts"`
	AlreadySolvedDescription string `json:"already_solved_description"`
}

// PlayerRecord holds a player's mutable state.
type PlayerRecord struct {
	Name        string   `json:"name"`
	Room        string   `json:"room"`
	Alive       bool     `json:"alive"`
	Attributes  []string `json:"attributes"`
	Description string   `json:"description"`
	HidingSpot  string   `json:"hiding_spot"`
}

// ItemRecord is one live item. Records are ordered so that a container item
// always precedes the items inside it.
type ItemRecord struct {
	ID            string `json:"id"`
	Prefab        string `json:"prefab"`
	Identifier    string `json:"identifier"`
	Room          string `json:"room,omitempty"`
	Player        string `json:"player,omitempty"`
	EquipmentSlot string `json:"equipment_slot,omitempty"`
	// ContainerKind is "Room", "Fixture", "Puzzle", "Item", or empty for an equipped item.
	ContainerKind string `json:"container_kind"`
	// Container is the fixture or puzzle name, or the parent item's id.
	Container   string `json:"container"`
	Slot        string `json:"slot"`
	Quantity    int    `json:"quantity"`
	Uses        int    `json:"uses"`
	Accessible  bool   `json:"accessible"`
	Description string `json:"description"`
}

// Snapshot captures the current mutable state.
func (w *World) Snapshot() *Snapshot {
	s := &Snapshot{Version: SnapshotVersion, TakenAt: time.Now().UTC()}
	for _, r := range w.rooms {
		s.Rooms = append(s.Rooms, RoomRecord{ID: r.ID, Description: r.Description})
		for _, f := range r.Fixtures {
			s.Fixtures = append(s.Fixtures, FixtureRecord{
				Room: r.ID, Name: f.Name, Accessible: f.Accessible, Activated: f.Activated, Description: f.Description,
			})
		}
		for _, pz := range r.Puzzles {
			s.Puzzles = append(s.Puzzles, PuzzleRecord{
				Room: r.ID, Name: pz.Name, Solved: pz.Solved, Outcome: pz.Outcome, Accessible: pz.Accessible,
				RemainingAttempts: pz.RemainingAttempts, AlreadySolvedDescription: pz.AlreadySolvedDescription,
			})
		}
		for _, it := range r.Items {
			s.Items = append(s.Items, itemRecord(it))
		}
	}
	for _, p := range w.players {
		rec := PlayerRecord{
			Name: p.Name, Alive: p.Alive, Description: p.Description, HidingSpot: p.HidingSpot,
			Attributes: append([]string(nil), p.Attributes...),
		}
		if p.Room != nil {
			rec.Room = p.Room.ID
		}
		s.Players = append(s.Players, rec)
		for _, slot := range p.Equipment {
			for _, it := range slot.Items() {
				s.Items = append(s.Items, itemRecord(it))
			}
		}
	}
	return s
}

func itemRecord(it *Item) ItemRecord {
	rec := ItemRecord{
		ID:            it.ID.String(),
		Prefab:        it.Prefab.ID,
		Identifier:    it.Identifier,
		EquipmentSlot: it.EquipmentSlot,
		Slot:          it.Slot,
		Quantity:      it.Quantity,
		Uses:          it.Uses,
		Accessible:    it.Accessible,
		Description:   it.Description,
	}
	if it.Room != nil {
		rec.Room = it.Room.ID
	}
	if it.Owner != nil {
		rec.Player = it.Owner.Name
	}
	if it.Container != nil {
		rec.ContainerKind = it.Container.Kind().String()
		switch c := it.Container.(type) {
		case *Item:
			rec.Container = c.ID.String()
		case *Room:
			rec.Container = c.ID
		case *Fixture:
			rec.Container = c.Name
		case *Puzzle:
			rec.Container = c.Name
		}
	}
	return rec
}

// Restore replaces the mutable state with the snapshot. Nothing changes when
// the snapshot references unknown content.
//
// Precondition: s was taken from a world loaded with the same content.
// Postcondition: the graph equals the one s was taken from; running fixture processes are dropped.
func (w *World) Restore(s *Snapshot) error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("restoring snapshot: unsupported version %d", s.Version)
	}
	items, err := w.buildItems(s.Items)
	if err != nil {
		return fmt.Errorf("restoring snapshot: %w", err)
	}
	for _, rec := range s.Players {
		if _, ok := w.Player(rec.Name); !ok {
			return fmt.Errorf("restoring snapshot: unknown player %q", rec.Name)
		}
		if rec.Room != "" {
			if _, ok := w.roomByID[rec.Room]; !ok {
				return fmt.Errorf("restoring snapshot: unknown room %q", rec.Room)
			}
		}
	}

	w.items = make(map[ItemID]*Item)
	for _, r := range w.rooms {
		r.Items = nil
		for _, f := range r.Fixtures {
			f.Process = Process{}
		}
	}
	for _, p := range w.players {
		p.CarryWeight = 0
		for _, slot := range p.Equipment {
			slot.Equipped = nil
		}
	}

	for _, rec := range s.Rooms {
		if r, ok := w.roomByID[rec.ID]; ok {
			r.Description = rec.Description
		}
	}
	for _, rec := range s.Fixtures {
		if r, ok := w.roomByID[rec.Room]; ok {
			if f, ok := r.Fixture(rec.Name); ok {
				f.Accessible = rec.Accessible
				f.Activated = rec.Activated
				f.Description = rec.Description
			}
		}
	}
	for _, rec := range s.Puzzles {
		if r, ok := w.roomByID[rec.Room]; ok {
			if pz, ok := r.Puzzle(rec.Name); ok {
				pz.Solved = rec.Solved
				pz.Outcome = rec.Outcome
				pz.Accessible = rec.Accessible
				pz.RemainingAttempts = rec.RemainingAttempts
				pz.AlreadySolvedDescription = rec.AlreadySolvedDescription
			}
		}
	}
	for _, rec := range s.Players {
		p, _ := w.Player(rec.Name)
		p.Room = w.roomByID[rec.Room]
		p.Alive = rec.Alive
		p.Attributes = append([]string(nil), rec.Attributes...)
		p.Description = rec.Description
		p.HidingSpot = rec.HidingSpot
	}

	for _, it := range items {
		w.items[it.ID] = it
		switch c := it.Container.(type) {
		case *Item:
			slot, _ := c.InventorySlot(it.Slot)
			slot.Items = append(slot.Items, it)
			if it.Quantity != Unlimited {
				slot.TakenSpace += it.Prefab.Size * it.Quantity
				slot.Weight += it.Weight * it.Quantity
				w.adjustWeight(c, it.Weight*it.Quantity)
			}
		case nil:
			slot, _ := it.Owner.Slot(it.EquipmentSlot)
			slot.Equipped = it
			if it.Quantity != Unlimited {
				it.Owner.CarryWeight += it.Weight * it.Quantity
			}
		}
		if it.Owner == nil {
			it.Room.Items = append(it.Room.Items, it)
		}
	}
	return nil
}

// buildItems resolves every record into an unattached item.
func (w *World) buildItems(recs []ItemRecord) ([]*Item, error) {
	byID := make(map[string]*Item, len(recs))
	out := make([]*Item, 0, len(recs))
	for _, rec := range recs {
		p, ok := w.prefabs.Prefab(rec.Prefab)
		if !ok {
			return nil, fmt.Errorf("item %s: unknown prefab %q", rec.ID, rec.Prefab)
		}
		id, err := uuid.Parse(rec.ID)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", rec.ID, err)
		}
		it := &Item{
			ID:            id,
			Prefab:        p,
			Identifier:    rec.Identifier,
			EquipmentSlot: rec.EquipmentSlot,
			Slot:          rec.Slot,
			Quantity:      rec.Quantity,
			Uses:          rec.Uses,
			Weight:        p.Weight,
			Accessible:    rec.Accessible,
			Description:   rec.Description,
			Inventory:     newSlots(p.Inventory),
		}
		if rec.Player != "" {
			owner, ok := w.Player(rec.Player)
			if !ok {
				return nil, fmt.Errorf("item %s: unknown player %q", rec.ID, rec.Player)
			}
			it.Owner = owner
			if _, ok := owner.Slot(rec.EquipmentSlot); !ok {
				return nil, fmt.Errorf("item %s: %s has no equipment slot %q", rec.ID, owner.Name, rec.EquipmentSlot)
			}
		} else {
			room, ok := w.roomByID[rec.Room]
			if !ok {
				return nil, fmt.Errorf("item %s: unknown room %q", rec.ID, rec.Room)
			}
			it.Room = room
		}
		switch rec.ContainerKind {
		case "":
			if it.Owner == nil {
				return nil, fmt.Errorf("item %s: room item without container", rec.ID)
			}
		case KindRoom.String():
			if it.Room == nil {
				return nil, fmt.Errorf("item %s: inventory item in a room", rec.ID)
			}
			it.Container = it.Room
		case KindFixture.String():
			if it.Room == nil {
				return nil, fmt.Errorf("item %s: inventory item in a fixture", rec.ID)
			}
			f, ok := it.Room.Fixture(rec.Container)
			if !ok {
				return nil, fmt.Errorf("item %s: unknown fixture %q", rec.ID, rec.Container)
			}
			it.Container = f
		case KindPuzzle.String():
			if it.Room == nil {
				return nil, fmt.Errorf("item %s: inventory item in a puzzle", rec.ID)
			}
			pz, ok := it.Room.Puzzle(rec.Container)
			if !ok {
				return nil, fmt.Errorf("item %s: unknown puzzle %q", rec.ID, rec.Container)
			}
			it.Container = pz
		case KindItem.String():
			parent, ok := byID[rec.Container]
			if !ok {
				return nil, fmt.Errorf("item %s: container %s not restored before it", rec.ID, rec.Container)
			}
			if _, ok := parent.InventorySlot(rec.Slot); !ok {
				return nil, fmt.Errorf("item %s: %s has no slot %q", rec.ID, parent.Ref(), rec.Slot)
			}
			it.Container = parent
		default:
			return nil, fmt.Errorf("item %s: unknown container kind %q", rec.ID, rec.ContainerKind)
		}
		byID[rec.ID] = it
		out = append(out, it)
	}
	return out, nil
}

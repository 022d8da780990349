package world

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/parlor/internal/game/prefab"
)

// World owns the containment graph. Every exported method that reads or mutates
// the graph expects the caller to hold the world lock, normally via Do.
type World struct {
	mu sync.Mutex

	prefabs  *prefab.Registry
	zones    []*Zone
	rooms    []*Room
	roomByID map[string]*Room
	players  []*Player
	byName   map[string]*Player
	items    map[ItemID]*Item

	gamelog *zap.Logger
	// newID is replaceable so tests can produce deterministic ids.
	newID func() ItemID
}

// New creates a World from loaded zones and players.
//
// Precondition: prefabs is linked; zones hold at least one room.
// Postcondition: Returns a World indexing every room and player, or an error on duplicates.
func New(prefabs *prefab.Registry, zones []*Zone, players []*Player, logger *zap.Logger) (*World, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &World{
		prefabs:  prefabs,
		roomByID: make(map[string]*Room),
		byName:   make(map[string]*Player),
		items:    make(map[ItemID]*Item),
		gamelog:  logger.Named("gamelog"),
		newID:    uuid.New,
	}
	for _, z := range zones {
		w.zones = append(w.zones, z)
		for _, r := range z.Rooms {
			if _, exists := w.roomByID[r.ID]; exists {
				return nil, fmt.Errorf("duplicate room ID %q", r.ID)
			}
			w.roomByID[r.ID] = r
			w.rooms = append(w.rooms, r)
		}
	}
	for _, p := range players {
		key := strings.ToUpper(p.Name)
		if _, exists := w.byName[key]; exists {
			return nil, fmt.Errorf("duplicate player name %q", p.Name)
		}
		w.byName[key] = p
		w.players = append(w.players, p)
	}
	return w, nil
}

// Do runs fn while holding the world lock. All graph mutation happens inside Do
// so that the removal and insertion halves of a transfer are never interleaved
// with another mutation.
func (w *World) Do(fn func() error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return fn()
}

// GameLog returns the named logger receiving one entry per mutation.
func (w *World) GameLog() *zap.Logger {
	return w.gamelog
}

// Prefabs returns the prefab registry the world was built from.
func (w *World) Prefabs() *prefab.Registry {
	return w.prefabs
}

// Zones returns every zone in load order.
func (w *World) Zones() []*Zone {
	return w.zones
}

// Rooms returns every room in load order.
func (w *World) Rooms() []*Room {
	return w.rooms
}

// Room returns the room with the given ID.
func (w *World) Room(id string) (*Room, bool) {
	r, ok := w.roomByID[id]
	return r, ok
}

// Players returns every player in load order.
func (w *World) Players() []*Player {
	return w.players
}

// Player returns the player with the given name, case-insensitively.
func (w *World) Player(name string) (*Player, bool) {
	p, ok := w.byName[strings.ToUpper(name)]
	return p, ok
}

// PlayersIn returns the living players in room, in load order.
func (w *World) PlayersIn(room *Room) []*Player {
	var out []*Player
	for _, p := range w.players {
		if p.Room == room && p.Alive {
			out = append(out, p)
		}
	}
	return out
}

// Item returns the live item with the given arena id.
func (w *World) Item(id ItemID) (*Item, bool) {
	it, ok := w.items[id]
	return it, ok
}

// ItemCount returns the number of live item entries.
func (w *World) ItemCount() int {
	return len(w.items)
}

// generateIdentifier returns "<prefab id> <n>" for the smallest n not used by a
// live item, or "" when p cannot hold items.
func (w *World) generateIdentifier(p *prefab.Prefab) string {
	if !p.HasInventory() {
		return ""
	}
	used := make(map[string]bool)
	for _, it := range w.items {
		if it.Identifier != "" && it.Quantity != 0 {
			used[it.Identifier] = true
		}
	}
	for n := 1; ; n++ {
		id := p.ID + " " + strconv.Itoa(n)
		if !used[id] {
			return id
		}
	}
}

// FindByIdentifier returns the live item carrying identifier.
func (w *World) FindByIdentifier(identifier string) (*Item, bool) {
	for _, it := range w.items {
		if it.Identifier == identifier && it.Quantity != 0 {
			return it, true
		}
	}
	return nil, false
}

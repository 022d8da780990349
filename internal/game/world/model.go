// Package world provides the containment graph: zones, rooms, fixtures, puzzles,
// players, and the items they hold.
package world

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/parlor/internal/game/description"
	"github.com/cory-johannsen/parlor/internal/game/prefab"
)

// Unlimited is the quantity or uses value denoting an unbounded stock.
const Unlimited = prefab.Unlimited

// Hand equipment slot ids.
const (
	RightHand = "RIGHT HAND"
	LeftHand  = "LEFT HAND"
)

// Player description list names.
const (
	HandsList     = "hands"
	EquipmentList = "equipment"
)

// IsHand reports whether slot is one of the two hand slots.
func IsHand(slot string) bool {
	return slot == RightHand || slot == LeftHand
}

// Direction represents a compass direction or named exit.
type Direction string

// Standard compass directions and vertical movements.
const (
	North Direction = "north"
	South Direction = "south"
	East  Direction = "east"
	West  Direction = "west"
	Up    Direction = "up"
	Down  Direction = "down"
)

// Exit represents a passage from one room to another.
type Exit struct {
	Direction  Direction
	TargetRoom string
	Locked     bool
}

// ContainerKind identifies which concrete type a Container is.
type ContainerKind int

const (
	KindRoom ContainerKind = iota
	KindFixture
	KindPuzzle
	KindItem
)

func (k ContainerKind) String() string {
	switch k {
	case KindRoom:
		return "Room"
	case KindFixture:
		return "Fixture"
	case KindPuzzle:
		return "Puzzle"
	case KindItem:
		return "Item"
	default:
		return fmt.Sprintf("ContainerKind(%d)", int(k))
	}
}

// Container is anything an item can be placed in. The set of implementations is
// closed: *Room, *Fixture, *Puzzle and *Item.
type Container interface {
	Kind() ContainerKind
	// Label is the name used in narration and log entries.
	Label() string
	// Preposition is how items relate to the container ("on", "in", ...).
	Preposition() string
	sealed()
}

// Zone groups related rooms into a themed area with its own scripts.
type Zone struct {
	ID          string
	Name        string
	Description string
	StartRoom   string
	Rooms       []*Room
	// ScriptDir is the path to Lua scripts for this zone. Empty = no scripts.
	ScriptDir string
	// ScriptInstructionLimit overrides the default instruction limit for this zone's VM.
	ScriptInstructionLimit int
}

// Room is a location in the world.
type Room struct {
	ID          string
	ZoneID      string
	Title       string
	Description string
	Exits       []Exit
	Fixtures    []*Fixture
	Puzzles     []*Puzzle
	// Items lists every room item located here, nested items included, in display order.
	Items []*Item
}

func (r *Room) Kind() ContainerKind { return KindRoom }
func (r *Room) Label() string       { return r.Title }
func (r *Room) Preposition() string { return "in" }
func (r *Room) sealed()             {}

// ExitForDirection returns the exit in the given direction, if one exists.
func (r *Room) ExitForDirection(dir Direction) (Exit, bool) {
	for _, e := range r.Exits {
		if e.Direction == dir {
			return e, true
		}
	}
	return Exit{}, false
}

// Fixture returns the fixture with the given upper-cased name.
func (r *Room) Fixture(name string) (*Fixture, bool) {
	for _, f := range r.Fixtures {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Puzzle returns the puzzle with the given upper-cased name.
func (r *Room) Puzzle(name string) (*Puzzle, bool) {
	for _, p := range r.Puzzles {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// ItemsIn returns the live items placed directly in c, in display order.
func (r *Room) ItemsIn(c Container) []*Item {
	var out []*Item
	for _, it := range r.Items {
		if it.Container == c {
			out = append(out, it)
		}
	}
	return out
}

// Process is the recipe a fixture is currently working on. The zero value is idle.
type Process struct {
	Recipe *prefab.Recipe
	// Player is the player who activated the fixture, if any.
	Player *Player
	// Remaining counts down on every processor tick while Recipe is set.
	Remaining time.Duration
	// Idle is how long the fixture has been activated without a recipe.
	Idle time.Duration
}

// Fixture is an immovable room object that may hold items and process recipes.
type Fixture struct {
	Name           string
	Room           *Room
	Accessible     bool
	ChildPuzzle    *Puzzle
	RecipeTag      string
	Activatable    bool
	Activated      bool
	AutoDeactivate bool
	// HidingSpot is non-zero when players can hide in the fixture.
	HidingSpot  int
	Prep        string
	Description string
	Process     Process
}

func (f *Fixture) Kind() ContainerKind { return KindFixture }
func (f *Fixture) Label() string       { return f.Name }
func (f *Fixture) Preposition() string { return f.Prep }
func (f *Fixture) sealed()             {}

// CanHoldItems reports whether items can be put in or on the fixture.
func (f *Fixture) CanHoldItems() bool {
	return f.Prep != ""
}

// PuzzleType names a puzzle's solving rule.
type PuzzleType string

const (
	PuzzleWeight          PuzzleType = "weight"
	PuzzleContainer       PuzzleType = "container"
	PuzzlePassword        PuzzleType = "password"
	PuzzleInteract        PuzzleType = "interact"
	PuzzleToggle          PuzzleType = "toggle"
	PuzzleKeyLock         PuzzleType = "key lock"
	PuzzleCombinationLock PuzzleType = "combination lock"
)

// IsValid reports whether t is a known puzzle type.
func (t PuzzleType) IsValid() bool {
	switch t {
	case PuzzleWeight, PuzzleContainer, PuzzlePassword, PuzzleInteract, PuzzleToggle, PuzzleKeyLock, PuzzleCombinationLock:
		return true
	}
	return false
}

// Reactive reports whether the puzzle is attempted by moving items in and out of it.
func (t PuzzleType) Reactive() bool {
	return t == PuzzleWeight || t == PuzzleContainer
}

// Puzzle is a room-scoped interactive object that may gate access to the items it holds.
type Puzzle struct {
	Name          string
	Room          *Room
	Solved        bool
	Outcome       string
	ParentFixture *Fixture
	Type          PuzzleType
	Accessible    bool
	// Requirements are names of puzzles that must be solved, or prefab ids the
	// attempting player must carry.
	Requirements []string
	Solutions    []string
	// RemainingAttempts is decremented on failure; Unlimited never runs out.
	RemainingAttempts             int
	CorrectDescription            string
	AlreadySolvedDescription      string
	IncorrectDescription          string
	NoMoreAttemptsDescription     string
	RequirementsNotMetDescription string
}

func (p *Puzzle) Kind() ContainerKind { return KindPuzzle }

// Label is the parent fixture's name when there is one.
func (p *Puzzle) Label() string {
	if p.ParentFixture != nil {
		return p.ParentFixture.Name
	}
	return p.Name
}

// Preposition is inherited from the parent fixture.
func (p *Puzzle) Preposition() string {
	if p.ParentFixture != nil && p.ParentFixture.Prep != "" {
		return p.ParentFixture.Prep
	}
	return "in"
}

func (p *Puzzle) sealed() {}

// ItemsAccessible reports whether items placed in the puzzle can be seen and taken.
func (p *Puzzle) ItemsAccessible() bool {
	if p.Type.Reactive() {
		return true
	}
	return p.Accessible && p.Solved
}

// Pronouns are the words narration uses for a player.
type Pronouns struct {
	Sbj    string `yaml:"sbj"`
	Obj    string `yaml:"obj"`
	Dpos   string `yaml:"dpos"`
	Plural bool   `yaml:"plural"`
}

// PronounSet returns the pronouns for a short name such as "she", "he", "they" or "it".
func PronounSet(name string) Pronouns {
	switch strings.ToLower(name) {
	case "she", "female":
		return Pronouns{Sbj: "she", Obj: "her", Dpos: "her"}
	case "he", "male":
		return Pronouns{Sbj: "he", Obj: "him", Dpos: "his"}
	case "it":
		return Pronouns{Sbj: "it", Obj: "it", Dpos: "its"}
	default:
		return Pronouns{Sbj: "they", Obj: "them", Dpos: "their", Plural: true}
	}
}

// Stats are a player's ability scores.
type Stats struct {
	Strength     int `yaml:"str"`
	Intelligence int `yaml:"int"`
	Dexterity    int `yaml:"dex"`
	Speed        int `yaml:"spd"`
	Stamina      int `yaml:"sta"`
}

// Get returns the stat with the given short name.
func (s Stats) Get(name string) (int, bool) {
	switch strings.ToLower(name) {
	case "str", "strength":
		return s.Strength, true
	case "int", "intelligence":
		return s.Intelligence, true
	case "dex", "dexterity":
		return s.Dexterity, true
	case "spd", "speed":
		return s.Speed, true
	case "sta", "stamina":
		return s.Stamina, true
	}
	return 0, false
}

// EquipmentSlot is a body location holding at most one equipped item.
type EquipmentSlot struct {
	ID string
	// Equipped is nil when nothing is equipped.
	Equipped *Item
}

// Items returns the equipped item followed by everything nested inside it.
func (s *EquipmentSlot) Items() []*Item {
	if s.Equipped == nil {
		return nil
	}
	out := []*Item{s.Equipped}
	return appendChildren(out, s.Equipped)
}

// Player is a character in the world.
type Player struct {
	Name        string
	DisplayName string
	Room        *Room
	Stats       Stats
	Alive       bool
	Pronouns    Pronouns
	Attributes  []string
	Description string
	// HidingSpot is the name of the fixture the player hides in, or empty.
	HidingSpot  string
	Equipment   []*EquipmentSlot
	CarryWeight int
}

// Slot returns the equipment slot with the given id.
func (p *Player) Slot(id string) (*EquipmentSlot, bool) {
	for _, s := range p.Equipment {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// HasAttribute reports whether the player carries the named behaviour attribute.
func (p *Player) HasAttribute(attr string) bool {
	for _, a := range p.Attributes {
		if strings.EqualFold(a, attr) {
			return true
		}
	}
	return false
}

// MaxCarryWeight is the heaviest load the player can carry.
func (p *Player) MaxCarryWeight() int {
	s := float64(p.Stats.Strength)
	return int(math.Floor(1.783*s*s - 2*s + 22))
}

// FreeHand returns the first empty hand slot, right before left.
func (p *Player) FreeHand() (string, bool) {
	for _, id := range []string{RightHand, LeftHand} {
		if s, ok := p.Slot(id); ok && s.Equipped == nil {
			return id, true
		}
	}
	return "", false
}

// Inventory returns every item the player holds, slot by slot, in display order.
func (p *Player) Inventory() []*Item {
	var out []*Item
	for _, s := range p.Equipment {
		out = append(out, s.Items()...)
	}
	return out
}

// HasPrefab returns a live item of the given prefab the player holds anywhere.
func (p *Player) HasPrefab(id string) (*Item, bool) {
	for _, it := range p.Inventory() {
		if it.Prefab.ID == id && it.Quantity != 0 {
			return it, true
		}
	}
	return nil, false
}

// ItemID is the stable arena key of an item.
type ItemID = uuid.UUID

// Item is a quantity of identical instances of one prefab at one containment point.
// A room item has a nil Owner and lives in Room; an inventory item belongs to
// Owner under the equipment slot EquipmentSlot.
type Item struct {
	ID         ItemID
	Prefab     *prefab.Prefab
	Identifier string
	Room       *Room
	Owner      *Player
	// EquipmentSlot is the owner's slot whose tree holds this item.
	EquipmentSlot string
	// Container is nil for an equipped item.
	Container Container
	Slot      string
	Quantity  int
	Uses      int
	// Weight is the unit weight including everything nested inside.
	Weight      int
	Accessible  bool
	Description string
	Inventory   []*InventorySlot
}

func (it *Item) Kind() ContainerKind { return KindItem }

// Label is the item's display name.
func (it *Item) Label() string { return it.Prefab.Name }

// Preposition is the prefab's, defaulting to "in".
func (it *Item) Preposition() string {
	if it.Prefab.Preposition != "" {
		return it.Prefab.Preposition
	}
	return "in"
}

func (it *Item) sealed() {}

// Name is the prefab's display name.
func (it *Item) Name() string { return it.Prefab.Name }

// Ref is the identifier when present, otherwise the prefab id.
func (it *Item) Ref() string {
	if it.Identifier != "" {
		return it.Identifier
	}
	return it.Prefab.ID
}

// Phrases returns how the item is written in description item lists.
func (it *Item) Phrases() description.Phrases {
	return it.Prefab.Phrases()
}

// SingleContainingPhrase is the phrase for exactly one instance, e.g. "a key".
func (it *Item) SingleContainingPhrase() string {
	return it.Prefab.SingleContainingPhrase
}

// Discreet reports whether the item goes unmentioned when carried.
func (it *Item) Discreet() bool {
	return it.Prefab.Discreet
}

// Equipped reports whether the item sits directly in one of its owner's equipment slots.
func (it *Item) Equipped() bool {
	return it.Owner != nil && it.Container == nil
}

// InventorySlot returns the item's inventory slot with the given id.
func (it *Item) InventorySlot(id string) (*InventorySlot, bool) {
	for _, s := range it.Inventory {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// ContainerKey is the composite key identifying the item's container: the
// container's kind and name, plus the slot id for item containers.
func (it *Item) ContainerKey() string {
	switch c := it.Container.(type) {
	case nil:
		return ""
	case *Room:
		return ""
	case *Fixture:
		return "Fixture: " + c.Name
	case *Puzzle:
		return "Puzzle: " + c.Name
	case *Item:
		return c.Ref() + "/" + it.Slot
	}
	return ""
}

func appendChildren(out []*Item, it *Item) []*Item {
	for _, s := range it.Inventory {
		for _, child := range s.Items {
			out = append(out, child)
			out = appendChildren(out, child)
		}
	}
	return out
}

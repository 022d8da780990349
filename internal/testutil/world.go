// Package testutil provides test helpers: the fixture world, the shipped
// content tree, a migrated PostgreSQL container and a telnet client.
package testutil

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/parlor/internal/game/prefab"
	"github.com/cory-johannsen/parlor/internal/game/world"
)

// TB is the subset of testing.TB the world helpers need. Both *testing.T and
// *rapid.T satisfy it.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

// EquipmentSlots is the slot layout every fixture player gets.
var EquipmentSlots = []string{
	"RIGHT HAND", "LEFT HAND", "HAT", "GLASSES", "FACE", "NECK", "BAG",
	"SHIRT", "JACKET", "VEST", "GLOVES", "PANTS", "SOCKS", "SHOES",
}

// PrefabYAML is a small catalogue covering stacks, containers, clothing,
// evolving tools and recipes.
const PrefabYAML = `
prefabs:
  - id: key
    name: key
    plural_name: keys
    single_containing_phrase: a key
    plural_containing_phrase: keys
    size: 1
    weight: 1
  - id: pencil
    name: pencil
    plural_name: pencils
    single_containing_phrase: a pencil
    plural_containing_phrase: pencils
    size: 1
    weight: 1
  - id: coin
    name: coin
    plural_name: coins
    single_containing_phrase: a coin
    plural_containing_phrase: coins
    discreet: true
    size: 1
    weight: 1
  - id: rock
    name: boulder
    single_containing_phrase: a boulder
    plural_containing_phrase: boulders
    size: 3
    weight: 60
  - id: backpack
    name: backpack
    single_containing_phrase: a backpack
    plural_containing_phrase: backpacks
    size: 6
    weight: 2
    equippable: true
    equipment_slots: [bag]
    preposition: in
    inventory:
      - {id: main pocket, capacity: 10}
      - {id: side pocket, capacity: 2}
    description: <desc><s>In the main pocket is <il name="main pocket"></il>.</s> <s>In the side pocket is <il name="side pocket"></il>.</s></desc>
  - id: box
    name: box
    single_containing_phrase: a box
    plural_containing_phrase: boxes
    size: 4
    weight: 3
    preposition: in
    inventory:
      - {id: box, capacity: 4}
    description: <desc><s>Inside is <il></il>.</s></desc>
  - id: shirt
    name: shirt
    single_containing_phrase: a shirt
    plural_containing_phrase: shirts
    size: 2
    weight: 1
    equippable: true
    equipment_slots: [shirt]
  - id: jacket
    name: jacket
    single_containing_phrase: a jacket
    plural_containing_phrase: jackets
    size: 3
    weight: 2
    equippable: true
    equipment_slots: [jacket]
    covered_equipment_slots: [shirt]
  - id: hat
    name: hat
    single_containing_phrase: a hat
    plural_containing_phrase: hats
    size: 2
    weight: 1
    equippable: true
    equipment_slots: [hat]
  - id: raw egg
    name: raw egg
    plural_name: raw eggs
    single_containing_phrase: a raw egg
    plural_containing_phrase: raw eggs
    size: 1
    weight: 1
  - id: cooked egg
    name: cooked egg
    plural_name: cooked eggs
    single_containing_phrase: a cooked egg
    plural_containing_phrase: cooked eggs
    size: 1
    weight: 1
  - id: pan
    name: frying pan
    single_containing_phrase: a frying pan
    plural_containing_phrase: frying pans
    size: 3
    weight: 4
    uses: 2
    next_stage: burnt pan
  - id: burnt pan
    name: burnt pan
    single_containing_phrase: a burnt pan
    plural_containing_phrase: burnt pans
    size: 3
    weight: 4
  - id: stick
    name: stick
    single_containing_phrase: a stick
    plural_containing_phrase: sticks
    size: 2
    weight: 1
  - id: cloth
    name: cloth
    single_containing_phrase: a cloth
    plural_containing_phrase: cloths
    size: 1
    weight: 1
  - id: torch
    name: torch
    single_containing_phrase: a torch
    plural_containing_phrase: torches
    size: 2
    weight: 2
  - id: knife
    name: knife
    single_containing_phrase: a knife
    plural_containing_phrase: knives
    size: 1
    weight: 1
    uses: 2
  - id: apple
    name: apple
    single_containing_phrase: an apple
    plural_containing_phrase: apples
    size: 1
    weight: 1
  - id: apple slices
    name: apple slices
    single_containing_phrase: some apple slices
    plural_containing_phrase: apple slices
    size: 1
    weight: 1
recipes:
  - ingredients: [stick, cloth]
    uncraftable: true
    products: [torch]
    completed_description: <s>You wrap the cloth around the stick.</s>
    uncrafted_description: <s>You unwrap the cloth from the stick.</s>
  - ingredients: [knife, apple]
    products: [knife, apple slices]
    completed_description: <s>You slice the apple.</s>
  - ingredients: [raw egg, pan]
    fixture_tag: stove
    duration: 30s
    products: [pan, cooked egg]
    initiated_description: <s>The pan starts to sizzle.</s>
    completed_description: <s>The egg is done.</s>
`

// ZoneYAML is a two-room zone with fixtures, puzzles and placed items.
const ZoneYAML = `
zone:
  id: house
  name: House
  start_room: parlor
  rooms:
    - id: parlor
      title: Parlor
      description: <desc><s>You are in the parlor.</s> <s>On the floor is <il></il>.</s></desc>
      exits:
        - {direction: east, target: kitchen}
      fixtures:
        - name: desk
          preposition: on
          description: <desc><s>On the desk you see <il></il>.</s></desc>
        - name: safe
          preposition: in
          child_puzzle: safe lock
          description: <desc><s>A heavy safe.</s></desc>
        - name: scale
          preposition: on
          child_puzzle: scale
          description: <desc><s>A brass scale.</s></desc>
        - name: painting
          description: <desc><s>A portrait of someone stern.</s></desc>
      puzzles:
        - name: safe lock
          type: combination lock
          parent_fixture: safe
          solutions: ["1234"]
          remaining_attempts: 3
          correct_description: <s>The safe swings open.</s>
          already_solved_description: <desc><s>Inside the safe is <il></il>.</s></desc>
          incorrect_description: <s>The dial clicks uselessly.</s>
          no_more_attempts_description: <s>The dial is jammed.</s>
        - name: scale
          type: weight
          parent_fixture: scale
          solutions: ["3"]
          correct_description: <s>The scale balances.</s>
          already_solved_description: <desc><s>On the scale is <il></il>.</s></desc>
          incorrect_description: <s>The scale tips.</s>
        - name: lever
          type: toggle
          requirements: [safe lock]
          correct_description: <s>You pull the lever.</s>
          already_solved_description: <s>You push the lever back.</s>
          requirements_not_met_description: <s>The lever will not budge.</s>
      items:
        - {prefab: key, container: "fixture: desk"}
        - {prefab: pencil, quantity: 3, container: "fixture: desk"}
        - prefab: box
          contents:
            - {prefab: coin, quantity: 2, slot: box}
        - {prefab: coin, quantity: 5, container: "puzzle: safe lock"}
        - {prefab: rock}
    - id: kitchen
      title: Kitchen
      description: <desc><s>You are in the kitchen.</s> <s>On the floor is <il></il>.</s></desc>
      exits:
        - {direction: west, target: parlor}
      fixtures:
        - name: stove
          preposition: on
          recipe_tag: stove
          activatable: true
          auto_deactivate: true
          description: <desc><s>On the stove is <il></il>.</s></desc>
        - name: counter
          preposition: on
          description: <desc><s>On the counter is <il></il>.</s></desc>
      items:
        - {prefab: raw egg, quantity: -1, container: "fixture: counter"}
        - {prefab: pan, container: "fixture: counter"}
`

// PlayersYAML places three players: two in the parlor, one in the kitchen.
const PlayersYAML = `
players:
  - name: Kyra
    pronouns: she
    room: parlor
    stats: {str: 5, int: 5, dex: 5, spd: 5, sta: 5}
    equipment:
      - prefab: backpack
        slot: bag
        contents:
          - {prefab: pencil, slot: main pocket}
      - {prefab: shirt, slot: shirt}
      - {prefab: jacket, slot: jacket}
  - name: Viktor
    pronouns: he
    room: parlor
    stats: {str: 5, int: 5, dex: 5, spd: 5, sta: 5}
    attributes: [thief]
    equipment:
      - prefab: backpack
        slot: bag
        contents:
          - {prefab: coin, quantity: 3, slot: main pocket}
  - name: Nero
    pronouns: they
    room: kitchen
    stats: {str: 5, int: 5, dex: 5, spd: 5, sta: 5}
`

// NewRegistry returns the linked fixture prefab registry.
func NewRegistry(t TB) *prefab.Registry {
	t.Helper()
	r := prefab.NewRegistry()
	if err := r.LoadBytes([]byte(PrefabYAML)); err != nil {
		t.Fatalf("loading fixture prefabs: %v", err)
	}
	if err := r.Link(); err != nil {
		t.Fatalf("linking fixture prefabs: %v", err)
	}
	return r
}

// NewWorld builds the fixture world. A nil logger discards the game log.
//
// Postcondition: Returns a World that passes CheckInvariants, or fails the test.
func NewWorld(t TB, logger *zap.Logger) *world.World {
	t.Helper()
	c := &world.Content{}
	if _, err := c.LoadZoneFromBytes([]byte(ZoneYAML)); err != nil {
		t.Fatalf("loading fixture zone: %v", err)
	}
	if _, err := c.LoadPlayersFromBytes([]byte(PlayersYAML), EquipmentSlots); err != nil {
		t.Fatalf("loading fixture players: %v", err)
	}
	w, err := world.Build(NewRegistry(t), c, logger)
	if err != nil {
		t.Fatalf("building fixture world: %v", err)
	}
	if err := w.CheckInvariants(); err != nil {
		t.Fatalf("fixture world is inconsistent: %v", err)
	}
	return w
}

// Player returns the named fixture player or fails the test.
func Player(t TB, w *world.World, name string) *world.Player {
	t.Helper()
	p, ok := w.Player(name)
	if !ok {
		t.Fatalf("no player %q", name)
	}
	return p
}

// Room returns the fixture room with the given id or fails the test.
func Room(t TB, w *world.World, id string) *world.Room {
	t.Helper()
	r, ok := w.Room(id)
	if !ok {
		t.Fatalf("no room %q", id)
	}
	return r
}

// RoomItem returns the first live item of prefab id placed directly in c.
func RoomItem(t TB, r *world.Room, c world.Container, id string) *world.Item {
	t.Helper()
	for _, it := range r.ItemsIn(c) {
		if it.Prefab.ID == id {
			return it
		}
	}
	t.Fatalf("no %s in %s", id, c.Label())
	return nil
}

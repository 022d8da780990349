package world

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/parlor/internal/game/prefab"
)

// yamlZoneFile is the top-level YAML structure for zone files.
type yamlZoneFile struct {
	Zone yamlZone `yaml:"zone"`
}

// yamlZone is the YAML representation of a zone.
type yamlZone struct {
	ID                     string     `yaml:"id"`
	Name                   string     `yaml:"name"`
	Description            string     `yaml:"description"`
	StartRoom              string     `yaml:"start_room"`
	ScriptDir              string     `yaml:"script_dir"`
	ScriptInstructionLimit int        `yaml:"script_instruction_limit"`
	Rooms                  []yamlRoom `yaml:"rooms"`
}

// yamlRoom is the YAML representation of a room.
type yamlRoom struct {
	ID          string        `yaml:"id"`
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Exits       []yamlExit    `yaml:"exits"`
	Fixtures    []yamlFixture `yaml:"fixtures"`
	Puzzles     []yamlPuzzle  `yaml:"puzzles"`
	Items       []yamlItem    `yaml:"items"`
}

// yamlExit is the YAML representation of an exit.
type yamlExit struct {
	Direction string `yaml:"direction"`
	Target    string `yaml:"target"`
	Locked    bool   `yaml:"locked"`
}

type yamlFixture struct {
	Name           string `yaml:"name"`
	Accessible     *bool  `yaml:"accessible"`
	ChildPuzzle    string `yaml:"child_puzzle"`
	RecipeTag      string `yaml:"recipe_tag"`
	Activatable    bool   `yaml:"activatable"`
	Activated      bool   `yaml:"activated"`
	AutoDeactivate bool   `yaml:"auto_deactivate"`
	HidingSpot     int    `yaml:"hiding_spot"`
	Preposition    string `yaml:"preposition"`
	Description    string `yaml:"description"`
}

type yamlPuzzle struct {
	Name                          string   `yaml:"name"`
	Type                          string   `yaml:"type"`
	Solved                        bool     `yaml:"solved"`
	Outcome                       string   `yaml:"outcome"`
	ParentFixture                 string   `yaml:"parent_fixture"`
	Accessible                    *bool    `yaml:"accessible"`
	Requirements                  []string `yaml:"requirements"`
	Solutions                     []string `yaml:"solutions"`
	RemainingAttempts             *int     `yaml:"remaining_attempts"`
	CorrectDescription            string   `yaml:"correct_description"`
	AlreadySolvedDescription      string   `yaml:"already_solved_description"`
	IncorrectDescription          string   `yaml:"incorrect_description"`
	NoMoreAttemptsDescription     string   `yaml:"no_more_attempts_description"`
	RequirementsNotMetDescription string   `yaml:"requirements_not_met_description"`
}

// yamlItem places a quantity of a prefab. At the top level Container is
// "fixture: NAME", "puzzle: NAME" or empty for the room floor; nested
// under contents, Slot names the parent's inventory slot.
type yamlItem struct {
	Prefab    string     `yaml:"prefab"`
	Quantity  *int       `yaml:"quantity"`
	Container string     `yaml:"container"`
	Slot      string     `yaml:"slot"`
	Contents  []yamlItem `yaml:"contents"`
}

func (yi yamlItem) quantity() int {
	if yi.Quantity == nil {
		return 1
	}
	return *yi.Quantity
}

type yamlPlayerFile struct {
	Players []yamlPlayer `yaml:"players"`
}

type yamlPlayer struct {
	Name        string     `yaml:"name"`
	DisplayName string     `yaml:"display_name"`
	Room        string     `yaml:"room"`
	Pronouns    string     `yaml:"pronouns"`
	Stats       Stats      `yaml:"stats"`
	Attributes  []string   `yaml:"attributes"`
	Description string     `yaml:"description"`
	Equipment   []yamlItem `yaml:"equipment"`
}

// DefaultPlayerDescription is used for players authored without a description.
const DefaultPlayerDescription = `<desc><s>In their hands you see <il name="hands"></il>.</s> <s>They are wearing <il name="equipment"></il>.</s></desc>`

// Content is parsed world content whose items have not been placed yet.
type Content struct {
	Zones   []*Zone
	Players []*Player

	roomItems   map[*Room][]yamlItem
	playerItems map[*Player][]yamlItem
	playerRooms map[*Player]string
}

// LoadZoneFromFile reads and validates a single zone YAML file into c.
//
// Precondition: path must point to a valid YAML zone file.
// Postcondition: Returns a validated Zone or a non-nil error.
func (c *Content) LoadZoneFromFile(path string) (*Zone, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading zone file %s: %w", path, err)
	}
	return c.LoadZoneFromBytes(data)
}

// LoadZoneFromBytes parses and validates a zone from YAML bytes into c.
//
// Precondition: data must be valid YAML conforming to the zone schema.
// Postcondition: Returns a validated Zone or a non-nil error.
func (c *Content) LoadZoneFromBytes(data []byte) (*Zone, error) {
	var file yamlZoneFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing zone YAML: %w", err)
	}

	zone, items, err := convertYAMLZone(file.Zone)
	if err != nil {
		return nil, fmt.Errorf("validating zone: %w", err)
	}
	if c.roomItems == nil {
		c.roomItems = make(map[*Room][]yamlItem)
	}
	for r, yi := range items {
		c.roomItems[r] = yi
	}
	c.Zones = append(c.Zones, zone)
	return zone, nil
}

// LoadPlayersFromBytes parses players from YAML bytes into c. Every player gets
// one equipment slot per id in slots.
func (c *Content) LoadPlayersFromBytes(data []byte, slots []string) ([]*Player, error) {
	var file yamlPlayerFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing player YAML: %w", err)
	}
	if c.playerItems == nil {
		c.playerItems = make(map[*Player][]yamlItem)
		c.playerRooms = make(map[*Player]string)
	}
	var out []*Player
	for _, yp := range file.Players {
		if yp.Name == "" {
			return nil, errors.New("player name must not be empty")
		}
		p := &Player{
			Name:        yp.Name,
			DisplayName: yp.DisplayName,
			Stats:       yp.Stats,
			Alive:       true,
			Pronouns:    PronounSet(yp.Pronouns),
			Attributes:  yp.Attributes,
			Description: strings.TrimSpace(yp.Description),
		}
		if p.DisplayName == "" {
			p.DisplayName = p.Name
		}
		if p.Description == "" {
			p.Description = DefaultPlayerDescription
		}
		for _, id := range slots {
			p.Equipment = append(p.Equipment, &EquipmentSlot{ID: strings.ToUpper(id)})
		}
		c.playerItems[p] = yp.Equipment
		c.playerRooms[p] = yp.Room
		c.Players = append(c.Players, p)
		out = append(out, p)
	}
	return out, nil
}

// LoadContentDir loads every zone file under dir/zones and every player file
// under dir/players.
//
// Precondition: dir must be a valid directory path.
// Postcondition: Returns the parsed content or the first error encountered.
func LoadContentDir(dir string, slots []string) (*Content, error) {
	c := &Content{}
	zoneFiles, err := yamlFiles(filepath.Join(dir, "zones"))
	if err != nil {
		return nil, err
	}
	for _, path := range zoneFiles {
		if _, err := c.LoadZoneFromFile(path); err != nil {
			return nil, fmt.Errorf("loading zone from %s: %w", filepath.Base(path), err)
		}
	}
	if len(c.Zones) == 0 {
		return nil, fmt.Errorf("no zone files found in %s", filepath.Join(dir, "zones"))
	}
	playerFiles, err := yamlFiles(filepath.Join(dir, "players"))
	if err != nil {
		return nil, err
	}
	for _, path := range playerFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading player file %s: %w", path, err)
		}
		if _, err := c.LoadPlayersFromBytes(data, slots); err != nil {
			return nil, fmt.Errorf("loading players from %s: %w", filepath.Base(path), err)
		}
	}
	return c, nil
}

func yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading content directory %s: %w", dir, err)
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// Build creates the World from c and places every authored item. Placement is
// not written to the game log.
//
// Precondition: prefabs is linked.
// Postcondition: Returns a World satisfying CheckInvariants, or an error naming the bad content.
func Build(prefabs *prefab.Registry, c *Content, logger *zap.Logger) (*World, error) {
	rooms := make(map[string]*Room)
	for _, z := range c.Zones {
		for _, r := range z.Rooms {
			rooms[r.ID] = r
		}
	}
	for _, p := range c.Players {
		id := c.playerRooms[p]
		r, ok := rooms[id]
		if !ok {
			return nil, fmt.Errorf("player %s: unknown room %q", p.Name, id)
		}
		p.Room = r
	}
	w, err := New(prefabs, c.Zones, c.Players, logger)
	if err != nil {
		return nil, err
	}
	gamelog := w.gamelog
	w.gamelog = zap.NewNop()
	defer func() { w.gamelog = gamelog }()

	for _, z := range c.Zones {
		for _, r := range z.Rooms {
			for _, yi := range c.roomItems[r] {
				cont, err := ContainerIn(r, yi.Container)
				if err != nil {
					return nil, fmt.Errorf("room %s: %w", r.ID, err)
				}
				if err := w.seedRoomItem(r, cont, "", yi); err != nil {
					return nil, fmt.Errorf("room %s: %w", r.ID, err)
				}
			}
		}
	}
	for _, p := range c.Players {
		for _, yi := range c.playerItems[p] {
			if err := w.seedInventoryItem(p, strings.ToUpper(yi.Slot), nil, "", yi); err != nil {
				return nil, fmt.Errorf("player %s: %w", p.Name, err)
			}
		}
	}
	return w, nil
}

func (w *World) lookupPrefab(id string) (*prefab.Prefab, error) {
	p, ok := w.prefabs.Prefab(strings.ToUpper(id))
	if !ok {
		return nil, fmt.Errorf("unknown prefab %q", id)
	}
	return p, nil
}

func (w *World) seedRoomItem(r *Room, c Container, slot string, yi yamlItem) error {
	p, err := w.lookupPrefab(yi.Prefab)
	if err != nil {
		return err
	}
	it, err := w.Instantiate(p, r, c, slot, yi.quantity())
	if err != nil {
		return err
	}
	for _, child := range yi.Contents {
		if err := w.seedRoomItem(r, it, strings.ToUpper(child.Slot), child); err != nil {
			return fmt.Errorf("%s: %w", it.Ref(), err)
		}
	}
	return nil
}

func (w *World) seedInventoryItem(pl *Player, equipSlot string, container *Item, slot string, yi yamlItem) error {
	p, err := w.lookupPrefab(yi.Prefab)
	if err != nil {
		return err
	}
	it, err := w.InstantiateInventory(p, pl, equipSlot, container, slot, yi.quantity())
	if err != nil {
		return err
	}
	for _, child := range yi.Contents {
		if err := w.seedInventoryItem(pl, equipSlot, it, strings.ToUpper(child.Slot), child); err != nil {
			return fmt.Errorf("%s: %w", it.Ref(), err)
		}
	}
	return nil
}

// ContainerIn resolves "fixture: NAME", "puzzle: NAME" or "" (the floor) in r.
func ContainerIn(r *Room, ref string) (Container, error) {
	if strings.TrimSpace(ref) == "" {
		return r, nil
	}
	kind, name, ok := strings.Cut(ref, ":")
	if !ok {
		return nil, fmt.Errorf("container %q must be \"fixture: NAME\" or \"puzzle: NAME\"", ref)
	}
	name = strings.ToUpper(strings.TrimSpace(name))
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "fixture":
		if f, ok := r.Fixture(name); ok {
			return f, nil
		}
	case "puzzle":
		if pz, ok := r.Puzzle(name); ok {
			return pz, nil
		}
	default:
		return nil, fmt.Errorf("container %q has unknown kind %q", ref, kind)
	}
	return nil, fmt.Errorf("container %q not found: %w", ref, ErrNotFound)
}

// convertYAMLZone converts the parsed YAML structures into domain types and
// validates cross references within the zone.
func convertYAMLZone(yz yamlZone) (*Zone, map[*Room][]yamlItem, error) {
	var errs []error
	if yz.ID == "" {
		errs = append(errs, errors.New("zone ID must not be empty"))
	}
	zone := &Zone{
		ID:                     yz.ID,
		Name:                   yz.Name,
		Description:            yz.Description,
		StartRoom:              yz.StartRoom,
		ScriptDir:              yz.ScriptDir,
		ScriptInstructionLimit: yz.ScriptInstructionLimit,
	}
	items := make(map[*Room][]yamlItem, len(yz.Rooms))
	seen := make(map[string]bool)

	for _, yr := range yz.Rooms {
		if yr.ID == "" {
			errs = append(errs, errors.New("room ID must not be empty"))
			continue
		}
		if seen[yr.ID] {
			errs = append(errs, fmt.Errorf("duplicate room ID %q", yr.ID))
			continue
		}
		seen[yr.ID] = true
		room := &Room{
			ID:          yr.ID,
			ZoneID:      yz.ID,
			Title:       yr.Title,
			Description: strings.TrimSpace(yr.Description),
		}
		for _, ye := range yr.Exits {
			room.Exits = append(room.Exits, Exit{
				Direction:  Direction(strings.ToLower(ye.Direction)),
				TargetRoom: ye.Target,
				Locked:     ye.Locked,
			})
		}
		for _, yf := range yr.Fixtures {
			f := &Fixture{
				Name:           strings.ToUpper(yf.Name),
				Room:           room,
				Accessible:     yf.Accessible == nil || *yf.Accessible,
				RecipeTag:      strings.ToLower(yf.RecipeTag),
				Activatable:    yf.Activatable,
				Activated:      yf.Activated,
				AutoDeactivate: yf.AutoDeactivate,
				HidingSpot:     yf.HidingSpot,
				Prep:           strings.ToLower(yf.Preposition),
				Description:    strings.TrimSpace(yf.Description),
			}
			if f.Name == "" {
				errs = append(errs, fmt.Errorf("room %s: fixture name must not be empty", room.ID))
			}
			room.Fixtures = append(room.Fixtures, f)
		}
		for _, yp := range yr.Puzzles {
			pz := &Puzzle{
				Name:                          strings.ToUpper(yp.Name),
				Room:                          room,
				Solved:                        yp.Solved,
				Outcome:                       yp.Outcome,
				Type:                          PuzzleType(strings.ToLower(yp.Type)),
				Accessible:                    yp.Accessible == nil || *yp.Accessible,
				Requirements:                  upperAll(yp.Requirements),
				Solutions:                     yp.Solutions,
				RemainingAttempts:             Unlimited,
				CorrectDescription:            strings.TrimSpace(yp.CorrectDescription),
				AlreadySolvedDescription:      strings.TrimSpace(yp.AlreadySolvedDescription),
				IncorrectDescription:          strings.TrimSpace(yp.IncorrectDescription),
				NoMoreAttemptsDescription:     strings.TrimSpace(yp.NoMoreAttemptsDescription),
				RequirementsNotMetDescription: strings.TrimSpace(yp.RequirementsNotMetDescription),
			}
			if yp.RemainingAttempts != nil {
				pz.RemainingAttempts = *yp.RemainingAttempts
			}
			if !pz.Type.IsValid() {
				errs = append(errs, fmt.Errorf("room %s: puzzle %q has unknown type %q", room.ID, yp.Name, yp.Type))
			}
			if pz.RemainingAttempts < Unlimited {
				errs = append(errs, fmt.Errorf("room %s: puzzle %q remaining_attempts must be >= -1", room.ID, yp.Name))
			}
			if yp.ParentFixture != "" {
				f, ok := room.Fixture(strings.ToUpper(yp.ParentFixture))
				if !ok {
					errs = append(errs, fmt.Errorf("room %s: puzzle %q parent fixture %q not found", room.ID, yp.Name, yp.ParentFixture))
				}
				pz.ParentFixture = f
			}
			room.Puzzles = append(room.Puzzles, pz)
		}
		for i, yf := range yr.Fixtures {
			if yf.ChildPuzzle == "" {
				continue
			}
			pz, ok := room.Puzzle(strings.ToUpper(yf.ChildPuzzle))
			if !ok {
				errs = append(errs, fmt.Errorf("room %s: fixture %q child puzzle %q not found", room.ID, yf.Name, yf.ChildPuzzle))
				continue
			}
			room.Fixtures[i].ChildPuzzle = pz
		}
		items[room] = yr.Items
		zone.Rooms = append(zone.Rooms, room)
	}

	if zone.StartRoom != "" && !seen[zone.StartRoom] {
		errs = append(errs, fmt.Errorf("start room %q not found in zone", zone.StartRoom))
	}
	if len(errs) > 0 {
		return nil, nil, errors.Join(errs...)
	}
	return zone, items, nil
}

func upperAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToUpper(s)
	}
	return out
}

// Package hooks connects the action layer and the recipe processor to content
// scripts. Puzzle and recipe events become Lua hook calls, and the engine.*
// functions those hooks call are carried out against the world.
package hooks

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/parlor/internal/game/action"
	"github.com/cory-johannsen/parlor/internal/game/prefab"
	"github.com/cory-johannsen/parlor/internal/game/world"
	"github.com/cory-johannsen/parlor/internal/scripting"
)

// MaxChainedHooks bounds how many hooks one event may set off through
// scripts solving and unsolving each other's puzzles.
const MaxChainedHooks = 64

// Bridge implements action.Hooks and recipe.Hooks.
//
// Every method runs under the world lock held by the caller. Hooks raised
// while another hook is running are queued and run after it returns, so a
// script that solves a puzzle never re-enters its own VM.
type Bridge struct {
	env     *action.Env
	scripts *scripting.Manager
	logger  *zap.Logger

	queue   []func()
	running bool
}

// New binds scripts' engine callbacks to env and returns the bridge.
//
// Precondition: env, env.World, scripts and logger must be non-nil.
// Postcondition: scripts' callback fields are set.
func New(env *action.Env, scripts *scripting.Manager, logger *zap.Logger) *Bridge {
	b := &Bridge{env: env, scripts: scripts, logger: logger}
	scripts.Narrate = b.narrate
	scripts.Notify = b.notify
	scripts.Instantiate = b.instantiate
	scripts.Destroy = b.destroy
	scripts.Solve = b.solve
	scripts.Unsolve = b.unsolve
	scripts.QueryRoom = b.queryRoom
	return b
}

// OnSolve calls the zone's on_solve hook.
func (b *Bridge) OnSolve(pz *world.Puzzle, p *world.Player) {
	zone, info, name := pz.Room.ZoneID, puzzleInfo(pz), playerName(p)
	b.dispatch(func() { b.scripts.PuzzleSolved(zone, info, name) })
}

// OnUnsolve calls the zone's on_unsolve hook.
func (b *Bridge) OnUnsolve(pz *world.Puzzle, p *world.Player) {
	zone, info, name := pz.Room.ZoneID, puzzleInfo(pz), playerName(p)
	b.dispatch(func() { b.scripts.PuzzleUnsolved(zone, info, name) })
}

// OnRecipeComplete calls the zone's on_recipe_complete hook.
func (b *Bridge) OnRecipeComplete(f *world.Fixture, rec *prefab.Recipe, p *world.Player) {
	zone := f.Room.ZoneID
	fixture := scripting.FixtureInfo{RoomID: f.Room.ID, Name: f.Name}
	recipe := scripting.RecipeInfo{
		Ingredients: append([]string(nil), rec.Ingredients...),
		Products:    append([]string(nil), rec.Products...),
	}
	name := playerName(p)
	b.dispatch(func() { b.scripts.RecipeCompleted(zone, fixture, recipe, name) })
}

func (b *Bridge) dispatch(call func()) {
	b.queue = append(b.queue, call)
	if b.running {
		return
	}
	b.running = true
	defer func() { b.running = false }()
	for n := 0; len(b.queue) > 0; n++ {
		if n == MaxChainedHooks {
			b.logger.Warn("dropping chained script hooks", zap.Int("pending", len(b.queue)))
			b.queue = nil
			return
		}
		next := b.queue[0]
		b.queue = b.queue[1:]
		next()
	}
}

func puzzleInfo(pz *world.Puzzle) scripting.PuzzleInfo {
	return scripting.PuzzleInfo{
		RoomID:  pz.Room.ID,
		Name:    pz.Name,
		Type:    string(pz.Type),
		Outcome: pz.Outcome,
		Solved:  pz.Solved,
	}
}

func playerName(p *world.Player) string {
	if p == nil {
		return ""
	}
	return p.Name
}

func (b *Bridge) room(id string) (*world.Room, error) {
	r, ok := b.env.World.Room(id)
	if !ok {
		return nil, fmt.Errorf("no room %q: %w", id, world.ErrNotFound)
	}
	return r, nil
}

func (b *Bridge) player(name string) (*world.Player, error) {
	if name == "" {
		return nil, nil
	}
	p, ok := b.env.World.Player(name)
	if !ok {
		return nil, fmt.Errorf("no player %q: %w", name, world.ErrNotFound)
	}
	return p, nil
}

func (b *Bridge) puzzle(roomID, name string) (*world.Puzzle, error) {
	r, err := b.room(roomID)
	if err != nil {
		return nil, err
	}
	pz, ok := r.Puzzle(strings.ToUpper(strings.TrimSpace(name)))
	if !ok {
		return nil, fmt.Errorf("no puzzle %q in %s: %w", name, roomID, world.ErrNotFound)
	}
	return pz, nil
}

func (b *Bridge) narrator() action.Narrator {
	if b.env.Narrator == nil {
		return action.NopNarrator{}
	}
	return b.env.Narrator
}

func (b *Bridge) narrate(roomID, text string) error {
	r, err := b.room(roomID)
	if err != nil {
		return err
	}
	b.narrator().Narrate(r, text)
	return nil
}

func (b *Bridge) notify(name, text string) error {
	p, err := b.player(name)
	if err != nil {
		return err
	}
	if p == nil {
		return errors.New("no player given")
	}
	b.narrator().Notify(p, text)
	return nil
}

func (b *Bridge) instantiate(prefabID, roomID, container string, quantity int) (string, error) {
	pf, ok := b.env.World.Prefabs().Prefab(strings.ToUpper(strings.TrimSpace(prefabID)))
	if !ok {
		return "", fmt.Errorf("no prefab %q: %w", prefabID, world.ErrNotFound)
	}
	r, err := b.room(roomID)
	if err != nil {
		return "", err
	}
	c, err := world.ContainerIn(r, container)
	if err != nil {
		return "", err
	}
	it, err := b.env.Instantiate(pf, r, c, "", quantity)
	if err != nil {
		return "", err
	}
	return it.Identifier, nil
}

func (b *Bridge) destroy(identifier string, quantity int) error {
	it, ok := b.env.World.FindByIdentifier(strings.ToUpper(strings.TrimSpace(identifier)))
	if !ok {
		return fmt.Errorf("no item %q: %w", identifier, world.ErrNotFound)
	}
	return b.env.Destroy(it, quantity)
}

func (b *Bridge) solve(roomID, name, outcome, who string) error {
	pz, err := b.puzzle(roomID, name)
	if err != nil {
		return err
	}
	p, err := b.player(who)
	if err != nil {
		return err
	}
	b.env.Solve(pz, outcome, p)
	return nil
}

func (b *Bridge) unsolve(roomID, name, who string) error {
	pz, err := b.puzzle(roomID, name)
	if err != nil {
		return err
	}
	p, err := b.player(who)
	if err != nil {
		return err
	}
	b.env.Unsolve(pz, p)
	return nil
}

func (b *Bridge) queryRoom(roomID string) *scripting.RoomInfo {
	r, ok := b.env.World.Room(roomID)
	if !ok {
		return nil
	}
	info := &scripting.RoomInfo{ID: r.ID, ZoneID: r.ZoneID, Title: r.Title}
	for _, p := range b.env.World.PlayersIn(r) {
		info.Players = append(info.Players, p.Name)
	}
	return info
}

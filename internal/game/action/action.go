// Package action performs the guarded mutations players, scripts and fixtures
// apply to the world. An Action checks its preconditions, mutates the graph,
// narrates the result, writes the game log and re-evaluates any reactive
// puzzle the mutation touched.
//
// Every method expects the caller to hold the world lock (world.World.Do).
package action

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/parlor/internal/game/dice"
	"github.com/cory-johannsen/parlor/internal/game/world"
)

// Type identifies what an action does.
// The zero value (TypeUnknown) is intentionally invalid.
type Type int

const (
	TypeUnknown Type = iota
	TypeTake
	TypeDrop
	TypeGive
	TypeSteal
	TypeStash
	TypeUnstash
	TypeEquip
	TypeUnequip
	TypeDress
	TypeUndress
	TypeCraft
	TypeUncraft
	TypeInspect
	TypeDestroy
	TypeInstantiate
	TypeAttempt
	TypeSolve
	TypeUnsolve
	TypeActivate
	TypeDeactivate
)

var typeNames = map[Type]string{
	TypeTake:        "take",
	TypeDrop:        "drop",
	TypeGive:        "give",
	TypeSteal:       "steal",
	TypeStash:       "stash",
	TypeUnstash:     "unstash",
	TypeEquip:       "equip",
	TypeUnequip:     "unequip",
	TypeDress:       "dress",
	TypeUndress:     "undress",
	TypeCraft:       "craft",
	TypeUncraft:     "uncraft",
	TypeInspect:     "inspect",
	TypeDestroy:     "destroy",
	TypeInstantiate: "instantiate",
	TypeAttempt:     "attempt",
	TypeSolve:       "solve",
	TypeUnsolve:     "unsolve",
	TypeActivate:    "activate",
	TypeDeactivate:  "deactivate",
}

// String returns the lower-case action name, or "unknown".
func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return "unknown"
}

// Behaviour attributes consulted by actions.
const (
	AttrThief        = "thief"
	AttrUnconscious  = "unconscious"
	AttrDisableTake  = "disable take"
	AttrDisableDrop  = "disable drop"
	AttrDisableSteal = "disable steal"
	AttrDisableGive  = "disable give"
)

// PreconditionError rejects an action before anything changes. Its message is
// shown to the acting player verbatim.
type PreconditionError struct {
	Msg string
}

func (e *PreconditionError) Error() string { return e.Msg }

func failf(format string, args ...any) error {
	return &PreconditionError{Msg: fmt.Sprintf(format, args...)}
}

// Narrator delivers the text actions produce. Delivery is fire-and-forget:
// implementations must not block and must not touch the world.
type Narrator interface {
	// Notify sends text to one player.
	Notify(p *world.Player, text string)
	// Narrate sends text to everyone in room except the listed players.
	Narrate(room *world.Room, text string, except ...*world.Player)
}

// NopNarrator discards all text.
type NopNarrator struct{}

func (NopNarrator) Notify(*world.Player, string)                  {}
func (NopNarrator) Narrate(*world.Room, string, ...*world.Player) {}

// Hooks run content scripts after puzzle state changes. They are called with
// the world lock held.
type Hooks interface {
	OnSolve(pz *world.Puzzle, p *world.Player)
	OnUnsolve(pz *world.Puzzle, p *world.Player)
}

// Metrics counts performed actions.
type Metrics interface {
	ActionPerformed(action, outcome string)
	RecipeCancelled()
}

// Env is what every action needs to run. Narrator, Roller, Hooks and Metrics
// may be nil.
type Env struct {
	World    *world.World
	Narrator Narrator
	Roller   *dice.Roller
	Dice     dice.Bounds
	Hooks    Hooks
	Metrics  Metrics
	Logger   *zap.Logger
}

// New returns a pending action for p. A forced action skips the weight,
// capacity and attribute checks a player would otherwise face.
//
// Precondition: p is non-nil.
func (e *Env) New(p *world.Player, forced bool) *Action {
	return &Action{env: e, Player: p, Room: p.Room, Forced: forced}
}

// Action is a one-shot mutation performed on behalf of Player. Once an action
// has been performed, further perform calls do nothing.
type Action struct {
	Type   Type
	Player *world.Player
	Room   *world.Room
	Forced bool

	env       *Env
	performed bool
}

// Performed reports whether the action has already run.
func (a *Action) Performed() bool { return a.performed }

// run performs fn once. Preconditions that reject the action leave it pending.
func (a *Action) run(t Type, fn func() error) error {
	if a.performed {
		return nil
	}
	a.Type = t
	err := fn()
	outcome := "ok"
	var pe *PreconditionError
	switch {
	case err == nil:
		a.performed = true
	case errors.As(err, &pe):
		outcome = "rejected"
	default:
		outcome = "error"
		a.logger().Error("action failed",
			zap.String("action", t.String()),
			zap.String("player", a.Player.Name),
			zap.Error(err),
		)
	}
	a.env.count(t, outcome)
	return err
}

func (a *Action) world() *world.World { return a.env.World }

func (a *Action) logger() *zap.Logger { return a.env.logger() }

func (a *Action) narrator() Narrator {
	if a.env.Narrator == nil {
		return NopNarrator{}
	}
	return a.env.Narrator
}

func (a *Action) notify(p *world.Player, format string, args ...any) {
	a.narrator().Notify(p, fmt.Sprintf(format, args...))
}

// narrate tells the rest of the actor's room. A hidden actor goes unseen.
func (a *Action) narrate(format string, args ...any) {
	if a.Player.HidingSpot != "" {
		return
	}
	a.narrator().Narrate(a.Room, fmt.Sprintf(format, args...), a.Player)
}

func (a *Action) log(event string, it *world.Item, fields ...zap.Field) {
	a.world().LogAction(event, a.Player, it, append(fields, zap.Bool("forced", a.Forced))...)
}

func (a *Action) checkAttribute(attr string) error {
	if !a.Forced && a.Player.HasAttribute(attr) {
		return failf("You cannot do that right now.")
	}
	return nil
}

// hand returns the requested hand, or the first free one when hand is empty.
func (a *Action) hand(hand, why string) (string, error) {
	if hand == "" {
		h, ok := a.Player.FreeHand()
		if !ok {
			return "", failf("You do not have a free hand to %s.", why)
		}
		return h, nil
	}
	s, ok := a.Player.Slot(hand)
	if !ok || !world.IsHand(hand) {
		return "", failf("You do not have a %s.", hand)
	}
	if s.Equipped != nil {
		return "", failf("Your %s is not empty.", hand)
	}
	return hand, nil
}

// held returns the hand holding it.
func (a *Action) held(it *world.Item) (string, error) {
	if it == nil || it.Owner != a.Player || !it.Equipped() || !world.IsHand(it.EquipmentSlot) {
		name := "that"
		if it != nil {
			name = it.Name()
		}
		return "", failf("Couldn't find %s in either of your hands.", name)
	}
	return it.EquipmentSlot, nil
}

// topContainer walks up through container items to the room-level container.
func topContainer(c world.Container) world.Container {
	for {
		it, ok := c.(*world.Item)
		if !ok || it.Container == nil {
			return c
		}
		c = it.Container
	}
}

// runningFixture returns the fixture at the top of c when it is switched on
// and refuses to be touched while running.
func runningFixture(c world.Container) (*world.Fixture, bool) {
	top := topContainer(c)
	if pz, ok := top.(*world.Puzzle); ok && pz.ParentFixture != nil {
		top = pz.ParentFixture
	}
	f, ok := top.(*world.Fixture)
	if !ok || !f.AutoDeactivate || !f.Activated {
		return nil, false
	}
	return f, true
}

// containerPhrase names a room-level container in narration: "the DESK",
// "the floor" or "the SIDE POCKET of the BACKPACK".
func containerPhrase(c world.Container, slot string) string {
	switch c := c.(type) {
	case *world.Room:
		return "the floor"
	case *world.Item:
		return slotPhrase(c, slot) + "the " + c.Name()
	default:
		return "the " + c.Label()
	}
}

// slotPhrase is "the SLOT of " for multi-slot containers and empty otherwise.
func slotPhrase(c *world.Item, slot string) string {
	if len(c.Inventory) > 1 {
		return "the " + slot + " of "
	}
	return ""
}

// prepOf is the container's preposition, "on" for the floor.
func prepOf(c world.Container) string {
	if _, ok := c.(*world.Room); ok {
		return "on"
	}
	if p := c.Preposition(); p != "" {
		return p
	}
	return "in"
}

func containerFields(c world.Container, slot string) []zap.Field {
	if c == nil {
		return nil
	}
	name := c.Label()
	if it, ok := c.(*world.Item); ok {
		name = it.Ref()
	}
	return []zap.Field{zap.String("container", name), zap.String("slot", slot)}
}

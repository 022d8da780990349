package action

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/parlor/internal/game/world"
)

// Activate switches the fixture on. The recipe processor picks it up on its
// next tick and reports progress to the actor.
func (a *Action) Activate(f *world.Fixture) error {
	return a.run(TypeActivate, func() error {
		if f.Room != a.Room {
			return failf("There is no %s here.", f.Name)
		}
		if !f.Activatable {
			return failf("The %s cannot be turned on.", f.Name)
		}
		if f.Activated {
			return failf("The %s is already on.", f.Name)
		}
		f.Activated = true
		f.Process = world.Process{Player: a.Player}
		a.notify(a.Player, "You turn on the %s.", f.Name)
		a.narrate("%s turns on the %s.", displayName(a.Player), f.Name)
		a.world().LogAction("activated", a.Player, nil, zap.String("fixture", f.Name), zap.Bool("forced", a.Forced))
		return nil
	})
}

// Deactivate switches the fixture off, cancelling any recipe in progress.
func (a *Action) Deactivate(f *world.Fixture) error {
	return a.run(TypeDeactivate, func() error {
		if f.Room != a.Room {
			return failf("There is no %s here.", f.Name)
		}
		if !f.Activatable {
			return failf("The %s cannot be turned off.", f.Name)
		}
		if !f.Activated {
			return failf("The %s is already off.", f.Name)
		}
		a.env.switchOff(f)
		a.notify(a.Player, "You turn off the %s.", f.Name)
		a.narrate("%s turns off the %s.", displayName(a.Player), f.Name)
		a.world().LogAction("deactivated", a.Player, nil, zap.String("fixture", f.Name), zap.Bool("forced", a.Forced))
		return nil
	})
}

// SwitchOff deactivates f without an actor and tells the room.
//
// Postcondition: f is inactive and idle.
func (e *Env) SwitchOff(f *world.Fixture) {
	if !f.Activated {
		return
	}
	e.switchOff(f)
	if e.Narrator != nil {
		e.Narrator.Narrate(f.Room, "The "+f.Name+" turns off.")
	}
	e.World.GameLog().Info("deactivated", zap.String("fixture", f.Name), zap.String("room", f.Room.ID))
	e.count(TypeDeactivate, "ok")
}

func (e *Env) switchOff(f *world.Fixture) {
	if f.Process.Recipe != nil && e.Metrics != nil {
		e.Metrics.RecipeCancelled()
	}
	f.Activated = false
	f.Process = world.Process{}
}

package action

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/parlor/internal/game/prefab"
	"github.com/cory-johannsen/parlor/internal/game/world"
)

// Instantiate creates quantity new instances of p in container c of room and
// re-evaluates the reactive puzzle holding c, if any. It is used by the
// recipe processor and content scripts and has no actor.
func (e *Env) Instantiate(p *prefab.Prefab, room *world.Room, c world.Container, slot string, quantity int) (*world.Item, error) {
	it, err := e.World.Instantiate(p, room, c, slot, quantity)
	if err != nil {
		e.count(TypeInstantiate, "error")
		return nil, err
	}
	e.count(TypeInstantiate, "ok")
	if pz, ok := topContainer(c).(*world.Puzzle); ok && pz.Type.Reactive() {
		e.settle(pz)
	}
	return it, nil
}

// InstantiateInventory creates quantity new instances of p for player, either
// in container's slot or equipped to equipSlot. The player is not told.
func (e *Env) InstantiateInventory(p *prefab.Prefab, player *world.Player, equipSlot string, container *world.Item, slot string, quantity int) (*world.Item, error) {
	if container == nil {
		s, ok := player.Slot(equipSlot)
		if !ok {
			return nil, &PreconditionError{Msg: player.Name + " has no " + equipSlot + "."}
		}
		if s.Equipped != nil {
			return nil, &PreconditionError{Msg: player.Name + "'s " + equipSlot + " is not empty."}
		}
	}
	it, err := e.World.InstantiateInventory(p, player, equipSlot, container, slot, quantity)
	if err != nil {
		e.count(TypeInstantiate, "error")
		return nil, err
	}
	e.count(TypeInstantiate, "ok")
	return it, nil
}

// Destroy removes quantity of it, room or inventory item alike, together with
// everything nested inside. Destroying a room item re-evaluates the reactive
// puzzle that held it.
func (e *Env) Destroy(it *world.Item, quantity int) error {
	var err error
	c := it.Container
	if it.Owner != nil {
		err = e.World.DestroyInventory(it, quantity, true)
	} else {
		err = e.World.Destroy(it, quantity, true)
	}
	if err != nil {
		e.count(TypeDestroy, "error")
		return err
	}
	e.count(TypeDestroy, "ok")
	e.logger().Debug("destroyed", zap.String("item", it.Ref()), zap.Int("quantity", quantity))
	if pz, ok := topContainer(c).(*world.Puzzle); ok && pz.Type.Reactive() {
		e.settle(pz)
	}
	return nil
}

// settle brings a reactive puzzle in line with its contents without an actor.
func (e *Env) settle(pz *world.Puzzle) {
	answer := world.ReactiveAnswer(pz)
	match := hasSolution(pz, answer)
	switch {
	case match && !pz.Solved:
		e.solve(pz, answer, nil)
	case !match && pz.Solved:
		e.unsolve(pz, nil)
	}
}

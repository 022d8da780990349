package action

import (
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/parlor/internal/game/description"
	"github.com/cory-johannsen/parlor/internal/game/world"
)

// Outcome is what a puzzle attempt did.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeSolved
	OutcomeUnsolved
	OutcomeFailed
	OutcomeAlreadySolved
	OutcomeRequirementsNotMet
	OutcomeNoMoreAttempts
)

var outcomeNames = map[Outcome]string{
	OutcomeNone:               "none",
	OutcomeSolved:             "solved",
	OutcomeUnsolved:           "unsolved",
	OutcomeFailed:             "failed",
	OutcomeAlreadySolved:      "already solved",
	OutcomeRequirementsNotMet: "requirements not met",
	OutcomeNoMoreAttempts:     "no more attempts",
}

func (o Outcome) String() string { return outcomeNames[o] }

// Attempt commands for lock puzzles. Other puzzles ignore the command.
const (
	CommandUse    = "use"
	CommandUnlock = "unlock"
	CommandLock   = "lock"
)

// Attempt tries to solve pz with answer. it is the item the actor uses, if
// any. command distinguishes locking from unlocking on lock puzzles.
//
// Precondition: pz is in the actor's room.
// Postcondition: failures spend one attempt; an outcome other than
// OutcomeSolved or OutcomeUnsolved leaves the puzzle's state unchanged.
func (a *Action) Attempt(pz *world.Puzzle, it *world.Item, answer, command string) (Outcome, error) {
	var out Outcome
	err := a.run(TypeAttempt, func() error {
		if pz.Room != a.Room {
			return failf("There is no %s here.", pz.Name)
		}
		out = a.attempt(pz, it, strings.ToUpper(strings.TrimSpace(answer)), command)
		return nil
	})
	return out, err
}

func (a *Action) attempt(pz *world.Puzzle, it *world.Item, answer, command string) Outcome {
	if !a.requirementsMet(pz) {
		a.say(pz.RequirementsNotMetDescription, "You cannot do that yet.")
		return OutcomeRequirementsNotMet
	}
	if pz.RemainingAttempts == 0 {
		a.say(pz.NoMoreAttemptsDescription, "You cannot try that anymore.")
		a.narrate("%s attempts and fails to use the %s.", displayName(a.Player), pz.Label())
		return OutcomeNoMoreAttempts
	}
	switch pz.Type {
	case world.PuzzlePassword, world.PuzzleInteract:
		if pz.Solved {
			return a.alreadySolved(pz)
		}
		if pz.Type == world.PuzzleInteract || hasSolution(pz, answer) {
			return a.solve(pz, answer)
		}
		return a.fail(pz)
	case world.PuzzleToggle:
		if pz.Solved {
			return a.unsolve(pz, pz.AlreadySolvedDescription)
		}
		return a.solve(pz, "")
	case world.PuzzleCombinationLock:
		return a.combination(pz, answer, command)
	case world.PuzzleKeyLock:
		return a.keyLock(pz, it, command)
	case world.PuzzleWeight, world.PuzzleContainer:
		return a.reactive(pz, true)
	}
	return OutcomeNone
}

func (a *Action) combination(pz *world.Puzzle, answer, command string) Outcome {
	right := hasSolution(pz, answer)
	if pz.Solved {
		if command == CommandLock || (answer != "" && !right) {
			a.narrate("%s locks the %s.", displayName(a.Player), pz.Label())
			return a.unsolve(pz, "<s>You lock the "+pz.Label()+".</s>")
		}
		return a.alreadySolved(pz)
	}
	if command == CommandLock {
		a.notify(a.Player, "The %s is already locked.", pz.Label())
		return OutcomeNone
	}
	if right {
		a.narrate("%s unlocks the %s.", displayName(a.Player), pz.Label())
		return a.solve(pz, answer)
	}
	return a.fail(pz)
}

func (a *Action) keyLock(pz *world.Puzzle, it *world.Item, command string) Outcome {
	key := a.keyFor(pz, it)
	if command == CommandLock {
		if !pz.Solved {
			a.notify(a.Player, "The %s is already locked.", pz.Label())
			return OutcomeNone
		}
		if key == nil {
			a.notify(a.Player, "You need a key to lock the %s.", pz.Label())
			return OutcomeNone
		}
		a.narrate("%s locks the %s.", displayName(a.Player), pz.Label())
		return a.unsolve(pz, "<s>You lock the "+pz.Label()+".</s>")
	}
	if pz.Solved {
		return a.alreadySolved(pz)
	}
	if key == nil {
		return a.fail(pz)
	}
	a.narrate("%s unlocks the %s.", displayName(a.Player), pz.Label())
	return a.solve(pz, key.Prefab.ID)
}

// keyFor returns the item that opens pz: it when given, otherwise the first
// matching item in the actor's hands.
func (a *Action) keyFor(pz *world.Puzzle, it *world.Item) *world.Item {
	if it != nil {
		if hasSolution(pz, it.Prefab.ID) {
			return it
		}
		return nil
	}
	for _, h := range []string{world.RightHand, world.LeftHand} {
		if s, ok := a.Player.Slot(h); ok && s.Equipped != nil && hasSolution(pz, s.Equipped.Prefab.ID) {
			return s.Equipped
		}
	}
	return nil
}

// reactive compares a weight or container puzzle's contents against its
// solutions. A match solves it; a mismatch unsolves a solved puzzle and
// otherwise counts as a failed attempt when explicit is set or the puzzle
// holds something.
func (a *Action) reactive(pz *world.Puzzle, explicit bool) Outcome {
	answer := world.ReactiveAnswer(pz)
	if hasSolution(pz, answer) {
		if pz.Solved {
			if explicit {
				return a.alreadySolved(pz)
			}
			return OutcomeNone
		}
		return a.solve(pz, answer)
	}
	if pz.Solved {
		return a.unsolve(pz, "")
	}
	if !explicit && (answer == "" || answer == "0") {
		return OutcomeNone
	}
	if pz.RemainingAttempts == 0 {
		return OutcomeNoMoreAttempts
	}
	return a.fail(pz)
}

// react re-evaluates the reactive puzzle holding c after items moved in or out of it.
func (a *Action) react(c world.Container) {
	pz, ok := topContainer(c).(*world.Puzzle)
	if !ok || !pz.Type.Reactive() || !a.requirementsMet(pz) {
		return
	}
	a.reactive(pz, false)
}

// requirementsMet checks that every required puzzle is solved and every
// required prefab is carried.
func (a *Action) requirementsMet(pz *world.Puzzle) bool {
	for _, req := range pz.Requirements {
		if other, ok := a.findPuzzle(req); ok {
			if !other.Solved {
				return false
			}
			continue
		}
		if _, ok := a.Player.HasPrefab(req); !ok {
			return false
		}
	}
	return true
}

func (a *Action) findPuzzle(name string) (*world.Puzzle, bool) {
	if pz, ok := a.Room.Puzzle(name); ok {
		return pz, true
	}
	for _, r := range a.world().Rooms() {
		if pz, ok := r.Puzzle(name); ok {
			return pz, true
		}
	}
	return nil, false
}

func hasSolution(pz *world.Puzzle, answer string) bool {
	for _, s := range pz.Solutions {
		if strings.EqualFold(s, answer) {
			return true
		}
	}
	return false
}

// say notifies the actor with rendered markup, or fallback when desc is empty.
func (a *Action) say(desc, fallback string) {
	if text := renderOr(desc, fallback); text != "" {
		a.notify(a.Player, "%s", text)
	}
}

func renderOr(desc, fallback string) string {
	if text := description.Render(desc); text != "" {
		return text
	}
	return fallback
}

func (a *Action) solve(pz *world.Puzzle, outcome string) Outcome {
	a.env.solve(pz, outcome, a.Player)
	a.say(pz.CorrectDescription, "")
	a.narrate("%s uses the %s.", displayName(a.Player), pz.Label())
	return OutcomeSolved
}

func (a *Action) unsolve(pz *world.Puzzle, desc string) Outcome {
	a.env.unsolve(pz, a.Player)
	a.say(desc, "")
	return OutcomeUnsolved
}

func (a *Action) fail(pz *world.Puzzle) Outcome {
	a.world().Fail(pz, a.Player)
	a.say(pz.IncorrectDescription, "Nothing happens.")
	a.narrate("%s attempts and fails to use the %s.", displayName(a.Player), pz.Label())
	return OutcomeFailed
}

func (a *Action) alreadySolved(pz *world.Puzzle) Outcome {
	a.say(pz.AlreadySolvedDescription, "You've already done that.")
	return OutcomeAlreadySolved
}

// Solve marks pz solved outside of an attempt, as content scripts do. p may be nil.
// Solving an already solved puzzle does nothing.
func (e *Env) Solve(pz *world.Puzzle, outcome string, p *world.Player) {
	if pz.Solved {
		return
	}
	e.solve(pz, outcome, p)
	if p != nil {
		text := description.Render(pz.CorrectDescription)
		if text != "" && e.Narrator != nil {
			e.Narrator.Notify(p, text)
		}
	}
	e.count(TypeSolve, "ok")
}

// Unsolve marks pz unsolved outside of an attempt. p may be nil.
func (e *Env) Unsolve(pz *world.Puzzle, p *world.Player) {
	if !pz.Solved {
		return
	}
	e.unsolve(pz, p)
	e.count(TypeUnsolve, "ok")
}

func (e *Env) solve(pz *world.Puzzle, outcome string, p *world.Player) {
	e.World.Solve(pz, outcome, p)
	if e.Hooks != nil {
		e.Hooks.OnSolve(pz, p)
	}
}

func (e *Env) unsolve(pz *world.Puzzle, p *world.Player) {
	e.World.Unsolve(pz, p)
	if e.Hooks != nil {
		e.Hooks.OnUnsolve(pz, p)
	}
}

func (e *Env) count(t Type, outcome string) {
	if e.Metrics != nil {
		e.Metrics.ActionPerformed(t.String(), outcome)
	}
}

func (e *Env) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

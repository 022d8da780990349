package command

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/parlor/internal/game/action"
	"github.com/cory-johannsen/parlor/internal/game/resolve"
	"github.com/cory-johannsen/parlor/internal/game/world"
)

// Result is what one command line produced for the player who typed it.
// Text produced by actions reaches players through the action narrator, not
// through Reply.
type Result struct {
	Reply string
	Quit  bool
}

// Observer records how long commands take.
type Observer interface {
	CommandDuration(command string, d time.Duration)
}

type handlerFunc func(x *Executor, p *world.Player, args string) (string, error)

var handlers = map[string]handlerFunc{
	HandlerTake:       handleTake,
	HandlerDrop:       handleDrop,
	HandlerGive:       handleGive,
	HandlerSteal:      handleSteal,
	HandlerStash:      handleStash,
	HandlerUnstash:    handleUnstash,
	HandlerEquip:      handleEquip,
	HandlerUnequip:    handleUnequip,
	HandlerDress:      handleDress,
	HandlerUndress:    handleUndress,
	HandlerCraft:      handleCraft,
	HandlerUncraft:    handleUncraft,
	HandlerInspect:    handleInspect,
	HandlerInventory:  handleInventory,
	HandlerActivate:   handleActivate,
	HandlerDeactivate: handleDeactivate,
	HandlerUse:        handleUse,
	HandlerUnlock:     handleUnlock,
	HandlerLock:       handleLock,
	HandlerLook:       handleLook,
	HandlerHelp:       handleHelp,
}

// Executor runs command lines for players against the world.
type Executor struct {
	env      *action.Env
	registry *Registry
	logger   *zap.Logger

	// Observer may be nil.
	Observer Observer
}

// NewExecutor returns an Executor dispatching through registry.
//
// Precondition: env and registry must not be nil.
func NewExecutor(env *action.Env, registry *Registry, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{env: env, registry: registry, logger: logger}
}

// Registry returns the registry the executor dispatches through.
func (x *Executor) Registry() *Registry { return x.registry }

// Execute parses line and runs it for p while holding the world lock.
//
// Postcondition: input and precondition failures come back as Reply with a
// nil error; a non-nil error means the world rejected a mutation.
func (x *Executor) Execute(p *world.Player, line string) (Result, error) {
	parsed := Parse(line)
	if parsed.Command == "" {
		return Result{}, nil
	}
	cmd, ok := x.registry.Resolve(parsed.Command)
	if !ok {
		return Result{Reply: fmt.Sprintf("Unknown command %q. Type help for a list of commands.", parsed.Command)}, nil
	}
	if cmd.Handler == HandlerQuit {
		return Result{Reply: "Goodbye.", Quit: true}, nil
	}
	h, ok := handlers[cmd.Handler]
	if !ok {
		return Result{}, fmt.Errorf("command %q has no handler %q", cmd.Name, cmd.Handler)
	}

	start := time.Now()
	var reply string
	err := x.env.World.Do(func() error {
		var err error
		reply, err = h(x, p, parsed.RawArgs)
		return err
	})
	if x.Observer != nil {
		x.Observer.CommandDuration(cmd.Name, time.Since(start))
	}
	if msg, ok := userMessage(err); ok {
		return Result{Reply: msg}, nil
	}
	if err != nil {
		x.logger.Error("command failed",
			zap.String("player", p.Name),
			zap.String("command", cmd.Name),
			zap.String("args", parsed.RawArgs),
			zap.Error(err),
		)
		return Result{}, fmt.Errorf("executing %s: %w", cmd.Name, err)
	}
	return Result{Reply: reply}, nil
}

// userMessage extracts the text of errors meant for the player.
func userMessage(err error) (string, bool) {
	var re *resolve.Error
	if errors.As(err, &re) {
		return re.Msg, true
	}
	var pe *action.PreconditionError
	if errors.As(err, &pe) {
		return pe.Msg, true
	}
	return "", false
}

func (x *Executor) act(p *world.Player) *action.Action {
	return x.env.New(p, false)
}

// Package scripting runs content-supplied Lua hooks in sandboxed GopherLua
// states. It has no dependency on game domain packages; every game interaction
// is injected through Manager callback fields.
package scripting

import (
	"context"
	"errors"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the opcode budget used when none is configured.
const DefaultInstructionLimit = 100_000

// ErrInstructionLimit is joined to the Lua error of a run that exhausted its
// opcode budget.
var ErrInstructionLimit = errors.New("scripting: instruction limit exceeded")

// Globals that would let a script reach the filesystem, load arbitrary code
// or defeat the budget.
var strippedGlobals = []string{"dofile", "loadfile", "load", "loadstring", "collectgarbage", "require", "module"}

// opBudget cancels itself once Done has been called more than its limit.
// GopherLua polls Done once per opcode when a context is set, so the limit
// counts opcodes exactly.
type opBudget struct {
	context.Context
	cancel context.CancelFunc
	left   atomic.Int64
}

func newOpBudget(limit int) *opBudget {
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &opBudget{Context: ctx, cancel: cancel}
	b.left.Store(int64(limit))
	return b
}

func (b *opBudget) Done() <-chan struct{} {
	if b.left.Add(-1) < 0 {
		b.cancel()
	}
	return b.Context.Done()
}

// NewSandboxedState returns a Lua state with only the base, table, string
// and math libraries, the strippedGlobals removed, and an opcode budget of
// instLimit (0 means DefaultInstructionLimit) for code run outside Limited.
//
// Postcondition: the caller owns the state and must Close it.
func NewSandboxedState(instLimit int) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, open := range []lua.LGFunction{lua.OpenBase, lua.OpenTable, lua.OpenString, lua.OpenMath} {
		open(L)
	}
	for _, name := range strippedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	L.SetContext(newOpBudget(instLimit))
	return L
}

// Limited runs fn against L with a fresh budget of instLimit opcodes, then
// removes the budget.
//
// Precondition: no other goroutine is using L.
func Limited(L *lua.LState, instLimit int, fn func() error) error {
	b := newOpBudget(instLimit)
	defer b.cancel()
	L.SetContext(b)
	defer L.RemoveContext()

	err := fn()
	if err != nil && b.Err() != nil {
		return errors.Join(ErrInstructionLimit, err)
	}
	return err
}

package scripting

import (
	lua "github.com/yuin/gopher-lua"
)

// PuzzleInfo is the puzzle table passed to on_solve and on_unsolve.
type PuzzleInfo struct {
	RoomID  string
	Name    string
	Type    string
	Outcome string
	Solved  bool
}

// FixtureInfo is the fixture table passed to on_recipe_complete.
type FixtureInfo struct {
	RoomID string
	Name   string
}

// RecipeInfo is the recipe table passed to on_recipe_complete.
type RecipeInfo struct {
	Ingredients []string
	Products    []string
}

// PuzzleSolved calls on_solve(puzzle, player) in zoneID's VM. player is nil
// in Lua when empty.
func (m *Manager) PuzzleSolved(zoneID string, pz PuzzleInfo, player string) {
	m.call(zoneID, HookSolve, func(L *lua.LState) []lua.LValue { //nolint:errcheck // runtime errors are logged
		return []lua.LValue{pz.table(L), optString(player)}
	})
}

// PuzzleUnsolved calls on_unsolve(puzzle, player) in zoneID's VM.
func (m *Manager) PuzzleUnsolved(zoneID string, pz PuzzleInfo, player string) {
	m.call(zoneID, HookUnsolve, func(L *lua.LState) []lua.LValue { //nolint:errcheck // runtime errors are logged
		return []lua.LValue{pz.table(L), optString(player)}
	})
}

// RecipeCompleted calls on_recipe_complete(fixture, recipe, player) in zoneID's VM.
func (m *Manager) RecipeCompleted(zoneID string, f FixtureInfo, r RecipeInfo, player string) {
	m.call(zoneID, HookRecipeComplete, func(L *lua.LState) []lua.LValue { //nolint:errcheck // runtime errors are logged
		ft := L.CreateTable(0, 2)
		ft.RawSetString("room", lua.LString(f.RoomID))
		ft.RawSetString("name", lua.LString(f.Name))
		rt := L.CreateTable(0, 2)
		rt.RawSetString("ingredients", stringList(L, r.Ingredients))
		rt.RawSetString("products", stringList(L, r.Products))
		return []lua.LValue{ft, rt, optString(player)}
	})
}

func (p PuzzleInfo) table(L *lua.LState) *lua.LTable {
	t := L.CreateTable(0, 5)
	t.RawSetString("room", lua.LString(p.RoomID))
	t.RawSetString("name", lua.LString(p.Name))
	t.RawSetString("type", lua.LString(p.Type))
	t.RawSetString("outcome", lua.LString(p.Outcome))
	t.RawSetString("solved", lua.LBool(p.Solved))
	return t
}

func optString(s string) lua.LValue {
	if s == "" {
		return lua.LNil
	}
	return lua.LString(s)
}

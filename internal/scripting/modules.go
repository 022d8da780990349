package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the engine global into L:
//
//	engine.log.debug/info/warn/error(msg)
//	engine.roll(expr)                                  -> total | nil, err
//	engine.narrate(room, text)
//	engine.notify(player, text)
//	engine.instantiate(prefab, room[, container[, n]]) -> identifier | nil, err
//	engine.destroy(identifier[, n])                    -> true | nil, err
//	engine.solve(room, puzzle[, outcome[, player]])    -> true | nil, err
//	engine.unsolve(room, puzzle[, player])             -> true | nil, err
//	engine.room(room)                                  -> table | nil
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()

	log := L.NewTable()
	for name, level := range map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	} {
		write := level
		L.SetField(log, name, L.NewFunction(func(L *lua.LState) int {
			write(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	L.SetField(engine, "log", log)

	L.SetFuncs(engine, map[string]lua.LGFunction{
		"roll":        m.luaRoll,
		"narrate":     m.luaNarrate,
		"notify":      m.luaNotify,
		"instantiate": m.luaInstantiate,
		"destroy":     m.luaDestroy,
		"solve":       m.luaSolve,
		"unsolve":     m.luaUnsolve,
		"room":        m.luaRoom,
	})
	L.SetGlobal("engine", engine)
}

// fail pushes the Lua (nil, message) error convention.
func fail(L *lua.LState, err error) int {
	L.Push(lua.LNil)
	L.Push(lua.LString(err.Error()))
	return 2
}

func result(L *lua.LState, err error) int {
	if err != nil {
		return fail(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

func (m *Manager) luaRoll(L *lua.LState) int {
	res, err := m.roller.RollExpr(L.CheckString(1))
	if err != nil {
		return fail(L, err)
	}
	L.Push(lua.LNumber(res.Total()))
	return 1
}

func (m *Manager) luaNarrate(L *lua.LState) int {
	room, text := L.CheckString(1), L.CheckString(2)
	if m.Narrate == nil {
		return 0
	}
	return result(L, m.Narrate(room, text))
}

func (m *Manager) luaNotify(L *lua.LState) int {
	player, text := L.CheckString(1), L.CheckString(2)
	if m.Notify == nil {
		return 0
	}
	return result(L, m.Notify(player, text))
}

func (m *Manager) luaInstantiate(L *lua.LState) int {
	prefab, room := L.CheckString(1), L.CheckString(2)
	container := L.OptString(3, "")
	quantity := L.OptInt(4, 1)
	if m.Instantiate == nil {
		return 0
	}
	id, err := m.Instantiate(prefab, room, container, quantity)
	if err != nil {
		return fail(L, err)
	}
	if id == "" {
		L.Push(lua.LTrue)
	} else {
		L.Push(lua.LString(id))
	}
	return 1
}

func (m *Manager) luaDestroy(L *lua.LState) int {
	identifier := L.CheckString(1)
	quantity := L.OptInt(2, 1)
	if m.Destroy == nil {
		return 0
	}
	return result(L, m.Destroy(identifier, quantity))
}

func (m *Manager) luaSolve(L *lua.LState) int {
	room, puzzle := L.CheckString(1), L.CheckString(2)
	outcome, player := L.OptString(3, ""), L.OptString(4, "")
	if m.Solve == nil {
		return 0
	}
	return result(L, m.Solve(room, puzzle, outcome, player))
}

func (m *Manager) luaUnsolve(L *lua.LState) int {
	room, puzzle := L.CheckString(1), L.CheckString(2)
	player := L.OptString(3, "")
	if m.Unsolve == nil {
		return 0
	}
	return result(L, m.Unsolve(room, puzzle, player))
}

func (m *Manager) luaRoom(L *lua.LState) int {
	id := L.CheckString(1)
	if m.QueryRoom == nil {
		L.Push(lua.LNil)
		return 1
	}
	info := m.QueryRoom(id)
	if info == nil {
		L.Push(lua.LNil)
		return 1
	}
	t := L.NewTable()
	t.RawSetString("id", lua.LString(info.ID))
	t.RawSetString("zone", lua.LString(info.ZoneID))
	t.RawSetString("title", lua.LString(info.Title))
	t.RawSetString("players", stringList(L, info.Players))
	L.Push(t)
	return 1
}

func stringList(L *lua.LState, items []string) *lua.LTable {
	t := L.CreateTable(len(items), 0)
	for _, s := range items {
		t.Append(lua.LString(s))
	}
	return t
}

package scripting_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/parlor/internal/scripting"
)

func runScript(t *testing.T, mgr *scripting.Manager, luaSrc, hook string, args ...lua.LValue) lua.LValue {
	t.Helper()
	dir := writeTempLua(t, "test.lua", luaSrc)
	// Use a unique zone per test to avoid collisions
	zoneID := "modtest_" + t.Name()
	require.NoError(t, mgr.LoadZone(zoneID, dir, 0))
	ret, err := mgr.CallHook(zoneID, hook, args...)
	require.NoError(t, err)
	return ret
}

func TestEngineLog_AllLevels(t *testing.T) {
	mgr, logs := newTestManager(t)

	runScript(t, mgr, `
		function do_all_logs()
			engine.log.debug("d")
			engine.log.info("i")
			engine.log.warn("w")
			engine.log.error("e")
		end
	`, "do_all_logs")

	for msg, level := range map[string]zapcore.Level{
		"d": zapcore.DebugLevel,
		"i": zapcore.InfoLevel,
		"w": zapcore.WarnLevel,
		"e": zapcore.ErrorLevel,
	} {
		entries := logs.FilterMessage(msg).All()
		require.Len(t, entries, 1, "message %q", msg)
		assert.Equal(t, level, entries[0].Level)
		assert.Equal(t, "lua", entries[0].ContextMap()["source"])
	}
}

func TestEngineRoll_ReturnsTotal(t *testing.T) {
	mgr, _ := newTestManager(t)
	ret := runScript(t, mgr, `function r() return engine.roll("1d6+100") end`, "r")
	total, ok := ret.(lua.LNumber)
	require.True(t, ok, "expected a number, got %v", ret)
	assert.GreaterOrEqual(t, int(total), 101)
	assert.LessOrEqual(t, int(total), 106)
}

func TestEngineRoll_BadExpression_ReturnsError(t *testing.T) {
	mgr, _ := newTestManager(t)
	ret := runScript(t, mgr, `
		function r()
			local total, err = engine.roll("banana")
			if total == nil and err ~= nil then return "failed" end
			return "rolled"
		end
	`, "r")
	assert.Equal(t, lua.LString("failed"), ret)
}

func TestProperty_EngineRoll_WithinBounds(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "roll.lua", `function r(expr) return engine.roll(expr) end`)
	require.NoError(t, mgr.LoadZone("rolls", dir, 0))
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 4).Draw(rt, "n")
		sides := rapid.IntRange(2, 12).Draw(rt, "sides")
		ret, err := mgr.CallHook("rolls", "r", lua.LString(fmt.Sprintf("%dd%d", n, sides)))
		if err != nil {
			rt.Fatalf("CallHook: %v", err)
		}
		total, ok := ret.(lua.LNumber)
		if !ok {
			rt.Fatalf("expected a number, got %v", ret)
		}
		if int(total) < n || int(total) > n*sides {
			rt.Fatalf("%dd%d rolled %v", n, sides, total)
		}
	})
}

func TestEngine_NilCallbacks_AreNoOps(t *testing.T) {
	mgr, _ := newTestManager(t)
	ret := runScript(t, mgr, `
		function all()
			engine.narrate("parlor", "hello")
			engine.notify("Kyra", "hello")
			engine.instantiate("KEY", "parlor")
			engine.destroy("BOX 1")
			engine.solve("parlor", "LEVER")
			engine.unsolve("parlor", "LEVER")
			return engine.room("parlor") == nil
		end
	`, "all")
	assert.Equal(t, lua.LTrue, ret)
}

func TestEngineNarrateAndNotify_CallCallbacks(t *testing.T) {
	mgr, _ := newTestManager(t)
	var narrated, notified []string
	mgr.Narrate = func(roomID, text string) error {
		narrated = append(narrated, roomID+": "+text)
		return nil
	}
	mgr.Notify = func(player, text string) error {
		if player == "Nobody" {
			return errors.New("no player named Nobody")
		}
		notified = append(notified, player+": "+text)
		return nil
	}
	ret := runScript(t, mgr, `
		function talk()
			engine.narrate("parlor", "The clock strikes.")
			engine.notify("Kyra", "You hear a click.")
			local ok, err = engine.notify("Nobody", "?")
			return err
		end
	`, "talk")

	assert.Equal(t, []string{"parlor: The clock strikes."}, narrated)
	assert.Equal(t, []string{"Kyra: You hear a click."}, notified)
	assert.Equal(t, lua.LString("no player named Nobody"), ret)
}

func TestEngineInstantiate_DefaultsAndIdentifier(t *testing.T) {
	mgr, _ := newTestManager(t)
	type call struct {
		prefab, room, container string
		quantity                int
	}
	var calls []call
	mgr.Instantiate = func(prefabID, roomID, container string, quantity int) (string, error) {
		calls = append(calls, call{prefabID, roomID, container, quantity})
		if prefabID == "BOX" {
			return "BOX 2", nil
		}
		return "", nil
	}
	ret := runScript(t, mgr, `
		function make()
			engine.instantiate("KEY", "parlor")
			engine.instantiate("COIN", "parlor", "fixture: desk", 3)
			return engine.instantiate("BOX", "kitchen")
		end
	`, "make")

	assert.Equal(t, lua.LString("BOX 2"), ret)
	assert.Equal(t, []call{
		{"KEY", "parlor", "", 1},
		{"COIN", "parlor", "fixture: desk", 3},
		{"BOX", "kitchen", "", 1},
	}, calls)
}

func TestEngineDestroy_ReportsErrors(t *testing.T) {
	mgr, _ := newTestManager(t)
	mgr.Destroy = func(identifier string, quantity int) error {
		if identifier != "BOX 1" {
			return fmt.Errorf("no item %q", identifier)
		}
		return nil
	}
	ret := runScript(t, mgr, `
		function gone()
			local a = engine.destroy("BOX 1", 1)
			local b, err = engine.destroy("BOX 9")
			return tostring(a) .. "|" .. tostring(b) .. "|" .. err
		end
	`, "gone")
	assert.Equal(t, lua.LString(`true|nil|no item "BOX 9"`), ret)
}

func TestEngineSolveAndUnsolve_PassArguments(t *testing.T) {
	mgr, _ := newTestManager(t)
	var got []string
	mgr.Solve = func(roomID, puzzle, outcome, player string) error {
		got = append(got, fmt.Sprintf("solve %s/%s/%s/%s", roomID, puzzle, outcome, player))
		return nil
	}
	mgr.Unsolve = func(roomID, puzzle, player string) error {
		got = append(got, fmt.Sprintf("unsolve %s/%s/%s", roomID, puzzle, player))
		return nil
	}
	runScript(t, mgr, `
		function flip()
			engine.solve("parlor", "LEVER")
			engine.solve("parlor", "SAFE LOCK", "1234", "Kyra")
			engine.unsolve("parlor", "LEVER", "Viktor")
		end
	`, "flip")
	assert.Equal(t, []string{
		"solve parlor/LEVER//",
		"solve parlor/SAFE LOCK/1234/Kyra",
		"unsolve parlor/LEVER/Viktor",
	}, got)
}

func TestEngineRoom_WithCallback(t *testing.T) {
	mgr, _ := newTestManager(t)
	mgr.QueryRoom = func(roomID string) *scripting.RoomInfo {
		if roomID != "parlor" {
			return nil
		}
		return &scripting.RoomInfo{ID: "parlor", ZoneID: "house", Title: "Parlor", Players: []string{"Kyra", "Viktor"}}
	}
	ret := runScript(t, mgr, `
		function describe()
			local r = engine.room("parlor")
			if engine.room("attic") ~= nil then return "attic exists" end
			return r.title .. " in " .. r.zone .. " with " .. #r.players .. " players, first " .. r.players[1]
		end
	`, "describe")
	assert.Equal(t, lua.LString("Parlor in house with 2 players, first Kyra"), ret)
}

func TestEngine_MissingRequiredArgument_IsRuntimeError(t *testing.T) {
	mgr, logs := newTestManager(t)
	ret := runScript(t, mgr, `function bad() engine.narrate("parlor") return 1 end`, "bad")
	assert.Equal(t, lua.LNil, ret)
	assert.Equal(t, 1, logs.FilterLevelExact(zap.WarnLevel).Len())
}

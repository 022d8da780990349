package hooks_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/parlor/internal/game/action"
	"github.com/cory-johannsen/parlor/internal/game/dice"
	"github.com/cory-johannsen/parlor/internal/game/hooks"
	"github.com/cory-johannsen/parlor/internal/game/prefab"
	"github.com/cory-johannsen/parlor/internal/scripting"
	"github.com/cory-johannsen/parlor/internal/testutil"
)

func newContentFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	w := testutil.LoadContent(t)
	rec := &recorder{}
	roller := dice.NewLoggedRoller(dice.NewCryptoSource(), logger)
	env := &action.Env{World: w, Narrator: rec, Roller: roller, Dice: dice.Bounds{Min: 1, Max: 6}, Logger: logger}
	scripts := scripting.NewManager(roller, logger)
	t.Cleanup(scripts.Close)
	require.NoError(t, scripts.LoadGlobal(filepath.Join(testutil.ContentDir(t), "scripts"), 0))
	b := hooks.New(env, scripts, logger)
	env.Hooks = b
	return &fixture{w: w, env: env, rec: rec, scripts: scripts, bridge: b}
}

func TestContent_Shape(t *testing.T) {
	w := testutil.LoadContent(t)
	require.Len(t, w.Zones(), 1)
	assert.Equal(t, "manor", w.Zones()[0].ID)
	assert.Len(t, w.Rooms(), 4)
	assert.Len(t, w.Players(), 3)
}

func TestContentHooks_LeverPlacesLetter(t *testing.T) {
	f := newContentFixture(t)
	parlor := testutil.Room(t, f.w, "parlor")
	study := testutil.Room(t, f.w, "study")
	lever, ok := parlor.Puzzle("LEVER")
	require.True(t, ok)
	bookcase, ok := study.Fixture("BOOKCASE")
	require.True(t, ok)

	f.env.Solve(lever, "", testutil.Player(t, f.w, "Kyra"))

	letter := testutil.RoomItem(t, study, bookcase, "LETTER")
	assert.Equal(t, 1, letter.Quantity)
	assert.Contains(t, f.rec.rooms, "study: A panel in the bookcase springs open.")
	require.NoError(t, f.w.CheckInvariants())

	f.env.Unsolve(lever, nil)
	assert.Contains(t, f.rec.rooms, "parlor: The bolt to the west slams home again.")
}

func TestContentHooks_SafeLockNotifiesSolver(t *testing.T) {
	f := newContentFixture(t)
	lock, ok := testutil.Room(t, f.w, "parlor").Puzzle("SAFE LOCK")
	require.True(t, ok)

	f.env.Solve(lock, "1234", testutil.Player(t, f.w, "Viktor"))

	assert.Contains(t, f.rec.notes, "Viktor: Something rattles loose inside the safe door.")
}

func TestContentHooks_CookedEggNarrates(t *testing.T) {
	f := newContentFixture(t)
	stove, ok := testutil.Room(t, f.w, "kitchen").Fixture("STOVE")
	require.True(t, ok)

	f.bridge.OnRecipeComplete(stove, &prefab.Recipe{
		Ingredients: []string{"PAN", "RAW EGG"},
		Products:    []string{"PAN", "COOKED EGG"},
	}, testutil.Player(t, f.w, "Nero"))

	assert.Equal(t, []string{"kitchen: The smell of fried egg fills the room."}, f.rec.rooms)
	assert.Empty(t, f.rec.notes)
}

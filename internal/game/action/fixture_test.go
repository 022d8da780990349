package action_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/parlor/internal/game/world"
	"github.com/cory-johannsen/parlor/internal/testutil"
)

func TestActivateAndDeactivate(t *testing.T) {
	h := newHarness(t, 0)
	nero := h.player(t, "Nero")
	kitchen := testutil.Room(t, h.w, "kitchen")
	stove, _ := kitchen.Fixture("STOVE")
	counter, _ := kitchen.Fixture("COUNTER")

	require.NoError(t, h.env.New(nero, false).Activate(stove))
	assert.True(t, stove.Activated)
	assert.Equal(t, nero, stove.Process.Player)
	assert.Contains(t, h.rec.notes["Nero"], "You turn on the STOVE.")

	err := h.env.New(nero, false).Activate(stove)
	assert.Equal(t, "The STOVE is already on.", precondition(t, err))
	err = h.env.New(nero, false).Activate(counter)
	assert.Equal(t, "The COUNTER cannot be turned on.", precondition(t, err))

	require.NoError(t, h.env.New(nero, false).Deactivate(stove))
	assert.False(t, stove.Activated)
	assert.Equal(t, world.Process{}, stove.Process)
}

func TestRunningFixtureBlocksTakeAndDrop(t *testing.T) {
	h := newHarness(t, 0)
	nero := h.player(t, "Nero")
	kitchen := testutil.Room(t, h.w, "kitchen")
	stove, _ := kitchen.Fixture("STOVE")
	counter, _ := kitchen.Fixture("COUNTER")
	pan := h.take(t, nero, testutil.RoomItem(t, kitchen, counter, "PAN"))
	require.NoError(t, h.env.New(nero, false).Drop(pan, stove, ""))

	require.NoError(t, h.env.New(nero, false).Activate(stove))
	_, err := h.env.New(nero, false).Take(testutil.RoomItem(t, kitchen, stove, "PAN"), "")
	assert.Equal(t, "You cannot take items from the STOVE while it is turned on.", precondition(t, err))

	egg := h.take(t, nero, testutil.RoomItem(t, kitchen, counter, "RAW EGG"))
	err = h.env.New(nero, false).Drop(egg, stove, "")
	assert.Equal(t, "You cannot put items on the STOVE while it is turned on.", precondition(t, err))
}

func TestSwitchOff_CountsCancelledRecipe(t *testing.T) {
	h := newHarness(t, 0)
	kitchen := testutil.Room(t, h.w, "kitchen")
	stove, _ := kitchen.Fixture("STOVE")
	recipes := h.w.Prefabs().FixtureRecipes(stove.RecipeTag)
	require.Len(t, recipes, 1)
	stove.Activated = true
	stove.Process.Recipe = recipes[0]

	h.env.SwitchOff(stove)
	assert.False(t, stove.Activated)
	assert.Nil(t, stove.Process.Recipe)
	assert.Equal(t, 1, h.met.cancelled)
	assert.Contains(t, h.rec.narration, "The STOVE turns off.")
}

package recipe_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/parlor/internal/game/action"
	"github.com/cory-johannsen/parlor/internal/game/prefab"
	"github.com/cory-johannsen/parlor/internal/game/recipe"
	"github.com/cory-johannsen/parlor/internal/game/world"
	"github.com/cory-johannsen/parlor/internal/testutil"
)

type recorder struct {
	notes     map[string][]string
	narration []string
}

func (r *recorder) Notify(p *world.Player, text string) {
	r.notes[p.Name] = append(r.notes[p.Name], text)
}

func (r *recorder) Narrate(_ *world.Room, text string, _ ...*world.Player) {
	r.narration = append(r.narration, text)
}

type counter struct {
	completed map[string]int
	cancelled int
	hooked    []string
}

func (c *counter) ActionPerformed(string, string) {}
func (c *counter) RecipeCancelled()               { c.cancelled++ }
func (c *counter) RecipeCompleted(fixture string) { c.completed[fixture]++ }
func (c *counter) OnRecipeComplete(f *world.Fixture, rec *prefab.Recipe, _ *world.Player) {
	c.hooked = append(c.hooked, f.Name+":"+rec.IngredientKey())
}

type kitchen struct {
	w     *world.World
	env   *action.Env
	proc  *recipe.Processor
	rec   *recorder
	met   *counter
	nero  *world.Player
	stove *world.Fixture
	room  *world.Room
}

func newKitchen(t *testing.T) *kitchen {
	t.Helper()
	w := testutil.NewWorld(t, nil)
	rec := &recorder{notes: map[string][]string{}}
	met := &counter{completed: map[string]int{}}
	env := &action.Env{World: w, Narrator: rec, Metrics: met}
	proc := recipe.NewProcessor(env, time.Second, time.Minute, nil)
	proc.Hooks = met
	proc.Metrics = met
	room := testutil.Room(t, w, "kitchen")
	stove, ok := room.Fixture("STOVE")
	require.True(t, ok)
	return &kitchen{
		w: w, env: env, proc: proc, rec: rec, met: met,
		nero:  testutil.Player(t, w, "Nero"),
		stove: stove,
		room:  room,
	}
}

// load has Nero move the named counter items onto the stove.
func (k *kitchen) load(t *testing.T, ids ...string) {
	t.Helper()
	counter, _ := k.room.Fixture("COUNTER")
	for _, id := range ids {
		held, err := k.env.New(k.nero, true).Take(testutil.RoomItem(t, k.room, counter, id), "")
		require.NoError(t, err)
		require.NoError(t, k.env.New(k.nero, true).Drop(held, k.stove, ""))
	}
}

func (k *kitchen) onStove(id string) *world.Item {
	for _, it := range k.room.ItemsIn(k.stove) {
		if it.Prefab.ID == id {
			return it
		}
	}
	return nil
}

func TestProcessor_CooksEgg(t *testing.T) {
	k := newKitchen(t)
	k.load(t, "RAW EGG", "PAN")
	require.NoError(t, k.env.New(k.nero, false).Activate(k.stove))

	k.proc.Tick(time.Second)
	require.NotNil(t, k.stove.Process.Recipe)
	assert.Equal(t, 30*time.Second, k.stove.Process.Remaining)
	assert.Contains(t, k.rec.notes["Nero"], "The pan starts to sizzle.")

	k.proc.Tick(29 * time.Second)
	assert.NotNil(t, k.onStove("RAW EGG"), "one second is still left")

	k.proc.Tick(time.Second)
	assert.Nil(t, k.onStove("RAW EGG"))
	require.NotNil(t, k.onStove("COOKED EGG"))
	pan := k.onStove("PAN")
	require.NotNil(t, pan, "the pan is kept and loses a use")
	assert.Equal(t, 1, pan.Uses)
	assert.Contains(t, k.rec.notes["Nero"], "The egg is done.")
	assert.False(t, k.stove.Activated, "the stove switches itself off")
	assert.Equal(t, world.Process{}, k.stove.Process)
	assert.Equal(t, 1, k.met.completed["STOVE"])
	assert.Equal(t, []string{"STOVE:PAN,RAW EGG"}, k.met.hooked)
	assert.Zero(t, k.met.cancelled)
	require.NoError(t, k.w.CheckInvariants())
}

func TestProcessor_LastUseAdvancesToNextStage(t *testing.T) {
	k := newKitchen(t)
	k.load(t, "RAW EGG", "PAN")
	k.onStove("PAN").Uses = 1
	require.NoError(t, k.env.New(k.nero, false).Activate(k.stove))

	k.proc.Tick(time.Second)
	k.proc.Tick(30 * time.Second)
	assert.Nil(t, k.onStove("PAN"))
	assert.NotNil(t, k.onStove("BURNT PAN"))
	assert.NotNil(t, k.onStove("COOKED EGG"))
	require.NoError(t, k.w.CheckInvariants())
}

func TestProcessor_ExtraItemsStillMatch(t *testing.T) {
	k := newKitchen(t)
	k.load(t, "RAW EGG", "RAW EGG", "PAN")
	require.NoError(t, k.env.New(k.nero, false).Activate(k.stove))

	k.proc.Tick(time.Second)
	require.NotNil(t, k.stove.Process.Recipe)
	k.proc.Tick(30 * time.Second)

	egg := k.onStove("RAW EGG")
	require.NotNil(t, egg, "only one egg is an ingredient")
	assert.Equal(t, 1, egg.Quantity)
	assert.NotNil(t, k.onStove("COOKED EGG"))
}

func TestProcessor_CancelsWhenIngredientsDisappear(t *testing.T) {
	k := newKitchen(t)
	k.load(t, "RAW EGG", "PAN")
	require.NoError(t, k.env.New(k.nero, false).Activate(k.stove))
	k.proc.Tick(time.Second)
	require.NotNil(t, k.stove.Process.Recipe)

	require.NoError(t, k.env.Destroy(k.onStove("RAW EGG"), 1))
	k.proc.Tick(time.Second)
	assert.Nil(t, k.stove.Process.Recipe)
	assert.Equal(t, 1, k.met.cancelled)
	assert.True(t, k.stove.Activated)

	k.proc.Tick(59 * time.Second)
	assert.False(t, k.stove.Activated, "an idle stove turns off after a minute")
	assert.Contains(t, k.rec.narration, "The STOVE turns off.")
	assert.Empty(t, k.met.completed)
}

func TestProcessor_IdleFixtureTurnsOff(t *testing.T) {
	k := newKitchen(t)
	require.NoError(t, k.env.New(k.nero, false).Activate(k.stove))

	k.proc.Tick(59 * time.Second)
	assert.True(t, k.stove.Activated)
	k.proc.Tick(time.Second)
	assert.False(t, k.stove.Activated)
}

func TestProcessor_StartTicksUnderWorldLock(t *testing.T) {
	k := newKitchen(t)
	proc := recipe.NewProcessor(k.env, 10*time.Millisecond, time.Minute, nil)
	require.NoError(t, k.w.Do(func() error {
		return k.env.New(k.nero, false).Activate(k.stove)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	proc.Start(ctx)
	require.Eventually(t, func() bool {
		var idle time.Duration
		_ = k.w.Do(func() error {
			idle = k.stove.Process.Idle
			return nil
		})
		return idle > 0
	}, time.Second, 5*time.Millisecond)
}

func TestNewProcessor_PanicsOnZeroInterval(t *testing.T) {
	assert.Panics(t, func() { recipe.NewProcessor(&action.Env{}, 0, time.Minute, nil) })
}

package action_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/parlor/internal/game/action"
	"github.com/cory-johannsen/parlor/internal/game/world"
	"github.com/cory-johannsen/parlor/internal/testutil"
)

type hookLog struct {
	solved, unsolved []string
}

func (l *hookLog) OnSolve(pz *world.Puzzle, _ *world.Player) { l.solved = append(l.solved, pz.Name) }
func (l *hookLog) OnUnsolve(pz *world.Puzzle, _ *world.Player) {
	l.unsolved = append(l.unsolved, pz.Name)
}

func attempt(t *testing.T, h *harness, p *world.Player, pz *world.Puzzle, answer, command string) action.Outcome {
	t.Helper()
	out, err := h.env.New(p, false).Attempt(pz, nil, answer, command)
	require.NoError(t, err)
	return out
}

func TestAttempt_CombinationLock(t *testing.T) {
	h := newHarness(t, 0)
	hooks := &hookLog{}
	h.env.Hooks = hooks
	kyra := h.player(t, "Kyra")
	parlor := testutil.Room(t, h.w, "parlor")
	lock, _ := parlor.Puzzle("SAFE LOCK")
	coins := testutil.RoomItem(t, parlor, lock, "COIN")
	require.False(t, coins.Accessible)

	assert.Equal(t, action.OutcomeFailed, attempt(t, h, kyra, lock, "0000", action.CommandUnlock))
	assert.Equal(t, 2, lock.RemainingAttempts)
	assert.Contains(t, h.rec.notes["Kyra"], "The dial clicks uselessly.")

	assert.Equal(t, action.OutcomeSolved, attempt(t, h, kyra, lock, "1234", action.CommandUnlock))
	assert.True(t, lock.Solved)
	assert.Equal(t, "1234", lock.Outcome)
	assert.True(t, coins.Accessible)
	assert.Contains(t, h.rec.notes["Kyra"], "The safe swings open.")
	assert.Contains(t, h.rec.narration, "Kyra unlocks the SAFE.")
	assert.Equal(t, []string{"SAFE LOCK"}, hooks.solved)

	assert.Equal(t, action.OutcomeAlreadySolved, attempt(t, h, kyra, lock, "1234", action.CommandUnlock))

	assert.Equal(t, action.OutcomeUnsolved, attempt(t, h, kyra, lock, "", action.CommandLock))
	assert.False(t, lock.Solved)
	assert.False(t, coins.Accessible)
	assert.Equal(t, []string{"SAFE LOCK"}, hooks.unsolved)
}

func TestAttempt_NoMoreAttempts(t *testing.T) {
	h := newHarness(t, 0)
	kyra := h.player(t, "Kyra")
	parlor := testutil.Room(t, h.w, "parlor")
	lock, _ := parlor.Puzzle("SAFE LOCK")

	for i := 0; i < 3; i++ {
		require.Equal(t, action.OutcomeFailed, attempt(t, h, kyra, lock, "9999", action.CommandUse))
	}
	assert.Equal(t, action.OutcomeNoMoreAttempts, attempt(t, h, kyra, lock, "1234", action.CommandUse))
	assert.False(t, lock.Solved)
	assert.Contains(t, h.rec.notes["Kyra"], "The dial is jammed.")
	assert.Contains(t, h.rec.narration, "Kyra attempts and fails to use the SAFE.")
}

func TestAttempt_ToggleWithRequirements(t *testing.T) {
	h := newHarness(t, 0)
	kyra := h.player(t, "Kyra")
	parlor := testutil.Room(t, h.w, "parlor")
	lever, _ := parlor.Puzzle("LEVER")
	lock, _ := parlor.Puzzle("SAFE LOCK")

	assert.Equal(t, action.OutcomeRequirementsNotMet, attempt(t, h, kyra, lever, "", action.CommandUse))
	assert.Contains(t, h.rec.notes["Kyra"], "The lever will not budge.")

	h.env.Solve(lock, "1234", nil)
	assert.Equal(t, action.OutcomeSolved, attempt(t, h, kyra, lever, "", action.CommandUse))
	assert.Contains(t, h.rec.notes["Kyra"], "You pull the lever.")
	assert.Equal(t, action.OutcomeUnsolved, attempt(t, h, kyra, lever, "", action.CommandUse))
	assert.Contains(t, h.rec.notes["Kyra"], "You push the lever back.")
	assert.False(t, lever.Solved)
}

func TestWeightPuzzle_FollowsItsContents(t *testing.T) {
	h := newHarness(t, 0)
	kyra := h.player(t, "Kyra")
	parlor := testutil.Room(t, h.w, "parlor")
	scale, _ := parlor.Puzzle("SCALE")
	coin, ok := h.w.Prefabs().Prefab("COIN")
	require.True(t, ok)

	_, err := h.env.Instantiate(coin, parlor, scale, "", 3)
	require.NoError(t, err)
	assert.True(t, scale.Solved, "three coins weigh exactly three")

	held, err := h.env.New(kyra, false).Take(testutil.RoomItem(t, parlor, scale, "COIN"), "")
	require.NoError(t, err)
	assert.False(t, scale.Solved)

	require.NoError(t, h.env.New(kyra, false).Drop(held, scale, ""))
	assert.True(t, scale.Solved)
	assert.Contains(t, h.rec.notes["Kyra"], "The scale balances.")
	require.NoError(t, h.w.CheckInvariants())
}

func TestWeightPuzzle_WrongWeightFails(t *testing.T) {
	h := newHarness(t, 0)
	kyra := h.player(t, "Kyra")
	parlor := testutil.Room(t, h.w, "parlor")
	scale, _ := parlor.Puzzle("SCALE")
	desk, _ := parlor.Fixture("DESK")
	key := h.take(t, kyra, testutil.RoomItem(t, parlor, desk, "KEY"))

	require.NoError(t, h.env.New(kyra, false).Drop(key, scale, ""))
	assert.False(t, scale.Solved)
	assert.Contains(t, h.rec.notes["Kyra"], "The scale tips.")
}

func TestEnvDestroy_UnsolvesReactivePuzzle(t *testing.T) {
	h := newHarness(t, 0)
	parlor := testutil.Room(t, h.w, "parlor")
	scale, _ := parlor.Puzzle("SCALE")
	coin, _ := h.w.Prefabs().Prefab("COIN")
	coins, err := h.env.Instantiate(coin, parlor, scale, "", 3)
	require.NoError(t, err)
	require.True(t, scale.Solved)

	require.NoError(t, h.env.Destroy(coins, 1))
	assert.False(t, scale.Solved)
	assert.Equal(t, 2, coins.Quantity)
	assert.Equal(t, 1, h.met.counts["destroy/ok"])
}

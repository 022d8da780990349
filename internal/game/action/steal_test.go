package action_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/parlor/internal/game/world"
	"github.com/cory-johannsen/parlor/internal/testutil"
)

func TestSteal_EmptySlot(t *testing.T) {
	h := newHarness(t, 0)
	kyra := h.player(t, "Kyra")
	viktor := h.player(t, "Viktor")
	bag, _ := kyra.Slot("BAG")
	kyraCarry, viktorCarry := kyra.CarryWeight, viktor.CarryWeight

	res, err := h.env.New(viktor, false).Steal(kyra, bag.Equipped, "SIDE POCKET", "")
	require.NoError(t, err)
	assert.Nil(t, res.Item)
	assert.Equal(t, []string{"You try to steal from the SIDE POCKET of Kyra's BACKPACK, but it's empty."}, h.rec.notes["Viktor"])
	assert.Empty(t, h.rec.notes["Kyra"])
	assert.Equal(t, kyraCarry, kyra.CarryWeight)
	assert.Equal(t, viktorCarry, viktor.CarryWeight)
}

func TestSteal_ThiefSucceedsButIsNoticed(t *testing.T) {
	h := newHarness(t, 0)
	kyra := h.player(t, "Kyra")
	viktor := h.player(t, "Viktor")
	bag, _ := kyra.Slot("BAG")

	res, err := h.env.New(viktor, false).Steal(kyra, bag.Equipped, "MAIN POCKET", "")
	require.NoError(t, err)
	assert.True(t, res.Successful)
	assert.Equal(t, 4, res.Roll, "a non-discreet item caps the roll at the partial band")
	assert.True(t, res.VictimAware)
	right, _ := viktor.Slot(world.RightHand)
	require.NotNil(t, right.Equipped)
	assert.Equal(t, "PENCIL", right.Equipped.Prefab.ID)
	assert.Equal(t, []string{"You steal a pencil from the MAIN POCKET of Kyra's BACKPACK."}, h.rec.notes["Viktor"])
	assert.Equal(t, []string{"Viktor steals a pencil from the MAIN POCKET of your BACKPACK!"}, h.rec.notes["Kyra"])
	require.NoError(t, h.w.CheckInvariants())
}

func TestSteal_UnconsciousVictimNeverNotices(t *testing.T) {
	h := newHarness(t, 0)
	kyra := h.player(t, "Kyra")
	viktor := h.player(t, "Viktor")
	kyra.Attributes = append(kyra.Attributes, "unconscious")
	bag, _ := kyra.Slot("BAG")

	res, err := h.env.New(viktor, false).Steal(kyra, bag.Equipped, "MAIN POCKET", "")
	require.NoError(t, err)
	assert.True(t, res.Successful)
	assert.False(t, res.VictimAware)
	assert.Empty(t, h.rec.notes["Kyra"])
	assert.Contains(t, h.rec.narration, "Viktor steals a pencil from the MAIN POCKET of Kyra's BACKPACK without her noticing!")
}

func TestSteal_FailedRollNotifiesBoth(t *testing.T) {
	h := newHarness(t, 0)
	kyra := h.player(t, "Kyra")
	viktor := h.player(t, "Viktor")
	bag, _ := viktor.Slot("BAG")
	main, _ := bag.Equipped.InventorySlot("MAIN POCKET")

	res, err := h.env.New(kyra, false).Steal(viktor, bag.Equipped, "MAIN POCKET", "")
	require.NoError(t, err)
	assert.False(t, res.Successful)
	assert.Equal(t, 1, res.Roll)
	assert.Equal(t, 3, main.Items[0].Quantity)
	assert.Equal(t, []string{"You try to steal a coin from the MAIN POCKET of Viktor's BACKPACK, but he notices before you can."}, h.rec.notes["Kyra"])
	assert.Equal(t, []string{"Kyra attempts to steal a coin from the MAIN POCKET of your BACKPACK, but you notice in time!"}, h.rec.notes["Viktor"])
}

func TestSteal_Preconditions(t *testing.T) {
	h := newHarness(t, 0)
	kyra := h.player(t, "Kyra")
	nero := h.player(t, "Nero")
	bag, _ := kyra.Slot("BAG")

	_, err := h.env.New(kyra, false).Steal(kyra, bag.Equipped, "MAIN POCKET", "")
	assert.Equal(t, "You cannot steal from yourself.", precondition(t, err))

	_, err = h.env.New(nero, false).Steal(kyra, bag.Equipped, "MAIN POCKET", "")
	assert.Equal(t, "Kyra is not here.", precondition(t, err))
}

func TestProperty_StealConservesCoins(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		h := newHarness(rt, rapid.IntRange(0, 10).Draw(rt, "roll"))
		kyra := testutil.Player(rt, h.w, "Kyra")
		viktor := testutil.Player(rt, h.w, "Viktor")
		bag, _ := viktor.Slot("BAG")

		_, err := h.env.New(kyra, false).Steal(viktor, bag.Equipped, "MAIN POCKET", "")
		if err != nil {
			rt.Fatalf("steal: %v", err)
		}
		coins := 0
		for _, p := range []*world.Player{kyra, viktor} {
			for _, it := range p.Inventory() {
				if it.Prefab.ID == "COIN" {
					coins += it.Quantity
				}
			}
		}
		assert.Equal(rt, 3, coins)
		if err := h.w.CheckInvariants(); err != nil {
			rt.Fatalf("invariants: %v", err)
		}
	})
}

package world_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/parlor/internal/game/description"
	"github.com/cory-johannsen/parlor/internal/game/world"
	"github.com/cory-johannsen/parlor/internal/testutil"
)

func TestBuild_PlacesAuthoredItems(t *testing.T) {
	w := testutil.NewWorld(t, nil)
	parlor := testutil.Room(t, w, "parlor")
	desk, ok := parlor.Fixture("DESK")
	require.True(t, ok)
	safeLock, ok := parlor.Puzzle("SAFE LOCK")
	require.True(t, ok)

	assert.Equal(t, []string{"a key", "3 pencils"}, description.Entries(desk.Description, ""))
	assert.Equal(t, []string{"a box", "a boulder"}, description.Entries(parlor.Description, ""))
	assert.Equal(t, []string{"5 coins"}, description.Entries(safeLock.AlreadySolvedDescription, ""))

	box := testutil.RoomItem(t, parlor, parlor, "BOX")
	assert.Equal(t, "BOX 1", box.Identifier)
	assert.Equal(t, []string{"2 coins"}, description.Entries(box.Description, ""))
	assert.Equal(t, 3+2, box.Weight)

	coins := testutil.RoomItem(t, parlor, safeLock, "COIN")
	assert.False(t, coins.Accessible, "items in an unsolved lock are hidden")

	kyra := testutil.Player(t, w, "Kyra")
	assert.Equal(t, 6, kyra.CarryWeight)
	assert.Equal(t, []string{"a backpack", "a jacket"}, description.Entries(kyra.Description, world.EquipmentList))
	bag, _ := kyra.Slot("BAG")
	assert.Equal(t, "BACKPACK 1", bag.Equipped.Identifier)

	viktor := testutil.Player(t, w, "Viktor")
	vbag, _ := viktor.Slot("BAG")
	assert.Equal(t, "BACKPACK 2", vbag.Equipped.Identifier)
	assert.Equal(t, 5, viktor.CarryWeight)
}

func TestInstantiate_ReusesSmallestIdentifier(t *testing.T) {
	w := testutil.NewWorld(t, nil)
	parlor := testutil.Room(t, w, "parlor")
	boxPrefab, _ := w.Prefabs().Prefab("BOX")

	second, err := w.Instantiate(boxPrefab, parlor, parlor, "", 1)
	require.NoError(t, err)
	assert.Equal(t, "BOX 2", second.Identifier)

	first, ok := w.FindByIdentifier("BOX 1")
	require.True(t, ok)
	require.NoError(t, w.Destroy(first, 1, true))

	third, err := w.Instantiate(boxPrefab, parlor, parlor, "", 1)
	require.NoError(t, err)
	assert.Equal(t, "BOX 1", third.Identifier)
	require.NoError(t, w.CheckInvariants())
}

func TestInstantiate_MergesEquivalentStacks(t *testing.T) {
	w := testutil.NewWorld(t, nil)
	parlor := testutil.Room(t, w, "parlor")
	desk, _ := parlor.Fixture("DESK")
	pencil, _ := w.Prefabs().Prefab("PENCIL")
	before := w.ItemCount()

	holder, err := w.Instantiate(pencil, parlor, desk, "", 2)
	require.NoError(t, err)
	assert.Equal(t, 5, holder.Quantity)
	assert.Equal(t, before, w.ItemCount())
	assert.Equal(t, []string{"a key", "5 pencils"}, description.Entries(desk.Description, ""))
	require.NoError(t, w.CheckInvariants())
}

func TestInstantiate_RejectsZeroQuantity(t *testing.T) {
	w := testutil.NewWorld(t, nil)
	parlor := testutil.Room(t, w, "parlor")
	key, _ := w.Prefabs().Prefab("KEY")
	_, err := w.Instantiate(key, parlor, parlor, "", 0)
	var inv *world.InvariantError
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, "Instantiate", inv.Op)
}

func TestInstantiate_LogsToGameLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	w := testutil.NewWorld(t, zap.New(core))
	assert.Zero(t, logs.Len(), "content placement is not logged")

	parlor := testutil.Room(t, w, "parlor")
	key, _ := w.Prefabs().Prefab("KEY")
	_, err := w.Instantiate(key, parlor, parlor, "", 1)
	require.NoError(t, err)

	entries := logs.FilterMessage("instantiated").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "gamelog", entries[0].LoggerName)
	assert.Equal(t, "KEY", entries[0].ContextMap()["item"])
	assert.Equal(t, "parlor", entries[0].ContextMap()["room"])
}

func TestInstantiateInventory_StashAndEquip(t *testing.T) {
	w := testutil.NewWorld(t, nil)
	kyra := testutil.Player(t, w, "Kyra")
	bag, _ := kyra.Slot("BAG")
	coin, _ := w.Prefabs().Prefab("COIN")
	hat, _ := w.Prefabs().Prefab("HAT")

	_, err := w.InstantiateInventory(coin, kyra, "", bag.Equipped, "SIDE POCKET", 2)
	require.NoError(t, err)
	assert.Equal(t, 8, kyra.CarryWeight)
	assert.Equal(t, []string{"2 coins"}, description.Entries(bag.Equipped.Description, "SIDE POCKET"))

	_, err = w.InstantiateInventory(hat, kyra, "HAT", nil, "", 1)
	require.NoError(t, err)
	assert.Equal(t, 9, kyra.CarryWeight)
	assert.Contains(t, description.Entries(kyra.Description, world.EquipmentList), "a hat")

	_, err = w.InstantiateInventory(hat, kyra, "HAT", nil, "", 1)
	require.Error(t, err, "occupied slot")
	require.NoError(t, w.CheckInvariants())
}

func TestDestroy_WithChildren(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	w := testutil.NewWorld(t, zap.New(core))
	parlor := testutil.Room(t, w, "parlor")
	box := testutil.RoomItem(t, parlor, parlor, "BOX")
	key, _ := w.Prefabs().Prefab("KEY")
	_, err := w.Instantiate(key, parlor, box, "BOX", 1)
	require.NoError(t, err)
	children := world.ChildItems(box)
	require.Len(t, children, 2)
	logs.TakeAll()

	require.NoError(t, w.Destroy(box, 1, true))

	assert.Zero(t, box.Quantity)
	for _, child := range children {
		assert.Zero(t, child.Quantity)
		_, live := w.Item(child.ID)
		assert.False(t, live)
	}
	assert.Equal(t, []string{"a boulder"}, description.Entries(parlor.Description, ""))
	assert.Equal(t, 3, logs.FilterMessage("destroyed").Len())
	for _, it := range parlor.Items {
		assert.NotEqual(t, box, it)
	}
	require.NoError(t, w.CheckInvariants())
}

func TestDestroy_PartialAndExcessive(t *testing.T) {
	w := testutil.NewWorld(t, nil)
	parlor := testutil.Room(t, w, "parlor")
	desk, _ := parlor.Fixture("DESK")
	pencils := testutil.RoomItem(t, parlor, desk, "PENCIL")

	require.NoError(t, w.Destroy(pencils, 2, false))
	assert.Equal(t, 1, pencils.Quantity)
	assert.Equal(t, []string{"a key", "a pencil"}, description.Entries(desk.Description, ""))

	err := w.Destroy(pencils, 5, false)
	var inv *world.InvariantError
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, 1, pencils.Quantity, "failed destroy changes nothing")

	require.NoError(t, w.Destroy(pencils, world.Unlimited, false))
	assert.Equal(t, []string{"a key"}, description.Entries(desk.Description, ""))
	require.NoError(t, w.CheckInvariants())
}

func TestDestroyInventory_UnequipsFirst(t *testing.T) {
	w := testutil.NewWorld(t, nil)
	kyra := testutil.Player(t, w, "Kyra")
	jacket, _ := kyra.Slot("JACKET")

	require.NoError(t, w.DestroyInventory(jacket.Equipped, 1, true))
	assert.Nil(t, jacket.Equipped)
	assert.Equal(t, 4, kyra.CarryWeight)
	assert.Equal(t, []string{"a backpack", "a shirt"}, description.Entries(kyra.Description, world.EquipmentList))
	require.NoError(t, w.CheckInvariants())
}

func TestReplaceInventoryItem_DestroysContents(t *testing.T) {
	w := testutil.NewWorld(t, nil)
	kyra := testutil.Player(t, w, "Kyra")
	bag, _ := kyra.Slot("BAG")
	backpack := bag.Equipped
	box, _ := w.Prefabs().Prefab("BOX")

	require.NoError(t, w.ReplaceInventoryItem(backpack, box))
	assert.Equal(t, "BOX", backpack.Prefab.ID)
	assert.Equal(t, "BOX 2", backpack.Identifier)
	assert.Empty(t, world.ChildItems(backpack))
	assert.Equal(t, 3+1+2, kyra.CarryWeight)
	assert.Equal(t, []string{"a jacket", "a box"}, description.Entries(kyra.Description, world.EquipmentList))
	require.NoError(t, w.CheckInvariants())
}

func TestUseUp_AdvancesToNextStage(t *testing.T) {
	w := testutil.NewWorld(t, nil)
	nero := testutil.Player(t, w, "Nero")
	pan, _ := w.Prefabs().Prefab("PAN")
	it, err := w.InstantiateInventory(pan, nero, world.RightHand, nil, "", 1)
	require.NoError(t, err)

	changed, err := w.UseUp(it)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, it.Uses)

	changed, err = w.UseUp(it)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "BURNT PAN", it.Prefab.ID)
	assert.Equal(t, world.Unlimited, it.Uses)
	assert.Equal(t, []string{"a burnt pan"}, description.Entries(nero.Description, world.HandsList))
	assert.Equal(t, 4, nero.CarryWeight)
	require.NoError(t, w.CheckInvariants())
}

func TestSolve_TogglesAccess(t *testing.T) {
	w := testutil.NewWorld(t, nil)
	parlor := testutil.Room(t, w, "parlor")
	lock, _ := parlor.Puzzle("SAFE LOCK")
	coins := testutil.RoomItem(t, parlor, lock, "COIN")

	w.Solve(lock, "1234", nil)
	assert.True(t, lock.Solved)
	assert.True(t, coins.Accessible)

	w.Unsolve(lock, nil)
	assert.False(t, lock.Solved)
	assert.False(t, coins.Accessible)
}

func TestFail_SpendsAttempts(t *testing.T) {
	w := testutil.NewWorld(t, nil)
	parlor := testutil.Room(t, w, "parlor")
	lock, _ := parlor.Puzzle("SAFE LOCK")
	lever, _ := parlor.Puzzle("LEVER")

	w.Fail(lock, nil)
	assert.Equal(t, 2, lock.RemainingAttempts)
	w.Fail(lever, nil)
	assert.Equal(t, world.Unlimited, lever.RemainingAttempts)
}

func TestInstantiate_UnlimitedStackInSlotIsNotCounted(t *testing.T) {
	w := testutil.NewWorld(t, nil)
	parlor := testutil.Room(t, w, "parlor")
	box := testutil.RoomItem(t, parlor, parlor, "BOX")
	egg, _ := w.Prefabs().Prefab("RAW EGG")
	slot, _ := box.InventorySlot("BOX")

	eggs, err := w.Instantiate(egg, parlor, box, "BOX", world.Unlimited)
	require.NoError(t, err)
	held, err := w.Instantiate(egg, parlor, box, "BOX", 1)
	require.NoError(t, err)

	assert.Same(t, eggs, held)
	assert.Equal(t, world.Unlimited, held.Quantity)
	assert.Equal(t, 2, slot.TakenSpace, "only the coins take space")
	assert.Equal(t, 2, slot.Weight)
	assert.Equal(t, 3+2, box.Weight)
	require.NoError(t, w.CheckInvariants())
}

func TestInstantiate_FiniteStackBecomingUnlimitedStopsCounting(t *testing.T) {
	w := testutil.NewWorld(t, nil)
	parlor := testutil.Room(t, w, "parlor")
	box := testutil.RoomItem(t, parlor, parlor, "BOX")
	egg, _ := w.Prefabs().Prefab("RAW EGG")
	slot, _ := box.InventorySlot("BOX")

	_, err := w.Instantiate(egg, parlor, box, "BOX", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, slot.TakenSpace)
	assert.Equal(t, 3+3, box.Weight)

	held, err := w.Instantiate(egg, parlor, box, "BOX", world.Unlimited)
	require.NoError(t, err)
	assert.Equal(t, world.Unlimited, held.Quantity)
	assert.Equal(t, 2, slot.TakenSpace)
	assert.Equal(t, 2, slot.Weight)
	assert.Equal(t, 3+2, box.Weight)
	require.NoError(t, w.CheckInvariants())
}

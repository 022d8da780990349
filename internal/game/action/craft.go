package action

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/parlor/internal/game/prefab"
	"github.com/cory-johannsen/parlor/internal/game/world"
)

// CraftResult holds what crafting left in the actor's hands. Either product
// may be nil when an ingredient was used up without a next stage.
type CraftResult struct {
	Recipe   *prefab.Recipe
	Products []*world.Item
}

// Craft combines the two items in the actor's hands. An ingredient that is
// also a product stays and spends one use; every other ingredient turns into
// the next remaining product, or is destroyed when none remain.
//
// Precondition: first and second are held in different hands.
func (a *Action) Craft(first, second *world.Item) (CraftResult, error) {
	var res CraftResult
	err := a.run(TypeCraft, func() error {
		if first == second {
			return failf("You need two different items to craft.")
		}
		if _, err := a.held(first); err != nil {
			return err
		}
		if _, err := a.held(second); err != nil {
			return err
		}
		rec, ok := a.world().Prefabs().CraftingRecipe(first.Prefab.ID, second.Prefab.ID)
		if !ok {
			return failf("You cannot combine %s and %s.", first.SingleContainingPhrase(), second.SingleContainingPhrase())
		}
		res.Recipe = rec
		remaining := append([]*prefab.Prefab(nil), rec.ProductPrefabs...)
		ingredients := []*world.Item{first, second}
		kept := make([]bool, len(ingredients))
		for i, ing := range ingredients {
			if j := indexOf(remaining, ing.Prefab.ID); j >= 0 {
				kept[i] = true
				remaining = append(remaining[:j], remaining[j+1:]...)
			}
		}
		for i, ing := range ingredients {
			hand := ing.EquipmentSlot
			switch {
			case kept[i]:
				if _, err := a.world().UseUp(ing); err != nil {
					return err
				}
			case len(remaining) > 0:
				next := remaining[0]
				remaining = remaining[1:]
				if err := a.world().ReplaceInventoryItem(ing, next); err != nil {
					return err
				}
			default:
				if err := a.world().DestroyInventory(ing, ing.Quantity, true); err != nil {
					return err
				}
			}
			if s, ok := a.Player.Slot(hand); ok && s.Equipped != nil {
				res.Products = append(res.Products, s.Equipped)
			}
		}
		a.say(rec.CompletedDescription, "You craft "+productPhrase(res.Products)+".")
		a.narrate("%s crafts %s.", displayName(a.Player), productPhrase(res.Products))
		a.log("crafted", nil,
			zap.String("ingredients", rec.IngredientKey()),
			zap.Strings("products", refs(res.Products)),
		)
		return nil
	})
	return res, err
}

func indexOf(ps []*prefab.Prefab, id string) int {
	for i, p := range ps {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// productPhrase names the non-discreet products, or "nothing".
func productPhrase(items []*world.Item) string {
	var shown []*world.Item
	for _, it := range items {
		if !it.Discreet() {
			shown = append(shown, it)
		}
	}
	if len(shown) == 0 {
		return "nothing"
	}
	return phraseList(shown)
}

// UncraftResult holds the two ingredients an item was separated into.
type UncraftResult struct {
	Recipe      *prefab.Recipe
	Ingredients [2]*world.Item
}

// Uncraft separates the item in one of the actor's hands into the two
// ingredients of its uncraftable recipe. The item becomes the first
// ingredient and the second appears in the free hand. When exactly one
// ingredient is discreet it is the one the item becomes.
func (a *Action) Uncraft(it *world.Item) (UncraftResult, error) {
	var res UncraftResult
	err := a.run(TypeUncraft, func() error {
		if _, err := a.held(it); err != nil {
			return err
		}
		rec, ok := a.world().Prefabs().UncraftingRecipe(it.Prefab.ID)
		if !ok || len(rec.IngredientPrefabs) != 2 {
			return failf("You cannot uncraft %s.", it.SingleContainingPhrase())
		}
		free, ok := a.Player.FreeHand()
		if !ok {
			return failf("You do not have a free hand to uncraft an item. Either drop an item you're currently holding or stash it in one of your equipped items.")
		}
		res.Recipe = rec
		first, second := rec.IngredientPrefabs[1], rec.IngredientPrefabs[0]
		if rec.IngredientPrefabs[0].Discreet != rec.IngredientPrefabs[1].Discreet && rec.IngredientPrefabs[0].Discreet {
			first, second = rec.IngredientPrefabs[0], rec.IngredientPrefabs[1]
		}
		original := it.SingleContainingPhrase()
		hand := it.EquipmentSlot
		if err := a.world().ReplaceInventoryItem(it, first); err != nil {
			return err
		}
		s, _ := a.Player.Slot(hand)
		res.Ingredients[0] = s.Equipped
		other, err := a.world().InstantiateInventory(second, a.Player, free, nil, "", 1)
		if err != nil {
			return err
		}
		res.Ingredients[1] = other
		a.say(rec.UncraftedDescription, "You separate "+original+" into "+first.SingleContainingPhrase+" and "+second.SingleContainingPhrase+".")
		a.narrate("%s", uncraftNarration(displayName(a.Player), original, first, second))
		a.log("uncrafted", res.Ingredients[0],
			zap.String("original", rec.Products[0]),
			zap.String("ingredients", rec.IngredientKey()),
		)
		return nil
	})
	return res, err
}

func uncraftNarration(actor, original string, first, second *prefab.Prefab) string {
	switch {
	case !first.Discreet && !second.Discreet:
		return actor + " separates " + original + " into " + first.SingleContainingPhrase + " and " + second.SingleContainingPhrase + "."
	case !second.Discreet:
		return actor + " removes " + second.SingleContainingPhrase + " from " + original + "."
	case !first.Discreet:
		return actor + " removes " + first.SingleContainingPhrase + " from " + original + "."
	}
	return actor + " takes apart " + original + "."
}

package prefab

import (
	"errors"
	"fmt"
)

// Registry holds all loaded prefabs indexed by ID, and the recipes that use them.
type Registry struct {
	prefabs map[string]*Prefab
	order   []*Prefab
	recipes []*Recipe
}

// NewRegistry returns an empty Registry.
//
// Postcondition: all internal maps are initialised.
func NewRegistry() *Registry {
	return &Registry{prefabs: make(map[string]*Prefab)}
}

// Register adds p to the registry.
//
// Precondition: p must not be nil and must be valid.
// Postcondition: Prefab(p.ID) returns (p, true); returns error if p.ID already registered.
func (r *Registry) Register(p *Prefab) error {
	p.normalize()
	if err := p.Validate(); err != nil {
		return err
	}
	if _, exists := r.prefabs[p.ID]; exists {
		return fmt.Errorf("prefab: Registry.Register: prefab ID %q already registered", p.ID)
	}
	r.prefabs[p.ID] = p
	r.order = append(r.order, p)
	return nil
}

// AddRecipe adds rec to the registry. References are resolved by Link.
func (r *Registry) AddRecipe(rec *Recipe) error {
	rec.normalize()
	if err := rec.Validate(); err != nil {
		return err
	}
	r.recipes = append(r.recipes, rec)
	return nil
}

// Prefab returns the Prefab for the given id and whether it was found.
//
// Postcondition: ok is true iff the id is registered.
func (r *Registry) Prefab(id string) (*Prefab, bool) {
	p, ok := r.prefabs[id]
	return p, ok
}

// All returns every registered prefab in registration order.
func (r *Registry) All() []*Prefab {
	return r.order
}

// Recipes returns every registered recipe in registration order.
func (r *Registry) Recipes() []*Recipe {
	return r.recipes
}

// Link resolves next-stage, ingredient and product references.
//
// Postcondition: returns an error naming every dangling reference, or nil.
func (r *Registry) Link() error {
	var errs []error
	for _, p := range r.order {
		p.NextStage = nil
		if p.NextStageID == "" {
			continue
		}
		next, ok := r.prefabs[p.NextStageID]
		if !ok {
			errs = append(errs, fmt.Errorf("prefab %q: next stage %q is not a prefab", p.ID, p.NextStageID))
			continue
		}
		p.NextStage = next
	}
	for _, rec := range r.recipes {
		rec.IngredientPrefabs = rec.IngredientPrefabs[:0]
		rec.ProductPrefabs = rec.ProductPrefabs[:0]
		for _, id := range rec.Ingredients {
			p, ok := r.prefabs[id]
			if !ok {
				errs = append(errs, fmt.Errorf("recipe %s: ingredient %q is not a prefab", rec, id))
				continue
			}
			rec.IngredientPrefabs = append(rec.IngredientPrefabs, p)
		}
		for _, id := range rec.Products {
			p, ok := r.prefabs[id]
			if !ok {
				errs = append(errs, fmt.Errorf("recipe %s: product %q is not a prefab", rec, id))
				continue
			}
			rec.ProductPrefabs = append(rec.ProductPrefabs, p)
		}
	}
	return errors.Join(errs...)
}

// CraftingRecipe returns the hand-crafting recipe whose ingredients are exactly a and b.
func (r *Registry) CraftingRecipe(a, b string) (*Recipe, bool) {
	key := a + "," + b
	if b < a {
		key = b + "," + a
	}
	for _, rec := range r.recipes {
		if rec.IsCrafting() && rec.IngredientKey() == key {
			return rec, true
		}
	}
	return nil, false
}

// UncraftingRecipe returns the uncraftable recipe producing the given prefab.
func (r *Registry) UncraftingRecipe(product string) (*Recipe, bool) {
	for _, rec := range r.recipes {
		if rec.Uncraftable && len(rec.Products) == 1 && rec.Products[0] == product {
			return rec, true
		}
	}
	return nil, false
}

// FixtureRecipes returns the recipes processed by fixtures carrying tag, in registration order.
func (r *Registry) FixtureRecipes(tag string) []*Recipe {
	if tag == "" {
		return nil
	}
	var out []*Recipe
	for _, rec := range r.recipes {
		if rec.FixtureTag == tag {
			out = append(out, rec)
		}
	}
	return out
}

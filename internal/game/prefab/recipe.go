package prefab

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Recipe turns a set of ingredient prefabs into products. Recipes without a
// fixture tag are crafted by hand from exactly two ingredients; recipes with a
// tag are processed over Duration by any fixture carrying that tag.
type Recipe struct {
	Ingredients          []string      `yaml:"ingredients"`
	Uncraftable          bool          `yaml:"uncraftable"`
	FixtureTag           string        `yaml:"fixture_tag"`
	Duration             time.Duration `yaml:"duration"`
	Products             []string      `yaml:"products"`
	InitiatedDescription string        `yaml:"initiated_description"`
	CompletedDescription string        `yaml:"completed_description"`
	UncraftedDescription string        `yaml:"uncrafted_description"`

	IngredientPrefabs []*Prefab `yaml:"-"`
	ProductPrefabs    []*Prefab `yaml:"-"`
}

func (r *Recipe) normalize() {
	for i := range r.Ingredients {
		r.Ingredients[i] = strings.ToUpper(strings.TrimSpace(r.Ingredients[i]))
	}
	sort.Strings(r.Ingredients)
	for i := range r.Products {
		r.Products[i] = strings.ToUpper(strings.TrimSpace(r.Products[i]))
	}
	r.FixtureTag = strings.ToLower(strings.TrimSpace(r.FixtureTag))
}

// Validate checks the recipe's structural rules. Prefab references are checked by Registry.Link.
//
// Precondition: r is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (r *Recipe) Validate() error {
	var errs []error
	if len(r.Ingredients) == 0 {
		errs = append(errs, errors.New("no ingredients were given"))
	}
	if r.FixtureTag == "" {
		if len(r.Ingredients) > 2 {
			errs = append(errs, errors.New("recipes with more than 2 ingredients must require a fixture tag"))
		}
		if len(r.Products) > 2 {
			errs = append(errs, errors.New("recipes with more than 2 products must require a fixture tag"))
		}
		if r.Duration != 0 {
			errs = append(errs, errors.New("recipes without a fixture tag cannot have a duration"))
		}
	}
	if r.Duration < 0 {
		errs = append(errs, errors.New("duration must be >= 0"))
	}
	if r.Uncraftable {
		if r.FixtureTag != "" {
			errs = append(errs, errors.New("recipes with a fixture tag cannot be uncraftable"))
		}
		if len(r.Products) != 1 {
			errs = append(errs, errors.New("uncraftable recipes must have exactly one product"))
		}
		if len(r.Ingredients) != 2 {
			errs = append(errs, errors.New("uncraftable recipes must have exactly two ingredients"))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("recipe %s validation failed: %v", r, errs)
	}
	return nil
}

// IsCrafting reports whether the recipe is crafted by hand rather than processed by a fixture.
func (r *Recipe) IsCrafting() bool {
	return r.FixtureTag == ""
}

// IngredientKey is the sorted, comma-joined list of ingredient prefab ids.
func (r *Recipe) IngredientKey() string {
	return strings.Join(r.Ingredients, ",")
}

// HasProduct reports whether id is among the recipe's products.
func (r *Recipe) HasProduct(id string) bool {
	for _, p := range r.Products {
		if p == id {
			return true
		}
	}
	return false
}

func (r *Recipe) String() string {
	return fmt.Sprintf("[%s] -> [%s]", r.IngredientKey(), strings.Join(r.Products, ","))
}

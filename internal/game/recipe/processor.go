// Package recipe runs the fixture recipe processor: activated fixtures are
// checked on every tick for a recipe their contents satisfy, and a matched
// recipe counts down its duration before turning ingredients into products.
package recipe

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/parlor/internal/game/action"
	"github.com/cory-johannsen/parlor/internal/game/description"
	"github.com/cory-johannsen/parlor/internal/game/prefab"
	"github.com/cory-johannsen/parlor/internal/game/world"
)

// Hooks is called after a recipe completes and its products exist.
type Hooks interface {
	OnRecipeComplete(f *world.Fixture, rec *prefab.Recipe, p *world.Player)
}

// Metrics counts completed recipes per fixture.
type Metrics interface {
	RecipeCompleted(fixture string)
}

// Processor advances every activated fixture once per tick.
//
// Invariant: a fixture's Process.Recipe is nil or the single recipe it is counting down.
type Processor struct {
	env                 *action.Env
	interval            time.Duration
	autoDeactivateAfter time.Duration
	logger              *zap.Logger

	Hooks   Hooks
	Metrics Metrics
}

// NewProcessor returns a processor that ticks every interval and switches off
// idle auto-deactivating fixtures after autoDeactivateAfter.
//
// Precondition: interval must be > 0.
func NewProcessor(env *action.Env, interval, autoDeactivateAfter time.Duration, logger *zap.Logger) *Processor {
	if interval <= 0 {
		panic("recipe.NewProcessor: interval must be > 0")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		env:                 env,
		interval:            interval,
		autoDeactivateAfter: autoDeactivateAfter,
		logger:              logger,
	}
}

// Start begins the tick loop. Runs until ctx is cancelled.
//
// Postcondition: Tick is called once per interval while holding the world lock.
func (p *Processor) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = p.env.World.Do(func() error {
					p.Tick(p.interval)
					return nil
				})
			}
		}
	}()
}

// Tick advances every activated fixture by elapsed. The caller must hold the world lock.
func (p *Processor) Tick(elapsed time.Duration) {
	for _, r := range p.env.World.Rooms() {
		for _, f := range r.Fixtures {
			if f.Activated {
				p.step(f, elapsed)
			}
		}
	}
}

func (p *Processor) step(f *world.Fixture, elapsed time.Duration) {
	rec, ingredients := p.findRecipe(f)
	proc := &f.Process
	if proc.Recipe != nil && proc.Recipe != rec {
		p.cancel(f)
	}
	if proc.Recipe == nil {
		if rec == nil {
			p.idle(f, elapsed)
			return
		}
		p.start(f, rec)
		return
	}
	proc.Remaining -= elapsed
	if proc.Remaining > 0 {
		return
	}
	p.complete(f, ingredients)
}

func (p *Processor) idle(f *world.Fixture, elapsed time.Duration) {
	if !f.AutoDeactivate {
		return
	}
	f.Process.Idle += elapsed
	if f.Process.Idle >= p.autoDeactivateAfter {
		p.env.SwitchOff(f)
	}
}

func (p *Processor) start(f *world.Fixture, rec *prefab.Recipe) {
	f.Process.Recipe = rec
	f.Process.Remaining = rec.Duration
	f.Process.Idle = 0
	p.tell(f, rec.InitiatedDescription)
	p.env.World.GameLog().Info("recipe started",
		zap.String("fixture", f.Name),
		zap.String("room", f.Room.ID),
		zap.Stringer("recipe", rec),
	)
}

func (p *Processor) cancel(f *world.Fixture) {
	rec := f.Process.Recipe
	f.Process.Recipe = nil
	f.Process.Remaining = 0
	if p.env.Metrics != nil {
		p.env.Metrics.RecipeCancelled()
	}
	p.env.World.GameLog().Info("recipe cancelled",
		zap.String("fixture", f.Name),
		zap.String("room", f.Room.ID),
		zap.Stringer("recipe", rec),
	)
}

// complete turns the ingredients into products. An ingredient that is also a
// product loses a use instead of being destroyed, or becomes its next stage
// when its last use is spent.
func (p *Processor) complete(f *world.Fixture, ingredients []*world.Item) {
	rec := f.Process.Recipe
	player := f.Process.Player

	quantity := 1
	if len(ingredients) == 1 && ingredients[0].Quantity != world.Unlimited {
		quantity = ingredients[0].Quantity
	}
	products := append([]*prefab.Prefab(nil), rec.ProductPrefabs...)
	keep := make([]bool, len(products))
	claimed := make([]bool, len(products))
	for _, it := range ingredients {
		j := productIndex(products, claimed, it.Prefab.ID)
		if j < 0 {
			p.destroy(it, quantity)
			continue
		}
		claimed[j] = true
		switch {
		case it.Uses == world.Unlimited:
			keep[j] = true
		case it.Uses-1 <= 0 && it.Prefab.NextStage != nil:
			products[j] = it.Prefab.NextStage
			p.destroy(it, quantity)
		default:
			keep[j] = true
			it.Uses--
			if it.Uses <= 0 {
				p.destroy(it, it.Quantity)
			}
		}
	}
	for j, pf := range products {
		if keep[j] {
			continue
		}
		if _, err := p.env.Instantiate(pf, f.Room, f, "", quantity); err != nil {
			p.logger.Error("instantiating recipe product", zap.String("fixture", f.Name), zap.String("product", pf.ID), zap.Error(err))
		}
	}

	p.tell(f, rec.CompletedDescription)
	p.env.World.GameLog().Info("recipe completed",
		zap.String("fixture", f.Name),
		zap.String("room", f.Room.ID),
		zap.Stringer("recipe", rec),
	)
	if p.Metrics != nil {
		p.Metrics.RecipeCompleted(f.Name)
	}
	if p.Hooks != nil {
		p.Hooks.OnRecipeComplete(f, rec, player)
	}

	f.Process = world.Process{Player: player}
	if f.AutoDeactivate {
		p.env.SwitchOff(f)
	}
}

func (p *Processor) destroy(it *world.Item, quantity int) {
	// Zero means a parent ingredient already took it along.
	if it.Quantity == world.Unlimited || it.Quantity == 0 {
		return
	}
	if quantity > it.Quantity {
		quantity = it.Quantity
	}
	if err := p.env.Destroy(it, quantity); err != nil {
		p.logger.Error("destroying recipe ingredient", zap.String("item", it.Ref()), zap.Error(err))
	}
}

// tell sends desc to the player who switched the fixture on, if they are still in its room.
func (p *Processor) tell(f *world.Fixture, desc string) {
	pl := f.Process.Player
	if pl == nil || pl.Room != f.Room || p.env.Narrator == nil {
		return
	}
	if text := description.Render(desc); text != "" {
		p.env.Narrator.Notify(pl, text)
	}
}

func productIndex(products []*prefab.Prefab, claimed []bool, id string) int {
	for j, pf := range products {
		if !claimed[j] && pf.ID == id {
			return j
		}
	}
	return -1
}

// findRecipe returns the recipe the fixture's contents satisfy and the items
// used as its ingredients. A recipe whose ingredients are exactly the contents
// wins; otherwise the satisfied recipe with the most ingredients does.
func (p *Processor) findRecipe(f *world.Fixture) (*prefab.Recipe, []*world.Item) {
	recipes := p.env.World.Prefabs().FixtureRecipes(f.RecipeTag)
	if len(recipes) == 0 {
		return nil, nil
	}
	items := contents(f)
	for _, rec := range recipes {
		if exactly(items, rec.Ingredients) {
			return rec, items
		}
	}
	var (
		best     *prefab.Recipe
		bestUsed []*world.Item
	)
	for _, rec := range recipes {
		used, ok := satisfy(items, rec.Ingredients)
		if ok && (best == nil || len(used) > len(bestUsed)) {
			best, bestUsed = rec, used
		}
	}
	return best, bestUsed
}

// contents lists every live item in the fixture at any depth, ordered by prefab id.
func contents(f *world.Fixture) []*world.Item {
	var items []*world.Item
	for _, it := range f.Room.ItemsIn(f) {
		if it.Quantity == 0 {
			continue
		}
		items = append(items, it)
		for _, child := range world.ChildItems(it) {
			if child.Quantity != 0 {
				items = append(items, child)
			}
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Prefab.ID < items[j].Prefab.ID })
	return items
}

func exactly(items []*world.Item, ingredients []string) bool {
	if len(items) != len(ingredients) {
		return false
	}
	for i, it := range items {
		if it.Prefab.ID != ingredients[i] {
			return false
		}
	}
	return true
}

func satisfy(items []*world.Item, ingredients []string) ([]*world.Item, bool) {
	used := make([]*world.Item, 0, len(ingredients))
	taken := make(map[*world.Item]bool, len(ingredients))
	for _, id := range ingredients {
		found := false
		for _, it := range items {
			if it.Prefab.ID == id && !taken[it] {
				taken[it] = true
				used = append(used, it)
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	return used, true
}

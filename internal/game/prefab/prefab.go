// Package prefab holds the read-only item templates and recipes the world is
// built from.
package prefab

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/parlor/internal/game/description"
)

// Unlimited marks a uses count with no finite limit.
const Unlimited = description.Unlimited

// SlotDef is an inventory slot an item of a prefab is created with.
type SlotDef struct {
	ID       string `yaml:"id"`
	Capacity int    `yaml:"capacity"`
}

// Prefab defines the static properties of an item kind.
type Prefab struct {
	ID                     string    `yaml:"id"`
	Name                   string    `yaml:"name"`
	PluralName             string    `yaml:"plural_name"`
	SingleContainingPhrase string    `yaml:"single_containing_phrase"`
	PluralContainingPhrase string    `yaml:"plural_containing_phrase"`
	Discreet               bool      `yaml:"discreet"`
	Size                   int       `yaml:"size"`
	Weight                 int       `yaml:"weight"`
	Usable                 bool      `yaml:"usable"`
	Verb                   string    `yaml:"verb"`
	Uses                   int       `yaml:"uses"`
	NextStageID            string    `yaml:"next_stage"`
	Equippable             bool      `yaml:"equippable"`
	EquipmentSlots         []string  `yaml:"equipment_slots"`
	CoveredEquipmentSlots  []string  `yaml:"covered_equipment_slots"`
	Inventory              []SlotDef `yaml:"inventory"`
	Preposition            string    `yaml:"preposition"`
	Description            string    `yaml:"description"`

	// NextStage is resolved from NextStageID by Registry.Link.
	NextStage *Prefab `yaml:"-"`
}

// UnmarshalYAML decodes a prefab, defaulting an omitted uses field to Unlimited.
func (p *Prefab) UnmarshalYAML(value *yaml.Node) error {
	type raw Prefab
	r := raw{Uses: Unlimited}
	if err := value.Decode(&r); err != nil {
		return err
	}
	*p = Prefab(r)
	return nil
}

// normalize upper-cases every identifier-like field so text matching is case-free.
func (p *Prefab) normalize() {
	p.ID = strings.ToUpper(strings.TrimSpace(p.ID))
	p.Name = strings.ToUpper(strings.TrimSpace(p.Name))
	p.PluralName = strings.ToUpper(strings.TrimSpace(p.PluralName))
	p.NextStageID = strings.ToUpper(strings.TrimSpace(p.NextStageID))
	p.Preposition = strings.ToLower(strings.TrimSpace(p.Preposition))
	for i := range p.EquipmentSlots {
		p.EquipmentSlots[i] = strings.ToUpper(strings.TrimSpace(p.EquipmentSlots[i]))
	}
	for i := range p.CoveredEquipmentSlots {
		p.CoveredEquipmentSlots[i] = strings.ToUpper(strings.TrimSpace(p.CoveredEquipmentSlots[i]))
	}
	for i := range p.Inventory {
		p.Inventory[i].ID = strings.ToUpper(strings.TrimSpace(p.Inventory[i].ID))
	}
	if p.PluralContainingPhrase == "" {
		p.PluralContainingPhrase = p.SingleContainingPhrase
	}
}

// Validate checks that the Prefab satisfies its invariants.
//
// Precondition: p is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (p *Prefab) Validate() error {
	var errs []error
	if p.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if p.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if p.SingleContainingPhrase == "" {
		errs = append(errs, errors.New("SingleContainingPhrase must not be empty"))
	}
	if p.Size < 0 {
		errs = append(errs, errors.New("Size must be >= 0"))
	}
	if p.Weight < 0 {
		errs = append(errs, errors.New("Weight must be >= 0"))
	}
	if p.Uses < Unlimited {
		errs = append(errs, fmt.Errorf("Uses must be >= 0 or %d; got %d", Unlimited, p.Uses))
	}
	seen := make(map[string]bool, len(p.Inventory))
	for i, s := range p.Inventory {
		if s.ID == "" {
			errs = append(errs, fmt.Errorf("inventory slot %d has no id", i+1))
			continue
		}
		if seen[s.ID] {
			errs = append(errs, fmt.Errorf("inventory slot %q is declared twice", s.ID))
		}
		seen[s.ID] = true
		if s.Capacity < 0 {
			errs = append(errs, fmt.Errorf("inventory slot %q capacity must be >= 0", s.ID))
		}
	}
	if len(p.Inventory) > 0 && p.Preposition == "" {
		errs = append(errs, errors.New("Preposition is required when the prefab has inventory slots"))
	}
	if p.Equippable && len(p.EquipmentSlots) == 0 {
		errs = append(errs, errors.New("EquipmentSlots is required when the prefab is equippable"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("prefab %q validation failed: %v", p.ID, errs)
	}
	return nil
}

// HasInventory reports whether items of this prefab can hold other items.
func (p *Prefab) HasInventory() bool {
	return len(p.Inventory) > 0
}

// Phrases returns how this prefab is written inside a description item list.
func (p *Prefab) Phrases() description.Phrases {
	return description.Phrases{Single: p.SingleContainingPhrase, Plural: p.PluralContainingPhrase}
}

// Matches reports whether the upper-cased text names this prefab by id, name or plural name.
func (p *Prefab) Matches(text string) bool {
	return text != "" && (text == p.ID || text == p.Name || (p.PluralName != "" && text == p.PluralName))
}

// FitsSlot reports whether the prefab can be equipped to the named equipment slot.
func (p *Prefab) FitsSlot(slot string) bool {
	for _, s := range p.EquipmentSlots {
		if s == slot {
			return true
		}
	}
	return false
}

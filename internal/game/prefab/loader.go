package prefab

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// contentFile is the on-disk layout of a prefab content file. A file may carry
// prefabs, recipes, or both.
type contentFile struct {
	Prefabs []*Prefab `yaml:"prefabs"`
	Recipes []*Recipe `yaml:"recipes"`
}

// LoadBytes parses data and adds its prefabs and recipes to r without linking.
func (r *Registry) LoadBytes(data []byte) error {
	var f contentFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing prefab content: %w", err)
	}
	for _, p := range f.Prefabs {
		if err := r.Register(p); err != nil {
			return err
		}
	}
	for _, rec := range f.Recipes {
		if err := r.AddRecipe(rec); err != nil {
			return err
		}
	}
	return nil
}

// LoadDir reads all *.yaml and *.yml files from dir in lexical order, registers
// their contents, and links the result.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns a linked Registry or the first encountered error.
func LoadDir(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadDir: cannot read directory %q: %w", dir, err)
	}
	r := NewRegistry()
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadDir: cannot read file %q: %w", path, err)
		}
		if err := r.LoadBytes(data); err != nil {
			return nil, fmt.Errorf("LoadDir: invalid content in %q: %w", path, err)
		}
	}
	if err := r.Link(); err != nil {
		return nil, fmt.Errorf("LoadDir: %w", err)
	}
	return r, nil
}

package testutil

import (
	"path/filepath"
	"testing"

	"github.com/cory-johannsen/parlor/internal/game/prefab"
	"github.com/cory-johannsen/parlor/internal/game/world"
)

// ContentDir returns the repository's shipped content directory.
func ContentDir(t *testing.T) string {
	t.Helper()
	return filepath.Join(RepoRoot(t), "content")
}

// LoadContent builds a world from the shipped content tree.
//
// Postcondition: Returns a World that passes CheckInvariants, or fails the test.
func LoadContent(t *testing.T) *world.World {
	t.Helper()
	dir := ContentDir(t)
	prefabs, err := prefab.LoadDir(filepath.Join(dir, "prefabs"))
	if err != nil {
		t.Fatalf("loading prefabs: %v", err)
	}
	c, err := world.LoadContentDir(dir, EquipmentSlots)
	if err != nil {
		t.Fatalf("loading content: %v", err)
	}
	w, err := world.Build(prefabs, c, nil)
	if err != nil {
		t.Fatalf("building world: %v", err)
	}
	if err := w.CheckInvariants(); err != nil {
		t.Fatalf("shipped content is inconsistent: %v", err)
	}
	return w
}

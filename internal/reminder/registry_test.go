package reminder

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileRegistryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	registry := NewFileRegistry(path)

	if ids, err := registry.All(); err != nil || len(ids) != 0 {
		t.Fatalf("fresh registry: ids=%v err=%v", ids, err)
	}

	for _, id := range []string{"sess-b", "sess-a", "sess-b"} { // duplicate add is idempotent
		if err := registry.Add(id); err != nil {
			t.Fatalf("Add(%s): %v", id, err)
		}
	}

	ids, err := registry.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(ids) != 2 || ids[0] != "sess-a" || ids[1] != "sess-b" {
		t.Errorf("All = %v, want [sess-a sess-b]", ids)
	}

	if err := registry.Remove("sess-a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := registry.Remove("never-there"); err != nil {
		t.Fatalf("Remove of absent id should be a no-op: %v", err)
	}

	ids, _ = registry.All()
	if len(ids) != 1 || ids[0] != "sess-b" {
		t.Errorf("after remove: %v", ids)
	}
}

func TestFileRegistrySurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")

	first := NewFileRegistry(path)
	if err := first.Add("sess-1"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// A new instance over the same file sees the persisted set.
	second := NewFileRegistry(path)
	ids, err := second.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(ids) != 1 || ids[0] != "sess-1" {
		t.Errorf("reopened registry = %v, want [sess-1]", ids)
	}
}

func TestFileRegistryClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	registry := NewFileRegistry(path)

	_ = registry.Add("sess-1")
	_ = registry.Add("sess-2")
	if err := registry.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if ids, _ := registry.All(); len(ids) != 0 {
		t.Errorf("after clear: %v", ids)
	}
}

func TestFileRegistryToleratesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	registry := NewFileRegistry(path)
	ids, err := registry.All()
	if err != nil {
		t.Fatalf("corrupt file must not fail reads: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("corrupt file should read as empty, got %v", ids)
	}
}

func TestMemoryRegistry(t *testing.T) {
	registry := NewMemoryRegistry()
	_ = registry.Add("sess-1")
	_ = registry.Add("sess-1")
	_ = registry.Add("sess-2")

	ids, _ := registry.All()
	if len(ids) != 2 {
		t.Errorf("All = %v, want two ids", ids)
	}

	_ = registry.Clear()
	if ids, _ := registry.All(); len(ids) != 0 {
		t.Errorf("after clear: %v", ids)
	}
}

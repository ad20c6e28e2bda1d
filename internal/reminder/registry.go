package reminder

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
)

// PendingRegistry tracks which session ids currently have reminder schedules
// on this device. It exists so CancelAll can reverse every schedule without
// enumerating the backend: it only ever knows what this process scheduled.
type PendingRegistry interface {
	Add(sessionID string) error    // idempotent set-add
	Remove(sessionID string) error // no-op when absent
	All() ([]string, error)
	Clear() error
}

// memoryRegistry is the in-memory PendingRegistry, also used as the test fake.
type memoryRegistry struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

// NewMemoryRegistry creates a registry that lives only as long as the process.
func NewMemoryRegistry() PendingRegistry {
	return &memoryRegistry{ids: make(map[string]struct{})}
}

func (r *memoryRegistry) Add(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids[sessionID] = struct{}{}
	return nil
}

func (r *memoryRegistry) Remove(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.ids, sessionID)
	return nil
}

func (r *memoryRegistry) All() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.ids))
	for id := range r.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *memoryRegistry) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = make(map[string]struct{})
	return nil
}

// fileRegistry persists the pending set as a JSON array so schedules survive
// a process restart and can still be bulk-cancelled.
type fileRegistry struct {
	mu   sync.Mutex
	path string
}

// NewFileRegistry creates a registry backed by a JSON file at path. The file
// is created on first Add.
func NewFileRegistry(path string) PendingRegistry {
	return &fileRegistry{path: path}
}

func (r *fileRegistry) Add(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids, err := r.load()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == sessionID {
			return nil
		}
	}
	return r.store(append(ids, sessionID))
}

func (r *fileRegistry) Remove(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids, err := r.load()
	if err != nil {
		return err
	}
	kept := ids[:0]
	for _, id := range ids {
		if id != sessionID {
			kept = append(kept, id)
		}
	}
	return r.store(kept)
}

func (r *fileRegistry) All() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

func (r *fileRegistry) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store(nil)
}

func (r *fileRegistry) load() ([]string, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read reminder registry: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		// A corrupt registry only costs stray schedules; start over.
		return nil, nil
	}
	return ids, nil
}

func (r *fileRegistry) store(ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	sort.Strings(ids)
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode reminder registry: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o600); err != nil {
		return fmt.Errorf("write reminder registry: %w", err)
	}
	return nil
}

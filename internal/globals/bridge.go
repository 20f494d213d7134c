package globals

import (
	"sync"

	"github.com/reqdeck/reqdeck/internal/vars"
)

// Backend is the persisted Global-variable collection the bridge mediates.
type Backend interface {
	List() ([]vars.Variable, error)
	Upsert(entry vars.Variable) error
}

// Bridge is the single access path to the shared Global collection. Every
// read and write from resolution and from scripts funnels through it, and a
// mutex serializes mutations so a concurrent lookup can never observe a
// half-updated record.
type Bridge struct {
	mu      sync.Mutex
	backend Backend
}

func NewBridge(backend Backend) *Bridge {
	return &Bridge{backend: backend}
}

// Get returns the variable's value only if it exists and is enabled.
// Matching is exact-string, case-sensitive; a duplicate key resolves to the
// shadowing (latest) entry.
func (b *Bridge) Get(key string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries, err := b.backend.List()
	if err != nil {
		return "", false
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Key == key {
			if !entries[i].Enabled {
				return "", false
			}
			return entries[i].Value, true
		}
	}
	return "", false
}

// Set updates the variable with this exact key or creates it. An update
// forces enabled=true and keeps the existing description unless a new one is
// supplied; a create uses the description as given (empty when nil).
func (b *Bridge) Set(key, value string, description *string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry := vars.Variable{
		Key:     key,
		Value:   value,
		Enabled: true,
		Source:  vars.SourceScript,
	}

	entries, err := b.backend.List()
	if err != nil {
		return err
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Key == key {
			entry.Description = entries[i].Description
			break
		}
	}
	if description != nil {
		entry.Description = *description
	}
	return b.backend.Upsert(entry)
}

// List exposes the full collection for snapshot building. The snapshot
// builder applies the enabled filter itself.
func (b *Bridge) List() ([]vars.Variable, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.backend.List()
}

package roster

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]Target)
	registryMu sync.RWMutex
)

// Register adds an import target to the registry.
// Panics if a target with the same key is already registered.
func Register(target Target) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[target.Key]; exists {
		panic(fmt.Sprintf("import target already registered: %s", target.Key))
	}

	registry[target.Key] = target
}

// Get returns an import target by key.
// Returns false if not found.
func Get(key string) (Target, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	target, ok := registry[key]
	return target, ok
}

// All returns all registered targets, sorted by key for consistent ordering.
func All() []Target {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Target, 0, len(registry))
	for _, target := range registry {
		result = append(result, target)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}

// Clear removes all registered targets.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Target)
}

package strategy

import (
	"fmt"
	"sort"
	"sync"
)

// Factory builds a strategy from its parameters. Factories validate the
// combination and return an error for internally inconsistent values (for
// example a fast period at or above the slow period).
type Factory func(Params) (Strategy, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a named strategy factory. It panics on duplicates; variants
// register themselves from init.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("strategy %q registered twice", name))
	}
	registry[name] = f
}

// New builds the named strategy with the given parameters.
func New(name string, p Params) (Strategy, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (registered: %v)", name, List())
	}
	return f(p)
}

// List returns the registered strategy names sorted alphabetically.
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

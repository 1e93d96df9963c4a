package media

import (
	"fmt"
	"slices"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Opener)
)

// Register makes an Opener available under name. Registering the same name
// twice replaces the earlier Opener.
func Register(name string, o Opener) {
	if o == nil {
		panic("media: Register opener is nil")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = o
}

// Lookup returns the Opener registered under name.
func Lookup(name string) (Opener, error) {
	registryMu.RLock()
	o, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("media: unknown decoder %q (available: %v)", name, Backends())
	}
	return o, nil
}

// Backends returns the sorted names of all registered Openers.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

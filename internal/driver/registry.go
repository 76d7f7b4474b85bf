package driver

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// registry maps primary names and aliases to backends. Keys are lowercase.
var registry = struct {
	sync.RWMutex
	primary map[string]Driver
	lookup  map[string]Driver
}{
	primary: make(map[string]Driver),
	lookup:  make(map[string]Driver),
}

// Register makes a backend available under its name and aliases. Backends
// call it from init:
//
//	func init() { driver.Register(&Driver{}) }
//
// Registering a name or alias twice panics.
func Register(d Driver) {
	registry.Lock()
	defer registry.Unlock()

	keys := append([]string{d.Name()}, d.Aliases()...)
	for _, key := range keys {
		key = strings.ToLower(key)
		if prev, taken := registry.lookup[key]; taken {
			panic(fmt.Sprintf("driver name %q already registered by %s", key, prev.Name()))
		}
		registry.lookup[key] = d
	}
	registry.primary[strings.ToLower(d.Name())] = d
}

// Get returns the backend registered under nameOrAlias, ignoring case and
// surrounding space.
func Get(nameOrAlias string) (Driver, error) {
	registry.RLock()
	defer registry.RUnlock()

	if d, ok := registry.lookup[strings.ToLower(strings.TrimSpace(nameOrAlias))]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("unknown database driver: %q (available: %s)",
		nameOrAlias, strings.Join(primaryNames(), ", "))
}

// Available returns the sorted primary names of all registered backends.
func Available() []string {
	registry.RLock()
	defer registry.RUnlock()
	return primaryNames()
}

func primaryNames() []string {
	names := make([]string, 0, len(registry.primary))
	for name := range registry.primary {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

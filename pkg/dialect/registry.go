package dialect

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Dialect registry
var (
	dialectsMu sync.RWMutex
	dialects   = make(map[string]*Dialect)
)

// ErrUnknownDialect is returned by Lookup for names nobody registered.
var ErrUnknownDialect = errors.New("unknown dialect")

// Get returns a dialect by name.
func Get(name string) (*Dialect, bool) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[strings.ToLower(name)]
	return d, ok
}

// Lookup returns a dialect by name or an error wrapping ErrUnknownDialect.
func Lookup(name string) (*Dialect, error) {
	if d, ok := Get(name); ok {
		return d, nil
	}
	return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownDialect, name, strings.Join(List(), ", "))
}

// Register registers a dialect in the global registry.
// Called by dialect implementations in their init() functions.
func Register(d *Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[strings.ToLower(d.Name)] = d
}

// List returns all registered dialect names (sorted).
func List() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package containers

import (
	"errors"
	"fmt"
)

// ReleaseFunc destroys a single resource.
type ReleaseFunc func() error

type arenaEntry struct {
	name    string
	release ReleaseFunc
}

/**
 * @brief ResourceArena owns a group of resources that live and die together.
 * Resources are released in the reverse order of their registration, so a
 * resource is always destroyed before the resources it was built from.
 */
type ResourceArena struct {
	name    string
	entries []arenaEntry
}

func NewResourceArena(name string) *ResourceArena {
	return &ResourceArena{name: name}
}

// Push registers the release function of a freshly created resource.
func (a *ResourceArena) Push(name string, release ReleaseFunc) {
	a.entries = append(a.entries, arenaEntry{name: name, release: release})
}

func (a *ResourceArena) Len() int {
	return len(a.entries)
}

// Names lists the registered resources in creation order.
func (a *ResourceArena) Names() []string {
	names := make([]string, len(a.entries))
	for i, e := range a.entries {
		names[i] = e.name
	}
	return names
}

// ReleaseAll releases every resource, newest first, and empties the arena.
// Every release runs even if an earlier one fails; the failures are joined.
func (a *ResourceArena) ReleaseAll() error {
	var errs []error
	for i := len(a.entries) - 1; i >= 0; i-- {
		e := a.entries[i]
		if e.release == nil {
			continue
		}
		if err := e.release(); err != nil {
			errs = append(errs, fmt.Errorf("arena %s: release %s: %w", a.name, e.name, err))
		}
	}
	a.entries = a.entries[:0]
	return errors.Join(errs...)
}

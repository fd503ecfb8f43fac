// Package flagset aggregates boolean votes from independent owners into one condition.
//
// A spinner that must stay visible while either a "loading" or a "bigplay" owner wants it is
// the typical use: the set is true while any owner holds its flag, and false only once every
// owner has released it.
package flagset

import (
	"fmt"
	"sync"
)

// MaxOwners is the number of distinct owners a FlagSet can track.
const MaxOwners = 64

// FlagSet is a named bitmask. Each owner occupies one stable bit for the lifetime of the set.
type FlagSet struct {
	mu    sync.Mutex
	bits  uint64
	index map[string]uint
}

// New returns an empty FlagSet.
func New() *FlagSet {
	return &FlagSet{index: make(map[string]uint)}
}

// SetFlag sets or clears the bit owned by owner, assigning the next free bit on first use.
// It panics when more than MaxOwners distinct owners are used.
func (f *FlagSet) SetFlag(owner string, value bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.index == nil {
		f.index = make(map[string]uint)
	}

	bit, ok := f.index[owner]
	if !ok {
		if len(f.index) >= MaxOwners {
			panic(fmt.Sprintf("flagset: more than %d owners", MaxOwners))
		}
		bit = uint(len(f.index))
		f.index[owner] = bit
	}

	if value {
		f.bits |= 1 << bit
	} else {
		f.bits &^= 1 << bit
	}
}

// IsSet reports whether any owner currently holds its flag.
func (f *FlagSet) IsSet() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bits != 0
}

// Holds reports whether owner currently holds its flag.
func (f *FlagSet) Holds(owner string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	bit, ok := f.index[owner]
	return ok && f.bits&(1<<bit) != 0
}

// Owners returns the number of owners that have ever voted.
func (f *FlagSet) Owners() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.index)
}

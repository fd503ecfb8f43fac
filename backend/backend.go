// Package backend holds the table of player backends and negotiates which of them plays a source.
package backend

import (
	"errors"
	"fmt"
	"sync"

	"github.com/minplayer/minplayer/event"
	"github.com/minplayer/minplayer/log"
	"github.com/minplayer/minplayer/media"
	"github.com/minplayer/minplayer/player"
	"github.com/minplayer/minplayer/sched"
	"github.com/samber/lo"
)

// ErrUnknownBackend is returned when an id names no registered backend.
var ErrUnknownBackend = errors.New("unknown backend")

// Factory creates a fresh driver for one player instance.
type Factory func() player.Driver

// Descriptor is the static description of a backend type.
type Descriptor struct {
	ID          string
	Name        string
	Description string

	// Priority must depend on the backend alone. 0 means the backend is never picked
	// by negotiation but can still be forced.
	Priority func() int

	// CanPlay must not have side effects. Capabilities it consults are probed up front.
	CanPlay func(f *media.File) bool

	New Factory
}

func (d *Descriptor) priority() int {
	if d.Priority == nil {
		return 0
	}
	return d.Priority()
}

func (d *Descriptor) canPlay(f *media.File) bool {
	return d.CanPlay != nil && d.CanPlay(f)
}

// Registry is the ordered table of backends. It implements media.Resolver.
type Registry struct {
	mu          sync.RWMutex
	descriptors []*Descriptor
}

// NewRegistry returns a registry holding descriptors in the given order.
func NewRegistry(descriptors ...*Descriptor) *Registry {
	r := &Registry{}
	for _, d := range descriptors {
		r.Register(d)
	}
	return r
}

// Register adds d. An id registered again is replaced and moves to the end.
func (r *Registry) Register(d *Descriptor) {
	if d == nil || d.ID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.descriptors = lo.Reject(r.descriptors, func(existing *Descriptor, _ int) bool {
		return existing.ID == d.ID
	})
	r.descriptors = append(r.descriptors, d)
}

// Lookup returns the backend registered as id.
func (r *Registry) Lookup(id string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Find(r.descriptors, func(d *Descriptor) bool {
		return d.ID == id
	})
}

// All returns the backends in registration order.
func (r *Registry) All() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]*Descriptor(nil), r.descriptors...)
}

// IDs returns the backend ids in registration order.
func (r *Registry) IDs() []string {
	return lo.Map(r.All(), func(d *Descriptor, _ int) string {
		return d.ID
	})
}

// SelectBackend returns the id of the highest priority backend that can play f.
// Ties go to the backend registered first. Backends with priority 0 are never selected.
func (r *Registry) SelectBackend(f *media.File) (string, bool) {
	var (
		best     *Descriptor
		bestPrio int
	)

	for _, d := range r.All() {
		prio := d.priority()
		if prio <= 0 || !d.canPlay(f) {
			continue
		}
		if best == nil || prio > bestPrio {
			best, bestPrio = d, prio
		}
	}

	if best == nil {
		return "", false
	}
	return best.ID, true
}

// BackendPriority returns the priority of id, 0 if it is not registered.
func (r *Registry) BackendPriority(id string) int {
	d, ok := r.Lookup(id)
	if !ok {
		return 0
	}
	return d.priority()
}

// Describe builds a descriptor for each raw candidate, resolved against this registry.
func (r *Registry) Describe(raws ...any) []*media.File {
	return media.List(raws, r)
}

// SelectBest returns the playable descriptor with the highest priority.
// Ties go to the earliest descriptor. It reports false when none is playable.
func (r *Registry) SelectBest(files []*media.File) (*media.File, bool) {
	var best *media.File

	for _, f := range files {
		if !f.Playable() {
			continue
		}
		if _, ok := r.Lookup(f.BackendID); !ok {
			log.Warnf("%s names unknown backend %q", f.Path, f.BackendID)
			continue
		}
		if best == nil || f.Priority > best.Priority {
			best = f
		}
	}

	return best, best != nil
}

// Instantiate creates the player for f on its backend.
func (r *Registry) Instantiate(f *media.File, events *event.Registry, s sched.Scheduler, opts player.Options) (*player.Base, error) {
	d, ok := r.Lookup(f.BackendID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, f.BackendID)
	}
	if d.New == nil {
		return nil, fmt.Errorf("backend %s: no factory", d.ID)
	}

	log.Infof("playing %s with %s", f.Path, d.ID)
	return player.New(events, s, f, d.New(), opts)
}

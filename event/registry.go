package event

import (
	"sync"

	"github.com/samber/lo"
)

// Queued is a binding waiting for a plugin that may not exist yet.
// An empty ID or Plugin matches any value of that dimension.
type Queued struct {
	ID      string
	Plugin  string
	Event   string
	Data    any
	Handler Handler

	applied map[uint64]struct{}
}

func (q *Queued) matches(p *Plugin) bool {
	return (q.ID == "" || q.ID == p.ID) && (q.Plugin == "" || q.Plugin == p.Name)
}

// Registry tracks live plugins and the deferred binding queue.
// Every player sharing a registry can find the others' plugins; separate registries
// are fully independent.
type Registry struct {
	mu      sync.Mutex
	serial  uint64
	plugins []*Plugin
	queue   []*Queued
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Get returns the live plugins with the given id and name. Empty arguments match anything.
func (r *Registry) Get(id, name string) []*Plugin {
	r.mu.Lock()
	defer r.mu.Unlock()

	return lo.Filter(r.plugins, func(p *Plugin, _ int) bool {
		return (id == "" || p.ID == id) && (name == "" || p.Name == name)
	})
}

// Plugins returns every live plugin in construction order.
func (r *Registry) Plugins() []*Plugin {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]*Plugin(nil), r.plugins...)
}

// AddQueue queues a binding for plugins constructed from now on. Each entry binds to a
// given plugin instance at most once. It returns false without an event name or handler.
func (r *Registry) AddQueue(q Queued) bool {
	if q.Event == "" || q.Handler == nil {
		return false
	}

	r.mu.Lock()
	q.applied = make(map[uint64]struct{})
	r.queue = append(r.queue, &q)
	r.mu.Unlock()

	return true
}

// When binds handler to event on every live plugin matching (id, name) and queues it for
// matching plugins constructed later.
func (r *Registry) When(id, name, event string, handler Handler) bool {
	if event == "" || handler == nil {
		return false
	}

	q := &Queued{ID: id, Plugin: name, Event: event, Handler: handler, applied: make(map[uint64]struct{})}

	r.mu.Lock()
	r.queue = append(r.queue, q)
	targets := lo.Filter(r.plugins, func(p *Plugin, _ int) bool {
		return q.matches(p)
	})
	for _, p := range targets {
		q.applied[p.serial] = struct{}{}
	}
	r.mu.Unlock()

	for _, p := range targets {
		p.BindData(event, nil, handler)
	}

	return true
}

// Pending returns the number of queued bindings.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.queue)
}

func (r *Registry) register(p *Plugin) {
	r.mu.Lock()
	if p.serial == 0 {
		r.serial++
		p.serial = r.serial
	}
	if !lo.Contains(r.plugins, p) {
		r.plugins = append(r.plugins, p)
	}

	var due []*Queued
	for _, q := range r.queue {
		if _, done := q.applied[p.serial]; done || !q.matches(p) {
			continue
		}
		q.applied[p.serial] = struct{}{}
		due = append(due, q)
	}
	r.mu.Unlock()

	// bind outside the lock, replayed handlers may look the registry up
	for _, q := range due {
		p.BindData(q.Event, q.Data, q.Handler)
	}
}

func (r *Registry) remove(p *Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.plugins = lo.Without(r.plugins, p)
}

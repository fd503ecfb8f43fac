// Package event implements the per-instance event bus every player component publishes on,
// together with the registry that lets consumers bind to components that do not exist yet.
package event

import (
	"time"

	"github.com/minplayer/minplayer/log"
	"github.com/minplayer/minplayer/sched"
	"github.com/samber/lo"
)

// UnbindRetryDelay is how long an Unbind issued while a trigger is delivering waits before retrying.
const UnbindRetryDelay = 10 * time.Millisecond

// State of a plugin instance.
type State int

const (
	Active State = iota
	Destroyed
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Destroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Event is what a handler receives.
type Event struct {
	// Name is the name the event was triggered with.
	Name string
	// Data is the trigger payload.
	Data any
	// Bound is the data given when the handler was bound.
	Bound any
	// Target is the plugin that triggered the event.
	Target *Plugin
}

// Handler receives events.
type Handler func(Event)

type subscription struct {
	matcher
	bound   any
	handler Handler
}

// Plugin is a named publish/subscribe hub owned by one player id.
//
// A plugin is driven from its scheduler: Bind, Trigger and Unbind must be called from the
// task queue the plugin was created on.
type Plugin struct {
	ID   string
	Name string

	// Debug traces every bind and trigger.
	Debug bool

	registry  *Registry
	scheduler sched.Scheduler
	serial    uint64

	subscriptions []*subscription
	triggered     map[string]any
	triggering    int
	state         State
	ready         bool
}

// New constructs a plugin and registers it on r, which applies every queued binding
// that targets it. A nil r gives a standalone plugin.
func New(r *Registry, s sched.Scheduler, id, name string) *Plugin {
	p := &Plugin{
		ID:        id,
		Name:      name,
		registry:  r,
		scheduler: s,
		triggered: make(map[string]any),
	}

	if r != nil {
		r.register(p)
	}

	return p
}

// State returns the current plugin state.
func (p *Plugin) State() State {
	return p.state
}

// Bind subscribes handler to name. See BindData.
func (p *Plugin) Bind(name string, handler Handler) bool {
	return p.BindData(name, nil, handler)
}

// BindData subscribes handler to name, passing bound along with every event.
// When name was already triggered the handler runs immediately with the last payload.
// It returns false and does nothing without a name or handler, or once destroyed.
func (p *Plugin) BindData(name string, bound any, handler Handler) bool {
	if name == "" || handler == nil || p.state == Destroyed {
		return false
	}

	if p.Debug {
		log.Debugf("%s:%s bind %s", p.ID, p.Name, name)
	}

	if data, ok := p.triggered[name]; ok {
		handler(Event{Name: name, Data: data, Bound: bound, Target: p})
		// the replayed handler may have destroyed us
		if p.state == Destroyed {
			return true
		}
	}

	p.subscriptions = append(p.subscriptions, &subscription{
		matcher: newMatcher(name),
		bound:   bound,
		handler: handler,
	})
	return true
}

// Trigger delivers data to every matching subscriber and records it for late subscribers.
func (p *Plugin) Trigger(name string, data any) {
	p.trigger(name, data, true)
}

// TriggerNoQueue delivers data without recording it, so later Binds do not see it.
func (p *Plugin) TriggerNoQueue(name string, data any) {
	p.trigger(name, data, false)
}

func (p *Plugin) trigger(name string, data any, queue bool) {
	if name == "" || p.state == Destroyed {
		return
	}

	if p.Debug {
		log.Debugf("%s:%s trigger %s %v", p.ID, p.Name, name, data)
	}

	if queue {
		p.triggered[name] = data
	}

	triggered := newMatcher(name)
	// handlers bound while delivering wait for the next trigger
	subscriptions := append([]*subscription(nil), p.subscriptions...)

	p.triggering++
	defer func() { p.triggering-- }()

	for _, s := range subscriptions {
		if p.state == Destroyed {
			return
		}
		if s.Match(triggered) {
			s.handler(Event{Name: name, Data: data, Bound: s.bound, Target: p})
		}
	}
}

// Unbind removes the subscribers of the given names, or every subscriber when called
// without names. While a trigger is delivering, the removal is retried after
// UnbindRetryDelay instead.
func (p *Plugin) Unbind(names ...string) {
	if p.state == Destroyed {
		return
	}

	if p.triggering > 0 && p.scheduler != nil {
		p.scheduler.AfterFunc(UnbindRetryDelay, func() {
			p.Unbind(names...)
		})
		return
	}

	if len(names) == 0 {
		p.subscriptions = nil
		return
	}

	p.subscriptions = lo.Reject(p.subscriptions, func(s *subscription, _ int) bool {
		return lo.Contains(names, s.name)
	})
}

// Ready marks the plugin ready and triggers "ready" with the plugin as payload.
func (p *Plugin) Ready() {
	if p.state == Destroyed {
		return
	}
	p.ready = true
	p.Trigger("ready", p)
}

// IsReady reports whether Ready has been called.
func (p *Plugin) IsReady() bool {
	return p.ready
}

// When binds handler to event on every plugin named name sharing this plugin's id,
// including ones constructed later.
func (p *Plugin) When(name, event string, handler Handler) bool {
	if p.registry == nil {
		return false
	}
	return p.registry.When(p.ID, name, event, handler)
}

// Destroy unbinds everything and unregisters the plugin. Later calls to Bind and
// Trigger are no-ops. Destroy is idempotent.
func (p *Plugin) Destroy() {
	if p.state == Destroyed {
		return
	}

	if p.Debug {
		log.Debugf("%s:%s destroy", p.ID, p.Name)
	}

	p.state = Destroyed
	p.subscriptions = nil
	p.triggered = make(map[string]any)

	if p.registry != nil {
		p.registry.remove(p)
	}
}

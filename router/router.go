// Package router demultiplexes a parsed event stream to typed and
// name-keyed handler sets.
//
// For one event, delivery order is: handlers registered for the event's
// tag in registration order, then (for CUSTOM events) handlers registered
// for that event's name, then any-handlers. A handler that returns an
// error or panics is reported through the router's error handler and
// never prevents delivery to subsequent handlers. No registration is
// invoked twice for the same event.
//
// Registrations changed during a dispatch take effect from the next
// dispatch; the in-flight dispatch iterates a snapshot.
package router

import (
	"fmt"
	"sync"

	"github.com/spetersoncode/fresco"
)

// Handler consumes one event.
type Handler func(fresco.Event) error

type regKind int

const (
	regTag regKind = iota
	regName
	regAny
)

type registration struct {
	id   int
	kind regKind
	tag  fresco.EventType
	name string
	fn   Handler
}

// Router dispatches events to handler sets. Safe for concurrent use,
// though the engine's cooperative model feeds it from one goroutine.
type Router struct {
	mu      sync.Mutex
	regs    []registration
	nextID  int
	onError fresco.ErrorHandler
}

// Option configures a Router.
type Option func(*Router)

// WithErrorHandler sets the side-channel receiving handler failures.
func WithErrorHandler(fn fresco.ErrorHandler) Option {
	return func(r *Router) {
		r.onError = fn
	}
}

// New creates a router.
func New(opts ...Option) *Router {
	r := &Router{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// On registers a handler for one event tag. The returned function
// removes exactly this registration; registering the same func twice
// yields two independent registrations.
func (r *Router) On(tag fresco.EventType, fn Handler) func() {
	return r.add(registration{kind: regTag, tag: tag, fn: fn})
}

// OnName registers a handler for CUSTOM events carrying the given name.
func (r *Router) OnName(name string, fn Handler) func() {
	return r.add(registration{kind: regName, name: name, fn: fn})
}

// OnAny registers a handler invoked for every event, after tag and name
// handlers.
func (r *Router) OnAny(fn Handler) func() {
	return r.add(registration{kind: regAny, fn: fn})
}

func (r *Router) add(reg registration) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	reg.id = r.nextID
	r.regs = append(r.regs, reg)
	id := reg.id
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i := range r.regs {
			if r.regs[i].id == id {
				r.regs = append(r.regs[:i], r.regs[i+1:]...)
				return
			}
		}
	}
}

// Dispatch delivers one event to all matching registrations.
func (r *Router) Dispatch(ev fresco.Event) {
	if ev == nil {
		return
	}
	r.mu.Lock()
	snapshot := make([]registration, len(r.regs))
	copy(snapshot, r.regs)
	r.mu.Unlock()

	var customName string
	custom, isCustom := ev.(*fresco.CustomEvent)
	if isCustom {
		customName = custom.Name
	}

	for _, reg := range snapshot {
		if reg.kind == regTag && reg.tag == ev.Type() {
			r.call(reg.fn, ev)
		}
	}
	if isCustom {
		for _, reg := range snapshot {
			if reg.kind == regName && reg.name == customName {
				r.call(reg.fn, ev)
			}
		}
	}
	for _, reg := range snapshot {
		if reg.kind == regAny {
			r.call(reg.fn, ev)
		}
	}
}

// Clear removes every registration atomically. Dispatch becomes a no-op
// until handlers are registered again.
func (r *Router) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.regs = nil
}

func (r *Router) call(fn Handler, ev fresco.Event) {
	defer func() {
		if rec := recover(); rec != nil {
			r.report(fmt.Errorf("handler panic: %v", rec), ev)
		}
	}()
	if err := fn(ev); err != nil {
		r.report(err, ev)
	}
}

func (r *Router) report(err error, ev fresco.Event) {
	r.mu.Lock()
	fn := r.onError
	r.mu.Unlock()
	if fn != nil {
		fn(err, string(ev.Type()))
	}
}

// Package engine coordinates surfaces: it consumes surface-description
// messages, tracks each surface's component table and lifecycle, and
// produces render trees for the host whenever the surfaces or the data
// model change.
//
// A surface is created the first time any message references its id,
// starts rendering once a begin-rendering message supplies a root
// component, and is removed by a delete-surface message. Every data
// model mutation rebuilds every rendering surface, not just the surface
// whose data changed; consistency here is deliberately coarse.
//
// Failures are recoverable and reported through the error handler. A
// disallowed component drops only its own subtree, and a message that
// matches no known variant is ignored.
package engine

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/spetersoncode/fresco"
	"github.com/spetersoncode/fresco/binding"
	"github.com/spetersoncode/fresco/registry"
	"github.com/spetersoncode/fresco/router"
	"github.com/spetersoncode/fresco/store"
)

// DefaultSurfaceID names the surface used when a message omits one.
const DefaultSurfaceID = "default"

type surface struct {
	id         string
	rootID     string
	catalogID  string
	rendering  bool
	components map[string]fresco.ComponentInstance
}

// Engine owns the per-surface state and drives rebuilds. All entry
// points are safe for concurrent use, though the intended model is a
// single goroutine feeding events in order.
type Engine struct {
	mu       sync.Mutex
	surfaces map[string]*surface

	store    *store.Store
	resolver *binding.Resolver
	registry *registry.Registry

	defaultSurface string
	messageName    string
	permissive     bool

	onRender  func(surfaceID string, tree *RenderNode)
	onDeleted func(surfaceID string)
	onError   fresco.ErrorHandler

	unsubscribe func()
}

// Option configures an Engine.
type Option func(*Engine)

// WithDefaultSurface sets the surface id used when messages omit one.
func WithDefaultSurface(id string) Option {
	return func(e *Engine) {
		e.defaultSurface = id
	}
}

// WithMessageName sets the CUSTOM event name carrying surface messages.
func WithMessageName(name string) Option {
	return func(e *Engine) {
		e.messageName = name
	}
}

// WithOnRender sets the callback invoked with a fresh render tree after
// each rebuild. The tree is nil when the surface's root is missing.
func WithOnRender(fn func(surfaceID string, tree *RenderNode)) Option {
	return func(e *Engine) {
		e.onRender = fn
	}
}

// WithOnSurfaceDeleted sets the callback fired when a delete-surface
// message removes a surface.
func WithOnSurfaceDeleted(fn func(surfaceID string)) Option {
	return func(e *Engine) {
		e.onDeleted = fn
	}
}

// WithErrorHandler sets the side channel for recoverable failures.
func WithErrorHandler(fn fresco.ErrorHandler) Option {
	return func(e *Engine) {
		e.onError = fn
	}
}

// WithPermissiveComponents renders component types the registry does
// not know instead of dropping them.
func WithPermissiveComponents() Option {
	return func(e *Engine) {
		e.permissive = true
	}
}

// New creates an engine over the given store and registry. A nil
// registry allows every component type. The engine subscribes to the
// store immediately; release the subscription with Close.
func New(s *store.Store, reg *registry.Registry, opts ...Option) *Engine {
	e := &Engine{
		surfaces:       make(map[string]*surface),
		store:          s,
		resolver:       binding.NewResolver(s),
		registry:       reg,
		defaultSurface: DefaultSurfaceID,
		messageName:    fresco.DefaultSurfaceMessageName,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.unsubscribe = s.Subscribe(func(store.Change) {
		e.rebuildAll()
	})
	return e
}

// Close releases the engine's store subscription. Surfaces and the
// store itself are left as they are.
func (e *Engine) Close() {
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
}

// Store returns the data model the engine renders from.
func (e *Engine) Store() *store.Store { return e.store }

// Attach registers the engine on a router so CUSTOM events carrying the
// configured message name feed it. The returned function detaches it.
func (e *Engine) Attach(r *router.Router) func() {
	return r.OnName(e.messageName, func(ev fresco.Event) error {
		e.ProcessEvent(ev)
		return nil
	})
}

// ProcessEvent feeds one stream event. Only CUSTOM events carrying the
// configured message name are consumed; everything else is ignored.
func (e *Engine) ProcessEvent(ev fresco.Event) {
	custom, ok := ev.(*fresco.CustomEvent)
	if !ok || custom.Name != e.messageName {
		return
	}
	msg, err := fresco.ParseSurfaceMessage(custom.Value)
	if err != nil {
		return
	}
	e.ProcessMessage(msg)
}

// ProcessRaw parses and feeds one raw surface-message payload.
// Unparseable payloads are ignored.
func (e *Engine) ProcessRaw(data []byte) {
	msg, err := fresco.ParseSurfaceMessage(data)
	if err != nil {
		return
	}
	e.ProcessMessage(msg)
}

// ProcessMessage applies one surface message.
func (e *Engine) ProcessMessage(msg fresco.SurfaceMessage) {
	switch m := msg.(type) {
	case *fresco.SurfaceUpdate:
		e.applySurfaceUpdate(m)
	case *fresco.DataModelUpdate:
		e.applyDataModelUpdate(m)
	case *fresco.BeginRendering:
		e.applyBeginRendering(m)
	case *fresco.DeleteSurface:
		e.applyDeleteSurface(m)
	}
}

func (e *Engine) applySurfaceUpdate(msg *fresco.SurfaceUpdate) {
	id := e.surfaceID(msg.SurfaceID)

	type violation struct {
		componentID string
		problems    []string
	}
	var violations []violation

	e.mu.Lock()
	sf := e.ensureSurfaceLocked(id)
	for _, inst := range msg.Components {
		if e.registry != nil && e.registry.IsAllowed(inst.Type) {
			if problems := e.registry.ValidateProps(inst.Type, inst.Props); len(problems) > 0 {
				violations = append(violations, violation{inst.ID, problems})
			}
		}
		sf.components[inst.ID] = inst
	}
	rendering := sf.rendering
	e.mu.Unlock()

	for _, v := range violations {
		e.reportError(
			fresco.NewPolicyError(strings.Join(v.problems, "; ")),
			fmt.Sprintf("surface %s component %s", id, v.componentID),
		)
	}
	if rendering {
		e.rebuildSurface(id)
	}
}

func (e *Engine) applyDataModelUpdate(msg *fresco.DataModelUpdate) {
	id := e.surfaceID(msg.SurfaceID)
	e.mu.Lock()
	e.ensureSurfaceLocked(id)
	e.mu.Unlock()

	// The store's global subscription rebuilds rendering surfaces.
	e.store.ApplyUpdate(msg.Path, msg.Contents)
}

func (e *Engine) applyBeginRendering(msg *fresco.BeginRendering) {
	id := e.surfaceID(msg.SurfaceID)
	e.mu.Lock()
	sf := e.ensureSurfaceLocked(id)
	if msg.CatalogID != "" {
		sf.catalogID = msg.CatalogID
	}
	flip := msg.Root != ""
	if flip {
		sf.rootID = msg.Root
		sf.rendering = true
	}
	e.mu.Unlock()

	if flip {
		e.rebuildSurface(id)
	}
}

func (e *Engine) applyDeleteSurface(msg *fresco.DeleteSurface) {
	id := e.surfaceID(msg.SurfaceID)
	e.mu.Lock()
	_, existed := e.surfaces[id]
	delete(e.surfaces, id)
	e.mu.Unlock()

	if existed && e.onDeleted != nil {
		e.onDeleted(id)
	}
}

// Reset removes every surface and clears the data model.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.surfaces = make(map[string]*surface)
	e.mu.Unlock()

	// With the surfaces already gone, the clear notification rebuilds
	// nothing.
	e.store.Clear()
}

// HasSurface reports whether the surface id is tracked.
func (e *Engine) HasSurface(surfaceID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.surfaces[surfaceID]
	return ok
}

// IsRendering reports whether the surface exists and is rendering.
func (e *Engine) IsRendering(surfaceID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	sf, ok := e.surfaces[surfaceID]
	return ok && sf.rendering
}

// SurfaceCatalog returns the catalog id a surface was asked to render
// with, when one was supplied.
func (e *Engine) SurfaceCatalog(surfaceID string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sf, ok := e.surfaces[surfaceID]
	if !ok || sf.catalogID == "" {
		return "", false
	}
	return sf.catalogID, true
}

// SurfaceIDs returns the tracked surface ids in sorted order.
func (e *Engine) SurfaceIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.surfaces))
	for id := range e.surfaces {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (e *Engine) surfaceID(id string) string {
	if id == "" {
		return e.defaultSurface
	}
	return id
}

func (e *Engine) ensureSurfaceLocked(id string) *surface {
	sf, ok := e.surfaces[id]
	if !ok {
		sf = &surface{id: id, components: make(map[string]fresco.ComponentInstance)}
		e.surfaces[id] = sf
	}
	return sf
}

func (e *Engine) rebuildAll() {
	e.mu.Lock()
	ids := make([]string, 0, len(e.surfaces))
	for id, sf := range e.surfaces {
		if sf.rendering {
			ids = append(ids, id)
		}
	}
	e.mu.Unlock()

	sort.Strings(ids)
	for _, id := range ids {
		e.rebuildSurface(id)
	}
}

func (e *Engine) rebuildSurface(id string) {
	tree := e.RenderTree(id)
	if e.onRender != nil {
		e.onRender(id, tree)
	}
}

func (e *Engine) reportError(err error, context string) {
	if e.onError != nil {
		e.onError(err, context)
	}
}

func (e *Engine) allowed(typeName string) bool {
	if e.permissive || e.registry == nil {
		return true
	}
	return e.registry.IsAllowed(typeName)
}

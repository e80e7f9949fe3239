// Package store provides the path-addressable reactive data model behind
// surface rendering.
//
// A Store owns a single tree rooted at a map. Every externally observable
// value is reachable by a slash-delimited path whose segments are object
// keys or resolved array indexes ("-" appends on write). Mutation always
// normalizes the path and creates intermediate maps as needed. Readers
// only ever see deep copies, never live aliases, so no external mutation
// can bypass change notification.
//
// Subscriptions are either global or path-scoped. A path-scoped listener
// at P fires for mutations at P and at any strict descendant of P, which
// gives coarse "any change under this node" observers; it never fires for
// ancestors or unrelated paths.
//
// A listener that mutates the same store does not run its mutation
// inline: the store queues it and drains the queue after the current
// notification pass, keeping per-mutation notification order intact.
// All methods serialize on one coarse lock.
package store

import (
	"sync"

	"github.com/spetersoncode/fresco"
)

// Origin says which side caused a mutation.
type Origin string

const (
	OriginServer Origin = "server"
	OriginClient Origin = "client"
)

// Change describes one mutation, delivered to listeners. Value and
// OldValue are deep copies; Value is nil for deletions.
type Change struct {
	Path     string
	Value    any
	OldValue any
	Origin   Origin
}

// Listener receives change notifications.
type Listener func(Change)

type listenerRecord struct {
	id   int
	path string // "" for global listeners
	fn   Listener
}

type pendingMutation struct {
	path   string
	value  any
	del    bool
	origin Origin
}

// Store is the reactive data model. The zero value is not usable; call
// New.
type Store struct {
	mu        sync.Mutex
	root      map[string]any
	listeners []listenerRecord
	nextID    int
	notifying bool
	queue     []pendingMutation
}

// New creates an empty store.
func New() *Store {
	return &Store{root: map[string]any{}}
}

// Get returns a deep copy of the value at path. The root path returns
// the whole tree. Missing paths return (nil, false).
func (s *Store) Get(path string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(path)
}

func (s *Store) get(path string) (any, bool) {
	segs := SplitPath(path)
	if len(segs) == 0 {
		return cloneValue(s.root), true
	}
	v, ok := Lookup(s.root, segs)
	if !ok {
		return nil, false
	}
	return cloneValue(v), true
}

// GetString returns the string at path.
func (s *Store) GetString(path string) (string, bool) {
	v, ok := s.Get(path)
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// GetNumber returns the number at path. JSON decoding produces float64;
// integer values written programmatically are converted.
func (s *Store) GetNumber(path string) (float64, bool) {
	v, ok := s.Get(path)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// GetBool returns the boolean at path.
func (s *Store) GetBool(path string) (bool, bool) {
	v, ok := s.Get(path)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// GetMap returns the map at path.
func (s *Store) GetMap(path string) (map[string]any, bool) {
	v, ok := s.Get(path)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// GetSlice returns the array at path.
func (s *Store) GetSlice(path string) ([]any, bool) {
	v, ok := s.Get(path)
	if !ok {
		return nil, false
	}
	items, ok := v.([]any)
	return items, ok
}

// Set writes value at path with client origin.
func (s *Store) Set(path string, value any) {
	s.SetWithOrigin(path, value, OriginClient)
}

// SetWithOrigin writes value at path and notifies listeners.
func (s *Store) SetWithOrigin(path string, value any, origin Origin) {
	s.mutate(pendingMutation{path: path, value: value, origin: origin})
}

// Delete removes the value at path with client origin.
func (s *Store) Delete(path string) {
	s.DeleteWithOrigin(path, OriginClient)
}

// DeleteWithOrigin removes the value at path and notifies listeners.
// Deleting the root clears the whole tree.
func (s *Store) DeleteWithOrigin(path string, origin Origin) {
	s.mutate(pendingMutation{path: path, del: true, origin: origin})
}

// ApplyUpdate writes server-pushed entries under an optional base path.
// Each top-level entry decodes recursively to a concrete value and
// becomes exactly one Set with server origin, so listeners see one
// notification per entry, not one per nested leaf.
func (s *Store) ApplyUpdate(base string, contents []fresco.DataEntry) {
	for _, entry := range contents {
		path := joinPath(base, entry.Key)
		s.SetWithOrigin(path, entry.Value.Decode(), OriginServer)
	}
}

func joinPath(base, key string) string {
	norm := NormalizePath(base)
	if norm == "/" {
		return "/" + key
	}
	return norm + "/" + key
}

// Subscribe registers a listener for every mutation. The returned
// function removes the registration.
func (s *Store) Subscribe(fn Listener) func() {
	return s.addListener("", fn)
}

// SubscribeToPath registers a listener for mutations at path and at any
// strict descendant of path.
func (s *Store) SubscribeToPath(path string, fn Listener) func() {
	return s.addListener(NormalizePath(path), fn)
}

func (s *Store) addListener(path string, fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listenerRecord{id: id, path: path, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i := range s.listeners {
			if s.listeners[i].id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Snapshot returns a deep copy of the whole tree.
func (s *Store) Snapshot() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneValue(s.root).(map[string]any)
}

// Clear resets the tree to empty and notifies as a root deletion.
func (s *Store) Clear() {
	s.DeleteWithOrigin("/", OriginClient)
}

// mutate applies one mutation, or queues it when a notification pass is
// already running on this store.
func (s *Store) mutate(m pendingMutation) {
	s.mu.Lock()
	if s.notifying {
		s.queue = append(s.queue, m)
		s.mu.Unlock()
		return
	}
	s.notifying = true
	change := s.apply(m)
	pending := []Change{change}

	for len(pending) > 0 {
		ch := pending[0]
		pending = pending[1:]
		targets := s.matching(ch.Path)
		s.mu.Unlock()
		for _, fn := range targets {
			fn(ch)
		}
		s.mu.Lock()
		for _, queued := range s.queue {
			pending = append(pending, s.apply(queued))
		}
		s.queue = nil
	}
	s.notifying = false
	s.mu.Unlock()
}

// apply performs the raw tree write and builds the Change. Caller holds
// the lock.
func (s *Store) apply(m pendingMutation) Change {
	norm := NormalizePath(m.path)
	segs := SplitPath(norm)

	var old any
	if v, ok := Lookup(s.root, segs); ok {
		old = cloneValue(v)
	}
	if len(segs) == 0 {
		old = cloneValue(s.root)
	}

	if m.del {
		if len(segs) == 0 {
			s.root = map[string]any{}
		} else {
			s.root = deleteIn(s.root, segs).(map[string]any)
		}
		return Change{Path: norm, Value: nil, OldValue: old, Origin: m.origin}
	}

	if len(segs) == 0 {
		// Root writes only accept a map; anything else would orphan the
		// tree invariant that the root is an object.
		if rootMap, ok := m.value.(map[string]any); ok {
			s.root = cloneValue(rootMap).(map[string]any)
		}
		return Change{Path: norm, Value: cloneValue(s.root), OldValue: old, Origin: m.origin}
	}

	s.root = setIn(s.root, segs, cloneValue(m.value)).(map[string]any)
	return Change{Path: norm, Value: cloneValue(m.value), OldValue: old, Origin: m.origin}
}

// matching snapshots the listeners that fire for a mutation at path:
// global listeners, the listener's exact path, and listeners at any
// strict ancestor of path. Caller holds the lock.
func (s *Store) matching(path string) []Listener {
	targets := make([]Listener, 0, len(s.listeners))
	for _, rec := range s.listeners {
		if rec.path == "" || rec.path == "/" || rec.path == path ||
			(len(path) > len(rec.path) && path[:len(rec.path)] == rec.path && path[len(rec.path)] == '/') {
			targets = append(targets, rec.fn)
		}
	}
	return targets
}

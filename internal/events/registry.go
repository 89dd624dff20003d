// Package events lets code outside the relay watch and filter packets and
// hear about session milestones.
package events

import (
	"sync"

	"github.com/google/uuid"

	"github.com/udisondev/tibiarelay/internal/packets"
)

// Observer sees one decoded packet and decides whether it is forwarded.
type Observer interface {
	Observe(p packets.Packet) bool
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(p packets.Packet) bool

func (f ObserverFunc) Observe(p packets.Packet) bool { return f(p) }

// TapContext is what a tap sees: the whole decrypted message before slicing.
type TapContext struct {
	SessionID uuid.UUID
	Direction packets.Direction
	Message   []byte
}

// Tap is invoked for every decrypted message regardless of type. Taps must
// not retain Message.
type Tap func(TapContext)

type key struct {
	dir packets.Direction
	tag packets.Type
}

// Registry holds at most one observer per (direction, tag) and any number of
// taps per direction.
type Registry struct {
	mu        sync.RWMutex
	observers map[key]Observer
	taps      map[packets.Direction][]Tap
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		observers: make(map[key]Observer),
		taps:      make(map[packets.Direction][]Tap),
	}
}

// Register sets the observer for a tag, replacing any previous one.
func (r *Registry) Register(dir packets.Direction, tag packets.Type, o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers[key{dir, tag}] = o
}

// Unregister removes the observer for a tag.
func (r *Registry) Unregister(dir packets.Direction, tag packets.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.observers, key{dir, tag})
}

// Observer returns the observer registered for a tag.
func (r *Registry) Observer(dir packets.Direction, tag packets.Type) (Observer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.observers[key{dir, tag}]
	return o, ok
}

// On registers a typed observer. Packets of the tag that are not a T are
// forwarded untouched.
func On[T packets.Packet](r *Registry, dir packets.Direction, tag packets.Type, fn func(T) bool) {
	r.Register(dir, tag, ObserverFunc(func(p packets.Packet) bool {
		v, ok := p.(T)
		if !ok {
			return true
		}
		return fn(v)
	}))
}

// AddTap adds a catch-all for one direction.
func (r *Registry) AddTap(dir packets.Direction, t Tap) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.taps[dir] = append(r.taps[dir], t)
}

// Tap runs every tap of the context's direction.
func (r *Registry) Tap(tc TapContext) {
	r.mu.RLock()
	taps := r.taps[tc.Direction]
	r.mu.RUnlock()
	for _, t := range taps {
		t(tc)
	}
}

// Dispatch runs the observer for p, if any. It reports whether p should be
// forwarded; without an observer it always is.
func (r *Registry) Dispatch(dir packets.Direction, p packets.Packet) bool {
	o, ok := r.Observer(dir, p.Type())
	if !ok {
		return true
	}
	return o.Observe(p)
}

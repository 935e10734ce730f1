// Package window models the shared container wallets are injected into: an
// ordered set of own properties, an optional prototype whose properties are
// visible to Get but never enumerated, and named event channels.
package window

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/event"
)

// Container is anything exposing enumerable own properties.
type Container interface {
	// OwnKeys returns the enumerable own property keys in definition order.
	OwnKeys() []string
	// Get reads a property; a failing getter surfaces as an error.
	Get(key string) (any, error)
}

// EventTarget registers listeners and dispatches events by name.
// Listeners are removed through the returned subscription.
type EventTarget interface {
	AddListener(name string, sink chan<- *Event) (event.Subscription, error)
	Dispatch(name string, ev *Event) error
}

// Host is the full container contract used by the connector and the bridge.
type Host interface {
	Container
	EventTarget
	HasOwn(key string) bool
	// SetIfAbsent defines key only if it is not an own property yet and reports whether it did.
	SetIfAbsent(key string, value any) bool
}

type Getter func() (any, error)

type property struct {
	value      any
	getter     Getter
	enumerable bool
}

var _ Host = (*Window)(nil)

type Window struct {
	lk    sync.RWMutex
	keys  []string
	props map[string]*property
	proto *Window

	feedLk sync.Mutex
	feeds  map[string]*event.Feed
}

func New() *Window {
	return &Window{
		props: make(map[string]*property),
		feeds: make(map[string]*event.Feed),
	}
}

// NewWithPrototype creates a window that inherits, but does not enumerate, the properties of proto.
func NewWithPrototype(proto *Window) *Window {
	w := New()
	w.proto = proto
	return w
}

func (w *Window) define(key string, p *property) {
	if _, ok := w.props[key]; !ok {
		w.keys = append(w.keys, key)
	}
	w.props[key] = p
}

// Set defines or overwrites an enumerable own property.
func (w *Window) Set(key string, value any) {
	w.lk.Lock()
	defer w.lk.Unlock()
	w.define(key, &property{value: value, enumerable: true})
}

// DefineGetter defines an enumerable own property computed on every read.
func (w *Window) DefineGetter(key string, getter Getter) {
	w.lk.Lock()
	defer w.lk.Unlock()
	w.define(key, &property{getter: getter, enumerable: true})
}

// DefineHidden defines a non enumerable own property.
func (w *Window) DefineHidden(key string, value any) {
	w.lk.Lock()
	defer w.lk.Unlock()
	w.define(key, &property{value: value})
}

func (w *Window) SetIfAbsent(key string, value any) bool {
	w.lk.Lock()
	defer w.lk.Unlock()
	if _, ok := w.props[key]; ok {
		return false
	}
	w.define(key, &property{value: value, enumerable: true})
	return true
}

func (w *Window) Delete(key string) {
	w.lk.Lock()
	defer w.lk.Unlock()
	if _, ok := w.props[key]; !ok {
		return
	}
	delete(w.props, key)
	for i, k := range w.keys {
		if k == key {
			w.keys = append(w.keys[:i], w.keys[i+1:]...)
			break
		}
	}
}

func (w *Window) HasOwn(key string) bool {
	w.lk.RLock()
	defer w.lk.RUnlock()
	_, ok := w.props[key]
	return ok
}

func (w *Window) OwnKeys() []string {
	w.lk.RLock()
	defer w.lk.RUnlock()
	keys := make([]string, 0, len(w.keys))
	for _, key := range w.keys {
		if w.props[key].enumerable {
			keys = append(keys, key)
		}
	}
	return keys
}

// Get looks key up on the window and then along its prototype chain.
// It returns nil without error for unknown keys.
func (w *Window) Get(key string) (any, error) {
	w.lk.RLock()
	p, ok := w.props[key]
	proto := w.proto
	w.lk.RUnlock()

	if !ok {
		if proto != nil {
			return proto.Get(key)
		}
		return nil, nil
	}
	if p.getter == nil {
		return p.value, nil
	}
	return callGetter(key, p.getter)
}

func callGetter(key string, getter Getter) (val any, err error) {
	defer func() {
		if r := recover(); r != nil {
			val, err = nil, fmt.Errorf("getter of %s panic: %v", key, r)
		}
	}()
	return getter()
}

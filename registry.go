// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package xrlayer

import (
	"io"
	"reflect"
	"slices"
	"sync"
)

// LayerHandler owns every layer of one or more TypeKeys. Handler[T] is the
// standard implementation; embedding applications may supply their own.
// A handler registered under several keys is called once per frame only if
// its dynamic type is comparable, as pointers are.
//
// All methods are called on the update goroutine.
type LayerHandler interface {
	CreateLayer(info LayerInfo)
	RemoveLayer(id LayerID)
	ModifyLayer(info LayerInfo)
	SetActiveLayer(info LayerInfo)
	// Update runs once per frame after all entries were dispatched.
	Update()
}

type registryOptions struct {
	onStarted []func(*Registry)
	onStopped []func()
}

// RegistryOption configures a Registry.
type RegistryOption func(*registryOptions)

// WithOnStarted adds a hook fired by Start. Hooks may Register handlers to
// override built-ins before the first Dispatch.
func WithOnStarted(fn func(*Registry)) RegistryOption {
	return func(o *registryOptions) { o.onStarted = append(o.onStarted, fn) }
}

// WithOnStopped adds a hook fired by Close after every handler was closed.
func WithOnStopped(fn func()) RegistryOption {
	return func(o *registryOptions) { o.onStopped = append(o.onStopped, fn) }
}

// Registry maps TypeKeys to handlers and routes per-frame change sets.
// One Registry belongs to one compositor session.
type Registry struct {
	mu       sync.RWMutex
	handlers map[TypeKey]LayerHandler
	opts     registryOptions
	started  bool
	closed   bool
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{handlers: make(map[TypeKey]LayerHandler)}
	for _, opt := range opts {
		opt(&r.opts)
	}
	return r
}

// Register installs h for key, replacing any previous handler. A nil h
// unregisters key.
func (r *Registry) Register(key TypeKey, h LayerHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h == nil {
		delete(r.handlers, key)
		return
	}
	r.handlers[key] = h
}

// Unregister removes the handler for key. It reports whether one was present.
func (r *Registry) Unregister(key TypeKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.handlers[key]
	delete(r.handlers, key)
	return ok
}

// Handler returns the handler registered for key.
func (r *Registry) Handler(key TypeKey) (LayerHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[key]
	return h, ok
}

// Keys returns the registered keys in ascending order.
func (r *Registry) Keys() []TypeKey {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]TypeKey, 0, len(r.handlers))
	for k := range r.handlers {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Start fires the started hooks once. Call it after the built-in handlers
// were registered.
func (r *Registry) Start() {
	r.mu.Lock()
	if r.started || r.closed {
		r.mu.Unlock()
		return
	}
	r.started = true
	hooks := r.opts.onStarted
	n := len(r.handlers)
	r.mu.Unlock()

	Logger().Info("xrlayer: registry started", "handlers", n)
	for _, fn := range hooks {
		fn(r)
	}
}

// Started reports whether Start was called.
func (r *Registry) Started() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.started
}

// distinct returns each registered handler once, ordered by its lowest key.
func (r *Registry) distinct() []LayerHandler {
	keys := r.Keys()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]LayerHandler, 0, len(keys))
	seen := make(map[LayerHandler]struct{}, len(keys))
	for _, k := range keys {
		h := r.handlers[k]
		// Non-comparable handlers cannot be map keys; each key counts as
		// its own handler.
		if reflect.TypeOf(h).Comparable() {
			if _, ok := seen[h]; ok {
				continue
			}
			seen[h] = struct{}{}
		}
		out = append(out, h)
	}
	return out
}

// Dispatch routes one frame of changes. Removals are broadcast to every
// handler; created, modified and active entries go to the handler of their
// Type. Entries with an unregistered Type or a nil Layer are skipped. Every
// handler's Update then runs exactly once.
func (r *Registry) Dispatch(c Changes) {
	if r.isClosed() {
		return
	}
	handlers := r.distinct()

	for _, id := range c.Removed {
		for _, h := range handlers {
			h.RemoveLayer(id)
		}
	}
	r.route(c.Created, LayerHandler.CreateLayer)
	r.route(c.Modified, LayerHandler.ModifyLayer)
	r.route(c.Active, LayerHandler.SetActiveLayer)

	for _, h := range handlers {
		h.Update()
	}
}

func (r *Registry) route(infos []LayerInfo, fn func(LayerHandler, LayerInfo)) {
	for _, info := range infos {
		if info.Layer == nil {
			continue
		}
		h, ok := r.Handler(info.Type)
		if !ok {
			continue
		}
		fn(h, info)
	}
}

// SetInitialState dispatches every known layer as created. Used when a
// session starts with layers already enabled.
func (r *Registry) SetInitialState(infos []LayerInfo) {
	r.Dispatch(Changes{Created: infos})
}

func (r *Registry) isClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

// Close closes every handler that implements io.Closer, clears the registry
// and fires the stopped hooks. It returns the first close error.
func (r *Registry) Close() error {
	handlers := r.distinct()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	clear(r.handlers)
	hooks := r.opts.onStopped
	r.mu.Unlock()

	var first error
	for _, h := range handlers {
		c, ok := h.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	Logger().Info("xrlayer: registry stopped", "handlers", len(handlers))
	for _, fn := range hooks {
		fn()
	}
	return first
}

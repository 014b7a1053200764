// Package registry maps gateway names to factories and memoizes the
// adapter instances they produce.
//
// Entries are kept in registration order. An adapter is constructed on the
// first Get for its name and cached until the entry is replaced,
// unregistered or cleared. Concurrent Get calls for the same entry invoke
// the factory at most once.
package registry

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"

	"github.com/oggyb/polysms/internal/logger"
	"github.com/oggyb/polysms/internal/sms"
)

// MetaConfig is the conventional meta key holding a gateway's vendor config.
const MetaConfig = "config"

var (
	// ErrInvalidArgument is returned for an empty name or a nil factory.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrGatewayNotFound is returned when no entry exists for a name.
	ErrGatewayNotFound = errors.New("gateway not found")
	// ErrInvalidFactory is returned when a factory yields no gateway.
	ErrInvalidFactory = errors.New("invalid gateway factory")
	// ErrNotInitialized is returned by Instance before Init was called.
	ErrNotInitialized = errors.New("registry not initialized")
)

// Factory builds a gateway. It receives the registry so it can read its
// own metadata (see Meta).
type Factory func(r *Registry) (sms.Gateway, error)

// Meta is per-entry metadata, conventionally holding MetaConfig.
type Meta map[string]any

// entry is one registration. Replacing an entry swaps the pointer, which
// also drops the cached instance held by the old entry.
type entry struct {
	factory Factory
	meta    Meta

	mu       sync.Mutex // serializes construction
	instance sms.Gateway
}

// Registry owns gateway factories and their cached instances.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
	}
}

// Register adds or replaces the entry for name. Replacing evicts any
// cached instance. A replaced entry keeps its position in Names.
func (r *Registry) Register(name string, factory Factory, meta Meta) error {
	if name == "" {
		return fmt.Errorf("register: gateway name must be non-empty: %w", ErrInvalidArgument)
	}
	if factory == nil {
		return fmt.Errorf("register: factory for %q must be callable: %w", name, ErrInvalidArgument)
	}

	e := &entry{factory: factory, meta: maps.Clone(meta)}
	if e.meta == nil {
		e.meta = Meta{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; !exists {
		r.order = append(r.order, name)
	}
	r.entries[name] = e
	return nil
}

// Unregister removes the factory, metadata and cached instance for name.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; !exists {
		return fmt.Errorf("cannot unregister %q: %w", name, ErrGatewayNotFound)
	}
	delete(r.entries, name)
	r.order = slices.DeleteFunc(r.order, func(n string) bool { return n == name })
	return nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Get returns the gateway for name, constructing and caching it on first use.
func (r *Registry) Get(name string) (sms.Gateway, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("gateway %q not registered: %w", name, ErrGatewayNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.instance != nil {
		return e.instance, nil
	}

	// The factory runs without the map lock so it can call back into Meta.
	gw, err := e.factory(r)
	if err != nil {
		return nil, fmt.Errorf("build gateway %q: %w", name, err)
	}
	if isNil(gw) {
		return nil, fmt.Errorf("factory for %q did not return a gateway: %w", name, ErrInvalidFactory)
	}
	if gw.Name() != name {
		l := logger.Component("registry")
		l.Warn().
			Str("registered", name).
			Str("reported", gw.Name()).
			Msg("gateway name does not match its registration")
	}

	e.instance = gw
	return gw, nil
}

// isNil also catches a nil pointer wrapped in the interface.
func isNil(gw sms.Gateway) bool {
	if gw == nil {
		return true
	}
	v := reflect.ValueOf(gw)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// Meta returns a copy of the metadata registered with name.
func (r *Registry) Meta(name string) (Meta, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("gateway %q not registered: %w", name, ErrGatewayNotFound)
	}
	return maps.Clone(e.meta), nil
}

// Names returns registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// All returns every gateway keyed by name, instantiating any not yet cached.
// The first construction failure aborts and is returned.
func (r *Registry) All() (map[string]sms.Gateway, error) {
	names := r.Names()
	out := make(map[string]sms.Gateway, len(names))
	for _, name := range names {
		gw, err := r.Get(name)
		if err != nil {
			// Unregistered between Names and Get; skip it.
			if errors.Is(err, ErrGatewayNotFound) && !r.Has(name) {
				continue
			}
			return nil, err
		}
		out[name] = gw
	}
	return out, nil
}

// Clear removes all entries and cached instances.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]*entry)
	r.order = nil
}

// ConfigOf reads the MetaConfig value for name as T.
func ConfigOf[T any](r *Registry, name string) (T, error) {
	var zero T
	meta, err := r.Meta(name)
	if err != nil {
		return zero, err
	}
	raw, ok := meta[MetaConfig]
	if !ok {
		return zero, fmt.Errorf("gateway %q has no %q meta: %w", name, MetaConfig, ErrInvalidArgument)
	}
	switch v := raw.(type) {
	case T:
		return v, nil
	case *T:
		if v != nil {
			return *v, nil
		}
	}
	return zero, fmt.Errorf("gateway %q meta %q has type %T: %w", name, MetaConfig, raw, ErrInvalidArgument)
}

var (
	defaultMu       sync.Mutex
	defaultRegistry *Registry
)

// Init creates the process-wide registry on first call and returns it.
// Prefer passing a *Registry explicitly; Init exists for hosts that need
// one shared instance without a composition root.
func Init() *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultRegistry == nil {
		defaultRegistry = New()
	}
	return defaultRegistry
}

// Instance returns the process-wide registry created by Init.
func Instance() (*Registry, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultRegistry == nil {
		return nil, fmt.Errorf("call registry.Init first: %w", ErrNotInitialized)
	}
	return defaultRegistry, nil
}

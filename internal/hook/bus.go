package hook

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"sync"
)

// Bus holds hook registrations and their per-name policies.
//
// Registration and execution may run concurrently: Execute works on a
// snapshot of the entries, so hooks may register or remove hooks while
// running without deadlocking.
type Bus struct {
	mu      sync.RWMutex
	hooks   map[string][]Entry
	configs map[string]Config
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{
		hooks:   make(map[string][]Entry),
		configs: make(map[string]Config),
	}
}

// Configure installs or replaces the policy for name. Switching a hook
// point from multi-entry to single-slot drops its existing entries.
func (b *Bus) Configure(name string, cfg Config) error {
	if cfg.ReturnMode == "" {
		cfg.ReturnMode = ReturnIgnore
	}
	if _, err := ParseReturnMode(string(cfg.ReturnMode)); err != nil {
		return fmt.Errorf("configure %q: %w", name, err)
	}
	for _, c := range cfg.StrictContracts {
		if !c.valid() {
			return fmt.Errorf("configure %q: contract %q has no interface: %w", name, c.name, ErrInvalidArgument)
		}
	}
	cfg.StrictContracts = slices.Clone(cfg.StrictContracts)

	b.mu.Lock()
	defer b.mu.Unlock()

	prev := b.configLocked(name)
	if prev.AllowMultiple && !cfg.AllowMultiple {
		delete(b.hooks, name)
	}
	b.configs[name] = cfg
	return nil
}

// Config returns the policy for name and whether it was configured.
func (b *Bus) Config(name string) (Config, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	cfg, ok := b.configs[name]
	if !ok {
		return DefaultConfig(), false
	}
	return cfg, true
}

func (b *Bus) configLocked(name string) Config {
	if cfg, ok := b.configs[name]; ok {
		return cfg
	}
	return DefaultConfig()
}

// Register adds target to name.
//
// The effective priority and contracts come from the options, falling
// back to the hook point's Config. Registering an identical target with
// identical contracts again is a no-op.
func (b *Bus) Register(name string, target any, opts ...RegisterOption) error {
	var o registerOptions
	for _, opt := range opts {
		opt(&o)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	cfg := b.configLocked(name)

	priority := cfg.DefaultPriority
	if o.priority != nil {
		priority = *o.priority
	}
	contracts := cfg.StrictContracts
	if o.contractsSet {
		contracts = o.contracts
	}

	if err := checkTarget(name, target, contracts); err != nil {
		return err
	}

	entries := b.hooks[name]
	if !cfg.AllowMultiple {
		entries = nil
	}
	for _, e := range entries {
		if identical(e.Target, target) && sameContracts(e.Contracts, contracts) {
			return nil
		}
	}

	entries = append(slices.Clone(entries), Entry{
		Target:    target,
		Priority:  priority,
		Contracts: slices.Clone(contracts),
	})
	// Stable: equal priorities keep registration order.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Priority > entries[j].Priority
	})
	b.hooks[name] = entries
	return nil
}

func checkTarget(name string, target any, contracts []Contract) error {
	if target == nil {
		return fmt.Errorf("register %q: nil target: %w", name, ErrHookRegistration)
	}
	for _, c := range contracts {
		if !c.valid() {
			return fmt.Errorf("register %q: contract %q has no interface: %w", name, c.name, ErrHookRegistration)
		}
	}

	switch t := target.(type) {
	case *Callback:
		if t == nil || t.fn == nil {
			return fmt.Errorf("register %q: callback has no function: %w", name, ErrHookRegistration)
		}
		if len(contracts) > 0 {
			return fmt.Errorf("register %q: callbacks cannot declare contracts %v: %w",
				name, contractNames(contracts), ErrHookRegistration)
		}
		return nil

	case *Deferred:
		if t == nil || t.build == nil {
			return fmt.Errorf("register %q: deferred target has no constructor: %w", name, ErrHookRegistration)
		}
		if t.typ.Kind() == reflect.Func {
			return fmt.Errorf("register %q: deferred targets must build instances, not %s: %w", name, t.typ, ErrHookRegistration)
		}
		for _, c := range contracts {
			if !c.implementedByType(t.typ) {
				return fmt.Errorf("register %q: deferred %s must implement %s: %w",
					name, t.typ, c.name, ErrHookRegistration)
			}
		}
		return nil
	}

	if reflect.TypeOf(target).Kind() == reflect.Func {
		return fmt.Errorf("register %q: wrap function targets with hook.Func: %w", name, ErrHookRegistration)
	}
	for _, c := range contracts {
		if !c.ImplementedBy(target) {
			return fmt.Errorf("register %q: %T must implement %s: %w", name, target, c.name, ErrHookRegistration)
		}
	}
	return nil
}

// Remove drops every entry of name whose target is identical to target.
func (b *Bus) Remove(name string, target any) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries, ok := b.hooks[name]
	if !ok {
		return
	}
	kept := slices.DeleteFunc(slices.Clone(entries), func(e Entry) bool {
		return identical(e.Target, target)
	})
	if len(kept) == 0 {
		delete(b.hooks, name)
		return
	}
	b.hooks[name] = kept
}

// HasHooks reports whether name has at least one entry.
func (b *Bus) HasHooks(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.hooks[name]) > 0
}

// Hooks returns a copy of name's entries in execution order.
func (b *Bus) Hooks(name string) ([]Entry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	entries := b.hooks[name]
	if len(entries) == 0 {
		return nil, fmt.Errorf("no hooks registered for %q: %w", name, ErrHookNotFound)
	}
	return slices.Clone(entries), nil
}

func (b *Bus) snapshot(name string) ([]Entry, Config) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.hooks[name]), b.configLocked(name)
}

// Execute runs name's entries in priority order with args.
//
// It returns nil when nothing is registered. On a single-slot hook point
// with ReturnSingle, the first invoked entry's value is returned;
// otherwise values are discarded. The first error aborts the chain.
func (b *Bus) Execute(ctx context.Context, name string, args ...any) (any, error) {
	entries, cfg := b.snapshot(name)
	if len(entries) == 0 {
		return nil, nil
	}

	for _, e := range entries {
		fn, err := resolve(name, e)
		if err != nil {
			return nil, err
		}
		if fn == nil {
			continue
		}

		value, err := fn(ctx, args...)
		if err != nil {
			return nil, fmt.Errorf("hook %q: %w", name, err)
		}
		if !cfg.AllowMultiple && cfg.ReturnMode == ReturnSingle {
			return value, nil
		}
	}
	return nil, nil
}

// ApplyFilters threads value through name's entries. Each entry receives
// the current value followed by args and returns its replacement. With no
// entries the value is returned unchanged.
func (b *Bus) ApplyFilters(ctx context.Context, name string, value any, args ...any) (any, error) {
	entries, _ := b.snapshot(name)

	for _, e := range entries {
		fn, err := resolve(name, e)
		if err != nil {
			return nil, err
		}
		if fn == nil {
			continue
		}

		value, err = fn(ctx, append([]any{value}, args...)...)
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", name, err)
		}
	}
	return value, nil
}

// DoAction runs every entry of name, discarding return values.
func (b *Bus) DoAction(ctx context.Context, name string, args ...any) error {
	entries, _ := b.snapshot(name)

	for _, e := range entries {
		fn, err := resolve(name, e)
		if err != nil {
			return err
		}
		if fn == nil {
			continue
		}
		if _, err := fn(ctx, args...); err != nil {
			return fmt.Errorf("action %q: %w", name, err)
		}
	}
	return nil
}

// AddFilter configures name as a single-slot filter and registers fn,
// replacing any previous filter. The returned Callback can be passed to
// Remove.
func (b *Bus) AddFilter(name string, fn CallbackFunc) (*Callback, error) {
	if err := b.Configure(name, FilterConfig()); err != nil {
		return nil, err
	}
	cb := Func(fn)
	if err := b.Register(name, cb); err != nil {
		return nil, err
	}
	return cb, nil
}

// AddAction configures name as a multi-entry action and registers fn.
func (b *Bus) AddAction(name string, fn CallbackFunc, opts ...RegisterOption) (*Callback, error) {
	if err := b.Configure(name, ActionConfig()); err != nil {
		return nil, err
	}
	cb := Func(fn)
	if err := b.Register(name, cb, opts...); err != nil {
		return nil, err
	}
	return cb, nil
}

// resolve turns an entry into an invocable. A nil function with a nil
// error means the entry is skipped.
func resolve(name string, e Entry) (CallbackFunc, error) {
	target := e.Target
	if d, ok := target.(*Deferred); ok {
		target = d.build()
	}

	if len(e.Contracts) > 0 {
		for _, c := range e.Contracts {
			if !c.ImplementedBy(target) {
				return nil, fmt.Errorf("hook %q: %T must implement %s: %w", name, target, c.name, ErrHookValidation)
			}
		}
	}

	var fn CallbackFunc
	switch t := target.(type) {
	case *Callback:
		if t != nil {
			fn = t.fn
		}
	case Handler:
		fn = t.Handle
	case Executor:
		fn = t.Execute
	}

	if fn == nil && len(e.Contracts) > 0 {
		return nil, fmt.Errorf("hook %q: %T implements %v but is not invocable: %w",
			name, target, contractNames(e.Contracts), ErrHookValidation)
	}
	return fn, nil
}

var (
	defaultMu  sync.Mutex
	defaultBus *Bus
)

// Init creates the process-wide bus on first call and returns it.
func Init() *Bus {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultBus == nil {
		defaultBus = New()
	}
	return defaultBus
}

// Instance returns the process-wide bus created by Init.
func Instance() (*Bus, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultBus == nil {
		return nil, fmt.Errorf("call hook.Init first: %w", ErrNotInitialized)
	}
	return defaultBus, nil
}

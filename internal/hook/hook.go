// Package hook is a name-keyed, priority-ordered callback bus.
//
// A hook point is either a filter, which threads a value through its
// entries, or an action, whose return values are discarded. Both run on
// the same registry; Configure decides per name whether several entries
// may coexist and whether Execute yields a value.
//
// Targets come in three shapes:
//
//   - *Callback, a function value wrapped by Func so it has an identity
//   - an instance implementing Handler or Executor
//   - *Deferred, a typed constructor invoked on every execution
//
// Contracts name capabilities (Go interfaces) an instance target must
// implement to be accepted on a hook point.
package hook

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrInvalidArgument is returned by Configure for an unknown return mode.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrHookRegistration is returned by Register for bad target shapes or
	// unmet contracts.
	ErrHookRegistration = errors.New("hook registration failed")
	// ErrHookValidation is returned by Execute when a resolved target
	// violates its declared contracts.
	ErrHookValidation = errors.New("hook validation failed")
	// ErrHookNotFound is returned by Hooks when nothing is registered.
	ErrHookNotFound = errors.New("hook not found")
	// ErrNotInitialized is returned by Instance before Init was called.
	ErrNotInitialized = errors.New("hook bus not initialized")
)

// ReturnMode decides what Execute yields for a hook point.
type ReturnMode string

const (
	// ReturnIgnore discards hook return values.
	ReturnIgnore ReturnMode = "ignore"
	// ReturnSingle yields the value of the single configured entry.
	ReturnSingle ReturnMode = "single"
)

// ParseReturnMode validates a textual return mode.
func ParseReturnMode(s string) (ReturnMode, error) {
	switch ReturnMode(s) {
	case ReturnIgnore, ReturnSingle:
		return ReturnMode(s), nil
	default:
		return "", fmt.Errorf("return mode %q: %w", s, ErrInvalidArgument)
	}
}

// CallbackFunc is the invocable shape every target resolves to.
type CallbackFunc func(ctx context.Context, args ...any) (any, error)

// Callback gives a function value a stable identity so it can be
// deduplicated and removed.
type Callback struct {
	fn CallbackFunc
}

// Func wraps fn as a registrable target.
func Func(fn CallbackFunc) *Callback {
	return &Callback{fn: fn}
}

// Call invokes the wrapped function.
func (c *Callback) Call(ctx context.Context, args ...any) (any, error) {
	return c.fn(ctx, args...)
}

// Handler is an instance target invoked through Handle.
type Handler interface {
	Handle(ctx context.Context, args ...any) (any, error)
}

// Executor is an instance target invoked through Execute.
type Executor interface {
	Execute(ctx context.Context, args ...any) (any, error)
}

// Deferred builds a fresh instance on every execution.
type Deferred struct {
	typ   reflect.Type
	build func() any
}

// Defer registers construction of a T for later. Contracts are checked
// against T at registration and against the built value at execution.
func Defer[T any](build func() T) *Deferred {
	d := &Deferred{typ: reflect.TypeFor[T]()}
	if build != nil {
		d.build = func() any { return build() }
	}
	return d
}

// Type reports the static type the deferred target produces.
func (d *Deferred) Type() reflect.Type { return d.typ }

// Contract is a named capability an instance target must implement.
type Contract struct {
	name  string
	iface reflect.Type
}

// ContractFor declares a contract backed by the interface type I.
// It panics if I is not an interface type.
func ContractFor[I any](name string) Contract {
	t := reflect.TypeFor[I]()
	if t.Kind() != reflect.Interface {
		panic(fmt.Sprintf("hook: contract %q must be an interface type, got %s", name, t))
	}
	return Contract{name: name, iface: t}
}

// Name returns the contract's name.
func (c Contract) Name() string { return c.name }

// ImplementedBy reports whether v's dynamic type satisfies the contract.
func (c Contract) ImplementedBy(v any) bool {
	if c.iface == nil || v == nil {
		return false
	}
	return reflect.TypeOf(v).Implements(c.iface)
}

func (c Contract) implementedByType(t reflect.Type) bool {
	return c.iface != nil && t != nil && t.Implements(c.iface)
}

func (c Contract) valid() bool { return c.iface != nil }

func (c Contract) String() string { return c.name }

// Entry is one registration on a hook point.
type Entry struct {
	Target    any
	Priority  int
	Contracts []Contract
}

// Config is the policy for one hook point.
type Config struct {
	AllowMultiple   bool
	DefaultPriority int
	// ReturnMode defaults to ReturnIgnore when empty.
	ReturnMode      ReturnMode
	StrictContracts []Contract
}

// DefaultConfig is applied to hook points that were never configured.
func DefaultConfig() Config {
	return Config{AllowMultiple: true, ReturnMode: ReturnIgnore}
}

// FilterConfig is the single-slot policy used by AddFilter.
func FilterConfig() Config {
	return Config{AllowMultiple: false, ReturnMode: ReturnSingle}
}

// ActionConfig is the multi-entry policy used by AddAction.
func ActionConfig() Config {
	return Config{AllowMultiple: true, ReturnMode: ReturnIgnore}
}

// RegisterOption customises a single registration.
type RegisterOption func(*registerOptions)

type registerOptions struct {
	priority     *int
	contracts    []Contract
	contractsSet bool
}

// WithPriority overrides the hook point's default priority.
func WithPriority(p int) RegisterOption {
	return func(o *registerOptions) { o.priority = &p }
}

// WithContracts overrides the hook point's strict contracts. Passing no
// contracts explicitly registers without any.
func WithContracts(contracts ...Contract) RegisterOption {
	return func(o *registerOptions) {
		o.contracts = contracts
		o.contractsSet = true
	}
}

// identical reports target identity: string equality for strings,
// pointer equality for pointers, == for other comparable values.
func identical(a, b any) (same bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	// Structs holding uncomparable interface values panic on ==.
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

func sameContracts(a, b []Contract) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].name != b[i].name || a[i].iface != b[i].iface {
			return false
		}
	}
	return true
}

func contractNames(cs []Contract) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.name
	}
	return out
}

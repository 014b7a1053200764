// Package manager is the dispatch façade over the gateway registry and the
// hook bus.
//
// A send runs the BeforeSmsSent filter, calls the gateway, normalizes any
// gateway failure into an sms.Result and finally fires the AfterSmsSent
// action. Action failures never replace the result; they are logged and
// handed to the optional action error handler.
package manager

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/rs/zerolog"

	"github.com/oggyb/polysms/internal/domain/message"
	"github.com/oggyb/polysms/internal/hook"
	"github.com/oggyb/polysms/internal/logger"
	"github.com/oggyb/polysms/internal/registry"
	"github.com/oggyb/polysms/internal/sms"
)

var (
	// ErrNoGatewaySelected is returned by Send when Use was never called.
	ErrNoGatewaySelected = errors.New("no gateway selected")
	// ErrInvalidMessage is returned when a nil envelope is sent.
	ErrInvalidMessage = errors.New("invalid message")
)

// ActionErrorHandler receives AfterSmsSent failures, including panics.
type ActionErrorHandler func(ctx context.Context, gateway string, err error)

// Option configures a Manager.
type Option func(*Manager)

// WithActionErrorHandler installs fn as the side channel for action failures.
func WithActionErrorHandler(fn ActionErrorHandler) Option {
	return func(m *Manager) { m.onActionError = fn }
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// Manager owns references to a registry and a hook bus.
type Manager struct {
	registry *registry.Registry
	bus      *hook.Bus

	log           zerolog.Logger
	onActionError ActionErrorHandler

	mu       sync.RWMutex
	selected string
}

// New creates a manager. A nil registry or bus is replaced by a fresh one.
func New(reg *registry.Registry, bus *hook.Bus, opts ...Option) *Manager {
	if reg == nil {
		reg = registry.New()
	}
	if bus == nil {
		bus = hook.New()
	}
	m := &Manager{
		registry: reg,
		bus:      bus,
		log:      logger.Component("manager"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Registry returns the underlying registry.
func (m *Manager) Registry() *registry.Registry { return m.registry }

// Bus returns the underlying hook bus.
func (m *Manager) Bus() *hook.Bus { return m.bus }

// Register forwards to the registry.
func (m *Manager) Register(name string, factory registry.Factory, meta registry.Meta) error {
	return m.registry.Register(name, factory, meta)
}

// Unregister forwards to the registry and clears the selection if it
// pointed at name.
func (m *Manager) Unregister(name string) error {
	if err := m.registry.Unregister(name); err != nil {
		return err
	}
	m.mu.Lock()
	if m.selected == name {
		m.selected = ""
	}
	m.mu.Unlock()
	return nil
}

// Names lists registered gateways in registration order.
func (m *Manager) Names() []string {
	return m.registry.Names()
}

// Gateway returns the named gateway wrapped so that its Send runs the full
// hook orchestration.
func (m *Manager) Gateway(name string) (sms.Gateway, error) {
	gw, err := m.registry.Get(name)
	if err != nil {
		return nil, err
	}
	return &dispatcher{m: m, gw: gw}, nil
}

// Use selects the gateway Send dispatches to.
func (m *Manager) Use(name string) error {
	if !m.registry.Has(name) {
		return fmt.Errorf("use %q: %w", name, registry.ErrGatewayNotFound)
	}
	m.mu.Lock()
	m.selected = name
	m.mu.Unlock()
	return nil
}

// Selected returns the gateway chosen with Use, or "".
func (m *Manager) Selected() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selected
}

// Send dispatches msg through the selected gateway.
//
// Gateway errors and panics are reported in the result, never returned.
// The returned error covers setup problems only: no selection, an unknown
// or unbuildable gateway, or a failing BeforeSmsSent filter.
func (m *Manager) Send(ctx context.Context, msg message.Envelope) (*sms.Result, error) {
	name := m.Selected()
	if name == "" {
		return nil, ErrNoGatewaySelected
	}
	gw, err := m.registry.Get(name)
	if err != nil {
		return nil, err
	}
	return m.dispatch(ctx, gw, msg)
}

// SendVia dispatches msg through the named gateway without changing the
// selection.
func (m *Manager) SendVia(ctx context.Context, name string, msg message.Envelope) (*sms.Result, error) {
	gw, err := m.registry.Get(name)
	if err != nil {
		return nil, err
	}
	return m.dispatch(ctx, gw, msg)
}

func (m *Manager) dispatch(ctx context.Context, gw sms.Gateway, msg message.Envelope) (*sms.Result, error) {
	if isNilEnvelope(msg) {
		return nil, fmt.Errorf("send via %q: nil envelope: %w", gw.Name(), ErrInvalidMessage)
	}
	name := gw.Name()

	filtered, err := m.bus.ApplyFilters(ctx, BeforeSmsSent, msg, name)
	if err != nil {
		return nil, err
	}
	env, ok := filtered.(message.Envelope)
	if !ok || isNilEnvelope(env) {
		return nil, fmt.Errorf("filter %q returned %T, want message.Envelope: %w",
			BeforeSmsSent, filtered, hook.ErrHookValidation)
	}
	// A replacement envelope keeps the caller's id.
	if orig := msg.Base(); env.Base() != orig {
		env.Base().ID = orig.ID
	}

	result := m.invoke(ctx, gw, env)
	m.notify(ctx, name, result, env)
	return result, nil
}

// isNilEnvelope reports a nil envelope, including a nil variant pointer
// whose promoted Base would dereference it.
func isNilEnvelope(env message.Envelope) bool {
	if env == nil {
		return true
	}
	if v := reflect.ValueOf(env); v.Kind() == reflect.Pointer && v.IsNil() {
		return true
	}
	return env.Base() == nil
}

// invoke calls the gateway and folds errors, panics and nil results into
// a failed result.
func (m *Manager) invoke(ctx context.Context, gw sms.Gateway, msg message.Envelope) (result *sms.Result) {
	name := gw.Name()
	l := logger.Ctx(ctx, "manager")

	defer func() {
		if r := recover(); r != nil {
			l.Error().
				Str("gateway", name).
				Interface("panic", r).
				Msg("gateway panicked during send")
			result = sms.Failed(name, fmt.Sprint(r))
		}
	}()

	res, err := gw.Send(ctx, msg)
	if err != nil {
		l.Warn().Err(err).Str("gateway", name).Msg("gateway send failed")
		return sms.Failed(name, err.Error())
	}
	if res == nil {
		return sms.Failed(name, "gateway returned no result")
	}
	if res.Gateway == "" {
		res.Gateway = name
	}
	return res
}

// notify fires AfterSmsSent. Failures go to the log and the action error
// handler; they never reach the caller.
func (m *Manager) notify(ctx context.Context, gateway string, result *sms.Result, msg message.Envelope) {
	err := m.runActions(ctx, result, msg)
	if err == nil {
		return
	}

	l := logger.Ctx(ctx, "manager")
	l.Error().Err(err).Str("gateway", gateway).Msg("after-send action failed")

	if m.onActionError != nil {
		m.onActionError(ctx, gateway, err)
	}
}

func (m *Manager) runActions(ctx context.Context, result *sms.Result, msg message.Envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action %q panicked: %v", AfterSmsSent, r)
		}
	}()
	return m.bus.DoAction(ctx, AfterSmsSent, result, msg)
}

// OnBeforeSmsSent installs target as the single BeforeSmsSent filter.
// Anything other than a *hook.Callback must implement BeforeSmsSentFilter.
func (m *Manager) OnBeforeSmsSent(target any) error {
	cfg := hook.FilterConfig()
	if _, isCallback := target.(*hook.Callback); !isCallback {
		cfg.StrictContracts = []hook.Contract{BeforeSmsSentContract}
	}
	if err := m.bus.Configure(BeforeSmsSent, cfg); err != nil {
		return err
	}
	return m.bus.Register(BeforeSmsSent, target)
}

// OnAfterSmsSent adds target to the AfterSmsSent action with priority.
func (m *Manager) OnAfterSmsSent(target any, priority int) error {
	if _, configured := m.bus.Config(AfterSmsSent); !configured {
		if err := m.bus.Configure(AfterSmsSent, hook.ActionConfig()); err != nil {
			return err
		}
	}
	return m.bus.Register(AfterSmsSent, target, hook.WithPriority(priority))
}

// Each calls fn for every registered gateway in registration order,
// instantiating gateways as needed. It stops at the first error.
func (m *Manager) Each(fn func(name string, gw sms.Gateway) error) error {
	for _, name := range m.registry.Names() {
		gw, err := m.Gateway(name)
		if err != nil {
			if errors.Is(err, registry.ErrGatewayNotFound) {
				continue
			}
			return err
		}
		if err := fn(name, gw); err != nil {
			return err
		}
	}
	return nil
}

// Filter returns the gateways for which keep reports true.
func (m *Manager) Filter(keep func(gw sms.Gateway) bool) (map[string]sms.Gateway, error) {
	all, err := m.all()
	if err != nil {
		return nil, err
	}
	out := make(map[string]sms.Gateway, len(all))
	for name, gw := range all {
		if keep(gw) {
			out[name] = gw
		}
	}
	return out, nil
}

// Map applies fn to every registered gateway.
func Map[T any](m *Manager, fn func(gw sms.Gateway) T) (map[string]T, error) {
	all, err := m.all()
	if err != nil {
		return nil, err
	}
	out := make(map[string]T, len(all))
	for name, gw := range all {
		out[name] = fn(gw)
	}
	return out, nil
}

func (m *Manager) all() (map[string]sms.Gateway, error) {
	raw, err := m.registry.All()
	if err != nil {
		return nil, err
	}
	out := make(map[string]sms.Gateway, len(raw))
	for name, gw := range raw {
		out[name] = &dispatcher{m: m, gw: gw}
	}
	return out, nil
}

// dispatcher is the hook-aware view of a gateway handed out by Gateway.
type dispatcher struct {
	m  *Manager
	gw sms.Gateway
}

func (d *dispatcher) Name() string       { return d.gw.Name() }
func (d *dispatcher) Config() sms.Config { return d.gw.Config() }

func (d *dispatcher) Send(ctx context.Context, msg message.Envelope) (*sms.Result, error) {
	return d.m.dispatch(ctx, d.gw, msg)
}

// Health delegates to the gateway when it supports health checks.
func (d *dispatcher) Health(ctx context.Context) error {
	if hc, ok := d.gw.(sms.HealthChecker); ok {
		return hc.Health(ctx)
	}
	return nil
}

// Unwrap returns the gateway without hook orchestration.
func (d *dispatcher) Unwrap() sms.Gateway { return d.gw }

// Unwrap returns the raw gateway behind a value returned by Gateway, or gw
// itself.
func Unwrap(gw sms.Gateway) sms.Gateway {
	if u, ok := gw.(interface{ Unwrap() sms.Gateway }); ok {
		return u.Unwrap()
	}
	return gw
}

var (
	_ sms.Gateway       = (*dispatcher)(nil)
	_ sms.HealthChecker = (*dispatcher)(nil)
)

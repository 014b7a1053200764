package hook

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// greeter is the capability used as a contract in these tests.
type greeter interface {
	Greet() string
}

var greeterContract = ContractFor[greeter]("greeter")

// greetingHandler implements both the contract and Handler.
type greetingHandler struct {
	id  string
	log *[]string
}

func (g *greetingHandler) Greet() string { return "hi " + g.id }

func (g *greetingHandler) Handle(_ context.Context, args ...any) (any, error) {
	*g.log = append(*g.log, g.id)
	if len(args) > 0 {
		return args[0], nil
	}
	return g.id, nil
}

// greetOnly implements the contract but is not invocable.
type greetOnly struct{}

func (greetOnly) Greet() string { return "hi" }

// executorHook is invoked through Execute.
type executorHook struct{ calls int }

func (e *executorHook) Execute(context.Context, ...any) (any, error) {
	e.calls++
	return "executed", nil
}

// appendTo returns a callback that records id into log.
func appendTo(log *[]string, id string) *Callback {
	return Func(func(context.Context, ...any) (any, error) {
		*log = append(*log, id)
		return id, nil
	})
}

// =============================================================================
// CONFIGURE
// =============================================================================

func TestConfigure_RejectsUnknownReturnMode(t *testing.T) {
	err := New().Configure("x", Config{ReturnMode: "all"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestConfigure_EmptyReturnModeDefaultsToIgnore(t *testing.T) {
	b := New()
	require.NoError(t, b.Configure("x", Config{AllowMultiple: true}))

	cfg, ok := b.Config("x")
	assert.True(t, ok)
	assert.Equal(t, ReturnIgnore, cfg.ReturnMode)
}

func TestConfigure_UnconfiguredUsesDefaults(t *testing.T) {
	cfg, ok := New().Config("never")
	assert.False(t, ok)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfigure_LatestWinsAndFlipToSingleDropsEntries(t *testing.T) {
	b := New()
	var log []string
	require.NoError(t, b.Register("x", appendTo(&log, "a")))
	require.NoError(t, b.Register("x", appendTo(&log, "b")))

	// Still multi: entries preserved, priority default updated.
	require.NoError(t, b.Configure("x", Config{AllowMultiple: true, DefaultPriority: 5}))
	entries, err := b.Hooks("x")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	require.NoError(t, b.Configure("x", FilterConfig()))
	assert.False(t, b.HasHooks("x"))
}

func TestParseReturnMode(t *testing.T) {
	m, err := ParseReturnMode("single")
	require.NoError(t, err)
	assert.Equal(t, ReturnSingle, m)

	_, err = ParseReturnMode("SINGLE")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

// =============================================================================
// REGISTER
// =============================================================================

func TestRegister_PriorityOrderingIsStable(t *testing.T) {
	b := New()
	var log []string
	require.NoError(t, b.Register("x", appendTo(&log, "low"), WithPriority(1)))
	require.NoError(t, b.Register("x", appendTo(&log, "first-mid"), WithPriority(5)))
	require.NoError(t, b.Register("x", appendTo(&log, "high"), WithPriority(10)))
	require.NoError(t, b.Register("x", appendTo(&log, "second-mid"), WithPriority(5)))

	_, err := b.Execute(context.Background(), "x")
	require.NoError(t, err)

	assert.Equal(t, []string{"high", "first-mid", "second-mid", "low"}, log)
}

func TestRegister_DefaultPriorityFromConfig(t *testing.T) {
	b := New()
	require.NoError(t, b.Configure("x", Config{AllowMultiple: true, DefaultPriority: 7}))
	require.NoError(t, b.Register("x", appendTo(new([]string), "a")))

	entries, err := b.Hooks("x")
	require.NoError(t, err)
	assert.Equal(t, 7, entries[0].Priority)
}

func TestRegister_DuplicateIsNoop(t *testing.T) {
	b := New()
	cb := appendTo(new([]string), "a")
	require.NoError(t, b.Register("x", cb))
	require.NoError(t, b.Register("x", cb))

	h := &greetingHandler{id: "g", log: new([]string)}
	require.NoError(t, b.Register("x", h, WithContracts(greeterContract)))
	require.NoError(t, b.Register("x", h, WithContracts(greeterContract)))

	entries, err := b.Hooks("x")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRegister_SameTargetDifferentContractsIsKept(t *testing.T) {
	b := New()
	h := &greetingHandler{id: "g", log: new([]string)}
	require.NoError(t, b.Register("x", h))
	require.NoError(t, b.Register("x", h, WithContracts(greeterContract)))

	entries, err := b.Hooks("x")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRegister_SingleSlotKeepsLatest(t *testing.T) {
	b := New()
	require.NoError(t, b.Configure("x", FilterConfig()))

	var log []string
	require.NoError(t, b.Register("x", appendTo(&log, "A")))
	require.NoError(t, b.Register("x", appendTo(&log, "B")))

	entries, err := b.Hooks("x")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	v, err := b.Execute(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "B", v)
	assert.Equal(t, []string{"B"}, log)
}

func TestRegister_ShapeErrors(t *testing.T) {
	b := New()

	assert.ErrorIs(t, b.Register("x", nil), ErrHookRegistration)
	assert.ErrorIs(t, b.Register("x", Func(nil)), ErrHookRegistration)
	assert.ErrorIs(t, b.Register("x", Defer[Handler](nil)), ErrHookRegistration)

	raw := func(context.Context, ...any) (any, error) { return nil, nil }
	assert.ErrorIs(t, b.Register("x", raw), ErrHookRegistration)
	assert.ErrorIs(t, b.Register("x", Defer(func() CallbackFunc { return raw })), ErrHookRegistration)

	assert.False(t, b.HasHooks("x"))
}

func TestRegister_CallbackCannotDeclareContracts(t *testing.T) {
	b := New()
	err := b.Register("x", appendTo(new([]string), "a"), WithContracts(greeterContract))
	assert.ErrorIs(t, err, ErrHookRegistration)

	// Strict contracts from the config apply too.
	require.NoError(t, b.Configure("y", Config{AllowMultiple: true, StrictContracts: []Contract{greeterContract}}))
	err = b.Register("y", appendTo(new([]string), "a"))
	assert.ErrorIs(t, err, ErrHookRegistration)

	// An explicit empty list overrides strict contracts.
	assert.NoError(t, b.Register("y", appendTo(new([]string), "a"), WithContracts()))
}

func TestRegister_InstanceMustImplementContracts(t *testing.T) {
	b := New()
	err := b.Register("x", &executorHook{}, WithContracts(greeterContract))
	assert.ErrorIs(t, err, ErrHookRegistration)

	assert.NoError(t, b.Register("x", &greetingHandler{id: "g", log: new([]string)}, WithContracts(greeterContract)))
}

func TestRegister_DeferredCheckedAgainstType(t *testing.T) {
	b := New()

	err := b.Register("x", Defer(func() *executorHook { return &executorHook{} }), WithContracts(greeterContract))
	assert.ErrorIs(t, err, ErrHookRegistration)

	err = b.Register("x", Defer(func() *greetingHandler {
		return &greetingHandler{id: "d", log: new([]string)}
	}), WithContracts(greeterContract))
	assert.NoError(t, err)
}

func TestContractFor_PanicsOnNonInterface(t *testing.T) {
	assert.Panics(t, func() { ContractFor[executorHook]("nope") })
}

func TestConfigure_RejectsZeroContract(t *testing.T) {
	err := New().Configure("x", Config{StrictContracts: []Contract{{}}})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

// =============================================================================
// REMOVE / QUERY
// =============================================================================

func TestRemove_ByIdentity(t *testing.T) {
	b := New()
	var log []string
	a := appendTo(&log, "a")
	c := appendTo(&log, "c")
	require.NoError(t, b.Register("x", a))
	require.NoError(t, b.Register("x", c))

	b.Remove("x", a)
	b.Remove("x", appendTo(&log, "a")) // different identity, no effect
	b.Remove("missing", a)             // no error

	entries, err := b.Hooks("x")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Same(t, c, entries[0].Target)

	b.Remove("x", c)
	assert.False(t, b.HasHooks("x"))
	_, err = b.Hooks("x")
	assert.ErrorIs(t, err, ErrHookNotFound)
}

// =============================================================================
// EXECUTE
// =============================================================================

func TestExecute_EmptyReturnsNil(t *testing.T) {
	v, err := New().Execute(context.Background(), "nothing", 1, 2)
	assert.NoError(t, err)
	assert.Nil(t, v)
}

func TestExecute_MultiDiscardsValues(t *testing.T) {
	b := New()
	var log []string
	require.NoError(t, b.Register("x", appendTo(&log, "a")))
	require.NoError(t, b.Register("x", appendTo(&log, "b")))

	v, err := b.Execute(context.Background(), "x")
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Equal(t, []string{"a", "b"}, log)
}

func TestExecute_ResolvesHandlerExecutorAndDeferred(t *testing.T) {
	b := New()
	var log []string
	exec := &executorHook{}
	built := 0

	require.NoError(t, b.Register("x", &greetingHandler{id: "handler", log: &log}, WithPriority(3)))
	require.NoError(t, b.Register("x", exec, WithPriority(2)))
	require.NoError(t, b.Register("x", Defer(func() *greetingHandler {
		built++
		return &greetingHandler{id: "deferred", log: &log}
	}), WithPriority(1)))

	for range 2 {
		_, err := b.Execute(context.Background(), "x")
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"handler", "deferred", "handler", "deferred"}, log)
	assert.Equal(t, 2, exec.calls)
	assert.Equal(t, 2, built)
}

func TestExecute_SkipsNonInvocableWithoutContracts(t *testing.T) {
	b := New()
	var log []string
	require.NoError(t, b.Register("x", greetOnly{}))
	require.NoError(t, b.Register("x", appendTo(&log, "a")))

	_, err := b.Execute(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, log)
}

func TestExecute_NonInvocableWithContractsFails(t *testing.T) {
	b := New()
	require.NoError(t, b.Register("x", greetOnly{}, WithContracts(greeterContract)))

	_, err := b.Execute(context.Background(), "x")
	assert.ErrorIs(t, err, ErrHookValidation)
}

func TestExecute_ErrorAbortsChain(t *testing.T) {
	b := New()
	var log []string
	boom := errors.New("boom")
	require.NoError(t, b.Register("x", Func(func(context.Context, ...any) (any, error) {
		return nil, boom
	}), WithPriority(10)))
	require.NoError(t, b.Register("x", appendTo(&log, "never")))

	_, err := b.Execute(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, log)
}

func TestExecute_PassesArgs(t *testing.T) {
	b := New()
	var got []any
	require.NoError(t, b.Register("x", Func(func(_ context.Context, args ...any) (any, error) {
		got = args
		return nil, nil
	})))

	_, err := b.Execute(context.Background(), "x", "msg", "gennet")
	require.NoError(t, err)
	assert.Equal(t, []any{"msg", "gennet"}, got)
}

// =============================================================================
// FILTERS / ACTIONS
// =============================================================================

func TestApplyFilters_AbsenceIsIdentity(t *testing.T) {
	v, err := New().ApplyFilters(context.Background(), "x", "value")
	require.NoError(t, err)
	assert.Equal(t, "value", v)
}

func TestApplyFilters_ThreadsValue(t *testing.T) {
	b := New()
	suffix := func(s string) *Callback {
		return Func(func(_ context.Context, args ...any) (any, error) {
			return args[0].(string) + s + args[1].(string), nil
		})
	}
	require.NoError(t, b.Register("x", suffix("-a"), WithPriority(2)))
	require.NoError(t, b.Register("x", suffix("-b"), WithPriority(1)))

	v, err := b.ApplyFilters(context.Background(), "x", "v", "!")
	require.NoError(t, err)
	assert.Equal(t, "v-a!-b!", v)
}

func TestAddFilter_ReplacesPrevious(t *testing.T) {
	b := New()
	_, err := b.AddFilter("x", func(_ context.Context, args ...any) (any, error) { return "first", nil })
	require.NoError(t, err)
	cb, err := b.AddFilter("x", func(_ context.Context, args ...any) (any, error) { return "second", nil })
	require.NoError(t, err)

	v, err := b.ApplyFilters(context.Background(), "x", "orig")
	require.NoError(t, err)
	assert.Equal(t, "second", v)

	b.Remove("x", cb)
	v, err = b.ApplyFilters(context.Background(), "x", "orig")
	require.NoError(t, err)
	assert.Equal(t, "orig", v)
}

func TestAddAction_RunsAllInPriorityOrder(t *testing.T) {
	b := New()
	var log []int
	record := func(id int) CallbackFunc {
		return func(context.Context, ...any) (any, error) {
			log = append(log, id)
			return nil, nil
		}
	}
	_, err := b.AddAction("x", record(1), WithPriority(1))
	require.NoError(t, err)
	_, err = b.AddAction("x", record(10), WithPriority(10))
	require.NoError(t, err)

	require.NoError(t, b.DoAction(context.Background(), "x"))
	assert.Equal(t, []int{10, 1}, log)
}

func TestDoAction_PropagatesError(t *testing.T) {
	b := New()
	boom := errors.New("boom")
	_, err := b.AddAction("x", func(context.Context, ...any) (any, error) { return nil, boom })
	require.NoError(t, err)

	assert.ErrorIs(t, b.DoAction(context.Background(), "x"), boom)
}

func TestExecute_HookMayRegisterWhileRunning(t *testing.T) {
	b := New()
	var log []string
	require.NoError(t, b.Register("x", Func(func(context.Context, ...any) (any, error) {
		return nil, b.Register("x", appendTo(&log, "late"))
	})))

	_, err := b.Execute(context.Background(), "x")
	require.NoError(t, err)
	assert.Empty(t, log)

	entries, err := b.Hooks("x")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestInitAndInstance(t *testing.T) {
	defaultMu.Lock()
	defaultBus = nil
	defaultMu.Unlock()

	_, err := Instance()
	assert.ErrorIs(t, err, ErrNotInitialized)

	b := Init()
	got, err := Instance()
	require.NoError(t, err)
	assert.Same(t, b, got)
}

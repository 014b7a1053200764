package registry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/polysms/internal/domain/message"
	"github.com/oggyb/polysms/internal/sms"
)

type fakeGateway struct {
	name string
}

func (g *fakeGateway) Name() string       { return g.name }
func (g *fakeGateway) Config() sms.Config { return sms.Config{DisplayName: g.name} }
func (g *fakeGateway) Send(context.Context, message.Envelope) (*sms.Result, error) {
	return sms.Succeeded(g.name, "ok"), nil
}

// countingFactory returns a factory that records how often it was invoked.
func countingFactory(name string, calls *int32) Factory {
	return func(*Registry) (sms.Gateway, error) {
		atomic.AddInt32(calls, 1)
		return &fakeGateway{name: name}, nil
	}
}

func TestRegister_InvalidArguments(t *testing.T) {
	r := New()

	err := r.Register("", countingFactory("x", new(int32)), nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	err = r.Register("gennet", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestGet_IsMemoized(t *testing.T) {
	r := New()
	var calls int32
	require.NoError(t, r.Register("gennet", countingFactory("gennet", &calls), nil))

	first, err := r.Get("gennet")
	require.NoError(t, err)
	second, err := r.Get("gennet")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGet_UnknownGateway(t *testing.T) {
	_, err := New().Get("none")
	assert.ErrorIs(t, err, ErrGatewayNotFound)
}

func TestGet_NilGatewayIsInvalidFactory(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("broken", func(*Registry) (sms.Gateway, error) { return nil, nil }, nil))

	_, err := r.Get("broken")
	assert.ErrorIs(t, err, ErrInvalidFactory)
}

func TestGet_TypedNilGatewayIsInvalidFactory(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("broken", func(*Registry) (sms.Gateway, error) {
		var gw *fakeGateway
		return gw, nil
	}, nil))

	assert.NotPanics(t, func() {
		_, err := r.Get("broken")
		assert.ErrorIs(t, err, ErrInvalidFactory)
	})
	assert.True(t, r.Has("broken"))
}

func TestGet_FactoryErrorPropagatesAndIsNotCached(t *testing.T) {
	r := New()
	boom := errors.New("boom")
	var calls int32
	require.NoError(t, r.Register("flaky", func(*Registry) (sms.Gateway, error) {
		atomic.AddInt32(&calls, 1)
		return nil, boom
	}, nil))

	_, err := r.Get("flaky")
	assert.ErrorIs(t, err, boom)
	_, err = r.Get("flaky")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestRegister_ReplaceEvictsCachedInstance(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("gennet", countingFactory("gennet", new(int32)), nil))
	first, err := r.Get("gennet")
	require.NoError(t, err)

	require.NoError(t, r.Register("gennet", countingFactory("gennet", new(int32)), nil))
	second, err := r.Get("gennet")
	require.NoError(t, err)

	assert.NotSame(t, first, second)
}

func TestUnregister(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("gennet", countingFactory("gennet", new(int32)), Meta{"k": "v"}))
	_, err := r.Get("gennet")
	require.NoError(t, err)

	require.NoError(t, r.Unregister("gennet"))

	assert.False(t, r.Has("gennet"))
	_, err = r.Get("gennet")
	assert.ErrorIs(t, err, ErrGatewayNotFound)
	_, err = r.Meta("gennet")
	assert.ErrorIs(t, err, ErrGatewayNotFound)
	assert.ErrorIs(t, r.Unregister("gennet"), ErrGatewayNotFound)
}

func TestRegisterUnregisterRegister_IsEquivalentToRegister(t *testing.T) {
	r := New()
	f := countingFactory("gennet", new(int32))
	meta := Meta{MetaConfig: "cfg"}

	require.NoError(t, r.Register("gennet", f, meta))
	require.NoError(t, r.Unregister("gennet"))
	require.NoError(t, r.Register("gennet", f, meta))

	assert.True(t, r.Has("gennet"))
	assert.Equal(t, []string{"gennet"}, r.Names())
	got, err := r.Meta("gennet")
	require.NoError(t, err)
	assert.Equal(t, meta, got)
}

func TestMeta_IsACopy(t *testing.T) {
	r := New()
	meta := Meta{MetaConfig: "original"}
	require.NoError(t, r.Register("gennet", countingFactory("gennet", new(int32)), meta))

	meta[MetaConfig] = "mutated by caller"
	got, err := r.Meta("gennet")
	require.NoError(t, err)
	got[MetaConfig] = "mutated by reader"

	again, err := r.Meta("gennet")
	require.NoError(t, err)
	assert.Equal(t, "original", again[MetaConfig])
}

func TestFactoryCanReadItsOwnMeta(t *testing.T) {
	type vendorConfig struct{ APIKey string }

	r := New()
	require.NoError(t, r.Register("gennet", func(reg *Registry) (sms.Gateway, error) {
		cfg, err := ConfigOf[vendorConfig](reg, "gennet")
		if err != nil {
			return nil, err
		}
		return &fakeGateway{name: "gennet-" + cfg.APIKey}, nil
	}, Meta{MetaConfig: vendorConfig{APIKey: "secret"}}))

	gw, err := r.Get("gennet")
	require.NoError(t, err)
	assert.Equal(t, "gennet-secret", gw.Name())
}

func TestConfigOf_Errors(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("a", countingFactory("a", new(int32)), nil))
	require.NoError(t, r.Register("b", countingFactory("b", new(int32)), Meta{MetaConfig: 42}))

	_, err := ConfigOf[string](r, "a")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = ConfigOf[string](r, "b")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = ConfigOf[string](r, "missing")
	assert.ErrorIs(t, err, ErrGatewayNotFound)
}

func TestNamesAndAll(t *testing.T) {
	r := New()
	var calls int32
	for _, n := range []string{"gennet", "webhook", "sns"} {
		require.NoError(t, r.Register(n, countingFactory(n, &calls), nil))
	}
	// Re-registering keeps the original position.
	require.NoError(t, r.Register("gennet", countingFactory("gennet", &calls), nil))

	assert.Equal(t, []string{"gennet", "webhook", "sns"}, r.Names())
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))

	all, err := r.All()
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "webhook", all["webhook"].Name())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClear(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("gennet", countingFactory("gennet", new(int32)), nil))

	r.Clear()

	assert.False(t, r.Has("gennet"))
	assert.Empty(t, r.Names())
}

func TestGet_ConcurrentCallsConstructOnce(t *testing.T) {
	r := New()
	var calls int32
	require.NoError(t, r.Register("gennet", countingFactory("gennet", &calls), nil))

	var wg sync.WaitGroup
	results := make([]sms.Gateway, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			gw, err := r.Get("gennet")
			if err == nil {
				results[i] = gw
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, gw := range results {
		assert.Same(t, results[0], gw)
	}
}

func TestInitAndInstance(t *testing.T) {
	defaultMu.Lock()
	defaultRegistry = nil
	defaultMu.Unlock()

	_, err := Instance()
	assert.ErrorIs(t, err, ErrNotInitialized)

	r := Init()
	assert.Same(t, r, Init())

	got, err := Instance()
	require.NoError(t, err)
	assert.Same(t, r, got)
}

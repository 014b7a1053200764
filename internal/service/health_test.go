package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/polysms/internal/domain/message"
	"github.com/oggyb/polysms/internal/manager"
	"github.com/oggyb/polysms/internal/registry"
	"github.com/oggyb/polysms/internal/sms"
)

type probeGateway struct {
	name   string
	health error
	delay  time.Duration
}

func (g *probeGateway) Name() string       { return g.name }
func (g *probeGateway) Config() sms.Config { return sms.Config{} }
func (g *probeGateway) Send(context.Context, message.Envelope) (*sms.Result, error) {
	return sms.Succeeded(g.name, "ok"), nil
}

func (g *probeGateway) Health(ctx context.Context) error {
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return g.health
}

// plainGateway has no health check.
type plainGateway struct{ name string }

func (g plainGateway) Name() string       { return g.name }
func (g plainGateway) Config() sms.Config { return sms.Config{} }
func (g plainGateway) Send(context.Context, message.Envelope) (*sms.Result, error) {
	return sms.Succeeded(g.name, "ok"), nil
}

func register(t *testing.T, m *manager.Manager, gw sms.Gateway) {
	t.Helper()
	require.NoError(t, m.Register(gw.Name(), func(*registry.Registry) (sms.Gateway, error) {
		return gw, nil
	}, nil))
}

func TestHealthCheck_ReportsEveryGatewayInOrder(t *testing.T) {
	m := manager.New(nil, nil)
	register(t, m, &probeGateway{name: "up"})
	register(t, m, &probeGateway{name: "down", health: errors.New("401 unauthorized")})
	register(t, m, plainGateway{name: "plain"})
	require.NoError(t, m.Register("broken", func(*registry.Registry) (sms.Gateway, error) {
		return nil, errors.New("missing api key")
	}, nil))

	var mu sync.Mutex
	observed := map[string]error{}
	s := NewHealthService(m, time.Second, 2, func(name string, _ time.Duration, err error) {
		mu.Lock()
		observed[name] = err
		mu.Unlock()
	})

	statuses := s.Check(context.Background())
	require.Len(t, statuses, 4)

	assert.Equal(t, "up", statuses[0].Name)
	assert.True(t, statuses[0].Healthy)
	assert.True(t, statuses[0].Supported)

	assert.Equal(t, "down", statuses[1].Name)
	assert.False(t, statuses[1].Healthy)
	assert.Equal(t, "401 unauthorized", statuses[1].Error)

	assert.Equal(t, "plain", statuses[2].Name)
	assert.True(t, statuses[2].Healthy)
	assert.False(t, statuses[2].Supported)

	assert.Equal(t, "broken", statuses[3].Name)
	assert.False(t, statuses[3].Healthy)
	assert.Contains(t, statuses[3].Error, "missing api key")

	assert.Len(t, observed, 3)
	assert.NoError(t, observed["up"])
	assert.Error(t, observed["down"])
	assert.Error(t, observed["broken"])
	assert.NotContains(t, observed, "plain")

	assert.Equal(t, statuses, s.Statuses())
}

func TestHealthCheck_TimesOutSlowGateway(t *testing.T) {
	m := manager.New(nil, nil)
	register(t, m, &probeGateway{name: "slow", delay: time.Second})

	s := NewHealthService(m, 20*time.Millisecond, 1, nil)
	statuses := s.Check(context.Background())

	require.Len(t, statuses, 1)
	assert.False(t, statuses[0].Healthy)
	assert.Contains(t, statuses[0].Error, "deadline exceeded")
}

func TestHealthProcessBatch_StoresStatuses(t *testing.T) {
	m := manager.New(nil, nil)
	register(t, m, &probeGateway{name: "up"})

	s := NewHealthService(m, time.Second, 1, nil)
	assert.Empty(t, s.Statuses())

	require.NoError(t, s.ProcessBatch(context.Background()))
	require.Len(t, s.Statuses(), 1)
	assert.True(t, s.Statuses()[0].Healthy)
}

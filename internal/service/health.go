package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/polysms/internal/logger"
	"github.com/oggyb/polysms/internal/manager"
	"github.com/oggyb/polysms/internal/sms"
)

// GatewaySource lists and builds gateways. *manager.Manager satisfies it.
type GatewaySource interface {
	Names() []string
	Gateway(name string) (sms.Gateway, error)
}

// GatewayStatus is the latest health check result of one gateway.
type GatewayStatus struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Supported bool      `json:"supported"`
	Error     string    `json:"error,omitempty"`
	LatencyMS int64     `json:"latencyMs"`
	CheckedAt time.Time `json:"checkedAt"`
}

// HealthObserver receives every completed check of a gateway that supports
// health checks.
type HealthObserver func(gateway string, took time.Duration, err error)

// HealthService probes gateways. ProcessBatch lets the scheduler drive it.
type HealthService interface {
	ProcessBatch(ctx context.Context) error
	Check(ctx context.Context) []GatewayStatus
	Statuses() []GatewayStatus
}

type healthService struct {
	source      GatewaySource
	timeout     time.Duration
	concurrency int
	observe     HealthObserver

	mu     sync.RWMutex
	latest []GatewayStatus
}

// NewHealthService creates a prober that checks at most concurrency
// gateways at a time, each bounded by timeout.
func NewHealthService(source GatewaySource, timeout time.Duration, concurrency int, observe HealthObserver) HealthService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &healthService{
		source:      source,
		timeout:     timeout,
		concurrency: concurrency,
		observe:     observe,
	}
}

// ProcessBatch runs one probe round and stores the result.
func (s *healthService) ProcessBatch(ctx context.Context) error {
	statuses := s.Check(ctx)

	unhealthy := 0
	for _, st := range statuses {
		if st.Supported && !st.Healthy {
			unhealthy++
		}
	}
	l := logger.Ctx(ctx, "health")
	l.Info().
		Int("gateways", len(statuses)).
		Int("unhealthy", unhealthy).
		Msg("health probe completed")

	return ctx.Err()
}

// Check probes every registered gateway concurrently and returns the
// statuses in registration order.
func (s *healthService) Check(ctx context.Context) []GatewayStatus {
	names := s.source.Names()
	statuses := make([]GatewayStatus, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, name := range names {
		g.Go(func() error {
			statuses[i] = s.probe(gctx, name)
			return nil
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	s.latest = statuses
	s.mu.Unlock()

	return statuses
}

// Statuses returns the result of the last Check.
func (s *healthService) Statuses() []GatewayStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]GatewayStatus, len(s.latest))
	copy(out, s.latest)
	return out
}

func (s *healthService) probe(ctx context.Context, name string) GatewayStatus {
	st := GatewayStatus{Name: name, CheckedAt: time.Now().UTC()}

	gw, err := s.source.Gateway(name)
	if err != nil {
		st.Supported = true
		st.Error = err.Error()
		s.report(name, 0, err)
		return st
	}

	hc, ok := manager.Unwrap(gw).(sms.HealthChecker)
	if !ok {
		// Nothing to probe; the gateway is assumed usable.
		st.Healthy = true
		return st
	}
	st.Supported = true

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err = hc.Health(ctx)
	took := time.Since(start)

	st.LatencyMS = took.Milliseconds()
	st.Healthy = err == nil
	if err != nil {
		st.Error = err.Error()
		l := logger.Ctx(ctx, "health")
		l.Warn().Err(err).Str("gateway", name).Msg("gateway unhealthy")
	}
	s.report(name, took, err)
	return st
}

func (s *healthService) report(name string, took time.Duration, err error) {
	if s.observe != nil {
		s.observe(name, took, err)
	}
}

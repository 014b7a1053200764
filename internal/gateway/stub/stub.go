// Package stub is a gateway for local development: it logs the message and
// reports success without contacting any vendor.
package stub

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oggyb/polysms/internal/domain/message"
	"github.com/oggyb/polysms/internal/logger"
	"github.com/oggyb/polysms/internal/registry"
	"github.com/oggyb/polysms/internal/sms"
)

// Name is the default registration name.
const Name = "stub"

// Config is the vendor configuration stored under registry.MetaConfig.
type Config struct {
	// Latency delays every send, honouring context cancellation.
	Latency time.Duration `yaml:"latency" json:"latency"`
	// FailRecipients always fail, for exercising error paths.
	FailRecipients []string `yaml:"fail_recipients" json:"failRecipients"`
}

// Gateway records every message it accepts.
type Gateway struct {
	name string
	cfg  Config

	mu   sync.Mutex
	sent []*message.Message
}

// New creates a stub gateway registered as name.
func New(name string, cfg Config) *Gateway {
	if name == "" {
		name = Name
	}
	return &Gateway{name: name, cfg: cfg}
}

// Factory builds the gateway from the Config registered under name. A
// missing config yields the zero Config.
func Factory(name string) registry.Factory {
	return func(r *registry.Registry) (sms.Gateway, error) {
		cfg, err := registry.ConfigOf[Config](r, name)
		if err != nil {
			meta, metaErr := r.Meta(name)
			if metaErr != nil {
				return nil, metaErr
			}
			if _, ok := meta[registry.MetaConfig]; ok {
				return nil, err
			}
		}
		return New(name, cfg), nil
	}
}

func (g *Gateway) Name() string { return g.name }

func (g *Gateway) Config() sms.Config {
	return sms.Config{
		DisplayName: "Stub",
		Description: "Logs messages locally and reports success.",
	}
}

func (g *Gateway) Send(ctx context.Context, env message.Envelope) (*sms.Result, error) {
	m := env.Base()

	if g.cfg.Latency > 0 {
		select {
		case <-time.After(g.cfg.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if slices.Contains(g.cfg.FailRecipients, m.To) {
		return sms.Failed(g.name, fmt.Sprintf("recipient %s is configured to fail", m.To)), nil
	}

	g.mu.Lock()
	g.sent = append(g.sent, m.Clone())
	g.mu.Unlock()

	id := uuid.NewString()
	l := logger.Ctx(ctx, "stub")
	l.Info().
		Str("gateway", g.name).
		Str("to", m.To).
		Str("sender_id", m.SenderID).
		Str("message_id", id).
		Msg("stub accepted message")

	res := sms.Succeeded(g.name, "Sms accepted by stub gateway.")
	res.MessageID = id
	return res, nil
}

// Health always succeeds.
func (g *Gateway) Health(context.Context) error { return nil }

// Sent returns copies of the accepted messages.
func (g *Gateway) Sent() []*message.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.sent)
}

var (
	_ sms.Gateway       = (*Gateway)(nil)
	_ sms.HealthChecker = (*Gateway)(nil)
)

// Package webhook is an adapter that posts messages to a webhook-style
// HTTP endpoint, such as an in-house relay or a test harness.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oggyb/polysms/internal/domain/message"
	"github.com/oggyb/polysms/internal/httpclient"
	"github.com/oggyb/polysms/internal/registry"
	"github.com/oggyb/polysms/internal/sms"
)

const (
	// Name is the default registration name.
	Name = "webhook"
	// DefaultAuthHeader carries the auth key when AuthHeader is empty.
	DefaultAuthHeader = "x-ins-auth-key"

	defaultSendTimeout   = 5 * time.Second
	defaultHealthTimeout = 2 * time.Second
)

var (
	// ErrMissingURL is returned by New without an endpoint.
	ErrMissingURL = errors.New("webhook: url is required")
	// ErrMissingMessageID is reported when the endpoint accepts a message
	// without returning its id.
	ErrMissingMessageID = errors.New("webhook response missing messageId")
)

// Config is the vendor configuration stored under registry.MetaConfig.
type Config struct {
	URL        string        `yaml:"url" json:"url"`
	AuthKey    string        `yaml:"auth_key" json:"authKey"`
	AuthHeader string        `yaml:"auth_header" json:"authHeader"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
}

// request is the JSON body posted to the endpoint.
type request struct {
	To      string `json:"to"`
	Content string `json:"content"`
	From    string `json:"from,omitempty"`
}

// response is the JSON body the endpoint answers with.
type response struct {
	Message   string `json:"message"`
	MessageID string `json:"messageId"`
}

// Gateway posts to a webhook endpoint.
type Gateway struct {
	name          string
	client        *httpclient.Client
	sendTimeout   time.Duration
	healthTimeout time.Duration
}

// New creates a webhook gateway registered as name.
func New(name string, cfg Config) (*Gateway, error) {
	if cfg.URL == "" {
		return nil, ErrMissingURL
	}
	if name == "" {
		name = Name
	}
	if cfg.AuthHeader == "" {
		cfg.AuthHeader = DefaultAuthHeader
	}
	sendTimeout := cfg.Timeout
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}

	headers := map[string]string{}
	if cfg.AuthKey != "" {
		headers[cfg.AuthHeader] = cfg.AuthKey
	}

	return &Gateway{
		name: name,
		client: httpclient.New(httpclient.Config{
			BaseURL: cfg.URL,
			Headers: headers,
			Timeout: sendTimeout,
		}),
		sendTimeout:   sendTimeout,
		healthTimeout: defaultHealthTimeout,
	}, nil
}

// Factory builds the gateway from the Config registered under name.
func Factory(name string) registry.Factory {
	return func(r *registry.Registry) (sms.Gateway, error) {
		cfg, err := registry.ConfigOf[Config](r, name)
		if err != nil {
			return nil, err
		}
		return New(name, cfg)
	}
}

func (g *Gateway) Name() string { return g.name }

func (g *Gateway) Config() sms.Config {
	return sms.Config{
		DisplayName: "Webhook",
		Description: "Posts messages as JSON to a configured HTTP endpoint.",
	}
}

// Send posts {to, content} and expects {messageId} back.
func (g *Gateway) Send(ctx context.Context, env message.Envelope) (*sms.Result, error) {
	// Keep individual requests bounded in time.
	ctx, cancel := httpclient.WithTimeout(ctx, g.sendTimeout)
	defer cancel()

	m := env.Base()
	resp, err := g.client.Post(ctx, "", request{To: m.To, Content: m.Content, From: m.SenderID}, httpclient.JSON)
	if err != nil {
		res := sms.Failed(g.name, fmt.Sprintf("webhook request failed: %v", err))
		if resp != nil {
			res.WithRaw(resp.Body)
		}
		return res, nil
	}

	var parsed response
	if err := resp.JSON(&parsed); err != nil {
		return sms.Failed(g.name, fmt.Sprintf("failed to parse webhook response: %v", err)).WithRaw(resp.Body), nil
	}
	if parsed.MessageID == "" {
		return sms.Failed(g.name, ErrMissingMessageID.Error()).WithRaw(resp.Body), nil
	}

	msg := parsed.Message
	if msg == "" {
		msg = "Accepted"
	}
	res := sms.Succeeded(g.name, msg).WithRaw(resp.Body)
	res.MessageID = parsed.MessageID
	return res, nil
}

// Health pings the endpoint with a short GET.
func (g *Gateway) Health(ctx context.Context) error {
	ctx, cancel := httpclient.WithTimeout(ctx, g.healthTimeout)
	defer cancel()

	if _, err := g.client.Get(ctx, "", nil); err != nil {
		return fmt.Errorf("health: %w", err)
	}
	return nil
}

var (
	_ sms.Gateway       = (*Gateway)(nil)
	_ sms.HealthChecker = (*Gateway)(nil)
)

// Package gennet is the adapter for the Gennet (gbarta) SMS API.
package gennet

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/oggyb/polysms/internal/domain/message"
	"github.com/oggyb/polysms/internal/httpclient"
	"github.com/oggyb/polysms/internal/logger"
	"github.com/oggyb/polysms/internal/registry"
	"github.com/oggyb/polysms/internal/sms"
)

const (
	// Name is the default registration name.
	Name = "gennet"
	// DefaultBaseURL is the production API root.
	DefaultBaseURL = "https://gbarta.gennet.com.bd/api/v1"
	// DefaultType is the message type sent when none is set.
	DefaultType = "text"

	successMessage = "Sms successfully submitted to gennet server."
)

// ErrMissingAPIKey is returned by New without an API key.
var ErrMissingAPIKey = errors.New("gennet: api key is required")

// Config is the vendor configuration stored under registry.MetaConfig.
type Config struct {
	APIKey    string        `yaml:"api_key" json:"apiKey"`
	BaseURL   string        `yaml:"base_url" json:"baseUrl"`
	// VerifySSL is off unless set; the vendor API has shipped self-signed certificates.
	VerifySSL bool          `yaml:"verify_ssl" json:"verifySsl"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// Message is the Gennet envelope variant. Type defaults to DefaultType.
type Message struct {
	message.Message
	Type string
}

// NewMessage builds a Gennet envelope. Gennet rejects messages without a
// sender id, so it is required here.
func NewMessage(senderID, to, content, typ string) (*Message, error) {
	if strings.TrimSpace(senderID) == "" {
		return nil, message.ErrEmptySender
	}
	base, err := message.New(to, content, message.WithSenderID(senderID))
	if err != nil {
		return nil, err
	}
	return &Message{Message: *base, Type: typ}, nil
}

// Gateway sends through the Gennet API.
type Gateway struct {
	name   string
	apiKey string
	client *httpclient.Client
}

// New builds a gateway registered as name.
func New(name string, cfg Config) (*Gateway, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if name == "" {
		name = Name
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Gateway{
		name:   name,
		apiKey: cfg.APIKey,
		client: httpclient.New(httpclient.Config{
			BaseURL:            cfg.BaseURL,
			InsecureSkipVerify: !cfg.VerifySSL,
			Timeout:            cfg.Timeout,
		}),
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
		DisplayName: "Gennet",
		Description: "Gennet gbarta bulk SMS API (Bangladesh).",
		LogoURL:     "https://gbarta.gennet.com.bd/favicon.ico",
	}
}

// Send posts the envelope to /smsapi. A response with "error": true is a
// failed result carrying the vendor body.
func (g *Gateway) Send(ctx context.Context, env message.Envelope) (*sms.Result, error) {
	base := env.Base()
	typ := base.GetString("type")
	if m, ok := env.(*Message); ok && m.Type != "" {
		typ = m.Type
	}
	if typ == "" {
		typ = DefaultType
	}
	if base.SenderID == "" {
		return sms.Failed(g.name, message.ErrEmptySender.Error()), nil
	}

	payload, err := g.payload(base, typ)
	if err != nil {
		return sms.Failed(g.name, err.Error()), nil
	}

	l := logger.Ctx(ctx, "gennet")
	resp, err := g.client.Post(ctx, "/smsapi", payload, httpclient.JSON)
	if err != nil {
		l.Warn().Err(err).Str("to", base.To).Msg("gennet request failed")
		res := sms.Failed(g.name, err.Error())
		if resp != nil {
			res.WithRaw(resp.Body)
		}
		return res, nil
	}

	if !gjson.ValidBytes(resp.Body) {
		return sms.Failed(g.name, httpclient.ErrInvalidJSON.Error()).WithRaw(resp.Body), nil
	}

	parsed := gjson.ParseBytes(resp.Body)
	if parsed.Get("error").Bool() {
		reason := parsed.Get("message").String()
		if reason == "" {
			reason = "Error"
		}
		return sms.Failed(g.name, reason).WithRaw(resp.Body), nil
	}

	res := sms.Succeeded(g.name, successMessage).WithRaw(resp.Body)
	for _, path := range []string{"message_id", "data.message_id", "data.request_id", "request_id"} {
		if id := parsed.Get(path); id.Exists() {
			res.MessageID = id.String()
			break
		}
	}
	l.Debug().Str("to", base.To).Str("message_id", res.MessageID).Msg("gennet accepted message")
	return res, nil
}

func (g *Gateway) payload(m *message.Message, typ string) ([]byte, error) {
	body := []byte(`{}`)
	fields := []struct {
		path  string
		value string
	}{
		{"api_key", g.apiKey},
		{"type", typ},
		{"senderid", m.SenderID},
		{"msg", m.Content},
		{"numbers", m.To},
	}
	var err error
	for _, f := range fields {
		if body, err = sjson.SetBytes(body, f.path, f.value); err != nil {
			return nil, err
		}
	}
	return body, nil
}

var _ sms.Gateway = (*Gateway)(nil)

// Package sms defines the contract every SMS gateway adapter satisfies
// and the normalized result it returns.
package sms

import (
	"context"
	"encoding/json"

	"github.com/oggyb/polysms/internal/domain/message"
)

// Gateway is the contract for an SMS vendor adapter.
type Gateway interface {
	// Name returns the stable identifier the gateway is registered under.
	Name() string

	// Config returns a descriptive record of the gateway. It must not do I/O.
	Config() Config

	// Send validates vendor fields, performs the outbound call and
	// normalizes the vendor response. Network and vendor failures are
	// reported as a Result with Success=false; a returned error is
	// normalized the same way by the manager.
	Send(ctx context.Context, msg message.Envelope) (*Result, error)
}

// HealthChecker is implemented by gateways that can cheaply verify the
// vendor endpoint is reachable and usable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Config describes a gateway for listings and discovery.
type Config struct {
	DisplayName string `json:"displayName" yaml:"display_name"`
	Description string `json:"description" yaml:"description"`
	LogoURL     string `json:"logoUrl" yaml:"logo_url"`
}

// Result is the normalized outcome of a single send.
type Result struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Errors    []string        `json:"errors,omitempty"`
	Gateway   string          `json:"gateway,omitempty"`
	MessageID string          `json:"messageId,omitempty"`
	Raw       json.RawMessage `json:"gatewayResponse,omitempty"`
}

// Succeeded builds a successful result.
func Succeeded(gateway, msg string) *Result {
	return &Result{Success: true, Message: msg, Gateway: gateway}
}

// Failed builds a failed result. Extra error details are appended to Errors.
func Failed(gateway, msg string, details ...string) *Result {
	r := &Result{Success: false, Message: msg, Gateway: gateway}
	if len(details) > 0 {
		r.Errors = append(r.Errors, details...)
	}
	return r
}

// WithRaw attaches the raw vendor response to the result.
func (r *Result) WithRaw(raw []byte) *Result {
	if len(raw) == 0 {
		return r
	}
	if json.Valid(raw) {
		r.Raw = json.RawMessage(raw)
		return r
	}
	// Keep non-JSON bodies readable as a JSON string.
	quoted, _ := json.Marshal(string(raw))
	r.Raw = quoted
	return r
}

// Package request holds the JSON bodies accepted by the API.
package request

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/oggyb/polysms/internal/domain/message"
)

// SendRequest is the body of POST /sms.
type SendRequest struct {
	// Gateway is optional; the configured default is used when empty.
	Gateway  string         `json:"gateway,omitempty" example:"gennet"`
	To       string         `json:"to" example:"+8801700000000"`
	Message  string         `json:"message" example:"Your code is 1234"`
	SenderID string         `json:"senderId,omitempty" example:"POLYSMS"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// Envelope validates the request and builds the message.
func (r SendRequest) Envelope() (*message.Message, error) {
	opts := []message.Option{message.WithSenderID(r.SenderID)}
	for k, v := range r.Extra {
		opts = append(opts, message.WithExtra(k, v))
	}
	return message.New(r.To, r.Message, opts...)
}

// BulkMessage is one entry of a bulk request.
type BulkMessage struct {
	To       string         `json:"to"`
	Message  string         `json:"message"`
	SenderID string         `json:"senderId,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// BulkRequest is the body of POST /sms/bulk. Every message goes through
// the same gateway.
type BulkRequest struct {
	Gateway  string        `json:"gateway,omitempty"`
	Messages []BulkMessage `json:"messages"`
}

// Envelopes validates every message and reports all invalid entries.
func (r BulkRequest) Envelopes() ([]message.Envelope, error) {
	out := make([]message.Envelope, 0, len(r.Messages))
	var errs error
	for i, m := range r.Messages {
		env, err := SendRequest{To: m.To, Message: m.Message, SenderID: m.SenderID, Extra: m.Extra}.Envelope()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("messages[%d]: %w", i, err))
			continue
		}
		out = append(out, env)
	}
	if errs != nil {
		return nil, errs
	}
	return out, nil
}

// SchedulerRequest controls the health probe scheduler.
type SchedulerRequest struct {
	// Action is "start" or "stop".
	Action string `json:"action" example:"start"`
}

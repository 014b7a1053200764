// Package message holds the envelope model for outgoing SMS messages.
package message

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// MaxContentLength is the maximum allowed length for message content,
	// counted in characters.
	// It matches the longest concatenated body most vendors accept.
	MaxContentLength = 1600
)

var (
	// ErrEmptyRecipient is returned when no recipient phone number is provided.
	ErrEmptyRecipient = errors.New("recipient phone number is required")
	// ErrEmptyContent is returned when the message body is empty.
	ErrEmptyContent = errors.New("message content is required")
	// ErrContentTooLong is returned when the message body exceeds MaxContentLength.
	ErrContentTooLong = errors.New("message content exceeds maximum length")
	// ErrEmptySender is returned by variants that require a sender id.
	ErrEmptySender = errors.New("sender id is required")
)

// Envelope is implemented by every message shape a gateway accepts.
// Vendor variants embed Message and add their own typed fields; adapters
// type-switch on the variant and fall back to Base for the common fields.
type Envelope interface {
	Base() *Message
}

// Message is the common envelope of one outgoing SMS.
//
// Required fields are validated once by New. Fields may be mutated
// afterwards (e.g. by a filter hook) and are not re-validated.
type Message struct {
	ID        uuid.UUID
	SenderID  string
	To        string
	Content   string
	Extra     map[string]any
	CreatedAt time.Time
}

// Option customises a Message at construction time.
type Option func(*Message)

// WithSenderID sets the sender id (mask or originating number).
func WithSenderID(id string) Option {
	return func(m *Message) { m.SenderID = strings.TrimSpace(id) }
}

// WithExtra stores vendor specific fields that have no typed home.
func WithExtra(key string, value any) Option {
	return func(m *Message) { m.Set(key, value) }
}

// New constructs a Message and enforces the required fields.
func New(to, content string, opts ...Option) (*Message, error) {
	to = strings.TrimSpace(to)
	content = strings.TrimSpace(content)

	if to == "" {
		return nil, ErrEmptyRecipient
	}
	if content == "" {
		return nil, ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return nil, ErrContentTooLong
	}

	m := &Message{
		ID:        uuid.New(),
		To:        to,
		Content:   content,
		CreatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// FromMap builds a Message from a loose record such as a decoded JSON body.
// Known keys fill the typed fields; everything else lands in Extra.
func FromMap(data map[string]any) (*Message, error) {
	var to, content, sender string
	extra := make(map[string]any)

	for k, v := range data {
		switch k {
		case "to":
			to = stringOf(v)
		case "message", "content":
			content = stringOf(v)
		case "senderId", "sender_id":
			sender = stringOf(v)
		default:
			extra[k] = v
		}
	}

	m, err := New(to, content, WithSenderID(sender))
	if err != nil {
		return nil, err
	}
	if len(extra) > 0 {
		m.Extra = extra
	}
	return m, nil
}

// Base implements Envelope.
func (m *Message) Base() *Message { return m }

// Get returns an extra field, or nil when it is absent.
func (m *Message) Get(key string) any {
	if m.Extra == nil {
		return nil
	}
	return m.Extra[key]
}

// GetString returns an extra field as a string, or "" when absent.
func (m *Message) GetString(key string) string {
	return stringOf(m.Get(key))
}

// Set stores an extra field.
func (m *Message) Set(key string, value any) {
	if m.Extra == nil {
		m.Extra = make(map[string]any)
	}
	m.Extra[key] = value
}

// Clone returns a copy whose Extra map can be mutated independently.
func (m *Message) Clone() *Message {
	c := *m
	if m.Extra != nil {
		c.Extra = maps.Clone(m.Extra)
	}
	return &c
}

// Map flattens the message into a record: set typed fields first,
// then the extras. Empty typed fields are omitted.
func (m *Message) Map() map[string]any {
	out := map[string]any{
		"id":      m.ID.String(),
		"to":      m.To,
		"message": m.Content,
	}
	if m.SenderID != "" {
		out["senderId"] = m.SenderID
	}
	for k, v := range m.Extra {
		out[k] = v
	}
	return out
}

func stringOf(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}

package cache

import (
	"fmt"
	"strings"
)

type Prefix string

const (
	// SentMessages holds the result of a send keyed by the envelope id.
	SentMessages Prefix = "polysms:sent"
	// GatewayDaily counts sends per gateway, outcome and UTC day.
	GatewayDaily Prefix = "polysms:daily"
)

// Key joins the prefix and the parts with ":".
func (p Prefix) Key(parts ...string) string {
	return fmt.Sprintf("%s:%s", p, strings.Join(parts, ":"))
}

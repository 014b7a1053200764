// Package gateway holds gateway definitions: the persisted description of
// which vendor driver to register under which name and with what settings.
package gateway

import (
	"context"
	"errors"
	"maps"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a definition does not exist.
	ErrNotFound = errors.New("gateway definition not found")
	// ErrInvalidName is returned for empty or malformed names.
	ErrInvalidName = errors.New("gateway name must match [a-z0-9][a-z0-9_-]*")
	// ErrEmptyDriver is returned when no driver is set.
	ErrEmptyDriver = errors.New("gateway driver is required")
)

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Definition describes one registry entry.
type Definition struct {
	Name        string         `yaml:"name" json:"name"`
	Driver      string         `yaml:"driver" json:"driver"`
	Enabled     bool           `yaml:"enabled" json:"enabled"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Settings    map[string]any `yaml:"settings" json:"settings"`
	CreatedAt   time.Time      `yaml:"-" json:"createdAt"`
	UpdatedAt   time.Time      `yaml:"-" json:"updatedAt"`
}

// NewDefinition builds an enabled definition.
func NewDefinition(name, driver string, settings map[string]any) (*Definition, error) {
	d := &Definition{
		Name:     strings.TrimSpace(name),
		Driver:   strings.TrimSpace(driver),
		Enabled:  true,
		Settings: maps.Clone(settings),
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now
	return d, nil
}

// Validate checks the fields every definition needs.
func (d *Definition) Validate() error {
	if !namePattern.MatchString(d.Name) {
		return ErrInvalidName
	}
	if d.Driver == "" {
		return ErrEmptyDriver
	}
	return nil
}

// Repository persists gateway definitions.
type Repository interface {
	// List returns every definition ordered by name. With enabledOnly,
	// disabled definitions are skipped.
	List(ctx context.Context, enabledOnly bool) ([]*Definition, error)

	// Get returns the definition for name or ErrNotFound.
	Get(ctx context.Context, name string) (*Definition, error)

	// Upsert inserts or replaces the definition keyed by its name.
	Upsert(ctx context.Context, d *Definition) error

	// Delete removes the definition for name. Missing names are ErrNotFound.
	Delete(ctx context.Context, name string) error
}

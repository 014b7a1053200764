// Package gateway turns gateway definitions into registry entries.
//
// A Catalog maps driver names to a typed config decoder and a factory.
// Load decodes each definition's settings into the driver's Config and
// registers it under the definition's name with that config as
// registry.MetaConfig.
package gateway

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	domain "github.com/oggyb/polysms/internal/domain/gateway"
	"github.com/oggyb/polysms/internal/gateway/gennet"
	"github.com/oggyb/polysms/internal/gateway/sns"
	"github.com/oggyb/polysms/internal/gateway/stub"
	"github.com/oggyb/polysms/internal/gateway/webhook"
	"github.com/oggyb/polysms/internal/logger"
	"github.com/oggyb/polysms/internal/registry"
)

// ErrUnknownDriver is returned for a definition whose driver is not in the catalog.
var ErrUnknownDriver = errors.New("unknown gateway driver")

// FactoryFunc builds the registry factory for a gateway registered as name.
type FactoryFunc func(name string) registry.Factory

type driver struct {
	decode  func(settings map[string]any) (any, error)
	factory FactoryFunc
}

// Catalog holds the known drivers.
type Catalog struct {
	mu      sync.RWMutex
	drivers map[string]driver
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{drivers: make(map[string]driver)}
}

// DefaultCatalog returns a catalog with every bundled driver.
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	Add[gennet.Config](c, "gennet", gennet.Factory)
	Add[webhook.Config](c, "webhook", webhook.Factory)
	Add[sns.Config](c, "sns", sns.Factory)
	Add[stub.Config](c, "stub", stub.Factory)
	return c
}

// Add registers driver with settings decoded into T.
func Add[T any](c *Catalog, name string, factory FactoryFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drivers[name] = driver{
		decode:  func(settings map[string]any) (any, error) { return Decode[T](settings) },
		factory: factory,
	}
}

// Drivers lists known driver names, sorted.
func (c *Catalog) Drivers() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.drivers))
	for n := range c.drivers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Register validates d and registers it on reg. Disabled definitions are
// skipped.
func (c *Catalog) Register(reg *registry.Registry, d *domain.Definition) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("gateway %q: %w", d.Name, err)
	}
	if !d.Enabled {
		return nil
	}

	c.mu.RLock()
	drv, ok := c.drivers[d.Driver]
	c.mu.RUnlock()
	if !ok {
		return fmt.Errorf("gateway %q: driver %q (known: %v): %w", d.Name, d.Driver, c.Drivers(), ErrUnknownDriver)
	}

	cfg, err := drv.decode(d.Settings)
	if err != nil {
		return fmt.Errorf("gateway %q: decode settings: %w", d.Name, err)
	}
	return reg.Register(d.Name, drv.factory(d.Name), registry.Meta{
		registry.MetaConfig: cfg,
		"driver":            d.Driver,
		"description":       d.Description,
	})
}

// Load registers every definition and reports all failures together.
// Definitions that fail are skipped; the rest are registered.
func (c *Catalog) Load(reg *registry.Registry, defs []*domain.Definition) error {
	l := logger.Component("catalog")

	var errs error
	for _, d := range defs {
		if err := c.Register(reg, d); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		l.Info().
			Str("gateway", d.Name).
			Str("driver", d.Driver).
			Bool("enabled", d.Enabled).
			Msg("gateway definition loaded")
	}
	return errs
}

// Decode converts loose settings into T using T's yaml tags.
func Decode[T any](settings map[string]any) (T, error) {
	var out T
	if len(settings) == 0 {
		return out, nil
	}
	raw, err := yaml.Marshal(settings)
	if err != nil {
		return out, err
	}
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}

// Names returns the names of enabled definitions in input order.
func Names(defs []*domain.Definition) []string {
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		if d.Enabled && !slices.Contains(names, d.Name) {
			names = append(names, d.Name)
		}
	}
	return names
}

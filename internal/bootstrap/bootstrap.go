// Package bootstrap builds the dispatch core from configuration. The API
// server and the CLI share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/oggyb/polysms/internal/config"
	"github.com/oggyb/polysms/internal/db/gormdb"
	domain "github.com/oggyb/polysms/internal/domain/gateway"
	"github.com/oggyb/polysms/internal/gateway"
	"github.com/oggyb/polysms/internal/hook"
	"github.com/oggyb/polysms/internal/logger"
	"github.com/oggyb/polysms/internal/manager"
	"github.com/oggyb/polysms/internal/registry"
	gatewayRepo "github.com/oggyb/polysms/internal/repository/gorm/gateway"
)

// ErrNoGateways is returned when no definition could be registered.
var ErrNoGateways = errors.New("no usable gateway definitions")

// Core is the wired registry, hook bus and manager.
type Core struct {
	Registry    *registry.Registry
	Bus         *hook.Bus
	Manager     *manager.Manager
	Definitions []*domain.Definition
}

// Definitions loads gateway definitions from the configured source and
// returns them with the default gateway name. GATEWAYS_DEFAULT overrides
// the file's default.
func Definitions(ctx context.Context, cfg *config.Config) ([]*domain.Definition, string, error) {
	switch cfg.Gateways.Source {
	case config.SourceDB:
		conn, err := gormdb.New(cfg.PostgresDSN(), gormdb.Options{
			MaxOpenConns: cfg.DB.MaxConns,
			LogSQL:       cfg.DB.LogSQL,
		})
		if err != nil {
			return nil, "", fmt.Errorf("connect db: %w", err)
		}
		defer conn.Close()

		defs, err := gatewayRepo.NewRepository(conn).List(ctx, true)
		if err != nil {
			return nil, "", fmt.Errorf("list gateway definitions: %w", err)
		}
		return defs, cfg.Gateways.Default, nil

	default:
		file, err := config.LoadGateways(cfg.Gateways.File)
		if err != nil {
			return nil, "", err
		}
		def := file.Default
		if cfg.Gateways.Default != "" {
			def = cfg.Gateways.Default
		}
		return file.Gateways, def, nil
	}
}

// NewCore registers defs through the default catalog and selects def, or
// the first registered gateway when def is empty. Definitions that fail
// to register are logged and skipped.
func NewCore(defs []*domain.Definition, def string, opts ...manager.Option) (*Core, error) {
	l := logger.Component("bootstrap")

	reg := registry.New()
	bus := hook.New()

	if err := gateway.DefaultCatalog().Load(reg, defs); err != nil {
		l.Warn().Err(err).Msg("some gateway definitions were skipped")
	}
	names := reg.Names()
	if len(names) == 0 {
		return nil, ErrNoGateways
	}

	m := manager.New(reg, bus, opts...)
	if def == "" {
		def = names[0]
	}
	if err := m.Use(def); err != nil {
		return nil, fmt.Errorf("select default gateway: %w", err)
	}

	l.Info().
		Strs("gateways", names).
		Str("default", def).
		Msg("dispatch core ready")

	return &Core{Registry: reg, Bus: bus, Manager: m, Definitions: defs}, nil
}

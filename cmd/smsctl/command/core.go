// Package command holds the smsctl subcommands.
package command

import (
	"context"

	"github.com/oggyb/polysms/internal/bootstrap"
	"github.com/oggyb/polysms/internal/config"
)

// loadCore always reads the definitions file; the CLI never touches the
// database.
func loadCore(ctx context.Context, cfg *config.Config) (*bootstrap.Core, error) {
	local := *cfg
	local.Gateways.Source = config.SourceFile

	defs, def, err := bootstrap.Definitions(ctx, &local)
	if err != nil {
		return nil, err
	}
	return bootstrap.NewCore(defs, def)
}

package main

import (
	"context"
	"os"

	"github.com/oggyb/polysms/internal/config"
	"github.com/oggyb/polysms/internal/db/gormdb"
	"github.com/oggyb/polysms/internal/logger"
	gatewayRepo "github.com/oggyb/polysms/internal/repository/gorm/gateway"
)

// seed copies the gateway definitions of GATEWAYS_FILE (or the first
// argument) into Postgres so the API can run with GATEWAYS_SOURCE=db.
func main() {
	ctx := context.Background()

	// Load application configuration from env/.env.
	cfg := config.New()
	logger.Init(logger.Config{Level: cfg.Log.Level, Format: "console", Output: "stdout"})
	l := logger.Component("seed")

	path := cfg.Gateways.File
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	file, err := config.LoadGateways(path)
	if err != nil {
		l.Fatal().Err(err).Str("file", path).Msg("failed to load gateway definitions")
	}

	// Open a Postgres connection through our GORM adapter.
	conn, err := gormdb.New(cfg.PostgresDSN(), gormdb.Options{LogSQL: cfg.DB.LogSQL})
	if err != nil {
		l.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer conn.Close()

	l.Info().Str("db", cfg.DB.Name).Msg("connected to database")

	repo := gatewayRepo.NewRepository(conn)

	// Make sure the definitions table exists.
	if err := repo.Migrate(ctx); err != nil {
		l.Fatal().Err(err).Msg("AutoMigrate failed")
	}
	l.Info().Msg("gateway_definitions table is up to date")

	for _, d := range file.Gateways {
		if err := repo.Upsert(ctx, d); err != nil {
			l.Fatal().Err(err).Str("gateway", d.Name).Msg("failed to upsert definition")
		}
		l.Info().
			Str("gateway", d.Name).
			Str("driver", d.Driver).
			Bool("enabled", d.Enabled).
			Msg("definition saved")
	}

	if file.Default != "" {
		l.Info().Str("default", file.Default).Msg("set GATEWAYS_DEFAULT to select the default gateway in db mode")
	}
	l.Info().Int("count", len(file.Gateways)).Msg("seed done")
}

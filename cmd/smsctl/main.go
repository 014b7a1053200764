package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oggyb/polysms/cmd/smsctl/command"
	"github.com/oggyb/polysms/internal/config"
	"github.com/oggyb/polysms/internal/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.New()
	logger.Init(logger.Config{Level: "warn", Format: "console", Output: "stderr"})

	root := &cobra.Command{
		Use:           "smsctl",
		Short:         "Send SMS and inspect gateways from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfg.Gateways.File, "gateways", "g", cfg.Gateways.File, "gateway definitions file")
	root.PersistentFlags().StringVar(&cfg.Log.Level, "log-level", "warn", "log level")
	root.PersistentPreRun = func(*cobra.Command, []string) {
		logger.Init(logger.Config{Level: cfg.Log.Level, Format: "console", Output: "stderr"})
	}

	root.AddCommand(
		command.Send{Out: os.Stdout}.Command(ctx, cfg),
		command.Gateways{Out: os.Stdout}.Command(ctx, cfg),
	)

	if err := root.ExecuteContext(ctx); err != nil {
		l := logger.Component("smsctl")
		l.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

package command

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oggyb/polysms/internal/config"
	"github.com/oggyb/polysms/internal/domain/message"
)

// Send is `smsctl send`.
type Send struct {
	Out io.Writer
}

func (cmd Send) Command(ctx context.Context, cfg *config.Config) *cobra.Command {
	var (
		gateway string
		sender  string
		extras  []string
	)

	c := &cobra.Command{
		Use:   "send <to> <message>",
		Short: "send one SMS through a gateway",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return cmd.run(ctx, cfg, gateway, sender, extras, args[0], args[1])
		},
	}
	c.Flags().StringVar(&gateway, "via", "", "gateway name (default gateway when empty)")
	c.Flags().StringVar(&sender, "sender", "", "sender id")
	c.Flags().StringArrayVar(&extras, "extra", nil, "vendor field as key=value, repeatable")
	return c
}

func (cmd Send) run(ctx context.Context, cfg *config.Config, gateway, sender string, extras []string, to, content string) error {
	opts := []message.Option{message.WithSenderID(sender)}
	for _, kv := range extras {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return fmt.Errorf("extra %q must be key=value", kv)
		}
		opts = append(opts, message.WithExtra(k, v))
	}

	msg, err := message.New(to, content, opts...)
	if err != nil {
		return err
	}

	core, err := loadCore(ctx, cfg)
	if err != nil {
		return err
	}

	if gateway != "" {
		if err := core.Manager.Use(gateway); err != nil {
			return err
		}
	}

	res, err := core.Manager.Send(ctx, msg)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.Out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("gateway %s reported failure: %s", res.Gateway, res.Message)
	}
	return nil
}

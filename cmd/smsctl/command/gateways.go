package command

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/oggyb/polysms/internal/config"
	"github.com/oggyb/polysms/internal/manager"
	"github.com/oggyb/polysms/internal/service"
	"github.com/oggyb/polysms/internal/sms"
)

// Gateways is `smsctl gateways`.
type Gateways struct {
	Out io.Writer
}

func (cmd Gateways) Command(ctx context.Context, cfg *config.Config) *cobra.Command {
	var check bool

	c := &cobra.Command{
		Use:   "gateways",
		Short: "list configured gateways",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return cmd.run(ctx, cfg, check)
		},
	}
	c.Flags().BoolVar(&check, "check", false, "run a health check against every gateway")
	return c
}

func (cmd Gateways) run(ctx context.Context, cfg *config.Config, check bool) error {
	core, err := loadCore(ctx, cfg)
	if err != nil {
		return err
	}
	m := core.Manager

	configs, err := manager.Map(m, func(gw sms.Gateway) sms.Config { return gw.Config() })
	if err != nil {
		return err
	}

	health := map[string]service.GatewayStatus{}
	if check {
		probe := service.NewHealthService(m, cfg.Health.Timeout, cfg.Worker.MaxWorkers, nil)
		for _, st := range probe.Check(ctx) {
			health[st.Name] = st
		}
	}

	tw := tabwriter.NewWriter(cmd.Out, 0, 4, 2, ' ', 0)
	header := "NAME\tDEFAULT\tDISPLAY NAME\tDESCRIPTION"
	if check {
		header += "\tHEALTH"
	}
	fmt.Fprintln(tw, header)

	for _, name := range m.Names() {
		c := configs[name]
		def := ""
		if name == m.Selected() {
			def = "*"
		}
		line := fmt.Sprintf("%s\t%s\t%s\t%s", name, def, c.DisplayName, c.Description)
		if check {
			line += "\t" + healthLabel(health[name])
		}
		fmt.Fprintln(tw, line)
	}
	return tw.Flush()
}

func healthLabel(st service.GatewayStatus) string {
	switch {
	case !st.Supported:
		return "n/a"
	case st.Healthy:
		return fmt.Sprintf("ok (%dms)", st.LatencyMS)
	default:
		return "down: " + st.Error
	}
}

package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/GregMSThompson/dashboard-builder/internal/client/gateway"
	"github.com/GregMSThompson/dashboard-builder/internal/config"
	"github.com/GregMSThompson/dashboard-builder/internal/dashboard"
	"github.com/GregMSThompson/dashboard-builder/pkg/logger"
)

// app is built once per invocation by the root command's pre-run hook.
type app struct {
	in       io.Reader
	out      io.Writer
	errOut   io.Writer
	log      *slog.Logger
	state    *dashboard.State
	renderer *dashboard.Renderer

	apiURL   string
	logLevel string
	delay    time.Duration
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "dashctl",
		Short:         "Manage dashboard widgets on a running gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "gateway base URL (default from DASHBOARD_API_URL)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().DurationVar(&a.delay, "delay", -1, "wait before fetching widget data (default from RENDERDELAY)")

	root.AddCommand(
		newListCmd(a),
		newAddCmd(a),
		newDeleteCmd(a),
		newRenderCmd(a),
		newLayoutsCmd(a),
		newTypesCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.New()
	if err != nil {
		return err
	}
	if a.apiURL == "" {
		a.apiURL = cfg.APIURL
	}
	if a.logLevel == "" {
		a.logLevel = cfg.LogLevel
	}
	if !cmd.Flags().Changed("delay") {
		a.delay = cfg.RenderDelay
	}

	a.log = logger.New(a.logLevel, logger.NewConsoleHandler)
	cmd.SetContext(logger.ToContext(cmd.Context(), a.log))

	gw := gatewayclient.NewAdapter(a.log, a.apiURL, nil)
	a.state = dashboard.NewState(gw, dashboard.WithAlerter(func(msg string) {
		fmt.Fprintln(a.errOut, msg)
	}))
	a.renderer = dashboard.NewRenderer(gw, a.delay)
	return nil
}

// confirm prompts on the output and reads a y/N answer from the input.
func (a *app) confirm(prompt string) bool {
	fmt.Fprintf(a.out, "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

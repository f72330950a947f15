// Command agrictl runs the agricultural assistant's data services in-process
// and prints their results as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/agri-assist-service/internal/app"
	"github.com/couchcryptid/agri-assist-service/internal/config"
	"github.com/couchcryptid/agri-assist-service/internal/observability"
	"github.com/couchcryptid/agri-assist-service/internal/service"
)

type cli struct {
	app     *app.App
	timeout time.Duration
	verbose bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "agrictl",
		Short: "Query weather, mandi prices, pests and the farming assistant",
		Long: `agrictl runs the same services as agri-service without the HTTP layer.

Configuration comes from the same environment variables. Without API keys
every live source degrades to fallback data, and the output says so.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if c.app == nil {
				return nil
			}
			return c.app.Close()
		},
	}
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 30*time.Second, "Operation timeout")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log degradations to stderr")

	root.AddCommand(c.weatherCmd())
	root.AddCommand(c.marketCmd())
	root.AddCommand(c.cropsCmd())
	root.AddCommand(c.pestCmd())
	root.AddCommand(c.chatCmd())
	root.AddCommand(c.communityCmd())
	root.AddCommand(c.tipsCmd())
	root.AddCommand(c.translateCmd())
	return root
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	level := "error"
	if c.verbose {
		level = "debug"
	}
	logger := observability.NewLoggerTo(cmd.ErrOrStderr(), level, "text")
	metrics := observability.NewMetricsWith(prometheus.NewRegistry())

	c.app, err = app.New(cfg, clockwork.NewRealClock(), logger, metrics)
	return err
}

func (c *cli) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), c.timeout)
}

type output struct {
	Source string `json:"source,omitempty"`
	Cause  string `json:"cause,omitempty"`
	Data   any    `json:"data"`
}

func printResult[T any](cmd *cobra.Command, res service.Result[T], err error) error {
	if err != nil {
		return err
	}
	out := output{Source: string(res.Source), Data: res.Value}
	if res.Cause != nil {
		out.Cause = res.Cause.Error()
	}
	return printJSON(cmd, out)
}

func printData(cmd *cobra.Command, data any) error {
	return printJSON(cmd, output{Source: string(service.SourceFallback), Data: data})
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

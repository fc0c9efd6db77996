// Package cli implements the astro command line on top of the chart engine.
package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"astroref/internal/chart"
	"astroref/internal/config"
	"astroref/internal/ephemeris"
	"astroref/internal/util"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	cmd := newRootCmd(time.Now)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app is the state shared by subcommands once the root has loaded config.
type app struct {
	cfgPath  string
	logLevel string
	format   string
	now      func() time.Time

	cfg      *config.Config
	log      zerolog.Logger
	engine   *chart.Engine
	provider ephemeris.Provider
}

func newRootCmd(now func() time.Time) *cobra.Command {
	a := &app{now: now}

	cmd := &cobra.Command{
		Use:          "astro",
		Short:        "Astro-temporal reference engine: charts, pillars, seasons and offsets",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", "", "YAML config path (optional; defaults run offline)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&a.format, "format", "pretty", "Output format: pretty|json")

	cmd.AddCommand(
		natalCmd(a),
		transitsCmd(a),
		skyCmd(a),
		seasonCmd(a),
		pillarCmd(a),
		offsetCmd(a),
	)
	return cmd
}

func (a *app) setup(stderr io.Writer) error {
	cfg := config.Default()
	if a.cfgPath != "" {
		loaded, err := config.Load(a.cfgPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.App.LogLevel = a.logLevel
	}
	switch a.format {
	case "pretty", "json":
	default:
		return fmt.Errorf("unknown format %q (want pretty|json)", a.format)
	}

	a.cfg = cfg
	a.log = util.Component(util.NewLoggerTo(stderr, cfg.App.LogLevel, false), "cli")
	engine, provider, err := chart.FromConfig(cfg, a.log)
	if err != nil {
		return err
	}
	a.engine = engine
	a.provider = provider
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quayside/deckhand/pkg/config"
	"github.com/quayside/deckhand/pkg/invoke"
	"github.com/quayside/deckhand/pkg/log"
	"github.com/quayside/deckhand/pkg/metrics"
	"github.com/quayside/deckhand/pkg/pipeline"
	"github.com/quayside/deckhand/pkg/stack"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var (
	flagConfig   string
	flagDomain   string
	flagStack    string
	flagLogLevel string
)

// Resolved by setup before any action runs.
var (
	cfg  config.Config
	topo stack.Stack
)

func main() {
	// Early default so failures before configuration loads are still
	// visible; setup reinitializes with the configured level/format.
	log.Init(log.Config{Level: log.InfoLevel})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	exportMetrics(err == nil)

	if err == nil {
		return
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		log.Warn("interrupted by user")
		os.Exit(130)
	}
	log.Error(err.Error())
	os.Exit(1)
}

var rootCmd = &cobra.Command{
	Use:   "deckhand",
	Short: "Deckhand - deployment pipeline for the quayside web stack",
	Long: `Deckhand drives the local deployment pipeline for the quayside web
stack: it generates a private TLS certificate chain, builds the
application and proxy images, starts the containers on a shared
network, waits for them to report healthy, and verifies the deployment
from the outside.

Examples:
  deckhand deploy        Full deployment (certs + build + start + test)
  deckhand certs         Generate certificates only
  deckhand build         Build container images only
  deckhand start         Start containers only
  deckhand stop          Stop containers
  deckhand test          Run verification probes
  deckhand clean         Remove containers, images, and network
  deckhand status        Show current status`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Deckhand version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&flagDomain, "domain", "", "Domain for certificates (overrides configuration)")
	rootCmd.PersistentFlags().StringVar(&flagStack, "stack", "", "Path to a stack manifest (defaults to the built-in topology)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(certsCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(statusCmd)
}

// setup loads configuration, applies flag overrides, initializes
// logging, and resolves the stack topology. Flag overrides are applied
// before the stack is built so a --domain change reaches every
// component.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(flagConfig)
	if err != nil {
		return err
	}

	if flagDomain != "" {
		cfg.Domain = flagDomain
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}

	log.Init(log.Config{
		Level:  log.Level(cfg.Log.Level),
		Format: cfg.Log.Format,
	})

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if flagStack != "" {
		topo, err = stack.Load(flagStack)
		if err != nil {
			return err
		}
	} else {
		topo = stack.Default(cfg)
	}
	return nil
}

// runAction wraps a pipeline action with metrics, run logging, and
// panic recovery, and adapts it to a cobra RunE.
func runAction(name string, fn func(context.Context, *pipeline.Pipeline) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("unexpected error: %v", r)
			}
		}()

		p := pipeline.New(cfg, topo, invoke.NewExecRunner())
		log.Logger.Info().
			Str("action", name).
			Str("run_id", p.RunID()).
			Str("domain", cfg.Domain).
			Msg("executing action")

		timer := metrics.NewTimer()
		err = fn(cmd.Context(), p)
		timer.ObserveDurationVec(metrics.ActionDuration, name)

		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		metrics.ActionRuns.WithLabelValues(name, outcome).Inc()
		return err
	}
}

// exportMetrics writes the run's metrics to the configured textfile,
// if any. Failures are logged, never fatal: metrics must not take the
// pipeline down.
func exportMetrics(success bool) {
	if cfg.MetricsFile == "" {
		return
	}
	metrics.LastRunTimestamp.SetToCurrentTime()
	if success {
		metrics.LastRunSuccess.Set(1)
	} else {
		metrics.LastRunSuccess.Set(0)
	}
	if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
		log.Logger.Warn().Err(err).Str("path", cfg.MetricsFile).Msg("failed to write metrics textfile")
	}
}

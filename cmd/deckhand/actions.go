package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quayside/deckhand/pkg/pipeline"
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Run the full deployment pipeline",
	Long: `Run the full deployment pipeline: generate certificates if they are
missing, build the images, start the containers, wait for them to
become healthy, verify the deployment, and print a summary.`,
	RunE: runAction("deploy", func(ctx context.Context, p *pipeline.Pipeline) error {
		return p.Deploy(ctx)
	}),
}

var certsCmd = &cobra.Command{
	Use:   "certs",
	Short: "Generate the TLS certificate chain",
	Long: `Generate a private certificate authority and a server certificate for
the configured domain, verify the chain, and lock down file
permissions. Existing certificates are overwritten.`,
	RunE: runAction("certs", func(ctx context.Context, p *pipeline.Pipeline) error {
		return p.GenerateCerts(ctx)
	}),
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the container images",
	RunE: runAction("build", func(ctx context.Context, p *pipeline.Pipeline) error {
		return p.Build(ctx)
	}),
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the containers and wait for them to become healthy",
	RunE: runAction("start", func(ctx context.Context, p *pipeline.Pipeline) error {
		return p.Start(ctx)
	}),
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop and remove the containers",
	RunE: runAction("stop", func(ctx context.Context, p *pipeline.Pipeline) error {
		return p.Stop(ctx)
	}),
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run verification probes against the running stack",
	Long: `Probe the running deployment from the outside: the HTTPS endpoint must
answer with a certificate signed by the generated CA, plain HTTP must
redirect to HTTPS, and every application endpoint must respond.`,
	RunE: runAction("test", func(ctx context.Context, p *pipeline.Pipeline) error {
		return p.Test(ctx)
	}),
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove containers, images, and the network",
	RunE: runAction("clean", func(ctx context.Context, p *pipeline.Pipeline) error {
		return p.Clean(ctx)
	}),
}

var flagStatusOutput string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of all managed containers",
	RunE: runAction("status", func(ctx context.Context, p *pipeline.Pipeline) error {
		switch flagStatusOutput {
		case "table":
			return p.Status(ctx)
		case "yaml":
			return p.StatusYAML(ctx)
		default:
			return fmt.Errorf("unknown output format %q (want table or yaml)", flagStatusOutput)
		}
	}),
}

func init() {
	statusCmd.Flags().StringVarP(&flagStatusOutput, "output", "o", "table", "Output format: table or yaml")
}

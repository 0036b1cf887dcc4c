package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/quayside/deckhand/pkg/certs"
	"github.com/quayside/deckhand/pkg/config"
	"github.com/quayside/deckhand/pkg/docker"
	"github.com/quayside/deckhand/pkg/health"
	"github.com/quayside/deckhand/pkg/invoke"
	"github.com/quayside/deckhand/pkg/log"
	"github.com/quayside/deckhand/pkg/metrics"
	"github.com/quayside/deckhand/pkg/stack"
	"github.com/quayside/deckhand/pkg/verify"
)

// tester runs the post-deploy verification probes.
type tester interface {
	Run(ctx context.Context) error
}

// Pipeline executes deployment actions against a service stack.
type Pipeline struct {
	cfg   config.Config
	stack stack.Stack

	docker *docker.Client
	certs  *certs.Generator
	waiter *health.Waiter

	// newVerifier is called at test time, once certificates exist.
	newVerifier func(config.Config) (tester, error)

	runID  string
	logger zerolog.Logger
	out    io.Writer
}

// New assembles a Pipeline. Every run gets a unique ID carried on all
// log lines so interleaved runs can be told apart.
func New(cfg config.Config, st stack.Stack, runner invoke.Runner) *Pipeline {
	runID := uuid.New().String()
	client := docker.NewClient(runner, cfg.ServiceLabel)
	return &Pipeline{
		cfg:         cfg,
		stack:       st,
		docker:      client,
		certs:       certs.NewGenerator(runner, cfg),
		waiter:      health.NewWaiter(client),
		newVerifier: func(cfg config.Config) (tester, error) { return verify.New(cfg) },
		runID:       runID,
		logger:      log.WithRunID(runID),
		out:         os.Stdout,
	}
}

// RunID returns this run's unique identifier.
func (p *Pipeline) RunID() string {
	return p.runID
}

// runStage wraps a unit of work with logging and metrics.
func (p *Pipeline) runStage(ctx context.Context, name string, fn func(context.Context) error) error {
	logger := p.logger.With().Str("stage", name).Logger()
	logger.Info().Msg("stage started")

	timer := metrics.NewTimer()
	err := fn(ctx)
	timer.ObserveDurationVec(metrics.StageDuration, name)

	if err != nil {
		metrics.StageRuns.WithLabelValues(name, "failure").Inc()
		logger.Error().Err(err).Dur("duration", timer.Duration()).Msg("stage failed")
		return err
	}
	metrics.StageRuns.WithLabelValues(name, "success").Inc()
	logger.Info().Dur("duration", timer.Duration()).Msg("stage completed")
	return nil
}

// GenerateCerts produces the CA and server certificates.
func (p *Pipeline) GenerateCerts(ctx context.Context) error {
	return p.runStage(ctx, "certs", p.certs.Generate)
}

// Build builds every service image in stack order.
func (p *Pipeline) Build(ctx context.Context) error {
	return p.runStage(ctx, "build", p.buildImages)
}

func (p *Pipeline) buildImages(ctx context.Context) error {
	if err := p.docker.CheckAvailable(ctx); err != nil {
		return err
	}
	for _, svc := range p.stack.Services {
		if err := p.docker.BuildImage(ctx, svc); err != nil {
			return err
		}
	}
	return nil
}

// Start brings the stack up: network, stale container cleanup, service
// startup in order, then a health wait on every service that carries a
// health command.
func (p *Pipeline) Start(ctx context.Context) error {
	return p.runStage(ctx, "start", p.startServices)
}

func (p *Pipeline) startServices(ctx context.Context) error {
	if err := p.docker.CheckAvailable(ctx); err != nil {
		return err
	}
	if err := p.docker.EnsureNetwork(ctx, p.cfg.Network); err != nil {
		return err
	}

	for _, svc := range p.stack.Services {
		if p.docker.ContainerExists(ctx, svc.Name) {
			p.logger.Info().Str("container", svc.Name).Msg("removing existing container")
			p.docker.StopAndRemove(ctx, svc.Name)
		}
	}

	for _, svc := range p.stack.Services {
		if err := p.docker.RunService(ctx, svc, p.cfg.Network); err != nil {
			return err
		}
	}

	return p.waiter.WaitAll(ctx, p.stack.HealthCheckedNames())
}

// Stop stops and removes all containers in reverse start order, so the
// proxy goes down before the application it fronts.
func (p *Pipeline) Stop(ctx context.Context) error {
	return p.runStage(ctx, "stop", p.stopServices)
}

func (p *Pipeline) stopServices(ctx context.Context) error {
	for _, svc := range p.stack.Reversed() {
		p.docker.StopAndRemove(ctx, svc.Name)
	}
	p.logger.Info().Msg("services stopped")
	return nil
}

// Clean tears everything down: containers, network, and images.
// Removal steps tolerate resources that are already gone.
func (p *Pipeline) Clean(ctx context.Context) error {
	return p.runStage(ctx, "clean", p.cleanAll)
}

func (p *Pipeline) cleanAll(ctx context.Context) error {
	if err := p.stopServices(ctx); err != nil {
		return err
	}
	p.docker.RemoveNetwork(ctx, p.cfg.Network)
	p.logger.Info().Str("network", p.cfg.Network).Msg("network removed")

	for _, image := range p.stack.Images() {
		p.docker.RemoveImage(ctx, image)
	}
	p.logger.Info().Msg("images removed")
	p.logger.Info().Msg("cleanup complete")
	return nil
}

// Test probes the running stack over HTTP and HTTPS.
func (p *Pipeline) Test(ctx context.Context) error {
	return p.runStage(ctx, "test", p.runTests)
}

func (p *Pipeline) runTests(ctx context.Context) error {
	v, err := p.newVerifier(p.cfg)
	if err != nil {
		return err
	}
	return v.Run(ctx)
}

// Deploy runs the full workflow. Certificates are only generated when
// missing, so repeat deployments keep the existing chain.
func (p *Pipeline) Deploy(ctx context.Context) error {
	p.logger.Info().Msg("starting deployment pipeline")

	if p.certs.Exists() {
		p.logger.Info().Msg("certificates already exist")
	} else if err := p.GenerateCerts(ctx); err != nil {
		return fmt.Errorf("certificate generation failed: %w", err)
	}

	if err := p.docker.CheckAvailable(ctx); err != nil {
		return err
	}
	if err := p.Build(ctx); err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	if err := p.Start(ctx); err != nil {
		return fmt.Errorf("deployment failed: %w", err)
	}
	if err := p.Test(ctx); err != nil {
		return fmt.Errorf("tests failed: %w", err)
	}

	p.ShowStatus(ctx)
	p.logger.Info().Msg("all services deployed and tested successfully")
	return nil
}

// Status prints the state of all managed containers, including
// stopped ones.
func (p *Pipeline) Status(ctx context.Context) error {
	return p.runStage(ctx, "status", func(ctx context.Context) error {
		return p.docker.PrintStatus(ctx, true)
	})
}

type statusReport struct {
	Containers []docker.ContainerStatus `yaml:"containers"`
}

// StatusYAML writes the managed container listing as YAML for
// machine consumption.
func (p *Pipeline) StatusYAML(ctx context.Context) error {
	return p.runStage(ctx, "status", func(ctx context.Context) error {
		list, err := p.docker.ListManaged(ctx, true)
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(statusReport{Containers: list})
		if err != nil {
			return fmt.Errorf("failed to encode status: %w", err)
		}
		_, err = p.out.Write(data)
		return err
	})
}

// ShowStatus prints the post-deploy summary: access URLs, running
// containers, and follow-up commands.
func (p *Pipeline) ShowStatus(ctx context.Context) {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "Services are running!")
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "Access URLs:")
	fmt.Fprintf(p.out, "  HTTPS: https://localhost:%d/\n", p.cfg.HTTPSPort)
	fmt.Fprintf(p.out, "  HTTP:  http://localhost:%d/ (redirects to HTTPS)\n", p.cfg.HTTPPort)
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "Container Status:")
	if err := p.docker.PrintStatus(ctx, false); err != nil {
		p.logger.Warn().Err(err).Msg("failed to list containers")
	}
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "Useful Commands:")
	prefix := "  View logs:       "
	for _, name := range p.stack.Names() {
		fmt.Fprintf(p.out, "%sdocker logs -f %s\n", prefix, name)
		prefix = "                   "
	}
	fmt.Fprintln(p.out, "  Stop services:   deckhand stop")
	fmt.Fprintln(p.out, "  Run tests:       deckhand test")
	fmt.Fprintln(p.out, "  Clean up:        deckhand clean")
	fmt.Fprintln(p.out)
}

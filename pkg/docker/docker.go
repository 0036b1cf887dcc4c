package docker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/quayside/deckhand/pkg/invoke"
	"github.com/quayside/deckhand/pkg/log"
	"github.com/quayside/deckhand/pkg/stack"
)

// Client executes docker commands through an invoke.Runner.
type Client struct {
	// LabelKey marks every container this tool starts, and scopes
	// status listings to them.
	LabelKey string

	runner invoke.Runner
	logger zerolog.Logger
}

// NewClient returns a Client that labels containers with labelKey.
func NewClient(runner invoke.Runner, labelKey string) *Client {
	return &Client{
		LabelKey: labelKey,
		runner:   runner,
		logger:   log.WithComponent("docker"),
	}
}

// CheckAvailable verifies the docker CLI responds.
func (c *Client) CheckAvailable(ctx context.Context) error {
	if !c.runner.Quiet(ctx, "docker", "--version") {
		return fmt.Errorf("docker is not installed or not running")
	}
	return nil
}

// BuildImage builds a service image, streaming build output to the
// terminal. The dockerfile must exist before docker is invoked so a
// wrong working directory fails with a clear message instead of a
// daemon error.
func (c *Client) BuildImage(ctx context.Context, svc stack.Service) error {
	dockerfile := svc.Build.Dockerfile
	if dockerfile == "" {
		dockerfile = filepath.Join(svc.Build.Context, "Dockerfile")
	}
	if _, err := os.Stat(dockerfile); err != nil {
		return fmt.Errorf("%s not found, are you in the project root?", dockerfile)
	}

	args := []string{"build"}
	if svc.Build.Dockerfile != "" {
		args = append(args, "-f", svc.Build.Dockerfile)
	}
	args = append(args, "-t", svc.Image, svc.Build.Context)

	c.logger.Info().Str("image", svc.Image).Msg("building image")
	res := c.runner.Run(ctx, invoke.Cmd{Path: "docker", Args: args})
	if !res.OK() {
		return fmt.Errorf("failed to build image %s: %s", svc.Image, strings.TrimSpace(res.Stderr))
	}
	c.logger.Info().Str("image", svc.Image).Msg("image built")
	return nil
}

// EnsureNetwork creates the bridge network if it does not exist yet.
func (c *Client) EnsureNetwork(ctx context.Context, name string) error {
	if c.runner.Quiet(ctx, "docker", "network", "inspect", name) {
		c.logger.Info().Str("network", name).Msg("network already exists")
		return nil
	}
	res := c.runner.Run(ctx, invoke.Cmd{
		Path:    "docker",
		Args:    []string{"network", "create", name},
		Capture: true,
	})
	if !res.OK() {
		return fmt.Errorf("failed to create network %s: %s", name, strings.TrimSpace(res.Stderr))
	}
	c.logger.Info().Str("network", name).Msg("network created")
	return nil
}

// RemoveNetwork deletes the network. Errors are ignored: during
// cleanup the network may already be gone.
func (c *Client) RemoveNetwork(ctx context.Context, name string) {
	c.runner.Quiet(ctx, "docker", "network", "rm", name)
}

// ContainerExists reports whether a container with the given name is
// present in any state. The name filter matches substrings on the
// daemon side, so the listing is checked again here.
func (c *Client) ContainerExists(ctx context.Context, name string) bool {
	res := c.runner.Run(ctx, invoke.Cmd{
		Path:    "docker",
		Args:    []string{"ps", "-a", "--filter", "name=" + name, "--format", "{{.Names}}"},
		Capture: true,
	})
	return strings.Contains(res.Stdout, name)
}

// StopAndRemove stops and removes a container, tolerating containers
// that are already stopped or absent.
func (c *Client) StopAndRemove(ctx context.Context, name string) {
	c.runner.Quiet(ctx, "docker", "stop", name)
	c.runner.Quiet(ctx, "docker", "rm", name)
}

// RemoveImage deletes an image, ignoring errors for images that are
// already gone.
func (c *Client) RemoveImage(ctx context.Context, image string) {
	c.runner.Quiet(ctx, "docker", "rmi", image)
}

// RunService starts a service container detached on the given network,
// with restart policy, health check, and the managed-by label applied.
func (c *Client) RunService(ctx context.Context, svc stack.Service, network string) error {
	args := []string{
		"run", "-d",
		"--name", svc.Name,
		"--network", network,
	}
	for _, key := range svc.EnvKeys() {
		args = append(args, "-e", key+"="+svc.Env[key])
	}
	for _, p := range svc.Ports {
		args = append(args, "-p", p.String())
	}
	args = append(args, "--restart", "unless-stopped")
	if svc.Health.Cmd != "" {
		args = append(args,
			"--health-cmd", svc.Health.Cmd,
			"--health-interval", svc.Health.Interval.String(),
			"--health-timeout", svc.Health.Timeout.String(),
			"--health-retries", strconv.Itoa(svc.Health.Retries),
			"--health-start-period", svc.Health.StartPeriod.String(),
		)
	}
	args = append(args, "--label", c.LabelKey+"="+svc.Name)
	args = append(args, svc.Image)

	res := c.runner.Run(ctx, invoke.Cmd{Path: "docker", Args: args, Capture: true})
	if !res.OK() {
		return fmt.Errorf("failed to start %s: %s", svc.Name, strings.TrimSpace(res.Stderr))
	}
	c.logger.Info().Str("container", svc.Name).Msg("container started")
	return nil
}

// HealthStatus returns the container's health state (starting, healthy,
// unhealthy), or an empty string if the container has no health state.
func (c *Client) HealthStatus(ctx context.Context, name string) string {
	res := c.runner.Run(ctx, invoke.Cmd{
		Path:    "docker",
		Args:    []string{"inspect", "--format", "{{.State.Health.Status}}", name},
		Capture: true,
	})
	if !res.OK() {
		return ""
	}
	return strings.TrimSpace(res.Stdout)
}

// DumpLogs streams a container's logs to the terminal. Used when a
// container fails to become healthy.
func (c *Client) DumpLogs(ctx context.Context, name string) {
	c.runner.Run(ctx, invoke.Cmd{Path: "docker", Args: []string{"logs", name}})
}

// PrintStatus streams a table of managed containers to the terminal.
// With all set, stopped containers are included.
func (c *Client) PrintStatus(ctx context.Context, all bool) error {
	args := []string{"ps"}
	if all {
		args = append(args, "-a")
	}
	args = append(args,
		"--filter", "label="+c.LabelKey,
		"--format", "table {{.Names}}\t{{.Status}}\t{{.Ports}}",
	)
	res := c.runner.Run(ctx, invoke.Cmd{Path: "docker", Args: args})
	if !res.OK() {
		return fmt.Errorf("failed to list containers: %s", strings.TrimSpace(res.Stderr))
	}
	return nil
}

// ContainerStatus is one row of a managed-container listing, decoded
// from docker's JSON lines output.
type ContainerStatus struct {
	Name   string `json:"Names" yaml:"name"`
	Image  string `json:"Image" yaml:"image"`
	State  string `json:"State" yaml:"state"`
	Status string `json:"Status" yaml:"status"`
	Ports  string `json:"Ports" yaml:"ports,omitempty"`
}

// ListManaged returns the managed containers as structured records,
// for machine-readable status output.
func (c *Client) ListManaged(ctx context.Context, all bool) ([]ContainerStatus, error) {
	args := []string{"ps"}
	if all {
		args = append(args, "-a")
	}
	args = append(args,
		"--filter", "label="+c.LabelKey,
		"--format", "{{json .}}",
	)
	res := c.runner.Run(ctx, invoke.Cmd{Path: "docker", Args: args, Capture: true})
	if !res.OK() {
		return nil, fmt.Errorf("failed to list containers: %s", strings.TrimSpace(res.Stderr))
	}

	var out []ContainerStatus
	for _, line := range strings.Split(res.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var cs ContainerStatus
		if err := json.Unmarshal([]byte(line), &cs); err != nil {
			return nil, fmt.Errorf("failed to parse container listing: %w", err)
		}
		out = append(out, cs)
	}
	return out, nil
}

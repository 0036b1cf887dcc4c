package stack

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quayside/deckhand/pkg/config"
)

// Duration wraps time.Duration so manifests can say "30s" instead of
// nanosecond integers.
type Duration time.Duration

// UnmarshalYAML parses Go duration syntax ("30s", "1m30s").
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration back in the same syntax.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// PortMapping publishes a container port on the host.
type PortMapping struct {
	Host      int `yaml:"host"`
	Container int `yaml:"container"`
}

func (p PortMapping) String() string {
	return fmt.Sprintf("%d:%d", p.Host, p.Container)
}

// HealthCheck configures the container runtime's built-in health probe.
type HealthCheck struct {
	Cmd         string   `yaml:"cmd"`
	Interval    Duration `yaml:"interval"`
	Timeout     Duration `yaml:"timeout"`
	Retries     int      `yaml:"retries"`
	StartPeriod Duration `yaml:"start_period"`
}

// Build describes how a service image is produced.
type Build struct {
	Context    string `yaml:"context"`
	Dockerfile string `yaml:"dockerfile,omitempty"`
}

// Service is one container in the stack.
type Service struct {
	Name   string            `yaml:"name"`
	Image  string            `yaml:"image"`
	Build  Build             `yaml:"build"`
	Env    map[string]string `yaml:"env,omitempty"`
	Ports  []PortMapping     `yaml:"ports,omitempty"`
	Health HealthCheck       `yaml:"health"`
}

// EnvKeys returns the environment variable names in sorted order so
// generated command lines are deterministic.
func (s Service) EnvKeys() []string {
	keys := make([]string, 0, len(s.Env))
	for k := range s.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Stack is an ordered list of services. Order matters: services start
// in list order and stop in reverse, so dependents (the proxy) come
// after their dependencies (the application).
type Stack struct {
	Services []Service `yaml:"services"`
}

// Names returns the container names in start order.
func (s Stack) Names() []string {
	names := make([]string, len(s.Services))
	for i, svc := range s.Services {
		names[i] = svc.Name
	}
	return names
}

// HealthCheckedNames returns, in start order, the names of services
// that carry a health command. A service without one runs with no
// healthcheck attached, so the runtime never reports a status for it
// and there is nothing to wait on.
func (s Stack) HealthCheckedNames() []string {
	var names []string
	for _, svc := range s.Services {
		if svc.Health.Cmd != "" {
			names = append(names, svc.Name)
		}
	}
	return names
}

// Images returns the distinct image tags in build order.
func (s Stack) Images() []string {
	seen := make(map[string]bool)
	var images []string
	for _, svc := range s.Services {
		if !seen[svc.Image] {
			seen[svc.Image] = true
			images = append(images, svc.Image)
		}
	}
	return images
}

// Reversed returns the services in stop order.
func (s Stack) Reversed() []Service {
	out := make([]Service, len(s.Services))
	for i, svc := range s.Services {
		out[len(s.Services)-1-i] = svc
	}
	return out
}

// Default builds the two-service topology from configuration: the
// application container behind an nginx TLS-terminating proxy. The
// application serves HTTPS on 8443 inside the network; only the proxy
// publishes host ports.
func Default(cfg config.Config) Stack {
	return Stack{
		Services: []Service{
			{
				Name:  cfg.WebappContainer,
				Image: cfg.WebappImage,
				Build: Build{Context: "."},
				Env: map[string]string{
					"API_VERSION": cfg.APIVersion,
					"HTTPS_PORT":  "8443",
				},
				Health: HealthCheck{
					Cmd:         "curl -f https://localhost:8443/health || exit 1",
					Interval:    Duration(30 * time.Second),
					Timeout:     Duration(3 * time.Second),
					Retries:     3,
					StartPeriod: Duration(5 * time.Second),
				},
			},
			{
				Name:  cfg.NginxContainer,
				Image: cfg.NginxImage,
				Build: Build{Context: ".", Dockerfile: "nginx/Dockerfile"},
				Ports: []PortMapping{
					{Host: cfg.HTTPPort, Container: 80},
					{Host: cfg.HTTPSPort, Container: 443},
				},
				Health: HealthCheck{
					Cmd:         "wget --no-verbose --tries=1 --spider http://localhost:80/ || exit 1",
					Interval:    Duration(30 * time.Second),
					Timeout:     Duration(3 * time.Second),
					Retries:     3,
					StartPeriod: Duration(10 * time.Second),
				},
			},
		},
	}
}

// Load reads a stack manifest from disk.
func Load(path string) (Stack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Stack{}, fmt.Errorf("failed to read stack manifest: %w", err)
	}
	var s Stack
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Stack{}, fmt.Errorf("failed to parse stack manifest: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Stack{}, err
	}
	return s, nil
}

// Validate checks the topology for mistakes that would surface later as
// confusing container runtime errors.
func (s Stack) Validate() error {
	if len(s.Services) == 0 {
		return fmt.Errorf("stack has no services")
	}
	seen := make(map[string]bool)
	for i, svc := range s.Services {
		if svc.Name == "" {
			return fmt.Errorf("service %d has no name", i)
		}
		if svc.Image == "" {
			return fmt.Errorf("service %s has no image", svc.Name)
		}
		if seen[svc.Name] {
			return fmt.Errorf("duplicate service name %s", svc.Name)
		}
		seen[svc.Name] = true
		for _, p := range svc.Ports {
			if p.Host < 1 || p.Host > 65535 {
				return fmt.Errorf("service %s: invalid host port %d", svc.Name, p.Host)
			}
			if p.Container < 1 || p.Container > 65535 {
				return fmt.Errorf("service %s: invalid container port %d", svc.Name, p.Container)
			}
		}
	}
	return nil
}

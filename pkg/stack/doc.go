/*
Package stack models the service topology Deckhand deploys.

A stack is an ordered list of services: what image each one runs, how
it is built, which ports it publishes, what environment it receives,
and how its health is probed. Order matters: services start first to
last and stop last to first, so dependencies (application before
proxy) are expressed by position.

# Architecture

	┌────────────────── STACK MODEL ──────────────────┐
	│                                                   │
	│  Stack                                            │
	│   └── Services []Service        (start order)     │
	│        ├── Name, Image                            │
	│        ├── Build    {Context, Dockerfile}         │
	│        ├── Env      map[string]string             │
	│        ├── Ports    []PortMapping {Host:Container}│
	│        └── Health   HealthCheck                   │
	│             {Cmd, Interval, Timeout,              │
	│              Retries, StartPeriod}                │
	└───────────────────────────────────────────────────┘

The default stack is a two-service HTTPS topology derived from the
run configuration:

	webapp (application)          nginx (TLS proxy)
	  image: webapp:latest          image: webapp-nginx:latest
	  env: API_VERSION,             ports: 8080:80, 8443:443
	       HTTPS_PORT               dockerfile: nginx/Dockerfile
	  health: curl /health          health: wget /health

# Manifests

Stacks can also be loaded from a YAML manifest (--stack stack.yaml),
replacing the default topology:

	services:
	  - name: webapp
	    image: webapp:latest
	    build:
	      context: .
	    env:
	      API_VERSION: "2.0.0"
	    health:
	      cmd: curl -f http://localhost:3000/health || exit 1
	      interval: 30s
	      timeout: 3s
	      retries: 3
	      start_period: 5s
	  - name: nginx
	    image: webapp-nginx:latest
	    build:
	      context: .
	      dockerfile: nginx/Dockerfile
	    ports:
	      - host: 8443
	        container: 443

Durations use Go syntax (30s, 1m30s). Health checks are optional; a
service without one is started and not waited on.

# Usage

Default topology:

	topo := stack.Default(cfg)

From a manifest:

	topo, err := stack.Load("stack.yaml")
	if err != nil {
		return err
	}

Iteration helpers:

	for _, svc := range topo.Services { ... }   // start order
	for _, svc := range topo.Reversed() { ... } // stop order
	topo.Names()                                // container names
	topo.HealthCheckedNames()                   // names worth waiting on
	topo.Images()                               // distinct image tags

# Validation

Load validates manifests before they reach a pipeline: at least one
service, every service named and imaged, no duplicate names, ports
within range. Default stacks are constructed from an already-validated
Config and need no further checks.

# Integration Points

  - pkg/docker: Builds images and runs containers from Service specs
  - pkg/health: Waits on the services whose Health.Cmd is set
  - pkg/pipeline: Drives stages across the stack in order
  - cmd/deckhand: Chooses between Default and Load via --stack

# See Also

  - pkg/config for the values the default topology is derived from
  - pkg/docker for how Service fields map to docker run arguments
*/
package stack

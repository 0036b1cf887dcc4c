/*
Package docker manages container lifecycle through the docker CLI.

The package wraps the docker command-line client rather than the engine
API: the same binary a developer uses by hand is what Deckhand drives,
so every operation can be reproduced at a shell prompt and the host
needs nothing beyond a working `docker` on PATH. All invocations go
through the invoke.Runner seam, which keeps the package testable
against scripted command results.

# Architecture

	┌──────────────── CONTAINER OPERATIONS ────────────────┐
	│                                                        │
	│  Client (label-scoped)                                 │
	│    │                                                   │
	│    ├── Images:     BuildImage, RemoveImage             │
	│    ├── Network:    EnsureNetwork, RemoveNetwork        │
	│    ├── Lifecycle:  RunService, StopAndRemove,          │
	│    │               ContainerExists                     │
	│    ├── Health:     HealthStatus, DumpLogs              │
	│    └── Status:     PrintStatus, ListManaged            │
	│                         │                              │
	│                         ▼                              │
	│                  invoke.Runner ──► docker CLI          │
	└────────────────────────────────────────────────────────┘

# Label Scoping

Every container Deckhand starts carries a label, {label-key}={service},
and every status query filters on that key. The label is the boundary
between containers this tool manages and everything else on the host:
`deckhand status` and `deckhand clean` never touch unlabeled
containers.

# Container Startup

RunService translates a stack.Service into a docker run invocation
with a fixed argument order:

	docker run -d --name {name} --network {network}
	  -e KEY=VALUE ...          (sorted for determinism)
	  -p HOST:CONTAINER ...
	  --restart unless-stopped
	  --health-cmd {cmd}        (only when the service defines one)
	  --health-interval 30s --health-timeout 3s
	  --health-retries 3 --health-start-period {per-service}
	  --label {label-key}={service}
	  {image}

Environment variables are emitted in sorted key order so repeated runs
produce identical argv, which matters for tests and for comparing
command traces between runs.

# Image Builds

BuildImage checks that the service's Dockerfile exists before invoking
docker, turning the common "ran from the wrong directory" mistake into
an immediate, readable error instead of a docker context failure. Build
output streams live to the terminal; builds are the slow step and
progress belongs on screen.

# Health Status

HealthStatus returns the raw docker health state ("healthy",
"unhealthy", "starting") via:

	docker inspect --format {{.State.Health.Status}} {name}

Callers compare the returned string exactly. "unhealthy" contains
"healthy" as a substring, so substring matching here reports sick
containers as well; an equality check is the entire correctness story
of the health wait.

# Tolerant Teardown

StopAndRemove, RemoveNetwork and RemoveImage ignore failures and run
their commands quietly. Teardown targets may already be gone after a
half-finished deploy or a manual docker rm, and cleanup must converge
on "nothing left" rather than fail on the first missing resource.

# Status Queries

PrintStatus renders docker's own table format for human eyes:

	docker ps --filter label={key} --format "table {{.Names}}\t{{.Status}}\t{{.Ports}}"

ListManaged returns structured ContainerStatus values (parsed from
`--format {{json .}}`) for machine-readable output such as
`deckhand status --output yaml`.

# Usage

	client := docker.NewClient(runner, cfg.ServiceLabel)

	if err := client.CheckAvailable(ctx); err != nil {
		return err // docker not installed or daemon not running
	}
	if err := client.EnsureNetwork(ctx, cfg.Network); err != nil {
		return err
	}
	for _, svc := range topo.Services {
		if client.ContainerExists(ctx, svc.Name) {
			client.StopAndRemove(ctx, svc.Name)
		}
		if err := client.RunService(ctx, svc, cfg.Network); err != nil {
			return err
		}
	}

# Integration Points

  - pkg/invoke: Command execution seam for every docker invocation
  - pkg/stack: Service specs translated into build and run arguments
  - pkg/health: Polls HealthStatus and dumps logs on timeout
  - pkg/pipeline: Orchestrates these operations into stages

# See Also

  - pkg/stack for the service model behind RunService
  - docker run reference: https://docs.docker.com/engine/reference/run/
*/
package docker

/*
Package pipeline orchestrates Deckhand's deployment stages.

A pipeline ties the tool-facing packages together: certificates from
pkg/certs, containers from pkg/docker, readiness from pkg/health,
verification from pkg/verify. Each CLI action maps to one pipeline
method, each method runs one or more instrumented stages, and every
stage either completes or aborts the run with a wrapped error.

# Architecture

	┌────────────────────── PIPELINE ──────────────────────┐
	│                                                        │
	│  Pipeline (one per CLI invocation, UUID run ID)        │
	│    │                                                   │
	│    │            ┌─────────────────────────┐            │
	│    ├── certs ──►│ certs.Generator         │            │
	│    │            └─────────────────────────┘            │
	│    │            ┌─────────────────────────┐            │
	│    ├── build ──►│ docker.Client.BuildImage│            │
	│    │            └─────────────────────────┘            │
	│    │            ┌─────────────────────────┐            │
	│    ├── start ──►│ docker.Client.RunService│            │
	│    │            │ health.Waiter.WaitAll   │            │
	│    │            └─────────────────────────┘            │
	│    │            ┌─────────────────────────┐            │
	│    ├── test ───►│ verify.Verifier.Run     │            │
	│    │            └─────────────────────────┘            │
	│    │            ┌─────────────────────────┐            │
	│    └── stop ───►│ docker.Client           │            │
	│        clean    │   .StopAndRemove ...    │            │
	│        status   └─────────────────────────┘            │
	└────────────────────────────────────────────────────────┘

# The Deploy Action

Deploy chains the full sequence:

	certs (if absent) ──► build ──► start ──► test ──► status

	1. Certificates are generated only when server.crt is missing;
	   an existing chain is reused across deploys.
	2. Build compiles every distinct image in the stack, with a
	   Dockerfile presence check before each docker build.
	3. Start ensures the network, removes stale same-name containers,
	   launches services in stack order, then waits until every
	   health check reports healthy.
	4. Test verifies HTTPS, the HTTP-to-HTTPS redirect, and the
	   application endpoints from outside the containers.
	5. A human-readable summary prints the access URLs and useful
	   follow-up commands.

Docker availability is probed at the start of deploy and again inside
build and start, so each stage also stands alone as its own CLI
action.

# Stages and Instrumentation

Every stage runs through the same wrapper, which provides:

  - A stage-scoped logger (stage name plus run ID on every line)
  - Duration observation into deckhand_stage_duration_seconds
  - Outcome counting into deckhand_stage_runs_total
  - Start/complete/fail log lines with elapsed time

The run ID is a UUID minted per Pipeline, so all log lines of one CLI
invocation can be correlated in aggregated CI logs.

# Teardown Semantics

Stop removes containers in reverse stack order: the proxy goes down
before the application it fronts, so no window exists where nginx
routes to a corpse.

Clean is convergent rather than transactional: it stops containers,
removes the network and removes the images, tolerating every
individual failure. The goal state is "nothing left", and a target
that is already absent is success, not an error. Clean therefore
always returns nil.

# Status

Status prints docker's table view of managed containers (running and
exited), filtered by the service label. StatusYAML emits the same
information as YAML for scripts:

	containers:
	  - name: webapp
	    image: webapp:latest
	    state: running
	    status: Up 2 minutes (healthy)

# Interruption

All stages thread a context. On Ctrl-C the in-flight subprocess is
killed, health waits return immediately without dumping logs, and the
error surfaces as context.Canceled, which the CLI maps to exit code
130. A half-started stack is left as-is; `deckhand clean` converges it.

# Usage

	p := pipeline.New(cfg, stack.Default(cfg), invoke.NewExecRunner())

	if err := p.Deploy(ctx); err != nil {
		return err
	}

Individual actions map one-to-one onto methods: GenerateCerts, Build,
Start, Stop, Test, Clean, Status, StatusYAML.

# Integration Points

  - cmd/deckhand: Each cobra command calls one pipeline method
  - pkg/certs, pkg/docker, pkg/health, pkg/verify: Stage implementations
  - pkg/metrics: Stage duration and outcome instrumentation
  - pkg/log: Run- and stage-scoped structured logging

# See Also

  - cmd/deckhand for the CLI surface over these actions
  - pkg/stack for the topology the stages operate on
*/
package pipeline

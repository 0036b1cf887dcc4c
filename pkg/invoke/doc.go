/*
Package invoke executes external commands for Deckhand's pipeline stages.

Every interaction Deckhand has with the outside world (building images,
starting containers, generating certificates) happens by invoking the
docker and openssl command-line tools. This package is the single seam
through which those subprocesses run, so the rest of the codebase never
touches os/exec directly and every stage can be tested against scripted
invocations.

# Architecture

	┌───────────────── COMMAND EXECUTION ─────────────────┐
	│                                                       │
	│  pkg/certs        pkg/docker        pkg/pipeline     │
	│      │                │                  │            │
	│      └────────────────┼──────────────────┘            │
	│                       ▼                               │
	│  ┌─────────────────────────────────────────┐         │
	│  │            Runner interface              │         │
	│  │  - Run(ctx, Cmd) Result                  │         │
	│  │  - Quiet(ctx, path, args...) bool        │         │
	│  └──────────────────┬──────────────────────┘         │
	│                     │                                 │
	│  ┌──────────────────▼──────────────────────┐         │
	│  │             ExecRunner                   │         │
	│  │  - os/exec child processes               │         │
	│  │  - context cancellation kills child      │         │
	│  │  - capture or stream output              │         │
	│  └─────────────────────────────────────────┘         │
	└───────────────────────────────────────────────────────┘

# Core Components

Cmd:
  - Path: Binary name, resolved via PATH
  - Args: Command arguments
  - Dir: Working directory (empty inherits)
  - Capture: Buffer output vs stream to the parent terminal

Result:
  - ExitCode: Process exit status (-1 if the process never started)
  - Stdout/Stderr: Captured output (empty when streaming)
  - OK(): Convenience check for exit status zero

Runner:
  - Interface implemented by ExecRunner in production
  - Tests substitute scripted fakes to drive stages deterministically

# Error Model

Run never returns a Go error. A missing binary, a permission problem,
or a nonzero exit all surface through the same Result shape:

  - Normal exit: ExitCode from the process, output per Capture
  - Nonzero exit: ExitCode preserved, Stderr holds the tool's message
  - Could not start: ExitCode -1, Stderr holds the launch error

Callers decide severity. A failed `docker rmi` during cleanup is a
warning; a failed `docker build` aborts the pipeline. Collapsing the
failure modes into one path keeps that decision at the call site.

# Output Handling

Capture false (the default) wires the child's stdout and stderr to the
parent process, so long-running commands like `docker build` show their
progress live. Capture true buffers both streams into the Result for
commands whose output is parsed (`docker ps --format`, `openssl verify`)
or discarded (Quiet).

# Usage

Parsing command output:

	res := runner.Run(ctx, invoke.Cmd{
		Path:    "docker",
		Args:    []string{"ps", "--format", "{{.Names}}"},
		Capture: true,
	})
	if !res.OK() {
		return fmt.Errorf("docker ps failed: %s", res.Stderr)
	}
	names := strings.Fields(res.Stdout)

Streaming a build:

	res := runner.Run(ctx, invoke.Cmd{
		Path: "docker",
		Args: []string{"build", "-t", "webapp:latest", "."},
	})

Availability probe:

	if !runner.Quiet(ctx, "docker", "--version") {
		return errors.New("docker is not installed")
	}

# Integration Points

  - pkg/certs: openssl key generation, signing, verification
  - pkg/docker: image builds, container lifecycle, status queries
  - pkg/pipeline: constructs the production ExecRunner for all stages
  - test/framework: stub tools on PATH exercise ExecRunner end to end

# See Also

  - pkg/docker for the container-runtime commands built on this seam
  - pkg/certs for the certificate toolkit commands
*/
package invoke

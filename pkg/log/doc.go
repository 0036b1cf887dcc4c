/*
Package log provides structured logging for Deckhand using zerolog.

The log package wraps zerolog behind a small surface: a global logger
initialized once, child loggers scoped to a component, run, or stage,
and level filtering configured from the same source as the rest of the
pipeline. Every line gets a timestamp, and everything goes to stderr
so stdout stays clean for command output.

# Architecture

Deckhand's logging system provides structured JSON logging with minimal overhead:

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - Zerolog instance                         │          │
	│  │  - Initialized via log.Init()               │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stderr, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Context Loggers                     │          │
	│  │  - WithComponent("docker")                  │          │
	│  │  - WithRunID("a1b2c3d4-...")                │          │
	│  │  - WithStage("build")                       │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                       │          │
	│  │                                              │          │
	│  │  JSON Format:                               │          │
	│  │  {                                           │          │
	│  │    "level": "info",                         │          │
	│  │    "stage": "build",                        │          │
	│  │    "time": "2026-08-25T10:30:00Z",         │          │
	│  │    "message": "image built"                 │          │
	│  │  }                                           │          │
	│  │                                              │          │
	│  │  Console Format:                            │          │
	│  │  10:30:00 INF image built stage=build       │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from all Deckhand packages
  - Thread-safe concurrent writes

Log Levels:
  - Debug: Detailed debugging information (full command argv)
  - Info: General informational messages
  - Warn: Warning messages (potential issues)
  - Error: Error messages (operation failed)
  - Fatal: Critical errors (process exits)

Configuration:
  - Level: Filter messages below threshold
  - Format: "console" (human-readable) or "json"
  - Output: io.Writer for log destination (defaults to stderr)

Context Loggers:
  - WithComponent: Add component name to all logs
  - WithRunID: Add pipeline run ID context
  - WithStage: Add pipeline stage context

# Log Levels

Debug Level:
  - Purpose: Detailed debugging information
  - Usage: Development and troubleshooting
  - Example: "running command: docker build -t webapp:latest ."

Info Level:
  - Purpose: General informational messages
  - Usage: Default level for interactive runs
  - Example: "certificates generated domain=webapp.quayside.dev"

Warn Level:
  - Purpose: Potential issues or unexpected conditions
  - Usage: Tolerated failures during cleanup
  - Example: "could not remove image (may not exist)"

Error Level:
  - Purpose: Operation failures that abort a stage
  - Usage: Failed commands, unhealthy containers
  - Example: "docker build failed service=webapp"

Fatal Level:
  - Purpose: Critical errors causing process termination
  - Usage: Unrecoverable errors only
  - Behavior: Logs message and exits process (os.Exit(1))

# Usage

Initializing the Logger:

	import "github.com/quayside/deckhand/pkg/log"

	// Console output to stderr (interactive runs)
	log.Init(log.Config{
		Level:  log.InfoLevel,
		Format: log.FormatConsole,
	})

	// JSON output (CI pipelines)
	log.Init(log.Config{
		Level:  log.InfoLevel,
		Format: log.FormatJSON,
	})

	// Custom output (file)
	file, _ := os.OpenFile("/var/log/deckhand.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	log.Init(log.Config{
		Level:  log.InfoLevel,
		Format: log.FormatJSON,
		Output: file,
	})

Simple Logging:

	log.Info("Deployment completed successfully")
	log.Debug("Checking docker availability")
	log.Warn("Network already exists")
	log.Error("Certificate verification failed")
	log.Fatal("Cannot load configuration") // Exits process

Structured Logging:

	log.Logger.Info().
		Str("service", "webapp").
		Str("image", "webapp:latest").
		Msg("Container started")

	log.Logger.Error().
		Err(err).
		Str("service", "nginx").
		Msg("Health check timed out")

Context Loggers:

	// Component-specific logger
	dockerLog := log.WithComponent("docker")
	dockerLog.Info().Msg("Building images")
	dockerLog.Debug().Str("service", "webapp").Msg("Checking Dockerfile")

	// Run-scoped logger: every line of a pipeline run carries the run ID
	runLog := log.WithRunID("a1b2c3d4-e5f6-7890-abcd-ef1234567890")
	runLog.Info().Str("action", "deploy").Msg("executing action")

	// Stage-scoped logger
	stageLog := log.WithStage("build")
	stageLog.Info().Dur("duration", elapsed).Msg("stage completed")

# Integration Points

This package integrates with:

  - cmd/deckhand: Initializes logging from configuration, logs action outcomes
  - pkg/pipeline: Stage-scoped loggers with run IDs and durations
  - pkg/certs: Logs certificate generation steps
  - pkg/docker: Logs image builds and container lifecycle
  - pkg/health: Logs health probe attempts and timeouts
  - pkg/verify: Logs endpoint verification results

# Log Output Examples

JSON Format (CI):

	{"level":"info","stage":"certs","time":"2026-08-25T10:30:00Z","message":"certificates generated"}
	{"level":"info","stage":"start","service":"webapp","time":"2026-08-25T10:30:01Z","message":"container started"}
	{"level":"error","stage":"start","service":"nginx","error":"exit status 1","time":"2026-08-25T10:30:02Z","message":"failed to start container"}

Console Format (Interactive):

	10:30:00 INF certificates generated stage=certs
	10:30:01 INF container started stage=start service=webapp
	10:30:02 ERR failed to start container stage=start service=nginx error="exit status 1"

# Design Patterns

Global Logger Pattern:
  - Single package-level Logger instance
  - Initialized once at application start
  - Accessible from all packages without passing
  - Simplifies logging in deeply nested calls

Context Logger Pattern:
  - Create child loggers with context fields
  - Store child loggers on structs (pipeline, docker client)
  - Automatically includes context in all logs
  - Avoids repetitive field specification

Structured Logging Pattern:
  - Use typed fields (.Str, .Int, .Dur, .Err)
  - Enables log aggregation and querying
  - Better than string concatenation
  - Parseable by log analysis tools

Error Logging Pattern:
  - Always use .Err(err) for error objects
  - Consistent error format across codebase
  - Tolerated failures log at Warn, aborts at Error

# Troubleshooting

Common Issues:

No Log Output:
  - Symptom: No logs appearing
  - Check: log.Init() called before logging
  - Check: Log level set appropriately (Debug < Info < Warn < Error)
  - Solution: Initialize logger in main() before any logging

Logs Interleaved With Tool Output:
  - Symptom: docker build output mixed with log lines
  - Cause: Streamed subprocess output goes to stdout/stderr directly
  - Solution: Logs go to stderr; redirect tool output separately if needed

Missing Context Fields:
  - Symptom: Logs missing stage or run_id fields
  - Cause: Using global Logger instead of context logger
  - Solution: Use WithStage() / WithRunID() or create child loggers

# Best Practices

Do:
  - Use Info level for normal runs, Debug when diagnosing
  - Use structured fields for queryable data (service, stage, duration)
  - Create component-specific loggers
  - Log errors with .Err() for consistent formatting
  - Include the run ID so CI logs from one run can be grepped together

Don't:
  - Log secrets or private key material
  - Use Debug level in CI (full argv lines are verbose)
  - Concatenate strings (use .Str, .Int)
  - Log to stdout (reserved for status tables and YAML output)

# See Also

  - Zerolog documentation: https://github.com/rs/zerolog
  - Structured logging: https://www.thoughtworks.com/radar/techniques/structured-logging
  - 12-Factor App Logs: https://12factor.net/logs
*/
package log

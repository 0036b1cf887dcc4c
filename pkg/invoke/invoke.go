package invoke

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"

	"github.com/rs/zerolog"

	"github.com/quayside/deckhand/pkg/log"
)

// Result holds the outcome of a single external command invocation.
// It is created per call and consumed immediately by the caller.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// OK reports whether the command exited with status zero.
func (r Result) OK() bool {
	return r.ExitCode == 0
}

// Cmd describes one external command invocation.
type Cmd struct {
	// Path is the binary name or path, resolved via PATH.
	Path string

	// Args are the command arguments, not including the binary itself.
	Args []string

	// Dir is the working directory. Empty means inherit the caller's.
	Dir string

	// Capture collects stdout/stderr into the Result instead of
	// streaming them to the parent process (streaming keeps build
	// logs visible live).
	Capture bool
}

// Runner executes external commands and reports their outcome.
// There is exactly one production implementation; the interface
// exists so stages can be exercised against scripted invocations.
type Runner interface {
	// Run executes the command and returns its result. It never
	// returns a Go error: a missing binary or permission problem is
	// reported through the same Result shape as a nonzero exit, with
	// ExitCode -1 and the trigger in Stderr.
	Run(ctx context.Context, cmd Cmd) Result

	// Quiet runs the command with captured, discarded output and
	// reports whether it exited zero.
	Quiet(ctx context.Context, path string, args ...string) bool
}

// ExecRunner runs commands as child processes through os/exec.
type ExecRunner struct {
	logger zerolog.Logger
}

// NewExecRunner creates the production command runner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{
		logger: log.WithComponent("invoke"),
	}
}

// Run executes the command, inheriting or capturing its output per
// cmd.Capture. Context cancellation kills the child process.
func (r *ExecRunner) Run(ctx context.Context, c Cmd) Result {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir

	var stdout, stderr bytes.Buffer
	if c.Capture {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	} else {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	r.logger.Debug().
		Str("path", c.Path).
		Strs("args", c.Args).
		Bool("capture", c.Capture).
		Msg("Running command")

	err := cmd.Run()

	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			// Binary not found, permission denied, or the process
			// could not be started at all. Surfaced through the same
			// result shape as a nonzero exit so callers handle one
			// failure path.
			res.ExitCode = -1
			if res.Stderr == "" {
				res.Stderr = err.Error()
			}
			r.logger.Debug().
				Err(err).
				Str("path", c.Path).
				Msg("Command could not be started")
		}
	}

	r.logger.Debug().
		Str("path", c.Path).
		Int("exit_code", res.ExitCode).
		Msg("Command finished")

	return res
}

// Quiet runs the command with captured, discarded output and reports
// whether it exited zero.
func (r *ExecRunner) Quiet(ctx context.Context, path string, args ...string) bool {
	return r.Run(ctx, Cmd{Path: path, Args: args, Capture: true}).OK()
}

package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/kballard/go-shellquote"

	cerrors "github.com/mogproject/color-ssh/internal/errors"
	"github.com/mogproject/color-ssh/internal/logging"
	"github.com/mogproject/color-ssh/internal/output"
	"github.com/mogproject/color-ssh/internal/planner"
)

// TaskRunner runs a task's setup commands and main command with their
// output routed through two labeled sinks, one per stream.
type TaskRunner struct {
	sinks  output.SinkFactory
	stdout io.Writer
	stderr io.Writer
	logger *logging.Logger
}

// NewTaskRunner creates a runner writing labeled output to stdout and stderr.
// Both writers are shared by every task and must accept concurrent line writes.
func NewTaskRunner(sinks output.SinkFactory, stdout, stderr io.Writer, logger *logging.Logger) *TaskRunner {
	if logger == nil {
		logger = logging.Discard()
	}
	return &TaskRunner{sinks: sinks, stdout: stdout, stderr: stderr, logger: logger}
}

// Run executes task and returns its exit code. Failures that prevent an exit
// code from being produced are reported on stderr and yield 1. A broken
// output pipe is not a failure.
func (r *TaskRunner) Run(ctx context.Context, task planner.Task) int {
	code, err := r.run(ctx, task)
	if ctx.Err() != nil {
		return cerrors.ExitInterrupt
	}
	if err != nil {
		if cerrors.ExitCode(err) == cerrors.ExitOK {
			// the output consumer went away; the command's own code stands
			return code
		}
		r.logger.LogTaskError(task.Label, err)
		fmt.Fprintf(r.stderr, "%s\nlabel=%s, command=%s\n", cerrors.Format(err), task.Label, task)
		return cerrors.ExitFailure
	}
	return code
}

func (r *TaskRunner) run(ctx context.Context, task planner.Task) (code int, err error) {
	outSink, err := r.sinks.Open(task.Label, output.DefaultSeparator, r.stdout)
	if err != nil {
		return 0, err
	}
	defer closeSink(outSink, &err)

	errSink, err := r.sinks.Open(task.Label, output.StderrSeparator, r.stderr)
	if err != nil {
		return 0, err
	}
	defer closeSink(errSink, &err)

	for _, setup := range task.Setup {
		line := shellquote.Join(setup...)
		r.logger.LogSetupCommand(task.Label, line)
		if _, err := fmt.Fprintf(errSink.Input(), "setup: %s\n", line); err != nil {
			return 0, fmt.Errorf("write setup trace: %w", err)
		}

		code, err := runCommand(ctx, setup, outSink.Input(), errSink.Input())
		if err != nil {
			return 0, err
		}
		if code != 0 {
			return 0, cerrors.NewSetupFailure(fmt.Sprintf("setup command failed with exit code %d: %s", code, line), nil)
		}
	}

	return runCommand(ctx, task.Command, outSink.Input(), errSink.Input())
}

// closeSink closes s, keeping the first error seen by the task.
func closeSink(s output.Sink, errp *error) {
	if err := s.Close(); err != nil && *errp == nil {
		*errp = err
	}
}

// runCommand runs argv with no stdin. A non-zero exit is returned as a code,
// not an error; a child killed by signal N yields 128+N.
func runCommand(ctx context.Context, argv []string, stdout, stderr *os.File) (int, error) {
	if len(argv) == 0 {
		return 0, cerrors.NewArgumentError("empty command", nil)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec // running the user's command is the point
	cmd.Stdin = nil
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal()), nil
		}
		return exitErr.ExitCode(), nil
	}
	return 0, err
}

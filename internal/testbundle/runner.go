package testbundle

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	ferrors "git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
)

// ShutdownGrace is how long a backend may take to exit after an interrupt
// before it is killed.
const ShutdownGrace = 5 * time.Second

// RunRequest is passed to a test backend.
type RunRequest struct {
	ConfigPath string
	SingleRun  bool
}

// Runner executes a prepared test bundle.
type Runner interface {
	Name() string
	Run(ctx context.Context, req RunRequest) error
}

// CommandRunner runs a test backend as a child process. Canceling ctx sends
// the process an interrupt and kills it after Grace.
type CommandRunner struct {
	name  string
	Grace time.Duration
	// Args builds the command line for a request.
	Args func(req RunRequest) []string
	// Binary is the executable, resolved through PATH or node_modules/.bin.
	Binary string
}

// NewKarmaRunner returns the legacy Karma backend.
func NewKarmaRunner() *CommandRunner {
	return &CommandRunner{
		name:   "karma",
		Binary: "karma",
		Grace:  ShutdownGrace,
		Args: func(req RunRequest) []string {
			args := []string{"start", req.ConfigPath}
			if req.SingleRun {
				return append(args, "--single-run")
			}
			return append(args, "--no-single-run", "--auto-watch")
		},
	}
}

// NewVitestRunner returns the Vitest backend.
func NewVitestRunner() *CommandRunner {
	return &CommandRunner{
		name:   "vitest",
		Binary: "vitest",
		Grace:  ShutdownGrace,
		Args: func(req RunRequest) []string {
			if req.SingleRun {
				return []string{"run", "--config", req.ConfigPath}
			}
			return []string{"watch", "--config", req.ConfigPath}
		},
	}
}

func (r *CommandRunner) Name() string { return r.name }

// resolveBinary prefers the project-local install.
func (r *CommandRunner) resolveBinary() string {
	local := filepath.Join("node_modules", ".bin", r.Binary)
	if fi, err := os.Stat(local); err == nil && !fi.IsDir() {
		return local
	}
	return r.Binary
}

// Run implements Runner.
func (r *CommandRunner) Run(ctx context.Context, req RunRequest) error {
	bin := r.resolveBinary()
	args := r.Args(req)

	// #nosec G204 - backend and config come from project configuration
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	cmd.Cancel = func() error {
		slog.Info("Interrupting test runner", logfields.Runner(r.name), "grace", r.Grace)
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = r.Grace

	slog.Info("Starting test runner", logfields.Runner(r.name), logfields.Config(req.ConfigPath), "single_run", req.SingleRun)
	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		status := exitErr.ExitCode()
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			status = 128 + int(ws.Signal())
		}
		return ferrors.TestRunFailure(status).
			WithCause(err).
			WithContext("runner", r.name).
			Build()
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to start test runner").
		WithContext("runner", r.name).
		WithContext("binary", bin).
		Build()
}

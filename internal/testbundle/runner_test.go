package testbundle

import (
	"context"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

func shellRunner(t *testing.T, script string) *CommandRunner {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	return &CommandRunner{
		name:   "fake",
		Binary: "sh",
		Grace:  200 * time.Millisecond,
		Args:   func(RunRequest) []string { return []string{"-c", script} },
	}
}

func TestKarmaRunnerArgs(t *testing.T) {
	r := NewKarmaRunner()
	require.Equal(t, []string{"start", "karma.config.cjs", "--single-run"},
		r.Args(RunRequest{ConfigPath: "karma.config.cjs", SingleRun: true}))
	require.Equal(t, []string{"start", "karma.config.cjs", "--no-single-run", "--auto-watch"},
		r.Args(RunRequest{ConfigPath: "karma.config.cjs"}))
	require.Equal(t, ShutdownGrace, r.Grace)
}

func TestVitestRunnerArgs(t *testing.T) {
	r := NewVitestRunner()
	require.Equal(t, []string{"run", "--config", "vitest.config.js"},
		r.Args(RunRequest{ConfigPath: "vitest.config.js", SingleRun: true}))
	require.Equal(t, []string{"watch", "--config", "vitest.config.js"},
		r.Args(RunRequest{ConfigPath: "vitest.config.js"}))
}

func TestCommandRunner_Success(t *testing.T) {
	r := shellRunner(t, "exit 0")
	require.NoError(t, r.Run(context.Background(), RunRequest{SingleRun: true}))
}

func TestCommandRunner_NonzeroExitIsTestRunFailure(t *testing.T) {
	r := shellRunner(t, "exit 3")
	err := r.Run(context.Background(), RunRequest{SingleRun: true})
	require.True(t, ferrors.IsTestRunFailure(err))
	status, ok := ferrors.ExitStatus(err)
	require.True(t, ok)
	require.Equal(t, 3, status)
	require.Contains(t, err.Error(), "status 3")
}

func TestCommandRunner_InterruptThenKill(t *testing.T) {
	// The script ignores SIGINT, so it must be killed after the grace period.
	r := shellRunner(t, "trap '' INT; sleep 30")
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := r.Run(ctx, RunRequest{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 10*time.Second)
}

func TestCommandRunner_MissingBinary(t *testing.T) {
	r := &CommandRunner{name: "ghost", Binary: "assetbuilder-no-such-binary", Args: func(RunRequest) []string { return nil }}
	err := r.Run(context.Background(), RunRequest{})
	require.Equal(t, ferrors.CategoryRuntime, ferrors.GetCategory(err))
}

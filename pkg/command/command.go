package command

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/mendhq/mend/pkg/log"
	"github.com/mendhq/mend/pkg/types"
)

// DefaultTimeout bounds a single external command so a hung process
// cannot stall a poller or the recovery engine
const DefaultTimeout = 10 * time.Second

// Runner is the sole boundary to the operating environment. Executors
// and probes go through it so they stay testable with a fake.
type Runner interface {
	// Run executes a command and returns its output. A non-nil error is
	// returned only when the command could not be run at all; a non-zero
	// exit is reported through CommandResult.ExitCode.
	Run(ctx context.Context, name string, args ...string) (types.CommandResult, error)
}

// ExecRunner runs commands on the host. When Escalate is set, a failed
// command is retried once with elevated privileges.
type ExecRunner struct {
	Timeout  time.Duration
	Escalate bool

	// SudoPath overrides the sudo binary, mainly for tests
	SudoPath string
}

// NewRunner creates an ExecRunner with defaults and privilege fallback
// enabled
func NewRunner() *ExecRunner {
	return &ExecRunner{
		Timeout:  DefaultTimeout,
		Escalate: true,
		SudoPath: "sudo",
	}
}

// Run executes the command, retrying once with sudo on failure
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (types.CommandResult, error) {
	result, err := r.runOnce(ctx, name, args...)
	if err == nil && result.ExitCode == 0 {
		return result, nil
	}

	if !r.Escalate || name == r.SudoPath {
		return result, err
	}

	logger := log.WithComponent("command")
	logger.Debug().
		Str("command", name).
		Int("exit_code", result.ExitCode).
		Msg("retrying with elevated privileges")

	escalated := append([]string{name}, args...)
	return r.runOnce(ctx, r.SudoPath, escalated...)
}

func (r *ExecRunner) runOnce(ctx context.Context, name string, args ...string) (types.CommandResult, error) {
	timeout := r.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := types.CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		// Command could not be started (not found, context expired)
		result.ExitCode = -1
		return result, err
	}

	return result, nil
}

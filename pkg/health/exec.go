package health

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mendhq/mend/pkg/command"
)

// ExecChecker reports healthy when a probe command exits zero. Commands
// go through the command.Runner boundary so the checker is testable.
type ExecChecker struct {
	// Command is the probe to execute (e.g., ["pg_isready", "-U", "postgres"])
	Command []string

	runner command.Runner
}

// NewExecChecker creates a new exec health checker
func NewExecChecker(runner command.Runner, cmd []string) *ExecChecker {
	return &ExecChecker{
		Command: cmd,
		runner:  runner,
	}
}

// Check performs the exec health check
func (e *ExecChecker) Check(ctx context.Context) Result {
	start := time.Now()

	if len(e.Command) == 0 {
		return failure(start, "no command specified")
	}

	result, err := e.runner.Run(ctx, e.Command[0], e.Command[1:]...)
	if err != nil {
		return failure(start, fmt.Sprintf("command %v: %v", e.Command, err))
	}

	if result.ExitCode != 0 {
		message := fmt.Sprintf("command %v exited %d", e.Command, result.ExitCode)
		if result.Stderr != "" {
			message = fmt.Sprintf("%s: %s", message, strings.TrimSpace(result.Stderr))
		}
		return failure(start, message)
	}

	message := fmt.Sprintf("command %v succeeded", e.Command)
	if out := strings.TrimSpace(result.Stdout); out != "" {
		if len(out) > 100 {
			out = out[:100] + "..."
		}
		message = fmt.Sprintf("%s: %s", message, out)
	}
	return success(start, message)
}

// Type returns the health check type
func (e *ExecChecker) Type() CheckType {
	return CheckTypeExec
}

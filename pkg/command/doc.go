/*
Package command provides host command execution for Mend's recovery actions.

Runner is the single boundary between Mend and the host shell. Everything
that shells out (systemctl, chown, nerdctl, pg_isready, redis-cli) goes
through it, which keeps privilege escalation in one place and makes every
caller testable against a fake.

# Semantics

ExecRunner wraps os/exec:

  - A non-zero exit is a Result, not an error. The error return is reserved
    for "could not run at all" (binary missing, context canceled).
  - A failed command is retried once through sudo. Commands already
    invoked as sudo are never re-escalated.
  - Stdout and stderr are captured separately in the result.

Fake matches registered responses by command-line prefix and records every
call, so a test can pin exactly the commands it expects:

	fake := command.NewFake()
	fake.Respond("systemctl restart containerd", types.CommandResult{ExitCode: 0})
	fake.Fail("nerdctl", errors.New("binary not found"))

	// later
	require.True(t, fake.CalledWith("systemctl restart"))

# Usage

	runner := command.NewRunner()
	res, err := runner.Run(ctx, "systemctl", "restart", "containerd")
	if err != nil {
		return err // command could not run
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("restart failed: %s", res.Stderr)
	}

# See Also

  - pkg/executor for the actions built on Runner
  - pkg/health ExecChecker, which turns a command exit into a health result
*/
package command

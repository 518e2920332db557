package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

const defaultDirMode fs.FileMode = os.FileMode(0755) // 'rwxr-xr-x'

// EnsureDir creates dir on the given path including any missing parents.
// It is safe to call on a path that already exists.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, defaultDirMode); err != nil {
		return fmt.Errorf("unable to create dir err:%w", err)
	}
	return nil
}

// RunCommand runs given command with given arguments on given CWD.
// The command is executed directly with a structured argument list, never
// through a shell, so config derived values cannot inject shell
// metacharacters.
//
// The outcome is classified conservatively: an execution error, a non-zero
// exit code or any output on stderr (even with exit code 0) all count as
// failure. Package tools are known to write partial-failure details to
// stderr while still exiting 0.
func RunCommand(ctx context.Context, log *slog.Logger, envs []string, cwd string, command string, args ...string) (string, error) {

	cmdStr := command + " " + strings.Join(args, " ")
	log.Log(ctx, -8, "running command", "cwd", cwd, "cmd", cmdStr)

	cmd := exec.CommandContext(ctx, command, args...)
	// force kill the tool & child process 5 seconds after sending it sigterm (when ctx is cancelled/timed out)
	cmd.WaitDelay = 5 * time.Second
	if cwd != "" {
		cmd.Dir = cwd
	}
	outbuf := bytes.NewBuffer(nil)
	errbuf := bytes.NewBuffer(nil)
	cmd.Stdout = outbuf
	cmd.Stderr = errbuf

	// If Env is nil, the new process uses the current process's environment.
	cmd.Env = []string{}

	if len(envs) > 0 {
		cmd.Env = append(cmd.Env, envs...)
	}

	start := time.Now()
	err := cmd.Run()
	runTime := time.Since(start)

	stdout := strings.TrimSpace(outbuf.String())
	stderr := strings.TrimSpace(errbuf.String())
	if ctx.Err() == context.DeadlineExceeded {
		err = ctx.Err()
	}

	exitCode := 0
	var execErr error
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr) && exitErr.ExitCode() >= 0:
		exitCode = exitErr.ExitCode()
	default:
		execErr = err
	}

	if err := classifyOutcome(exitCode, stderr, execErr); err != nil {
		if exitCode == 0 && execErr == nil {
			log.Warn("command wrote to stderr", "cmd", cmdStr, "stderr", stderr)
		} else {
			log.Error("command failed", "cmd", cmdStr, "err", err)
		}
		return stdout, fmt.Errorf("Run(%s): err:%w", cmdStr, err)
	}

	log.Log(ctx, -8, "command result", "stdout", stdout, "time", runTime)

	return stdout, nil
}

// classifyOutcome decides success or failure purely from the exit code,
// the captured stderr and any execution level error (binary not found,
// spawn failure, timeout).
func classifyOutcome(exitCode int, stderr string, execErr error) error {
	switch {
	case execErr != nil:
		return fmt.Errorf("execution failed: %w", execErr)
	case exitCode != 0:
		return fmt.Errorf("exit status %d { stderr: %q }", exitCode, stderr)
	case stderr != "":
		return fmt.Errorf("stderr not empty { stderr: %q }", stderr)
	}
	return nil
}

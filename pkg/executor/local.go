// Package executor runs resolved install commands on the local host.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/toolgrab/toolgrab/pkg/resolver"
	"github.com/toolgrab/toolgrab/pkg/telemetry"
)

const (
	// defaultTimeout bounds an attempt when the caller sets none.
	defaultTimeout = 10 * time.Minute

	// outputTailBytes caps how much combined output an Outcome carries.
	outputTailBytes = 16 * 1024
)

// Local executes commands through the host shell. It implements
// resolver.Executor.
type Local struct {
	logger *telemetry.Logger

	// Shell is the interpreter used to run command strings. Defaults to
	// "sh".
	Shell string

	// DryRun logs commands instead of executing them; every attempt
	// reports success.
	DryRun bool
}

// NewLocal creates a local executor.
func NewLocal(logger *telemetry.Logger, dryRun bool) *Local {
	if logger == nil {
		logger, _ = telemetry.NewLogger(telemetry.LoggingConfig{Level: "info"})
	}
	return &Local{
		logger: logger.NewComponentLogger("executor"),
		Shell:  "sh",
		DryRun: dryRun,
	}
}

// Execute runs one command attempt and reports its outcome. A non-zero
// exit is a failed Outcome, not an error: the error return is reserved for
// the executor itself being unable to run anything at all.
func (l *Local) Execute(ctx context.Context, spec resolver.CommandSpec) (*resolver.Outcome, error) {
	if strings.TrimSpace(spec.Command) == "" {
		return nil, fmt.Errorf("empty command")
	}

	started := time.Now()

	if l.DryRun {
		l.logger.WithField("command", spec.Command).Info("dry run, skipping execution")
		return &resolver.Outcome{Success: true, StartedAt: started}, nil
	}

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	shell := l.Shell
	if shell == "" {
		shell = "sh"
	}

	var cmd *exec.Cmd
	if spec.Sudo {
		cmd = exec.CommandContext(ctx, "sudo", shell, "-c", spec.Command)
	} else {
		cmd = exec.CommandContext(ctx, shell, "-c", spec.Command)
	}

	cmd.Env = os.Environ()
	for k, v := range spec.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	l.logger.WithField("command", spec.Command).Debug("executing")
	err := cmd.Run()
	duration := time.Since(started)

	outcome := &resolver.Outcome{
		Success:   err == nil,
		Output:    tail(buf.Bytes()),
		StartedAt: started,
		Duration:  duration,
	}

	switch {
	case err == nil:

	case ctx.Err() == context.DeadlineExceeded:
		outcome.ExitCode = -1
		outcome.ErrorText = fmt.Sprintf("command timed out after %s", timeout)

	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			outcome.ExitCode = exitErr.ExitCode()
		} else {
			outcome.ExitCode = -1
		}
		// Classification matches against the command's own output when it
		// produced any; the bare exec error is a last resort.
		outcome.ErrorText = outcome.Output
		if strings.TrimSpace(outcome.ErrorText) == "" {
			outcome.ErrorText = err.Error()
		}
	}

	return outcome, nil
}

// tail returns at most the last outputTailBytes of combined output.
func tail(b []byte) string {
	if len(b) > outputTailBytes {
		b = b[len(b)-outputTailBytes:]
	}
	return strings.TrimSpace(string(b))
}

package executor

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/toolgrab/toolgrab/pkg/resolver"
)

func TestExecuteSuccess(t *testing.T) {
	local := NewLocal(nil, false)

	out, err := local.Execute(context.Background(), resolver.CommandSpec{
		Command: "echo hello",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !out.Success {
		t.Errorf("Success = false, want true; error text: %s", out.ErrorText)
	}
	if out.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", out.ExitCode)
	}
	if out.Output != "hello" {
		t.Errorf("Output = %q, want hello", out.Output)
	}
}

func TestExecuteNonZeroExitIsAFailedOutcome(t *testing.T) {
	local := NewLocal(nil, false)

	out, err := local.Execute(context.Background(), resolver.CommandSpec{
		Command: "echo 'E: Unable to locate package' >&2; exit 100",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v, non-zero exit must not be an error", err)
	}

	if out.Success {
		t.Error("Success = true for a failing command")
	}
	if out.ExitCode != 100 {
		t.Errorf("ExitCode = %d, want 100", out.ExitCode)
	}
	if !strings.Contains(out.ErrorText, "Unable to locate package") {
		t.Errorf("ErrorText = %q, want the command's stderr", out.ErrorText)
	}
}

func TestExecuteEnvMerged(t *testing.T) {
	local := NewLocal(nil, false)

	out, err := local.Execute(context.Background(), resolver.CommandSpec{
		Command: "echo $TOOLGRAB_TEST_FLAG",
		Env:     map[string]string{"TOOLGRAB_TEST_FLAG": "on"},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out.Output != "on" {
		t.Errorf("Output = %q, want the injected env value", out.Output)
	}
}

func TestExecuteTimeout(t *testing.T) {
	local := NewLocal(nil, false)

	out, err := local.Execute(context.Background(), resolver.CommandSpec{
		Command: "sleep 5",
		Timeout: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if out.Success {
		t.Error("Success = true for a timed-out command")
	}
	if !strings.Contains(out.ErrorText, "timed out after") {
		t.Errorf("ErrorText = %q, want a timeout message", out.ErrorText)
	}
}

func TestExecuteEmptyCommand(t *testing.T) {
	local := NewLocal(nil, false)

	if _, err := local.Execute(context.Background(), resolver.CommandSpec{Command: "  "}); err == nil {
		t.Fatal("Execute() succeeded for an empty command")
	}
}

func TestExecuteDryRun(t *testing.T) {
	local := NewLocal(nil, true)

	out, err := local.Execute(context.Background(), resolver.CommandSpec{
		Command: "exit 1",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !out.Success {
		t.Error("dry run must report success without executing")
	}
}

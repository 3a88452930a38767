package resolver

import (
	"time"

	"github.com/toolgrab/toolgrab/pkg/catalog"
)

// Outcome is the result of one method attempt: success, or failure with
// the raw error text the classifier matches against.
type Outcome struct {
	// Success indicates the command exited cleanly.
	Success bool `json:"success"`

	// ExitCode is the command's exit status (-1 when it never ran).
	ExitCode int `json:"exit_code"`

	// Output is the captured command output (tail, for reporting).
	Output string `json:"output,omitempty"`

	// ErrorText is the raw failure text fed to the classifier. Empty on
	// success.
	ErrorText string `json:"error_text,omitempty"`

	// StartedAt is when the attempt started.
	StartedAt time.Time `json:"started_at"`

	// Duration is how long the attempt took.
	Duration time.Duration `json:"duration"`
}

// Action is the remediation engine's decision for one classified failure.
type Action struct {
	// Kind is what happens next.
	Kind catalog.ActionKind `json:"kind"`

	// Env is merged into the environment of the retried command.
	Env map[string]string `json:"env,omitempty"`

	// Steps are operator-facing manual steps for ActionManual.
	Steps []string `json:"steps,omitempty"`

	// Note is the handler's short explanation for the decision.
	Note string `json:"note,omitempty"`
}

// ChainEntry records one classified failure and the action taken. The full
// chain accompanies a terminal Abort so the report is a complete diagnostic
// trail rather than the last error only.
type ChainEntry struct {
	// Method is the install method that failed.
	Method string `json:"method"`

	// Handler is the name of the matched handler; empty when the failure
	// never reached the classifier (e.g. an unresolved placeholder).
	Handler string `json:"handler,omitempty"`

	// Layer is the handler layer the match came from.
	Layer Layer `json:"layer,omitempty"`

	// Category is the failure category the handler assigned.
	Category catalog.FailureCategory `json:"category,omitempty"`

	// Action is the remediation kind that was taken.
	Action catalog.ActionKind `json:"action"`

	// ErrorText is the (timestamp-stripped) error text that was classified.
	ErrorText string `json:"error_text,omitempty"`
}

// Attempt is one executed method attempt with its outcome.
type Attempt struct {
	// Method is the install method name.
	Method string `json:"method"`

	// Command is the fully resolved command that ran.
	Command string `json:"command"`

	// Retry marks an automatic re-attempt of the same method.
	Retry bool `json:"retry,omitempty"`

	// Outcome is the attempt result.
	Outcome Outcome `json:"outcome"`
}

// RunStatus is the terminal status of a tool's resolution run.
type RunStatus string

const (
	// RunSucceeded means a method installed and verified the tool.
	RunSucceeded RunStatus = "succeeded"

	// RunAborted means every method was exhausted or a handler demanded an
	// abort; the Chain carries the full trail.
	RunAborted RunStatus = "aborted"

	// RunManualSteps means a handler surfaced manual steps instead of
	// continuing automatically.
	RunManualSteps RunStatus = "manual_steps"
)

// Result is the terminal outcome of one tool's resolution run.
type Result struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// Recipe is the recipe id the run resolved.
	Recipe string `json:"recipe"`

	// Status is the terminal status.
	Status RunStatus `json:"status"`

	// Method is the method that succeeded, when Status is RunSucceeded.
	Method string `json:"method,omitempty"`

	// Attempts is the attempted-method sequence with outcomes, in order.
	Attempts []Attempt `json:"attempts"`

	// Chain is the ordered trail of every handler consulted and every
	// action taken.
	Chain []ChainEntry `json:"chain,omitempty"`

	// ManualSteps carries the surfaced steps when Status is RunManualSteps.
	ManualSteps []string `json:"manual_steps,omitempty"`

	// StartedAt is when the run started.
	StartedAt time.Time `json:"started_at"`

	// Duration is the total run duration.
	Duration time.Duration `json:"duration"`
}

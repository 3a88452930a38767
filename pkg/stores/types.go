package stores

import (
	"context"
	"time"
)

// RunRecord is one persisted run, as stored in the runs table.
type RunRecord struct {
	// ID is the run id.
	ID string `json:"id"`

	// Recipe is the recipe id the run resolved.
	Recipe string `json:"recipe"`

	// Status is the terminal run status.
	Status string `json:"status"`

	// Method is the method that succeeded, empty otherwise.
	Method string `json:"method,omitempty"`

	// ManualSteps holds surfaced manual steps, when the run ended in them.
	ManualSteps []string `json:"manual_steps,omitempty"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Duration is the total run duration.
	Duration time.Duration `json:"duration"`

	// Attempts are the command attempts in execution order.
	Attempts []AttemptRecord `json:"attempts,omitempty"`

	// Chain is the diagnostic chain in decision order.
	Chain []ChainRecord `json:"chain,omitempty"`

	// CreatedAt is when the record was written.
	CreatedAt time.Time `json:"created_at"`
}

// AttemptRecord is one persisted command attempt.
type AttemptRecord struct {
	// Seq is the attempt's position within the run, starting at 0.
	Seq int `json:"seq"`

	// Method is the method name the attempt ran under.
	Method string `json:"method"`

	// Command is the fully resolved command.
	Command string `json:"command"`

	// Retry marks an automatic retry of a previous attempt.
	Retry bool `json:"retry,omitempty"`

	// Success reports whether the command exited cleanly.
	Success bool `json:"success"`

	// ExitCode is the command's exit code, -1 when it never ran to exit.
	ExitCode int `json:"exit_code"`

	// Output is the captured output tail.
	Output string `json:"output,omitempty"`

	// ErrorText is the error text fed to classification on failure.
	ErrorText string `json:"error_text,omitempty"`

	// StartedAt is when the attempt began.
	StartedAt time.Time `json:"started_at"`

	// Duration is how long the attempt ran.
	Duration time.Duration `json:"duration"`
}

// ChainRecord is one persisted diagnostic-chain entry.
type ChainRecord struct {
	// Seq is the entry's position within the chain, starting at 0.
	Seq int `json:"seq"`

	// Method is the method whose failure was classified.
	Method string `json:"method"`

	// Handler is the matched handler name.
	Handler string `json:"handler,omitempty"`

	// Layer is the handler layer the match came from.
	Layer string `json:"layer,omitempty"`

	// Category is the assigned failure category.
	Category string `json:"category,omitempty"`

	// Action is the remediation decision taken.
	Action string `json:"action"`

	// ErrorText is the timestamp-stripped error text that was classified.
	ErrorText string `json:"error_text,omitempty"`
}

// Store defines the run-history persistence interface.
type Store interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error

	// Run history
	CreateRun(ctx context.Context, run *RunRecord) error
	GetRun(ctx context.Context, id string) (*RunRecord, error)
	ListRuns(ctx context.Context, recipe string, limit, offset int) ([]*RunRecord, error)
	DeleteRun(ctx context.Context, id string) error
	PruneRuns(ctx context.Context, before time.Time) (int64, error)

	// Utility
	HealthCheck(ctx context.Context) error
}

package resolver

import (
	"context"
	"time"
)

// CommandSpec is one concrete command handed to the executor adapter.
type CommandSpec struct {
	// Command is the fully resolved shell command.
	Command string

	// Sudo indicates the command needs privilege elevation; how elevation
	// happens is the executor's concern.
	Sudo bool

	// Env is merged into the process environment.
	Env map[string]string

	// Timeout bounds the command; exceeding it is reported as a failed
	// Outcome with timeout-shaped error text, not as an adapter error.
	Timeout time.Duration
}

// Executor runs one concrete command and reports the outcome. It owns
// process spawning, output capture and privilege elevation. A non-nil error
// means the adapter itself failed, not the command.
type Executor interface {
	Execute(ctx context.Context, spec CommandSpec) (*Outcome, error)
}

// VersionLookup resolves the latest released version tag for a repository.
// It owns HTTP, TLS and authentication concerns. Errors are surfaced to the
// classifier as failed outcomes, not handled here.
type VersionLookup interface {
	LatestVersion(ctx context.Context, repo string) (string, error)
}

// HistoryStore persists finished runs for later inspection. The core never
// reads it back; persistence failures are logged and do not affect the run
// result.
type HistoryStore interface {
	SaveRun(ctx context.Context, result *Result) error
}

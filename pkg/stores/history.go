package stores

import (
	"context"
	"time"

	"github.com/toolgrab/toolgrab/pkg/resolver"
)

// History adapts a Store to the resolver's run-history interface.
type History struct {
	store Store
}

// NewHistory wraps a store for use by the resolver.
func NewHistory(store Store) *History {
	return &History{store: store}
}

// SaveRun persists one finished run.
func (h *History) SaveRun(ctx context.Context, result *resolver.Result) error {
	return h.store.CreateRun(ctx, recordFromResult(result))
}

func recordFromResult(result *resolver.Result) *RunRecord {
	record := &RunRecord{
		ID:          result.RunID,
		Recipe:      result.Recipe,
		Status:      string(result.Status),
		Method:      result.Method,
		ManualSteps: result.ManualSteps,
		StartedAt:   result.StartedAt,
		Duration:    result.Duration,
		CreatedAt:   time.Now(),
	}

	for i, a := range result.Attempts {
		record.Attempts = append(record.Attempts, AttemptRecord{
			Seq:       i,
			Method:    a.Method,
			Command:   a.Command,
			Retry:     a.Retry,
			Success:   a.Outcome.Success,
			ExitCode:  a.Outcome.ExitCode,
			Output:    a.Outcome.Output,
			ErrorText: a.Outcome.ErrorText,
			StartedAt: a.Outcome.StartedAt,
			Duration:  a.Outcome.Duration,
		})
	}

	for i, c := range result.Chain {
		record.Chain = append(record.Chain, ChainRecord{
			Seq:       i,
			Method:    c.Method,
			Handler:   c.Handler,
			Layer:     string(c.Layer),
			Category:  string(c.Category),
			Action:    string(c.Action),
			ErrorText: c.ErrorText,
		})
	}

	return record
}

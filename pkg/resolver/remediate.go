package resolver

import (
	"github.com/toolgrab/toolgrab/pkg/catalog"
)

// RunContext carries the per-run mutable state the remediation engine
// needs: which (handler, method) pairs have already consumed their one
// automatic retry, and whether the run is in manual mode. One RunContext
// exists per tool run; it is never shared across runs.
type RunContext struct {
	// Recipe is the recipe id of the run.
	Recipe string

	// Manual surfaces all remediation options instead of applying the top
	// one automatically.
	Manual bool

	retries map[string]int
}

// NewRunContext creates the context for one tool's run.
func NewRunContext(recipe string, manual bool) *RunContext {
	return &RunContext{
		Recipe:  recipe,
		Manual:  manual,
		retries: make(map[string]int),
	}
}

func (rc *RunContext) retryKey(handler, method string) string {
	return handler + "\x00" + method
}

// retryAllowed consumes the single automatic retry budget for the given
// handler and method. The second request for the same pair is denied; a
// repeated failure after a retry must fall back or abort, never loop.
func (rc *RunContext) retryAllowed(handler, method string) bool {
	key := rc.retryKey(handler, method)
	if rc.retries[key] > 0 {
		return false
	}
	rc.retries[key]++
	return true
}

// RemediationEngine turns a classified failure into the next action. The
// handler's remediation options are ordered by recommendation strength; in
// automatic mode the engine walks them until one is permitted, in manual
// mode it surfaces all of them.
type RemediationEngine struct{}

// NewRemediationEngine creates a remediation engine.
func NewRemediationEngine() *RemediationEngine {
	return &RemediationEngine{}
}

// Remediate decides the action for one classified failure. hasNext reports
// whether the selector's ordered list still holds an untried method; a
// fallback recommendation without one degrades to abort.
func (e *RemediationEngine) Remediate(rc *RunContext, match *Match, method string, hasNext bool) Action {
	handler := match.Handler

	if rc.Manual {
		return manualAction(handler)
	}

	for _, option := range handler.Remediations {
		switch option.Action {
		case catalog.ActionRetry:
			if rc.retryAllowed(handler.Name, method) {
				return Action{Kind: catalog.ActionRetry, Env: option.Env, Note: option.Note}
			}
			// Retry budget spent; weaker options decide.

		case catalog.ActionFallback:
			if hasNext {
				return Action{Kind: catalog.ActionFallback, Note: option.Note}
			}
			// Nothing left to fall back to.

		case catalog.ActionManual:
			return Action{Kind: catalog.ActionManual, Steps: option.Steps, Note: option.Note}

		case catalog.ActionAbort:
			return Action{Kind: catalog.ActionAbort, Note: option.Note}
		}
	}

	// Options exhausted: move on if possible, otherwise stop.
	if hasNext {
		return Action{Kind: catalog.ActionFallback}
	}
	return Action{Kind: catalog.ActionAbort}
}

// manualAction collects every remediation option into one surfaced report.
func manualAction(handler *catalog.Handler) Action {
	steps := make([]string, 0, len(handler.Remediations))
	for _, option := range handler.Remediations {
		step := string(option.Action)
		if option.Note != "" {
			step += ": " + option.Note
		}
		steps = append(steps, step)
		steps = append(steps, option.Steps...)
	}
	return Action{Kind: catalog.ActionManual, Steps: steps}
}

package resolver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/toolgrab/toolgrab/pkg/catalog"
	"github.com/toolgrab/toolgrab/pkg/telemetry"
)

// RunnerConfig wires a Runner. Recipes, Handlers and Executor are
// mandatory; everything else degrades gracefully when absent.
type RunnerConfig struct {
	// Recipes is the immutable recipe catalog.
	Recipes *catalog.RecipeCatalog

	// Handlers is the immutable handler catalog.
	Handlers *catalog.HandlerCatalog

	// Executor runs concrete commands.
	Executor Executor

	// Lookup resolves latest versions; nil disables version-dependent
	// methods (their resolution fails as a transport outcome).
	Lookup VersionLookup

	// Store persists finished runs; nil disables persistence.
	Store HistoryStore

	// Logger receives structured run logs.
	Logger *telemetry.Logger

	// Metrics receives run and attempt counters.
	Metrics *telemetry.Metrics

	// Tracer receives run and attempt spans.
	Tracer *telemetry.Tracer

	// AttemptTimeout bounds each command attempt. Zero means the
	// executor's default applies.
	AttemptTimeout time.Duration

	// Manual surfaces remediation options instead of auto-applying them.
	Manual bool
}

// Runner drives the resolution-and-recovery loop for tools. Within one
// tool's run, method attempts are strictly sequential; distinct tools may
// run concurrently since all shared state is immutable catalog data or
// mutex-guarded caches.
type Runner struct {
	cfg         RunnerConfig
	placeholder *PlaceholderResolver
	classifier  *Classifier
	remediation *RemediationEngine
	logger      *telemetry.Logger
}

// NewRunner creates a runner over immutable catalogs.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if cfg.Recipes == nil {
		return nil, fmt.Errorf("recipe catalog is required")
	}
	if cfg.Handlers == nil {
		return nil, fmt.Errorf("handler catalog is required")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("executor is required")
	}

	logger := cfg.Logger
	if logger == nil {
		l, err := telemetry.NewLogger(telemetry.LoggingConfig{Level: "info"})
		if err != nil {
			return nil, err
		}
		logger = l
	}

	return &Runner{
		cfg:         cfg,
		placeholder: NewPlaceholderResolver(cfg.Lookup),
		classifier:  NewClassifier(cfg.Handlers),
		remediation: NewRemediationEngine(),
		logger:      logger.NewComponentLogger("runner"),
	}, nil
}

// Run resolves and installs one tool, walking the select → resolve →
// execute → classify → remediate loop until a method succeeds, a handler
// surfaces manual steps, or the run aborts with its full diagnostic chain.
func (r *Runner) Run(ctx context.Context, recipeID string, profile *catalog.HostProfile) (*Result, error) {
	recipe := r.cfg.Recipes.Get(recipeID)
	if recipe == nil {
		return nil, fmt.Errorf("unknown recipe %q", recipeID)
	}

	methods, err := SelectMethods(recipe, profile)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:     uuid.New().String(),
		Recipe:    recipeID,
		StartedAt: time.Now(),
	}

	logger := r.logger.WithRunID(result.RunID).WithRecipe(recipeID)
	logger.Infof("starting run with %d applicable methods", len(methods))
	r.cfg.Metrics.RunStarted(recipeID)

	ctx, span := r.cfg.Tracer.Start(ctx, "resolver.run",
		attribute.String("recipe", recipeID),
		attribute.String("host.os", profile.OS),
		attribute.String("host.arch", profile.Arch),
	)
	defer span.End()

	runCtx := NewRunContext(recipeID, r.cfg.Manual)

	var retryEnv map[string]string
	retrying := false

	for idx := 0; idx < len(methods); {
		sel := methods[idx]
		hasNext := idx+1 < len(methods)
		mlog := logger.WithMethod(sel.Name)

		command, outcome := r.attemptCommand(ctx, recipe, sel, profile, retryEnv)
		if outcome == nil {
			// Unresolved placeholder: a configuration-shaped terminal for
			// this method. It never reaches the classifier; the chain still
			// records it.
			entry := ChainEntry{
				Method:    sel.Name,
				Action:    catalog.ActionFallback,
				ErrorText: command,
			}
			if !hasNext {
				entry.Action = catalog.ActionAbort
			}
			result.Chain = append(result.Chain, entry)
			mlog.Warnf("placeholder resolution failed: %s", command)
			if !hasNext {
				result.Status = RunAborted
				break
			}
			idx++
			continue
		}

		result.Attempts = append(result.Attempts, Attempt{
			Method:  sel.Name,
			Command: command,
			Retry:   retrying,
			Outcome: *outcome,
		})
		r.cfg.Metrics.AttemptExecuted(sel.Name, attemptStatus(outcome))

		if outcome.Success {
			if verified, vout := r.verify(ctx, recipe); !verified {
				mlog.Warn("install command succeeded but verification failed")
				outcome = vout
			} else {
				mlog.Info("method succeeded")
				result.Status = RunSucceeded
				result.Method = sel.Name
				break
			}
		}

		match := r.classifier.Classify(recipeID, sel.Name, sel.Method.Transport, outcome.ErrorText)
		r.cfg.Metrics.FailureClassified(string(match.Layer), string(match.Handler.Category))

		action := r.remediation.Remediate(runCtx, match, sel.Name, hasNext)
		r.cfg.Metrics.RemediationDecided(string(action.Kind))

		result.Chain = append(result.Chain, ChainEntry{
			Method:    sel.Name,
			Handler:   match.Handler.Name,
			Layer:     match.Layer,
			Category:  match.Handler.Category,
			Action:    action.Kind,
			ErrorText: StripTimestamps(outcome.ErrorText),
		})

		mlog.WithField("handler", match.Handler.Name).
			WithField("layer", string(match.Layer)).
			Infof("failure classified, action=%s", action.Kind)

		switch action.Kind {
		case catalog.ActionRetry:
			retryEnv = action.Env
			retrying = true

		case catalog.ActionFallback:
			retryEnv = nil
			retrying = false
			idx++

		case catalog.ActionManual:
			result.Status = RunManualSteps
			result.ManualSteps = action.Steps

		case catalog.ActionAbort:
			result.Status = RunAborted
		}

		if result.Status == RunManualSteps || result.Status == RunAborted {
			break
		}
	}

	// Falling out of the loop without a terminal status means the method
	// list was exhausted by fallbacks.
	if result.Status == "" {
		result.Status = RunAborted
	}

	result.Duration = time.Since(result.StartedAt)
	r.cfg.Metrics.RunCompleted(recipeID, string(result.Status), result.Duration.Seconds())
	span.SetAttributes(attribute.String("status", string(result.Status)))
	logger.Infof("run finished: %s", result.Status)

	if r.cfg.Store != nil {
		if err := r.cfg.Store.SaveRun(ctx, result); err != nil {
			logger.WithError(err).Warn("failed to persist run history")
		}
	}

	return result, nil
}

// attemptCommand resolves placeholders and executes one attempt. The
// returned outcome is nil exactly when placeholder resolution failed
// closed; the first return value then carries the failure text instead of
// a command.
func (r *Runner) attemptCommand(ctx context.Context, recipe *catalog.Recipe, sel SelectedMethod, profile *catalog.HostProfile, env map[string]string) (string, *Outcome) {
	ctx, span := r.cfg.Tracer.Start(ctx, "resolver.attempt",
		attribute.String("method", sel.Name),
	)
	defer span.End()

	command, err := r.placeholder.Resolve(ctx, recipe, sel.Name, sel.Method, profile)
	if err != nil {
		if IsUnresolvedPlaceholder(err) {
			telemetry.RecordError(span, err)
			return err.Error(), nil
		}
		// Version-lookup failures become failed outcomes: the classifier
		// owns them (transport / rate-limit handlers).
		r.cfg.Metrics.VersionLookup("failure")
		return sel.Method.Command, &Outcome{
			Success:   false,
			ExitCode:  -1,
			ErrorText: err.Error(),
			StartedAt: time.Now(),
		}
	}

	return command, r.execute(ctx, command, sel.Method.Sudo, env)
}

// verify runs the recipe's verification command after a successful attempt.
func (r *Runner) verify(ctx context.Context, recipe *catalog.Recipe) (bool, *Outcome) {
	if recipe.Verify == "" {
		return true, nil
	}
	out := r.execute(ctx, recipe.Verify, false, nil)
	return out.Success, out
}

func (r *Runner) execute(ctx context.Context, command string, sudo bool, env map[string]string) *Outcome {
	out, err := r.cfg.Executor.Execute(ctx, CommandSpec{
		Command: command,
		Sudo:    sudo,
		Env:     env,
		Timeout: r.cfg.AttemptTimeout,
	})
	if err != nil {
		return &Outcome{
			Success:   false,
			ExitCode:  -1,
			ErrorText: err.Error(),
			StartedAt: time.Now(),
		}
	}
	return out
}

func attemptStatus(out *Outcome) string {
	if out.Success {
		return "success"
	}
	return "failure"
}

// RunReport pairs one recipe's run with any pre-run error (unknown recipe,
// no applicable method) that prevented a Result from being produced.
type RunReport struct {
	// Recipe is the recipe id.
	Recipe string `json:"recipe"`

	// Result is the run result; nil when Err is set.
	Result *Result `json:"result,omitempty"`

	// Err is the pre-run failure, if any.
	Err error `json:"-"`
}

// RunAll resolves many tools concurrently with a bounded worker pool.
// Results are returned in input order. Attempts inside each tool's run
// remain strictly sequential.
func (r *Runner) RunAll(ctx context.Context, recipeIDs []string, profile *catalog.HostProfile, maxParallel int) []RunReport {
	if maxParallel <= 0 {
		maxParallel = 4
	}
	if maxParallel > len(recipeIDs) {
		maxParallel = len(recipeIDs)
	}

	type job struct {
		idx int
		id  string
	}

	jobs := make(chan job, len(recipeIDs))
	for i, id := range recipeIDs {
		jobs <- job{idx: i, id: id}
	}
	close(jobs)

	reports := make([]RunReport, len(recipeIDs))

	var wg sync.WaitGroup
	for w := 0; w < maxParallel; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				result, err := r.Run(ctx, j.id, profile)
				reports[j.idx] = RunReport{Recipe: j.id, Result: result, Err: err}

				select {
				case <-ctx.Done():
					return
				default:
				}
			}
		}()
	}
	wg.Wait()

	return reports
}

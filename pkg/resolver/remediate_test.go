package resolver

import (
	"testing"

	"github.com/toolgrab/toolgrab/pkg/catalog"
)

func retryThenFallbackHandler() *catalog.Handler {
	return &catalog.Handler{
		Name:     "apt-package-not-found",
		Category: catalog.CategoryPackageManager,
		Remediations: []catalog.Remediation{
			{Action: catalog.ActionRetry, Env: map[string]string{"REFRESH": "1"}},
			{Action: catalog.ActionFallback},
		},
	}
}

func TestRemediateRetryBudgetIsOnePerHandlerAndMethod(t *testing.T) {
	engine := NewRemediationEngine()
	rc := NewRunContext("ripgrep", false)
	match := &Match{Handler: retryThenFallbackHandler(), Layer: LayerMethodFamily}

	first := engine.Remediate(rc, match, "apt", true)
	if first.Kind != catalog.ActionRetry {
		t.Fatalf("first decision = %q, want retry", first.Kind)
	}
	if first.Env["REFRESH"] != "1" {
		t.Errorf("retry decision did not carry the handler env: %v", first.Env)
	}

	second := engine.Remediate(rc, match, "apt", true)
	if second.Kind != catalog.ActionFallback {
		t.Errorf("second decision = %q, want fallback after the retry budget is spent", second.Kind)
	}

	// A different method gets its own budget.
	other := engine.Remediate(rc, match, "dnf", true)
	if other.Kind != catalog.ActionRetry {
		t.Errorf("decision for a different method = %q, want retry", other.Kind)
	}
}

func TestRemediateFallbackWithoutNextMethodAborts(t *testing.T) {
	engine := NewRemediationEngine()
	rc := NewRunContext("ripgrep", false)
	handler := &catalog.Handler{
		Name:     "apk-unsatisfiable",
		Category: catalog.CategoryPackageManager,
		Remediations: []catalog.Remediation{
			{Action: catalog.ActionFallback},
			{Action: catalog.ActionAbort},
		},
	}

	action := engine.Remediate(rc, &Match{Handler: handler, Layer: LayerMethodFamily}, "apk", false)
	if action.Kind != catalog.ActionAbort {
		t.Errorf("decision = %q, want abort when no method is left", action.Kind)
	}
}

func TestRemediateManualStepsSurface(t *testing.T) {
	engine := NewRemediationEngine()
	rc := NewRunContext("ripgrep", false)
	handler := &catalog.Handler{
		Name:     "infra-disk-full",
		Category: catalog.CategoryResource,
		Remediations: []catalog.Remediation{
			{Action: catalog.ActionManual, Steps: []string{"Free disk space", "Re-run"}},
			{Action: catalog.ActionAbort},
		},
	}

	action := engine.Remediate(rc, &Match{Handler: handler, Layer: LayerInfrastructure}, "apt", true)
	if action.Kind != catalog.ActionManual {
		t.Fatalf("decision = %q, want manual", action.Kind)
	}
	if len(action.Steps) != 2 {
		t.Errorf("got %d manual steps, want 2", len(action.Steps))
	}
}

func TestRemediateExhaustedOptionsDegrade(t *testing.T) {
	engine := NewRemediationEngine()
	handler := &catalog.Handler{
		Name:     "retry-only",
		Category: catalog.CategoryTransport,
		Remediations: []catalog.Remediation{
			{Action: catalog.ActionRetry},
		},
	}
	match := &Match{Handler: handler, Layer: LayerInfrastructure}

	rc := NewRunContext("ripgrep", false)
	if got := engine.Remediate(rc, match, "apt", true); got.Kind != catalog.ActionRetry {
		t.Fatalf("first decision = %q, want retry", got.Kind)
	}
	// Budget spent and the handler lists nothing else: move on, or stop
	// when nothing is left.
	if got := engine.Remediate(rc, match, "apt", true); got.Kind != catalog.ActionFallback {
		t.Errorf("second decision with methods left = %q, want fallback", got.Kind)
	}
	if got := engine.Remediate(rc, match, "apt", false); got.Kind != catalog.ActionAbort {
		t.Errorf("second decision without methods left = %q, want abort", got.Kind)
	}
}

func TestRemediateManualMode(t *testing.T) {
	engine := NewRemediationEngine()
	rc := NewRunContext("ripgrep", true)
	match := &Match{Handler: retryThenFallbackHandler(), Layer: LayerMethodFamily}

	action := engine.Remediate(rc, match, "apt", true)
	if action.Kind != catalog.ActionManual {
		t.Fatalf("manual mode decision = %q, want manual", action.Kind)
	}
	if len(action.Steps) == 0 {
		t.Error("manual mode must surface the handler's options as steps")
	}
}

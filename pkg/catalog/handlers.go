package catalog

import (
	"fmt"
	"regexp"
)

// FailureCategory classifies what kind of failure a handler covers.
type FailureCategory string

const (
	// CategoryTransport covers network, TLS, DNS and rate-limit failures.
	CategoryTransport FailureCategory = "transport"

	// CategoryPackageManager covers package-manager failures such as a
	// missing package, a locked database or a stale index.
	CategoryPackageManager FailureCategory = "package_manager"

	// CategoryConfiguration covers tool-specific setup failures such as a
	// signing-key import going wrong.
	CategoryConfiguration FailureCategory = "configuration"

	// CategoryResource covers resource exhaustion: out of memory, disk full.
	CategoryResource FailureCategory = "resource"

	// CategoryUnclassified marks the backstop for error text no pattern
	// matched.
	CategoryUnclassified FailureCategory = "unclassified"
)

// ActionKind is the kind of remediation a handler can recommend.
type ActionKind string

const (
	// ActionRetry re-attempts the same method, optionally with a modified
	// environment.
	ActionRetry ActionKind = "retry"

	// ActionFallback moves on to the next method in selection order.
	ActionFallback ActionKind = "fallback"

	// ActionManual surfaces manual steps for the operator instead of
	// continuing automatically.
	ActionManual ActionKind = "manual"

	// ActionAbort stops the run for this tool.
	ActionAbort ActionKind = "abort"
)

// Remediation is one recommended reaction to a classified failure.
// Remediations are ordered by recommendation strength within a handler.
type Remediation struct {
	// Action is what to do.
	Action ActionKind `yaml:"action" json:"action" validate:"required,oneof=retry fallback manual abort"`

	// Env is merged into the command environment on retry.
	Env map[string]string `yaml:"env" json:"env,omitempty"`

	// Steps are the manual steps surfaced for ActionManual.
	Steps []string `yaml:"steps" json:"steps,omitempty"`

	// Note is a short operator-facing explanation.
	Note string `yaml:"note" json:"note,omitempty"`
}

// Handler maps an error signature to a failure category and an ordered list
// of remediation options. A handler lives in exactly one of the four layers
// of the handler catalog.
type Handler struct {
	// Name identifies the handler in reports and diagnostic chains.
	Name string `yaml:"name" json:"name" validate:"required"`

	// Pattern is an RE2 regular expression matched against the
	// timestamp-stripped error text of a failed attempt.
	Pattern string `yaml:"pattern" json:"pattern" validate:"required"`

	// Category is the failure category this handler assigns.
	Category FailureCategory `yaml:"category" json:"category" validate:"required,oneof=transport package_manager configuration resource unclassified"`

	// Remediations are the options, strongest recommendation first.
	Remediations []Remediation `yaml:"remediations" json:"remediations" validate:"required,min=1,dive"`

	re *regexp.Regexp
}

// Matches reports whether the handler's trigger pattern matches the given
// (already timestamp-stripped) error text.
func (h *Handler) Matches(text string) bool {
	return h.re != nil && h.re.MatchString(text)
}

// compile compiles the trigger pattern. Called once at catalog load.
func (h *Handler) compile() error {
	re, err := regexp.Compile(h.Pattern)
	if err != nil {
		return fmt.Errorf("handler %q: invalid pattern: %w", h.Name, err)
	}
	h.re = re
	return nil
}

// Scenario is one synthetic failure case tied to a known handler at
// authoring time. Scenarios exist only for coverage validation and are
// never consulted at runtime.
type Scenario struct {
	// Name identifies the scenario in coverage reports.
	Name string `yaml:"name" json:"name" validate:"required"`

	// ErrorText is the representative error text fed to the classifier.
	ErrorText string `yaml:"error_text" json:"error_text" validate:"required"`
}

// ScenarioCatalog groups scenarios the same way handlers are grouped.
type ScenarioCatalog struct {
	// MethodFamilies holds scenarios applicable to every recipe using the
	// named method.
	MethodFamilies map[string][]Scenario `yaml:"method_families" json:"method_families,omitempty"`

	// TransportClasses holds scenarios applicable to every method tagged
	// with the named transport class.
	TransportClasses map[string][]Scenario `yaml:"transport_classes" json:"transport_classes,omitempty"`

	// Infrastructure is the fixed scenario set applicable to every method.
	Infrastructure []Scenario `yaml:"infrastructure" json:"infrastructure" validate:"required,min=1,dive"`
}

// HandlerCatalog holds all four handler layers plus the authoring-time
// scenario catalog. Layer order within a slice is declaration order and is
// significant: within a layer the first matching pattern wins.
type HandlerCatalog struct {
	// ToolOverrides are tool-specific handlers, keyed by recipe id.
	// Highest priority.
	ToolOverrides map[string][]*Handler `yaml:"tool_overrides" json:"tool_overrides,omitempty"`

	// MethodFamilies are handlers shared by all recipes using the exact
	// method name.
	MethodFamilies map[string][]*Handler `yaml:"method_families" json:"method_families,omitempty"`

	// TransportClasses are handlers shared by all methods carrying the
	// transport tag.
	TransportClasses map[string][]*Handler `yaml:"transport_classes" json:"transport_classes,omitempty"`

	// Infrastructure are tool-agnostic handlers (network, disk,
	// permissions, memory, timeout), always evaluated last.
	Infrastructure []*Handler `yaml:"infrastructure" json:"infrastructure" validate:"required,min=1"`

	// Scenarios is the authoring-time scenario catalog for coverage
	// validation.
	Scenarios ScenarioCatalog `yaml:"scenarios" json:"scenarios"`
}

// compile compiles every handler pattern in every layer.
func (c *HandlerCatalog) compile() error {
	for _, layer := range []map[string][]*Handler{c.ToolOverrides, c.MethodFamilies, c.TransportClasses} {
		for _, handlers := range layer {
			for _, h := range handlers {
				if err := h.compile(); err != nil {
					return err
				}
			}
		}
	}
	for _, h := range c.Infrastructure {
		if err := h.compile(); err != nil {
			return err
		}
	}
	return nil
}

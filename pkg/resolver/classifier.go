package resolver

import (
	"regexp"
	"strings"

	"github.com/toolgrab/toolgrab/pkg/catalog"
)

// Layer identifies which handler layer a classification came from.
type Layer string

const (
	// LayerToolOverride is the tool-specific override layer.
	LayerToolOverride Layer = "tool_override"

	// LayerMethodFamily is shared by all recipes using the exact method.
	LayerMethodFamily Layer = "method_family"

	// LayerTransportClass is shared by all methods carrying the transport
	// tag.
	LayerTransportClass Layer = "transport_class"

	// LayerInfrastructure is the tool-agnostic catch-all layer.
	LayerInfrastructure Layer = "infrastructure"
)

// Match is the classifier's verdict for one failure.
type Match struct {
	// Handler is the matched handler. Never nil: when no pattern in any
	// layer matched, this is the built-in unclassified backstop.
	Handler *catalog.Handler

	// Layer is where the handler lives.
	Layer Layer

	// CatchAll marks the built-in backstop, i.e. nothing in the catalog
	// matched. Coverage validation treats a catch-all match as a gap.
	CatchAll bool
}

// Classifier maps a failed attempt's error text to the most specific
// matching handler across the four layers. Classification is pure: the
// same (recipe, method, transport, error text) always yields the same
// handler.
type Classifier struct {
	handlers *catalog.HandlerCatalog
}

// NewClassifier creates a classifier over the given immutable handler
// catalog.
func NewClassifier(handlers *catalog.HandlerCatalog) *Classifier {
	return &Classifier{handlers: handlers}
}

// timestampPatterns strip embedded timestamps from error text before
// matching, so two occurrences of the same failure classify identically.
var timestampPatterns = []*regexp.Regexp{
	// RFC3339 / ISO8601, with optional fractional seconds and zone.
	regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:?\d{2})?`),
	// syslog style: "Jan  2 15:04:05".
	regexp.MustCompile(`(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec) +\d{1,2} \d{2}:\d{2}:\d{2}`),
	// Bare clock times in brackets: "[15:04:05]".
	regexp.MustCompile(`\[\d{2}:\d{2}:\d{2}\]`),
}

// StripTimestamps removes embedded timestamps from error text. Exported so
// reports show the same text the classifier matched.
func StripTimestamps(text string) string {
	for _, re := range timestampPatterns {
		text = re.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}

// unclassifiedHandler is the built-in backstop returned when no catalog
// pattern matches. Its remediations keep the run moving: try the next
// method, then abort.
var unclassifiedHandler = &catalog.Handler{
	Name:     "unclassified",
	Pattern:  "",
	Category: catalog.CategoryUnclassified,
	Remediations: []catalog.Remediation{
		{Action: catalog.ActionFallback, Note: "unrecognized failure; trying the next method"},
		{Action: catalog.ActionAbort},
	},
}

// Classify evaluates the four layers in strict priority order and returns
// the first handler whose trigger pattern matches the timestamp-stripped
// error text. Within a layer, declaration order decides: the first match
// wins. When nothing matches, the built-in unclassified backstop is
// returned rather than an error.
func (c *Classifier) Classify(recipeID, method, transport, errorText string) *Match {
	text := StripTimestamps(errorText)

	if h := firstMatch(c.handlers.ToolOverrides[recipeID], text); h != nil {
		return &Match{Handler: h, Layer: LayerToolOverride}
	}
	if h := firstMatch(c.handlers.MethodFamilies[method], text); h != nil {
		return &Match{Handler: h, Layer: LayerMethodFamily}
	}
	if transport != "" {
		if h := firstMatch(c.handlers.TransportClasses[transport], text); h != nil {
			return &Match{Handler: h, Layer: LayerTransportClass}
		}
	}
	if h := firstMatch(c.handlers.Infrastructure, text); h != nil {
		return &Match{Handler: h, Layer: LayerInfrastructure}
	}

	return &Match{Handler: unclassifiedHandler, Layer: LayerInfrastructure, CatchAll: true}
}

func firstMatch(handlers []*catalog.Handler, text string) *catalog.Handler {
	for _, h := range handlers {
		if h.Matches(text) {
			return h
		}
	}
	return nil
}

// Package coverage statically validates that the handler catalog covers
// every failure scenario reachable through the recipe catalog on the fixed
// host preset set. It runs entirely at authoring time; nothing here is
// consulted during a real run.
package coverage

import (
	"fmt"
	"sort"

	"github.com/toolgrab/toolgrab/pkg/catalog"
	"github.com/toolgrab/toolgrab/pkg/resolver"
)

// Gap is one uncovered or unreachable combination found by Validate.
type Gap struct {
	// Recipe is the recipe id.
	Recipe string `json:"recipe"`

	// Method is the method name within the recipe.
	Method string `json:"method"`

	// Preset names the host preset the gap was found under. Empty when the
	// gap is preset-independent (classification does not depend on the
	// host, only reachability does).
	Preset string `json:"preset,omitempty"`

	// Scenario names the failure scenario left unhandled, when applicable.
	Scenario string `json:"scenario,omitempty"`

	// Reason is the human-readable explanation.
	Reason string `json:"reason"`
}

func (g Gap) String() string {
	s := g.Recipe + "/" + g.Method
	if g.Preset != "" {
		s += "@" + g.Preset
	}
	if g.Scenario != "" {
		s += " scenario=" + g.Scenario
	}
	return s + ": " + g.Reason
}

// RecipeReport is the per-recipe slice of a coverage report.
type RecipeReport struct {
	// Recipe is the recipe id.
	Recipe string `json:"recipe"`

	// Checked counts the (method, scenario, preset) combinations examined.
	Checked int `json:"checked"`

	// Gaps lists this recipe's coverage gaps, if any.
	Gaps []Gap `json:"gaps,omitempty"`
}

// Report is the outcome of a full coverage validation pass.
type Report struct {
	// Recipes holds per-recipe results in recipe-id order.
	Recipes []RecipeReport `json:"recipes"`

	// Checked is the total number of combinations examined.
	Checked int `json:"checked"`

	// Gaps flattens every recipe's gaps for convenience.
	Gaps []Gap `json:"gaps,omitempty"`
}

// HasGaps reports whether the validation pass found any gap.
func (r *Report) HasGaps() bool {
	return len(r.Gaps) > 0
}

// Validator checks recipe and handler catalogs against host presets.
type Validator struct {
	recipes    *catalog.RecipeCatalog
	handlers   *catalog.HandlerCatalog
	classifier *resolver.Classifier
	presets    []catalog.Preset
}

// NewValidator creates a validator. A nil preset slice means the fixed
// built-in preset catalog.
func NewValidator(recipes *catalog.RecipeCatalog, handlers *catalog.HandlerCatalog, presets []catalog.Preset) *Validator {
	if presets == nil {
		presets = catalog.Presets()
	}
	return &Validator{
		recipes:    recipes,
		handlers:   handlers,
		classifier: resolver.NewClassifier(handlers),
		presets:    presets,
	}
}

// Validate examines every recipe against every preset and the scenario
// catalog. It never fails fast: the report carries every gap found, so one
// `validate` run shows the full repair surface.
func (v *Validator) Validate() *Report {
	report := &Report{}

	for _, id := range v.recipes.Names() {
		rr := v.validateRecipe(v.recipes.Get(id))
		report.Checked += rr.Checked
		report.Gaps = append(report.Gaps, rr.Gaps...)
		report.Recipes = append(report.Recipes, rr)
	}

	return report
}

func (v *Validator) validateRecipe(recipe *catalog.Recipe) RecipeReport {
	rr := RecipeReport{Recipe: recipe.Name}

	// A stated preference for an undeclared method is a catalog defect even
	// though selection would silently skip it.
	for _, name := range recipe.Prefer {
		if _, ok := recipe.Methods[name]; !ok {
			rr.Gaps = append(rr.Gaps, Gap{
				Recipe: recipe.Name,
				Method: name,
				Reason: "prefer entry does not name a declared method",
			})
		}
	}

	reachable := v.reachability(recipe)

	for _, name := range sortedMethodNames(recipe) {
		method := recipe.Methods[name]
		presets := reachable[name]

		if len(presets) == 0 {
			rr.Gaps = append(rr.Gaps, Gap{
				Recipe: recipe.Name,
				Method: name,
				Reason: "method is not applicable under any host preset",
			})
			continue
		}

		scenarios := v.scenariosFor(name, method.Transport)
		rr.Checked += len(presets) * len(scenarios)

		for _, sc := range scenarios {
			match := v.classifier.Classify(recipe.Name, name, method.Transport, sc.ErrorText)
			if match.CatchAll {
				rr.Gaps = append(rr.Gaps, Gap{
					Recipe:   recipe.Name,
					Method:   name,
					Scenario: sc.Name,
					Reason:   "no handler pattern matches the scenario error text",
				})
			}
		}

		// Placeholder resolution fails closed on an unmapped architecture,
		// so a reachable (method, preset) combination whose arch has no
		// mapping can never run.
		if recipe.Uses(catalog.TokenArch) && !recipe.ArchPassthrough {
			for _, preset := range presets {
				if _, ok := recipe.ArchMap[preset.Profile.Arch]; !ok {
					rr.Gaps = append(rr.Gaps, Gap{
						Recipe: recipe.Name,
						Method: name,
						Preset: preset.Name,
						Reason: fmt.Sprintf("arch_map has no entry for %q and arch_passthrough is off", preset.Profile.Arch),
					})
				}
			}
		}
	}

	return rr
}

// reachability maps each method name to the presets under which selection
// would consider it.
func (v *Validator) reachability(recipe *catalog.Recipe) map[string][]catalog.Preset {
	out := make(map[string][]catalog.Preset)
	for _, preset := range v.presets {
		profile := preset.Profile
		selected, err := resolver.SelectMethods(recipe, &profile)
		if err != nil {
			// No applicable method under this preset. That is fine on its
			// own; only a method unreachable everywhere is a gap.
			continue
		}
		for _, sel := range selected {
			out[sel.Name] = append(out[sel.Name], preset)
		}
	}
	return out
}

// scenariosFor collects every scenario the given method must survive: its
// method-family scenarios, its transport-class scenarios, and the fixed
// infrastructure set.
func (v *Validator) scenariosFor(method, transport string) []catalog.Scenario {
	var out []catalog.Scenario
	out = append(out, v.handlers.Scenarios.MethodFamilies[method]...)
	if transport != "" {
		out = append(out, v.handlers.Scenarios.TransportClasses[transport]...)
	}
	out = append(out, v.handlers.Scenarios.Infrastructure...)
	return out
}

func sortedMethodNames(recipe *catalog.Recipe) []string {
	names := make([]string, 0, len(recipe.Methods))
	for name := range recipe.Methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

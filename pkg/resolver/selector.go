package resolver

import (
	"sort"

	"github.com/toolgrab/toolgrab/pkg/catalog"
)

// SelectedMethod pairs a method name with its definition, in selection
// order.
type SelectedMethod struct {
	// Name is the method name.
	Name string

	// Method is the method definition from the recipe.
	Method catalog.Method
}

// nativeManagers lists the native package-manager families per OS family,
// in canonical preference order.
var nativeManagers = map[string][]string{
	"linux":  {"apt", "dnf", "yum", "zypper", "apk", "pacman"},
	"darwin": {"brew", "port"},
}

// ecosystemManagers are the language-ecosystem installers, tried after the
// host's native manager in the canonical order.
var ecosystemManagers = []string{"cargo", "pipx", "pip", "npm", "gem", "go"}

// managerFamilies is the set of all method names that require the matching
// package-manager family on the host.
var managerFamilies = func() map[string]bool {
	set := make(map[string]bool)
	for _, managers := range nativeManagers {
		for _, m := range managers {
			set[m] = true
		}
	}
	for _, m := range ecosystemManagers {
		set[m] = true
	}
	return set
}()

// SelectMethods produces the ordered, filtered list of install methods for
// a recipe on the given host. The recipe's declared preference order is
// authoritative when present; otherwise the canonical order applies: the
// host OS's native package managers, then ecosystem managers, then any
// remaining methods, with the generic fallback last. Methods whose
// package-manager family or required auxiliary binaries are missing from
// the host are dropped. Pure function: no side effects, no I/O.
func SelectMethods(recipe *catalog.Recipe, profile *catalog.HostProfile) ([]SelectedMethod, error) {
	order := recipe.Prefer
	if len(order) == 0 {
		order = canonicalOrder(recipe, profile)
	}

	selected := make([]SelectedMethod, 0, len(order))
	for _, name := range order {
		method, ok := recipe.Methods[name]
		if !ok {
			// Loader enforces this invariant; selection stays defensive
			// only to the extent of skipping, never guessing.
			continue
		}
		if !eligible(name, method, profile) {
			continue
		}
		selected = append(selected, SelectedMethod{Name: name, Method: method})
	}

	if len(selected) == 0 {
		return nil, NewNoApplicableMethodError("no install method is applicable to this host").
			WithRecipe(recipe.Name)
	}
	return selected, nil
}

// eligible reports whether the host satisfies the method's requirements.
func eligible(name string, method catalog.Method, profile *catalog.HostProfile) bool {
	if managerFamilies[name] && !profile.HasManager(name) {
		return false
	}
	for _, bin := range method.Requires {
		if !profile.HasBinary(bin) {
			return false
		}
	}
	return true
}

// canonicalOrder builds the fixed fallback order over the recipe's declared
// methods: native managers for the host OS, ecosystem managers, remaining
// methods sorted by name, and the generic fallback last.
func canonicalOrder(recipe *catalog.Recipe, profile *catalog.HostProfile) []string {
	seen := make(map[string]bool, len(recipe.Methods))
	order := make([]string, 0, len(recipe.Methods))

	appendKnown := func(name string) {
		if _, declared := recipe.Methods[name]; declared && !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}

	for _, name := range nativeManagers[profile.OS] {
		appendKnown(name)
	}
	for _, name := range ecosystemManagers {
		appendKnown(name)
	}

	rest := make([]string, 0, len(recipe.Methods))
	for name := range recipe.Methods {
		if !seen[name] && name != catalog.DefaultMethod {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	order = append(order, rest...)

	appendKnown(catalog.DefaultMethod)
	return order
}

package resolver

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/toolgrab/toolgrab/pkg/catalog"
)

// PlaceholderResolver fills a method's command template with host-specific
// values: the architecture token translated through the recipe's table, the
// OS token with any recipe-declared override, and the latest-version token
// resolved through the remote lookup client.
//
// Resolved versions are cached for the lifetime of the resolver (one run),
// so every placeholder in a run agrees on the same version and resolution
// is idempotent.
type PlaceholderResolver struct {
	lookup VersionLookup

	mu       sync.Mutex
	versions map[string]string
}

// NewPlaceholderResolver creates a resolver backed by the given version
// lookup client. The client may be nil when no recipe in play is
// version-dependent.
func NewPlaceholderResolver(lookup VersionLookup) *PlaceholderResolver {
	return &PlaceholderResolver{
		lookup:   lookup,
		versions: make(map[string]string),
	}
}

// Resolve substitutes all placeholder tokens in the method's command
// template for the given host. Substitution fails closed: an architecture
// with no translation and no pass-through policy is an
// UnresolvedPlaceholder error, never a silent raw substitution.
// Version-lookup failures are returned as transport errors for the caller
// to convert into a classifiable Outcome.
func (r *PlaceholderResolver) Resolve(ctx context.Context, recipe *catalog.Recipe, name string, method catalog.Method, profile *catalog.HostProfile) (string, error) {
	command := method.Command

	if strings.Contains(command, catalog.TokenArch) {
		arch, err := r.resolveArch(recipe, profile)
		if err != nil {
			return "", err.WithRecipe(recipe.Name).WithMethod(name)
		}
		command = strings.ReplaceAll(command, catalog.TokenArch, arch)
	}

	if strings.Contains(command, catalog.TokenOS) {
		command = strings.ReplaceAll(command, catalog.TokenOS, resolveOS(recipe, profile))
	}

	if method.VersionDependent {
		version, err := r.resolveVersion(ctx, recipe)
		if err != nil {
			return "", err
		}
		command = strings.ReplaceAll(command, catalog.TokenVersion, version)
	}

	return command, nil
}

// resolveArch translates the host architecture through the recipe's table.
func (r *PlaceholderResolver) resolveArch(recipe *catalog.Recipe, profile *catalog.HostProfile) (string, *ResolveError) {
	if mapped, ok := recipe.ArchMap[profile.Arch]; ok {
		return mapped, nil
	}
	if recipe.ArchPassthrough {
		return profile.Arch, nil
	}
	return "", NewUnresolvedPlaceholderError(
		fmt.Sprintf("architecture %q has no translation and pass-through is not allowed", profile.Arch))
}

// resolveOS lower-cases the host OS family and applies any recipe-declared
// override for ecosystems with non-standard OS naming.
func resolveOS(recipe *catalog.Recipe, profile *catalog.HostProfile) string {
	osToken := strings.ToLower(profile.OS)
	if override, ok := recipe.OSMap[osToken]; ok {
		return override
	}
	return osToken
}

// resolveVersion returns the recipe's latest version, consulting the remote
// lookup at most once per run.
func (r *PlaceholderResolver) resolveVersion(ctx context.Context, recipe *catalog.Recipe) (string, error) {
	if recipe.Version == nil {
		return "", NewUnresolvedPlaceholderError("method is version_dependent but the recipe declares no version source").
			WithRecipe(recipe.Name)
	}

	repo := recipe.Version.GitHubRepo

	r.mu.Lock()
	cached, ok := r.versions[repo]
	r.mu.Unlock()
	if ok {
		return cached, nil
	}

	if r.lookup == nil {
		return "", NewTransportError("no version lookup client configured", nil).WithRecipe(recipe.Name)
	}

	tag, err := r.lookup.LatestVersion(ctx, repo)
	if err != nil {
		return "", NewTransportError(fmt.Sprintf("latest-version lookup for %s failed", repo), err).
			WithRecipe(recipe.Name)
	}

	version := tag
	if recipe.Version.StripTagPrefix {
		version = strings.TrimPrefix(version, "v")
	}

	r.mu.Lock()
	r.versions[repo] = version
	r.mu.Unlock()

	return version, nil
}

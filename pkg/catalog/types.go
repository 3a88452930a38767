package catalog

import (
	"sort"
	"strings"
)

// Method is one concrete install path within a recipe.
type Method struct {
	// Command is the command template. It may contain the {arch}, {os} and
	// {version} placeholder tokens.
	Command string `yaml:"command" json:"command" validate:"required"`

	// Sudo indicates the command must run with elevated privileges.
	Sudo bool `yaml:"sudo" json:"sudo,omitempty"`

	// Transport optionally tags the method with a shared transport class
	// (e.g. "github_release"). Methods carrying the same tag share the
	// transport-class handler layer.
	Transport string `yaml:"transport" json:"transport,omitempty"`

	// Requires lists auxiliary binaries that must be present on the host
	// for this method to be selectable (e.g. "cargo", "curl").
	Requires []string `yaml:"requires" json:"requires,omitempty"`

	// VersionDependent marks the method as needing a remote latest-version
	// lookup to resolve its {version} token.
	VersionDependent bool `yaml:"version_dependent" json:"version_dependent,omitempty"`
}

// VersionSource describes where the latest released version of a tool is
// looked up when a method is version-dependent.
type VersionSource struct {
	// GitHubRepo is the "owner/name" of the repository whose latest release
	// tag is the version.
	GitHubRepo string `yaml:"github_repo" json:"github_repo" validate:"required"`

	// StripTagPrefix removes a leading "v" from the release tag when the
	// download filename convention omits it.
	StripTagPrefix bool `yaml:"strip_tag_prefix" json:"strip_tag_prefix,omitempty"`
}

// Recipe is the declarative description of how to obtain one tool.
type Recipe struct {
	// Name is the recipe id, taken from the catalog map key.
	Name string `yaml:"-" json:"name"`

	// Methods maps method names to install paths. Method names double as
	// package-manager family names ("apt", "brew", "cargo", ...); the
	// reserved name "_default" is the generic fallback.
	Methods map[string]Method `yaml:"methods" json:"methods" validate:"required,min=1,dive"`

	// Prefer is the optional preference order over method names. When
	// present it fully determines selection order; every entry must name a
	// declared method.
	Prefer []string `yaml:"prefer" json:"prefer,omitempty"`

	// ArchMap translates the host CPU architecture into the token this
	// tool's artifacts use (e.g. "x86_64" -> "amd64").
	ArchMap map[string]string `yaml:"arch_map" json:"arch_map,omitempty"`

	// ArchPassthrough allows the raw host architecture through when it has
	// no ArchMap entry. Without it an unmapped architecture fails closed.
	ArchPassthrough bool `yaml:"arch_passthrough" json:"arch_passthrough,omitempty"`

	// OSMap overrides the default lower-cased OS token for ecosystems with
	// non-standard OS naming (e.g. "darwin" -> "apple-darwin").
	OSMap map[string]string `yaml:"os_map" json:"os_map,omitempty"`

	// Version is the latest-version lookup source, required whenever any
	// method is version-dependent.
	Version *VersionSource `yaml:"version" json:"version,omitempty"`

	// Verify is the command that confirms the tool is installed and
	// working, run after a successful method attempt.
	Verify string `yaml:"verify" json:"verify,omitempty"`
}

// Uses reports whether any declared method command contains the given
// placeholder token (including the braces, e.g. "{arch}").
func (r *Recipe) Uses(token string) bool {
	for _, m := range r.Methods {
		if strings.Contains(m.Command, token) {
			return true
		}
	}
	return false
}

// RecipeCatalog is the full set of recipes, keyed by recipe id.
type RecipeCatalog struct {
	Recipes map[string]*Recipe
}

// Get returns the recipe with the given id, or nil.
func (c *RecipeCatalog) Get(id string) *Recipe {
	return c.Recipes[id]
}

// Names returns all recipe ids in sorted order.
func (c *RecipeCatalog) Names() []string {
	return sortedKeys(c.Recipes)
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HostProfile is the resolved description of the host a run targets. The
// core never detects any of this; it is supplied by the caller or a preset.
type HostProfile struct {
	// OS is the host OS family ("linux", "darwin").
	OS string `yaml:"os" json:"os" validate:"required"`

	// Arch is the raw CPU architecture string ("x86_64", "aarch64").
	Arch string `yaml:"arch" json:"arch" validate:"required"`

	// PackageManagers lists the package-manager families available on the
	// host ("apt", "brew", ...).
	PackageManagers []string `yaml:"package_managers" json:"package_managers,omitempty"`

	// Binaries lists auxiliary binaries known to be on the host PATH.
	Binaries []string `yaml:"binaries" json:"binaries,omitempty"`
}

// HasManager reports whether the given package-manager family is available.
func (p *HostProfile) HasManager(name string) bool {
	for _, m := range p.PackageManagers {
		if m == name {
			return true
		}
	}
	return false
}

// HasBinary reports whether the given auxiliary binary is available.
func (p *HostProfile) HasBinary(name string) bool {
	for _, b := range p.Binaries {
		if b == name {
			return true
		}
	}
	return false
}

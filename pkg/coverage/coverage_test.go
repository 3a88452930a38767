package coverage

import (
	"strings"
	"testing"

	"github.com/toolgrab/toolgrab/pkg/catalog"
)

func TestDefaultCatalogsHaveFullCoverage(t *testing.T) {
	recipes, err := catalog.LoadDefaultRecipes()
	if err != nil {
		t.Fatalf("LoadDefaultRecipes() error = %v", err)
	}
	handlers, err := catalog.LoadDefaultHandlers()
	if err != nil {
		t.Fatalf("LoadDefaultHandlers() error = %v", err)
	}

	report := NewValidator(recipes, handlers, nil).Validate()

	for _, gap := range report.Gaps {
		t.Errorf("unexpected gap: %s", gap)
	}
	if report.Checked == 0 {
		t.Error("validation checked no combinations")
	}
	if len(report.Recipes) != len(recipes.Names()) {
		t.Errorf("report covers %d recipes, want %d", len(report.Recipes), len(recipes.Names()))
	}
}

func parseCatalogs(t *testing.T, recipesYAML, handlersYAML string) (*catalog.RecipeCatalog, *catalog.HandlerCatalog) {
	t.Helper()
	recipes, err := catalog.ParseRecipes([]byte(recipesYAML))
	if err != nil {
		t.Fatalf("ParseRecipes() error = %v", err)
	}
	handlers, err := catalog.ParseHandlers([]byte(handlersYAML))
	if err != nil {
		t.Fatalf("ParseHandlers() error = %v", err)
	}
	return recipes, handlers
}

const gapHandlersYAML = `
method_families:
  apt:
    - name: apt-lock
      pattern: "(?i)could not get lock"
      category: package_manager
      remediations:
        - action: retry
infrastructure:
  - name: infra-network
    pattern: "(?i)connection refused"
    category: transport
    remediations:
      - action: retry
scenarios:
  method_families:
    apt:
      - name: dpkg-locked
        error_text: "E: Could not get lock /var/lib/dpkg/lock"
      - name: unit-file-masked
        error_text: "Failed to enable unit: Unit file is masked"
  infrastructure:
    - name: refused
      error_text: "connect: connection refused"
`

func TestValidateFindsUnhandledScenario(t *testing.T) {
	recipes, handlers := parseCatalogs(t, `
recipes:
  ripgrep:
    methods:
      apt:
        command: "apt-get install -y ripgrep"
`, gapHandlersYAML)

	report := NewValidator(recipes, handlers, nil).Validate()

	if !report.HasGaps() {
		t.Fatal("expected a gap for the unmatched scenario")
	}

	var found bool
	for _, gap := range report.Gaps {
		if gap.Scenario == "unit-file-masked" && gap.Method == "apt" {
			found = true
			if !strings.Contains(gap.Reason, "no handler pattern") {
				t.Errorf("gap reason = %q", gap.Reason)
			}
		}
	}
	if !found {
		t.Errorf("no gap names the unmatched scenario; gaps: %v", report.Gaps)
	}
}

func TestValidateFindsUnreachableMethod(t *testing.T) {
	// No preset carries the pacman manager, so the method can never run.
	recipes, handlers := parseCatalogs(t, `
recipes:
  ripgrep:
    methods:
      apt:
        command: "apt-get install -y ripgrep"
      pacman:
        command: "pacman -S --noconfirm ripgrep"
`, `
infrastructure:
  - name: infra-network
    pattern: "(?i)connection refused"
    category: transport
    remediations:
      - action: retry
scenarios:
  infrastructure:
    - name: refused
      error_text: "connect: connection refused"
`)

	report := NewValidator(recipes, handlers, nil).Validate()

	var found bool
	for _, gap := range report.Gaps {
		if gap.Method == "pacman" && strings.Contains(gap.Reason, "not applicable under any") {
			found = true
		}
	}
	if !found {
		t.Errorf("no gap reports pacman as unreachable; gaps: %v", report.Gaps)
	}
}

func TestValidateFindsMissingArchMapping(t *testing.T) {
	// The generic method uses {arch} and the map only covers x86_64, so
	// every aarch64 preset that can reach it is a gap.
	recipes, handlers := parseCatalogs(t, `
recipes:
  ripgrep:
    methods:
      _default:
        command: "curl -O https://example.dev/rg-{arch}.tar.gz"
        requires: [curl]
    arch_map:
      x86_64: amd64
`, `
infrastructure:
  - name: infra-network
    pattern: "(?i)connection refused"
    category: transport
    remediations:
      - action: retry
scenarios:
  infrastructure:
    - name: refused
      error_text: "connect: connection refused"
`)

	report := NewValidator(recipes, handlers, nil).Validate()

	var presets []string
	for _, gap := range report.Gaps {
		if strings.Contains(gap.Reason, "arch_map has no entry") {
			presets = append(presets, gap.Preset)
		}
	}
	if len(presets) == 0 {
		t.Fatalf("no gap reports the missing architecture mapping; gaps: %v", report.Gaps)
	}
	for _, name := range presets {
		preset := catalog.PresetByName(name)
		if preset == nil {
			t.Errorf("gap names unknown preset %q", name)
			continue
		}
		if preset.Profile.Arch == "x86_64" {
			t.Errorf("preset %q is mapped and must not be a gap", name)
		}
	}
}

func TestValidateArchPassthroughClosesTheGap(t *testing.T) {
	recipes, handlers := parseCatalogs(t, `
recipes:
  ripgrep:
    methods:
      _default:
        command: "curl -O https://example.dev/rg-{arch}.tar.gz"
        requires: [curl]
    arch_passthrough: true
`, `
infrastructure:
  - name: infra-network
    pattern: "(?i)connection refused"
    category: transport
    remediations:
      - action: retry
scenarios:
  infrastructure:
    - name: refused
      error_text: "connect: connection refused"
`)

	report := NewValidator(recipes, handlers, nil).Validate()
	if report.HasGaps() {
		t.Errorf("pass-through recipes must not report arch gaps: %v", report.Gaps)
	}
}

func TestValidateCustomPresetSubset(t *testing.T) {
	recipes, handlers := parseCatalogs(t, `
recipes:
  ripgrep:
    methods:
      brew:
        command: "brew install ripgrep"
`, `
method_families:
  brew:
    - name: brew-no-formula
      pattern: "(?i)no available formula"
      category: package_manager
      remediations:
        - action: abort
infrastructure:
  - name: infra-network
    pattern: "(?i)connection refused"
    category: transport
    remediations:
      - action: retry
scenarios:
  method_families:
    brew:
      - name: no-formula
        error_text: "Error: No available formula with the name \"ripgrep\""
  infrastructure:
    - name: refused
      error_text: "connect: connection refused"
`)

	// Against only macOS presets the brew-only recipe is fully covered.
	macOnly := []catalog.Preset{*catalog.PresetByName("macos-arm64")}
	report := NewValidator(recipes, handlers, macOnly).Validate()
	if report.HasGaps() {
		t.Errorf("unexpected gaps against the macOS preset: %v", report.Gaps)
	}

	// Against the full fixed set the method is unreachable on five of six
	// presets, which is fine, but must be reachable somewhere.
	report = NewValidator(recipes, handlers, nil).Validate()
	if report.HasGaps() {
		t.Errorf("brew method is reachable on macos-arm64, no gap expected: %v", report.Gaps)
	}
}

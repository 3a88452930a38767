package resolver

import (
	"testing"

	"github.com/toolgrab/toolgrab/pkg/catalog"
)

func methodNames(selected []SelectedMethod) []string {
	names := make([]string, 0, len(selected))
	for _, s := range selected {
		names = append(names, s.Name)
	}
	return names
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSelectMethods(t *testing.T) {
	recipe := &catalog.Recipe{
		Name: "ripgrep",
		Methods: map[string]catalog.Method{
			"apt":      {Command: "apt-get install -y ripgrep"},
			"brew":     {Command: "brew install ripgrep"},
			"cargo":    {Command: "cargo install ripgrep"},
			"_default": {Command: "curl ...", Requires: []string{"curl", "tar"}},
		},
	}

	tests := []struct {
		name    string
		prefer  []string
		profile catalog.HostProfile
		want    []string
	}{
		{
			name: "canonical order on apt host",
			profile: catalog.HostProfile{
				OS: "linux", Arch: "x86_64",
				PackageManagers: []string{"apt"},
				Binaries:        []string{"curl", "tar"},
			},
			want: []string{"apt", "_default"},
		},
		{
			name: "brew filtered out on linux even when declared",
			profile: catalog.HostProfile{
				OS: "linux", Arch: "x86_64",
				PackageManagers: []string{"apt", "cargo"},
				Binaries:        []string{"curl", "tar"},
			},
			want: []string{"apt", "cargo", "_default"},
		},
		{
			name: "darwin prefers brew",
			profile: catalog.HostProfile{
				OS: "darwin", Arch: "aarch64",
				PackageManagers: []string{"brew"},
				Binaries:        []string{"curl", "tar"},
			},
			want: []string{"brew", "_default"},
		},
		{
			name: "missing required binary drops the fallback",
			profile: catalog.HostProfile{
				OS: "linux", Arch: "x86_64",
				PackageManagers: []string{"apt"},
				Binaries:        []string{"curl"},
			},
			want: []string{"apt"},
		},
		{
			name:   "declared preference is authoritative",
			prefer: []string{"cargo", "apt", "_default"},
			profile: catalog.HostProfile{
				OS: "linux", Arch: "x86_64",
				PackageManagers: []string{"apt", "cargo"},
				Binaries:        []string{"curl", "tar"},
			},
			want: []string{"cargo", "apt", "_default"},
		},
		{
			name: "bare host reaches only the generic fallback",
			profile: catalog.HostProfile{
				OS: "linux", Arch: "x86_64",
				Binaries: []string{"curl", "tar"},
			},
			want: []string{"_default"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := *recipe
			r.Prefer = tt.prefer

			selected, err := SelectMethods(&r, &tt.profile)
			if err != nil {
				t.Fatalf("SelectMethods() error = %v", err)
			}
			if got := methodNames(selected); !equalStrings(got, tt.want) {
				t.Errorf("SelectMethods() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectMethodsOnlyInapplicableOnesDeclared(t *testing.T) {
	recipe := &catalog.Recipe{
		Name: "mac-only",
		Methods: map[string]catalog.Method{
			"brew":     {Command: "brew install thing"},
			"_default": {Command: "curl ...", Requires: []string{"curl"}},
		},
		Prefer: []string{"brew", "_default"},
	}
	profile := &catalog.HostProfile{
		OS: "linux", Arch: "x86_64",
		PackageManagers: []string{"apt"},
		Binaries:        []string{"curl"},
	}

	// brew is declared but not present; selection resolves to the generic
	// fallback rather than failing or picking brew anyway.
	selected, err := SelectMethods(recipe, profile)
	if err != nil {
		t.Fatalf("SelectMethods() error = %v", err)
	}
	if got := methodNames(selected); !equalStrings(got, []string{"_default"}) {
		t.Errorf("SelectMethods() = %v, want [_default]", got)
	}
}

func TestSelectMethodsNoApplicableMethod(t *testing.T) {
	recipe := &catalog.Recipe{
		Name: "ripgrep",
		Methods: map[string]catalog.Method{
			"apt": {Command: "apt-get install -y ripgrep"},
		},
	}
	profile := &catalog.HostProfile{OS: "linux", Arch: "x86_64"}

	_, err := SelectMethods(recipe, profile)
	if err == nil {
		t.Fatal("SelectMethods() succeeded, want error")
	}
	if !IsNoApplicableMethod(err) {
		t.Errorf("error is not a no-applicable-method error: %v", err)
	}
}

func TestSelectMethodsIsPure(t *testing.T) {
	recipe := &catalog.Recipe{
		Name: "ripgrep",
		Methods: map[string]catalog.Method{
			"apt":      {Command: "apt-get install -y ripgrep"},
			"_default": {Command: "curl ..."},
		},
	}
	profile := &catalog.HostProfile{
		OS: "linux", Arch: "x86_64",
		PackageManagers: []string{"apt"},
	}

	first, err := SelectMethods(recipe, profile)
	if err != nil {
		t.Fatalf("SelectMethods() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := SelectMethods(recipe, profile)
		if err != nil {
			t.Fatalf("SelectMethods() error = %v", err)
		}
		if !equalStrings(methodNames(first), methodNames(again)) {
			t.Fatalf("selection is not deterministic: %v vs %v", methodNames(first), methodNames(again))
		}
	}
}

package catalog

import "testing"

func TestPresetCatalog(t *testing.T) {
	presets := Presets()
	if len(presets) != 6 {
		t.Fatalf("got %d presets, want 6", len(presets))
	}

	seen := make(map[string]bool)
	for _, p := range presets {
		if seen[p.Name] {
			t.Errorf("duplicate preset name %q", p.Name)
		}
		seen[p.Name] = true

		if p.Profile.OS != "linux" && p.Profile.OS != "darwin" {
			t.Errorf("preset %q has unexpected OS %q", p.Name, p.Profile.OS)
		}
		if p.Profile.Arch == "" {
			t.Errorf("preset %q has no architecture", p.Name)
		}
	}

	bare := PresetByName("bare-linux-x86_64")
	if bare == nil {
		t.Fatal("bare-linux-x86_64 preset missing")
	}
	if len(bare.Profile.PackageManagers) != 0 {
		t.Errorf("bare preset should have no package managers, got %v", bare.Profile.PackageManagers)
	}

	if PresetByName("windows-arm") != nil {
		t.Error("PresetByName should return nil for an unknown preset")
	}

	names := PresetNames()
	if len(names) != len(presets) {
		t.Errorf("PresetNames() returned %d names, want %d", len(names), len(presets))
	}
}

func TestProfileSchemaValidation(t *testing.T) {
	tests := []struct {
		name    string
		doc     interface{}
		wantErr bool
	}{
		{
			name: "valid linux profile",
			doc: map[string]interface{}{
				"os":               "linux",
				"arch":             "x86_64",
				"package_managers": []interface{}{"apt"},
			},
		},
		{
			name: "unsupported os",
			doc: map[string]interface{}{
				"os":   "plan9",
				"arch": "x86_64",
			},
			wantErr: true,
		},
		{
			name: "missing arch",
			doc: map[string]interface{}{
				"os": "linux",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Schemas().Validate("profile", tt.doc)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

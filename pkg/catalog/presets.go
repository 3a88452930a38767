package catalog

// Preset is a named host profile from the fixed preset catalog used by the
// coverage validator.
type Preset struct {
	// Name identifies the preset ("ubuntu-x86_64", "macos-arm64", ...).
	Name string `json:"name"`

	// Profile is the host profile the preset stands for.
	Profile HostProfile `json:"profile"`
}

// Presets returns the fixed host preset catalog. The set is intentionally
// small and stable: coverage holds per preset, so adding one is a catalog
// change that must keep `validate` green.
func Presets() []Preset {
	return []Preset{
		{
			Name: "ubuntu-x86_64",
			Profile: HostProfile{
				OS:              "linux",
				Arch:            "x86_64",
				PackageManagers: []string{"apt"},
				Binaries:        []string{"curl", "tar", "sh"},
			},
		},
		{
			Name: "debian-arm64",
			Profile: HostProfile{
				OS:              "linux",
				Arch:            "aarch64",
				PackageManagers: []string{"apt"},
				Binaries:        []string{"curl", "tar", "sh"},
			},
		},
		{
			Name: "fedora-x86_64",
			Profile: HostProfile{
				OS:              "linux",
				Arch:            "x86_64",
				PackageManagers: []string{"dnf"},
				Binaries:        []string{"curl", "tar", "sh"},
			},
		},
		{
			Name: "alpine-x86_64",
			Profile: HostProfile{
				OS:              "linux",
				Arch:            "x86_64",
				PackageManagers: []string{"apk"},
				Binaries:        []string{"curl", "tar", "sh"},
			},
		},
		{
			Name: "macos-arm64",
			Profile: HostProfile{
				OS:              "darwin",
				Arch:            "aarch64",
				PackageManagers: []string{"brew"},
				Binaries:        []string{"curl", "tar", "sh"},
			},
		},
		{
			// A minimal host with no package manager at all. Only generic
			// fallback methods are reachable here.
			Name: "bare-linux-x86_64",
			Profile: HostProfile{
				OS:       "linux",
				Arch:     "x86_64",
				Binaries: []string{"curl", "tar", "sh"},
			},
		},
	}
}

// PresetByName returns the preset with the given name, or nil.
func PresetByName(name string) *Preset {
	for _, p := range Presets() {
		if p.Name == name {
			preset := p
			return &preset
		}
	}
	return nil
}

// PresetNames returns the names of all presets in catalog order.
func PresetNames() []string {
	presets := Presets()
	names := make([]string, 0, len(presets))
	for _, p := range presets {
		names = append(names, p.Name)
	}
	return names
}

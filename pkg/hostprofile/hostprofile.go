// Package hostprofile loads the host profile a run targets. The engine
// never probes the host itself; the profile comes from a YAML file or a
// named preset.
package hostprofile

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/toolgrab/toolgrab/pkg/catalog"
)

var validate = validator.New()

// Load reads and validates a host profile from a YAML file.
func Load(path string) (*catalog.HostProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read host profile: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates a host profile document.
func Parse(data []byte) (*catalog.HostProfile, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse host profile: %w", err)
	}
	if err := catalog.Schemas().Validate("profile", doc); err != nil {
		return nil, fmt.Errorf("host profile: %w", err)
	}

	var profile catalog.HostProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse host profile: %w", err)
	}
	if err := validate.Struct(&profile); err != nil {
		return nil, fmt.Errorf("host profile: %w", err)
	}

	return &profile, nil
}

// FromPreset returns the profile of a named built-in preset.
func FromPreset(name string) (*catalog.HostProfile, error) {
	preset := catalog.PresetByName(name)
	if preset == nil {
		return nil, fmt.Errorf("unknown host preset %q, known presets: %v", name, catalog.PresetNames())
	}
	profile := preset.Profile
	return &profile, nil
}

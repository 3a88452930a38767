package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/toolgrab/toolgrab/pkg/catalog"
)

func newProfileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Inspect host profiles and presets",
	}

	cmd.AddCommand(newProfilePresetsCommand())
	cmd.AddCommand(newProfileShowCommand())

	return cmd
}

func newProfilePresetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the built-in host presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := catalog.Presets()

			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(presets)
			}

			for _, p := range presets {
				managers := strings.Join(p.Profile.PackageManagers, ", ")
				if managers == "" {
					managers = "-"
				}
				fmt.Printf("%-20s %s/%s  managers: %s\n", p.Name, p.Profile.OS, p.Profile.Arch, managers)
			}
			return nil
		},
	}
}

func newProfileShowCommand() *cobra.Command {
	var (
		profilePath string
		preset      string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a resolved host profile",
		Example: `  # Show a preset
  toolgrab profile show --preset alpine-x86_64

  # Validate and show a profile file
  toolgrab profile show --profile host.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := loadProfile(profilePath, preset)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(profile)
		},
	}

	cmd.Flags().StringVar(&profilePath, "profile", "", "host profile file")
	cmd.Flags().StringVar(&preset, "preset", "", "built-in host preset name")

	return cmd
}

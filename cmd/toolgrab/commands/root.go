package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/toolgrab/toolgrab/pkg/catalog"
	"github.com/toolgrab/toolgrab/pkg/hostprofile"
)

var (
	// Global flags
	recipesPath  string
	handlersPath string
	verbose      bool
	jsonOutput   bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "toolgrab",
		Short: "toolgrab - install-method resolution and recovery engine",
		Long: `toolgrab installs developer tools by choosing the right install method
for the host, resolving command templates, and recovering from failures
through a layered handler catalog.

Features:
  - Declarative YAML recipes with per-host method selection
  - Placeholder resolution for architecture, OS and latest version
  - Four-layer failure classification with automatic retry and fallback
  - Static coverage validation of handlers against failure scenarios
  - SQLite-backed run history`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVar(&recipesPath, "recipes", "", "recipe catalog file (default: embedded catalog)")
	rootCmd.PersistentFlags().StringVar(&handlersPath, "handlers", "", "handler catalog file (default: embedded catalog)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newInstallCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newCatalogCommand())
	rootCmd.AddCommand(newProfileCommand())
	rootCmd.AddCommand(newHistoryCommand())

	return rootCmd
}

// loadCatalogs loads the recipe and handler catalogs from the configured
// paths, falling back to the catalogs embedded in the binary.
func loadCatalogs() (*catalog.RecipeCatalog, *catalog.HandlerCatalog, error) {
	var (
		recipes *catalog.RecipeCatalog
		err     error
	)
	if recipesPath != "" {
		recipes, err = catalog.LoadRecipes(recipesPath)
	} else {
		recipes, err = catalog.LoadDefaultRecipes()
	}
	if err != nil {
		return nil, nil, err
	}

	var handlers *catalog.HandlerCatalog
	if handlersPath != "" {
		handlers, err = catalog.LoadHandlers(handlersPath)
	} else {
		handlers, err = catalog.LoadDefaultHandlers()
	}
	if err != nil {
		return nil, nil, err
	}

	return recipes, handlers, nil
}

// loadProfile resolves the target host profile from a file or a preset
// name. Exactly one of the two must be given.
func loadProfile(profilePath, preset string) (*catalog.HostProfile, error) {
	switch {
	case profilePath != "" && preset != "":
		return nil, fmt.Errorf("--profile and --preset are mutually exclusive")
	case profilePath != "":
		return hostprofile.Load(profilePath)
	case preset != "":
		return hostprofile.FromPreset(preset)
	default:
		return nil, fmt.Errorf("a host profile is required: pass --profile <file> or --preset <name>")
	}
}

func logLevel() string {
	if verbose {
		return "debug"
	}
	return "info"
}

package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/toolgrab/toolgrab/pkg/coverage"
)

func newValidateCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate handler coverage of the catalogs",
		Long: `Validate that the handler catalog covers every failure scenario
reachable through the recipe catalog on the built-in host presets.

This command checks:
  - Every scenario classifies to a real handler, never the backstop
  - Every method is applicable under at least one preset
  - Stated method preferences name declared methods
  - Architecture mappings cover every preset a method is reachable on`,
		Example: `  # Validate the embedded catalogs
  toolgrab validate

  # Validate local catalog files and re-run on every change
  toolgrab validate --recipes recipes.yaml --handlers handlers.yaml --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runValidation(); err != nil {
				if !watch {
					return err
				}
				log.Error().Err(err).Msg("Validation failed")
			}

			if !watch {
				return nil
			}
			if recipesPath == "" && handlersPath == "" {
				return fmt.Errorf("--watch needs --recipes or --handlers, the embedded catalogs never change")
			}
			return watchCatalogs(cmd)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "re-validate whenever a catalog file changes")

	return cmd
}

// runValidation loads the catalogs, runs a full coverage pass and prints
// the report. A report with gaps is an error.
func runValidation() error {
	recipes, handlers, err := loadCatalogs()
	if err != nil {
		return err
	}

	report := coverage.NewValidator(recipes, handlers, nil).Validate()

	if jsonOutput {
		if err := json.NewEncoder(os.Stdout).Encode(report); err != nil {
			return err
		}
	} else {
		printReport(report)
	}

	if report.HasGaps() {
		return fmt.Errorf("coverage validation found %d gap(s)", len(report.Gaps))
	}
	return nil
}

func printReport(report *coverage.Report) {
	for _, gap := range report.Gaps {
		fmt.Printf("GAP %s\n", gap)
	}
	fmt.Printf("checked %d combination(s) across %d recipe(s): %d gap(s)\n",
		report.Checked, len(report.Recipes), len(report.Gaps))
}

// watchCatalogs blocks re-running validation on every catalog file write
// until the command context is canceled.
func watchCatalogs(cmd *cobra.Command) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	for _, path := range []string{recipesPath, handlersPath} {
		if path == "" {
			continue
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
	}

	log.Info().Msg("Watching catalog files, press Ctrl+C to stop")

	for {
		select {
		case <-cmd.Context().Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			log.Info().Str("file", event.Name).Msg("Catalog changed, re-validating")
			if err := runValidation(); err != nil {
				log.Error().Err(err).Msg("Validation failed")
			} else {
				log.Info().Msg("Validation passed")
			}
			// Editors that replace the file drop the watch with it.
			_ = watcher.Add(event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("Watcher error")
		}
	}
}

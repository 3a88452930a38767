package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/toolgrab/toolgrab/pkg/executor"
	"github.com/toolgrab/toolgrab/pkg/resolver"
	"github.com/toolgrab/toolgrab/pkg/stores"
	"github.com/toolgrab/toolgrab/pkg/telemetry"
	"github.com/toolgrab/toolgrab/pkg/versions"
)

func newInstallCommand() *cobra.Command {
	var (
		profilePath string
		preset      string
		manual      bool
		dryRun      bool
		parallelism int
		timeout     time.Duration
		historyPath string
		githubToken string
	)

	cmd := &cobra.Command{
		Use:   "install <tool>...",
		Short: "Install tools on the target host",
		Long: `Install one or more tools by resolving each tool's best install method
for the host profile.

For every tool this command:
  - Selects applicable methods in preference order
  - Resolves architecture, OS and version placeholders
  - Executes the method and verifies the result
  - Classifies failures and retries, falls back or surfaces manual steps
  - Records the run in the history database when one is configured`,
		Example: `  # Install ripgrep using the detected apt method
  toolgrab install ripgrep --preset ubuntu-x86_64

  # Install several tools against a profile file
  toolgrab install ripgrep fzf bat --profile host.yaml

  # Surface remediation options instead of acting on them
  toolgrab install ripgrep --preset macos-arm64 --manual`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := loadProfile(profilePath, preset)
			if err != nil {
				return err
			}

			recipes, handlers, err := loadCatalogs()
			if err != nil {
				return err
			}

			logger, err := telemetry.NewLogger(telemetry.LoggingConfig{
				Level:  logLevel(),
				Format: "console",
				Output: "stderr",
			})
			if err != nil {
				return err
			}

			if githubToken == "" {
				githubToken = os.Getenv("GITHUB_TOKEN")
			}
			lookup, err := versions.NewGitHubClient(versions.GitHubConfig{Token: githubToken}, logger)
			if err != nil {
				return err
			}

			var history resolver.HistoryStore
			if historyPath != "" {
				store, err := stores.NewSQLiteStore(stores.Config{Path: historyPath})
				if err != nil {
					return err
				}
				if err := store.Init(cmd.Context()); err != nil {
					return err
				}
				defer store.Close()
				if err := store.Migrate(cmd.Context()); err != nil {
					return err
				}
				history = stores.NewHistory(store)
			}

			runner, err := resolver.NewRunner(resolver.RunnerConfig{
				Recipes:        recipes,
				Handlers:       handlers,
				Executor:       executor.NewLocal(logger, dryRun),
				Lookup:         lookup,
				Store:          history,
				Logger:         logger,
				AttemptTimeout: timeout,
				Manual:         manual,
			})
			if err != nil {
				return err
			}

			reports := runner.RunAll(cmd.Context(), args, profile, parallelism)

			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(reports)
			}
			return printReports(reports)
		},
	}

	cmd.Flags().StringVar(&profilePath, "profile", "", "host profile file")
	cmd.Flags().StringVar(&preset, "preset", "", "built-in host preset name")
	cmd.Flags().BoolVar(&manual, "manual", false, "surface remediation options instead of acting on them")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log commands without executing them")
	cmd.Flags().IntVar(&parallelism, "parallelism", 4, "max tools resolved in parallel")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-attempt timeout (0 uses the executor default)")
	cmd.Flags().StringVar(&historyPath, "history", "", "run-history database path")
	cmd.Flags().StringVar(&githubToken, "github-token", "", "GitHub token for version lookups (defaults to $GITHUB_TOKEN)")

	return cmd
}

// printReports renders human-readable run reports and returns a non-nil
// error when any run failed, so the process exits non-zero.
func printReports(reports []resolver.RunReport) error {
	failed := 0

	for _, report := range reports {
		if report.Err != nil {
			failed++
			fmt.Printf("✗ %s: %v\n", report.Recipe, report.Err)
			continue
		}

		result := report.Result
		switch result.Status {
		case resolver.RunSucceeded:
			fmt.Printf("✓ %s installed via %s (%d attempt(s), %s)\n",
				result.Recipe, result.Method, len(result.Attempts), result.Duration.Round(time.Millisecond))

		case resolver.RunManualSteps:
			failed++
			fmt.Printf("! %s needs manual intervention:\n", result.Recipe)
			for _, step := range result.ManualSteps {
				fmt.Printf("    - %s\n", step)
			}

		case resolver.RunAborted:
			failed++
			fmt.Printf("✗ %s aborted after %d attempt(s)\n", result.Recipe, len(result.Attempts))
			for _, entry := range result.Chain {
				line := fmt.Sprintf("    %s", entry.Method)
				if entry.Handler != "" {
					line += fmt.Sprintf(" [%s/%s]", entry.Layer, entry.Handler)
				}
				line += fmt.Sprintf(" -> %s", entry.Action)
				if entry.ErrorText != "" {
					line += ": " + firstLine(entry.ErrorText)
				}
				fmt.Println(line)
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d tool(s) not installed", failed, len(reports))
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

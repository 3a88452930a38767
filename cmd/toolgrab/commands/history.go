package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/toolgrab/toolgrab/pkg/stores"
)

func newHistoryCommand() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded runs",
	}

	cmd.PersistentFlags().StringVar(&dbPath, "db", "toolgrab.db", "run-history database path")

	cmd.AddCommand(newHistoryListCommand(&dbPath))
	cmd.AddCommand(newHistoryShowCommand(&dbPath))
	cmd.AddCommand(newHistoryPruneCommand(&dbPath))

	return cmd
}

// openStore opens and migrates the history database. The caller must
// Close the returned store.
func openStore(cmd *cobra.Command, dbPath string) (*stores.SQLiteStore, error) {
	store, err := stores.NewSQLiteStore(stores.Config{Path: dbPath})
	if err != nil {
		return nil, err
	}
	if err := store.Init(cmd.Context()); err != nil {
		return nil, err
	}
	if err := store.Migrate(cmd.Context()); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

func newHistoryListCommand(dbPath *string) *cobra.Command {
	var (
		recipe string
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd, *dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), recipe, limit, offset)
			if err != nil {
				return err
			}

			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(runs)
			}

			for _, run := range runs {
				method := run.Method
				if method == "" {
					method = "-"
				}
				fmt.Printf("%s  %-12s %-12s %-10s %s\n",
					run.StartedAt.Format(time.RFC3339), run.Recipe, run.Status, method, run.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&recipe, "recipe", "", "only runs for this recipe")
	cmd.Flags().IntVar(&limit, "limit", 20, "max runs to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "runs to skip")

	return cmd
}

func newHistoryShowCommand(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run with its attempts and diagnostic chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd, *dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		},
	}
}

func newHistoryPruneCommand(dbPath *string) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete runs older than a cutoff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd, *dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.PruneRuns(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}

			fmt.Printf("removed %d run(s)\n", removed)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "age cutoff for deletion")

	return cmd
}

package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func newCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the recipe and handler catalogs",
	}

	cmd.AddCommand(newCatalogRecipesCommand())
	cmd.AddCommand(newCatalogShowCommand())
	cmd.AddCommand(newCatalogHandlersCommand())

	return cmd
}

func newCatalogRecipesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "recipes",
		Short: "List recipes and their install methods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recipes, _, err := loadCatalogs()
			if err != nil {
				return err
			}

			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(recipes.Recipes)
			}

			for _, name := range recipes.Names() {
				recipe := recipes.Get(name)
				methods := make([]string, 0, len(recipe.Methods))
				for m := range recipe.Methods {
					methods = append(methods, m)
				}
				sort.Strings(methods)
				fmt.Printf("%-12s %s\n", name, strings.Join(methods, ", "))
			}
			return nil
		},
	}
}

func newCatalogShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <recipe>",
		Short: "Show one recipe in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recipes, _, err := loadCatalogs()
			if err != nil {
				return err
			}

			recipe := recipes.Get(args[0])
			if recipe == nil {
				return fmt.Errorf("unknown recipe %q", args[0])
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(recipe)
		},
	}
}

func newCatalogHandlersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "handlers",
		Short: "List handlers by layer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, handlers, err := loadCatalogs()
			if err != nil {
				return err
			}

			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(handlers)
			}

			for recipe, hs := range sortedGroups(handlers.ToolOverrides) {
				for _, h := range hs {
					fmt.Printf("tool_override    %-16s %-24s %s\n", recipe, h.Name, h.Category)
				}
			}
			for family, hs := range sortedGroups(handlers.MethodFamilies) {
				for _, h := range hs {
					fmt.Printf("method_family    %-16s %-24s %s\n", family, h.Name, h.Category)
				}
			}
			for class, hs := range sortedGroups(handlers.TransportClasses) {
				for _, h := range hs {
					fmt.Printf("transport_class  %-16s %-24s %s\n", class, h.Name, h.Category)
				}
			}
			for _, h := range handlers.Infrastructure {
				fmt.Printf("infrastructure   %-16s %-24s %s\n", "*", h.Name, h.Category)
			}
			return nil
		},
	}
}

// sortedGroups yields map entries in key order so output is stable.
func sortedGroups[V any](m map[string]V) func(func(string, V) bool) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return func(yield func(string, V) bool) {
		for _, k := range keys {
			if !yield(k, m[k]) {
				return
			}
		}
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glkit-labs/glkit/internal/pipeline"
	"github.com/glkit-labs/glkit/internal/registry"
)

func init() {
	rootCmd.AddCommand(treeCmd)
}

var treeCmd = &cobra.Command{
	Use:   "tree <name>",
	Short: "Show the dependency tree of an item",
	Long: `Resolve one item and print its registry dependency tree, the order an
installer would add the items in, and the external packages it needs.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, _, err := pipeline.Load(pipelineOptions())
		if err != nil {
			return err
		}

		name := args[0]
		root, err := reg.BuildDependencyTree(name)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", name, err)
		}
		res, err := reg.Resolve(name)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", name, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Dependency tree for %s:\n\n", name)
		registry.PrintResolved(cmd.OutOrStdout(), root, res)
		return nil
	},
}

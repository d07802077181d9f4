package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glkit-labs/glkit/internal/config"
	"github.com/glkit-labs/glkit/internal/registry"
)

var initDiscover bool

func init() {
	initCmd.Flags().BoolVar(&initDiscover, "discover", false, "Record the currently discovered group files as an explicit list")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a glkit.yaml with default settings",
	Long: `Create glkit.yaml in the working directory with the default settings.

With --discover, the group files found below the source root are written
as an explicit, ordered groups list so later builds no longer scan the tree.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var groups []string
		if initDiscover {
			found, err := registry.DiscoverGroups(workFS(), settings.SourceRoot)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				return fmt.Errorf("no group files found below %s", settings.SourceRoot)
			}
			groups = found
		}

		if err := config.Init(groups); err != nil {
			return fmt.Errorf("initializing project: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Created %s\n", config.FilePath())
		for _, g := range groups {
			fmt.Fprintf(out, "  group %s\n", g)
		}
		fmt.Fprintln(out, "Run 'glkit build' to publish the registry.")
		return nil
	},
}

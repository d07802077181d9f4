package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/glkit-labs/glkit/internal/pipeline"
)

func init() {
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the registry without writing anything",
	Long: `Aggregate, resolve and validate every item. All validation problems are
reported in one pass, grouped by item.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		checked, err := pipeline.Check(pipelineOptions())
		if checked == nil {
			return err
		}

		out := cmd.OutOrStdout()
		if err == nil {
			fmt.Fprintf(out, "All %d items valid (%d groups)\n", checked.Report.Checked, len(checked.Groups))
			return nil
		}

		byItem := checked.Report.ByItem()
		names := make([]string, 0, len(byItem))
		for name := range byItem {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Fprintf(out, "%d of %d items have problems:\n", len(names), checked.Report.Checked)
		for _, name := range names {
			source := checked.Registry.Source(name)
			fmt.Fprintf(out, "\n  %s (%s)\n", name, source)
			for _, v := range byItem[name] {
				field := v.Field
				if v.Index >= 0 {
					field = fmt.Sprintf("%s[%d]", v.Field, v.Index)
				}
				if v.Value != "" {
					fmt.Fprintf(out, "    - %s %q: %s\n", field, v.Value, v.Reason)
				} else {
					fmt.Fprintf(out, "    - %s: %s\n", field, v.Reason)
				}
			}
		}
		return fmt.Errorf("%d validation problems", len(checked.Report.Violations))
	},
}

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/glkit-labs/glkit/internal/item"
	"github.com/glkit-labs/glkit/internal/pipeline"
	"github.com/glkit-labs/glkit/internal/scaffold"
	"github.com/glkit-labs/glkit/internal/validate"
)

var (
	addGroup        string
	addDescription  string
	addDeps         []string
	addRegistryDeps []string
)

func init() {
	addCmd.Flags().StringVar(&addGroup, "group", "", "Category directory below the source root (default: the kind directory)")
	addCmd.Flags().StringVar(&addDescription, "description", "", "Item description")
	addCmd.Flags().StringSliceVar(&addDeps, "dep", nil, "External package dependency (repeatable)")
	addCmd.Flags().StringSliceVar(&addRegistryDeps, "registry-dep", nil, "Registry item dependency (repeatable)")
	rootCmd.AddCommand(addCmd)
}

var addCmd = &cobra.Command{
	Use:   "add <kind> <name>",
	Short: "Scaffold a new registry item",
	Long: `Scaffold a new component, hook or lib: write a stub source file from a
built-in template and append the declaration to the category group file.

Examples:
  glkit add hook use-fbo --dep three --dep @react-three/fiber
  glkit add lib ping-pong --group fbo --registry-dep double-fbo`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, ok := item.ParseKind(args[0])
		if !ok {
			return fmt.Errorf("unknown kind %q: must be component, hook or lib", args[0])
		}
		name := args[1]
		if !validate.ValidName(name) {
			return fmt.Errorf("invalid name %q: must be lowercase words separated by hyphens", name)
		}

		opts := pipelineOptions()

		// Names are unique across every group, not only the target one.
		if reg, _, err := pipeline.Load(opts); err == nil {
			if _, exists := reg.Get(name); exists {
				return fmt.Errorf("item %q is already declared in %s", name, reg.Source(name))
			}
		} else {
			logger.Warn("could not load the registry; skipping the duplicate check", "error", err)
		}

		result, err := scaffold.Generate(opts.SourceFS, scaffold.Options{
			Name:                 name,
			Kind:                 kind,
			SourceRoot:           opts.SourceRoot,
			Group:                addGroup,
			Description:          addDescription,
			Dependencies:         addDeps,
			RegistryDependencies: addRegistryDeps,
		})
		if err != nil {
			return err
		}

		for _, v := range validate.New(opts.SourceFS).ValidateItem(result.Item) {
			result.Warnings = append(result.Warnings, v.Error())
		}

		printResult(cmd.OutOrStdout(), kind, result)
		return nil
	},
}

func printResult(w io.Writer, kind item.Kind, result *scaffold.Result) {
	fmt.Fprintf(w, "Created %s %s\n", kind.Short(), result.Item.Name)
	fmt.Fprintf(w, "  %s\n", result.SourceFile)
	if result.GroupCreated {
		fmt.Fprintf(w, "  %s (new group)\n", result.GroupFile)
	} else {
		fmt.Fprintf(w, "  %s (updated)\n", result.GroupFile)
	}
	if len(result.Warnings) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		for _, warning := range result.Warnings {
			fmt.Fprintf(w, "  - %s\n", warning)
		}
	}

	fmt.Fprintln(w, "\nNext steps:")
	fmt.Fprintf(w, "  1. Implement %s\n", result.SourceFile)
	fmt.Fprintln(w, "  2. Run 'glkit validate' to check the declaration")
}

package cli

import (
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/glkit-labs/glkit/internal/pipeline"
)

var (
	buildDryRun   bool
	buildOutDir   string
	buildManifest string
)

func init() {
	addBuildFlags(buildCmd)
	rootCmd.AddCommand(buildCmd)
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the registry manifests",
	Long: `Aggregate, resolve, validate, rewrite and emit the registry.

Nothing is written unless every stage succeeds. Documents whose content did
not change are left untouched.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&buildDryRun, "dry-run", false, "Render everything but write nothing")
	cmd.Flags().StringVar(&buildOutDir, "out-dir", "", "Directory for per-item documents (overrides out_dir)")
	cmd.Flags().StringVar(&buildManifest, "manifest", "", "Aggregate manifest path (overrides manifest)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	opts := pipelineOptions()
	opts.DryRun = buildDryRun
	if buildOutDir != "" {
		opts.OutDir = buildOutDir
	}
	if buildManifest != "" {
		opts.Manifest = buildManifest
	}

	result, err := pipeline.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}

	p := message.NewPrinter(language.English)
	out := cmd.OutOrStdout()

	if opts.DryRun {
		p.Fprintf(out, "Dry run: %d items from %d groups\n", result.Items, len(result.Groups))
		for _, doc := range result.Output.Documents() {
			p.Fprintf(out, "  %s (%d bytes)\n", doc.Path, len(doc.Data))
		}
		return nil
	}

	p.Fprintf(out, "Built %d items from %d groups: %d written, %d unchanged\n",
		result.Items, len(result.Groups), len(result.Written), len(result.Unchanged))
	for _, path := range result.Written {
		p.Fprintf(out, "  wrote %s\n", path)
	}
	return nil
}

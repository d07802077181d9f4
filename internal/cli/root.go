package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/glkit-labs/glkit/internal/branding"
	"github.com/glkit-labs/glkit/internal/config"
	"github.com/glkit-labs/glkit/internal/pipeline"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	configPath string
	verbose    bool

	settings *config.Settings
	logger   = slog.New(slog.DiscardHandler)

	// workDir roots the source and output filesystems. Tests point it at a
	// temporary directory.
	workDir = "."
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` aggregates the registry declaration groups, resolves
their dependency graph, validates every item and publishes the aggregate
manifest plus one self-contained document per item.

Run without a subcommand to build the registry.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = newLogger(cmd.ErrOrStderr(), verbose)

		if cmd.Name() == "version" {
			return nil
		}

		s, err := config.Load(configPath)
		if err != nil {
			return err
		}
		settings = s
		logger.Debug("loaded config", "file", config.FilePath(), "source_root", s.SourceRoot)
		return nil
	},
	RunE: runBuild,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./"+branding.ConfigFile()+")")
	addBuildFlags(rootCmd)
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func workFS() billy.Filesystem {
	return osfs.New(workDir)
}

// pipelineOptions builds run options from the loaded settings.
func pipelineOptions() pipeline.Options {
	fs := workFS()
	return pipeline.Options{
		SourceFS:    fs,
		OutFS:       fs,
		Groups:      settings.Groups,
		SourceRoot:  settings.SourceRoot,
		Name:        settings.Name,
		Homepage:    settings.Homepage,
		OutDir:      settings.OutDir,
		Manifest:    settings.Manifest,
		Concurrency: settings.Concurrency,
		Logger:      logger,
	}
}

// reportError prints every error collected in err, one per line.
func reportError(w io.Writer, err error) {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		errs := joined.Unwrap()
		fmt.Fprintf(w, "Error: %d problems found\n", len(errs))
		for _, e := range errs {
			fmt.Fprintf(w, "  - %v\n", e)
		}
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	err := rootCmd.Execute()
	if err != nil {
		reportError(os.Stderr, err)
	}
	return err
}

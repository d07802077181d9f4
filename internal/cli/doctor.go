package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/glkit-labs/glkit/internal/config"
	"github.com/glkit-labs/glkit/internal/item"
	"github.com/glkit-labs/glkit/internal/registry"
)

var checkGroup string

func init() {
	doctorCmd.Flags().StringVar(&checkGroup, "check-group", "", "Validate a single group file at the given path")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Health check for the registry workspace",
	Long: `Run diagnostic checks on the configuration, the source tree and every
group file. Unlike build, every group file is checked even after a failure.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if checkGroup != "" {
			return runGroupCheck(out, checkGroup)
		}
		return runAllChecks(out)
	},
}

func runAllChecks(w io.Writer) error {
	failed := 0

	fmt.Fprintln(w, "Config check:")
	if _, err := os.Stat(config.FilePath()); err == nil {
		fmt.Fprintf(w, "  [ OK ] %s found\n", config.FilePath())
	} else {
		fmt.Fprintf(w, "  [INFO] %s not found, using defaults\n", config.FilePath())
	}

	fmt.Fprintln(w, "Source check:")
	fs := workFS()
	if _, err := fs.Stat(settings.SourceRoot); err != nil {
		fmt.Fprintf(w, "  [FAIL] source root %s: %v\n", settings.SourceRoot, err)
		return fmt.Errorf("source root %s is missing", settings.SourceRoot)
	}
	fmt.Fprintf(w, "  [ OK ] source root %s\n", settings.SourceRoot)

	groups := settings.Groups
	if len(groups) == 0 {
		found, err := registry.DiscoverGroups(fs, settings.SourceRoot)
		if err != nil {
			fmt.Fprintf(w, "  [FAIL] %v\n", err)
			return err
		}
		groups = found
		fmt.Fprintf(w, "  [INFO] %d group files discovered\n", len(groups))
	}

	fmt.Fprintln(w, "Group check:")
	items := 0
	for _, g := range groups {
		group, err := item.LoadGroup(fs, g)
		if err != nil {
			failed++
			fmt.Fprintf(w, "  [FAIL] %v\n", err)
			continue
		}
		items += len(group.Items)
		fmt.Fprintf(w, "  [ OK ] %s (%d items)\n", g, len(group.Items))
	}

	fmt.Fprintln(w, "Output check:")
	if info, err := fs.Stat(settings.OutDir); err == nil && !info.IsDir() {
		failed++
		fmt.Fprintf(w, "  [FAIL] %s exists and is not a directory\n", settings.OutDir)
	} else if errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(w, "  [INFO] %s will be created\n", settings.OutDir)
	} else {
		fmt.Fprintf(w, "  [ OK ] %s\n", settings.OutDir)
	}

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	fmt.Fprintf(w, "\n%d groups, %d items. Run 'glkit validate' for item-level checks.\n", len(groups), items)
	return nil
}

func runGroupCheck(w io.Writer, path string) error {
	fmt.Fprintf(w, "Group validation: %s\n", path)

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return fmt.Errorf("group validation failed: %w", err)
	}

	result, err := item.ValidateGroup(data)
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return fmt.Errorf("group validation failed: %w", err)
	}

	if result.Valid {
		group, err := item.ParseGroup(data, path)
		if err != nil {
			fmt.Fprintf(w, "  [FAIL] %v\n", err)
			return err
		}
		fmt.Fprintf(w, "  [ OK ] Valid group with %d items\n", len(group.Items))
		return nil
	}

	fmt.Fprintf(w, "  [FAIL] %d validation issue(s):\n", len(result.Issues))
	for _, issue := range result.Issues {
		if issue.Path != "" {
			fmt.Fprintf(w, "    - %s: %s\n", issue.Path, issue.Message)
		} else {
			fmt.Fprintf(w, "    - %s\n", issue.Message)
		}
	}
	return fmt.Errorf("group %s has %d validation issue(s)", path, len(result.Issues))
}

package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/glkit-labs/glkit/internal/item"
	"github.com/glkit-labs/glkit/internal/pipeline"
)

var (
	listTypeFilter string
	listDepFilter  string
	listJSON       bool
)

var listCmd = &cobra.Command{
	Use:   "list [query]",
	Short: "List declared items",
	Long: `List the items declared across all group files.

The query matches against item names and descriptions (case-insensitive
substring). Use --type to filter by kind and --dep to find the items that
pull in an external package.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listTypeFilter, "type", "", "Filter by kind (component, hook, lib)")
	listCmd.Flags().StringVar(&listDepFilter, "dep", "", "Filter by external dependency (e.g., three)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

// listEntry represents a declared item for display.
type listEntry struct {
	Type                 string   `json:"type"`
	Name                 string   `json:"name"`
	Description          string   `json:"description,omitempty"`
	Dependencies         []string `json:"dependencies,omitempty"`
	RegistryDependencies []string `json:"registryDependencies,omitempty"`
	Group                string   `json:"group"`
}

func runList(cmd *cobra.Command, args []string) error {
	query := ""
	if len(args) > 0 {
		query = args[0]
	}

	var kind item.Kind
	if listTypeFilter != "" {
		k, ok := item.ParseKind(listTypeFilter)
		if !ok {
			return fmt.Errorf("unknown type %q", listTypeFilter)
		}
		kind = k
	}

	reg, _, err := pipeline.Load(pipelineOptions())
	if err != nil {
		return err
	}

	var entries []listEntry
	for _, it := range reg.Items() {
		if !matchesList(it, query, kind, listDepFilter) {
			continue
		}
		entries = append(entries, listEntry{
			Type:                 it.Type.Short(),
			Name:                 it.Name,
			Description:          it.Description,
			Dependencies:         it.Dependencies,
			RegistryDependencies: it.RegistryDependencies,
			Group:                reg.Source(it.Name),
		})
	}

	if len(entries) == 0 {
		msg := "No items found"
		if query != "" {
			msg += fmt.Sprintf(" matching %q", query)
		}
		if listTypeFilter != "" {
			msg += fmt.Sprintf(" with --type=%s", listTypeFilter)
		}
		if listDepFilter != "" {
			msg += fmt.Sprintf(" with --dep=%s", listDepFilter)
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	}

	if listJSON {
		return printListJSON(cmd, entries)
	}
	return printListTable(cmd, entries)
}

// matchesList returns true if the item matches all provided filters.
// Filters are AND-combined; empty filters match everything.
func matchesList(it item.Item, query string, kind item.Kind, dep string) bool {
	if kind != "" && it.Type != kind {
		return false
	}

	if dep != "" && !matchesDependency(it.Dependencies, dep) {
		return false
	}

	if query != "" {
		q := strings.ToLower(query)
		if !strings.Contains(strings.ToLower(it.Name), q) &&
			!strings.Contains(strings.ToLower(it.Description), q) {
			return false
		}
	}

	return true
}

// matchesDependency reports whether any external dependency names the
// package filter, ignoring a version range ("three@^0.160.0" matches "three").
func matchesDependency(deps []string, filter string) bool {
	filterLower := strings.ToLower(filter)
	for _, dep := range deps {
		name := dep
		if at := strings.LastIndex(dep, "@"); at > 0 {
			name = dep[:at]
		}
		if strings.ToLower(name) == filterLower {
			return true
		}
	}
	return false
}

func printListTable(cmd *cobra.Command, entries []listEntry) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "TYPE\tNAME\tDEPENDS ON\tDESCRIPTION")
	for _, e := range entries {
		deps := strings.Join(e.RegistryDependencies, ",")
		if deps == "" {
			deps = "-"
		}
		desc := e.Description
		if len(desc) > 60 {
			desc = desc[:57] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Type, e.Name, deps, desc)
	}
	return w.Flush()
}

func printListJSON(cmd *cobra.Command, entries []listEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

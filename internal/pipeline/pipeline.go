// Package pipeline runs the registry build: aggregate the declaration
// groups, resolve every item, validate, rewrite target paths and emit the
// manifests.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-git/go-billy/v5"

	"github.com/glkit-labs/glkit/internal/emit"
	"github.com/glkit-labs/glkit/internal/item"
	"github.com/glkit-labs/glkit/internal/registry"
	"github.com/glkit-labs/glkit/internal/rewrite"
	"github.com/glkit-labs/glkit/internal/validate"
)

// Options configures a run.
type Options struct {
	// SourceFS holds the group files and item sources.
	SourceFS billy.Filesystem
	// OutFS receives the emitted documents. Unused on dry runs.
	OutFS billy.Filesystem

	// Groups lists group files in merge order. When empty, group files are
	// discovered below SourceRoot.
	Groups     []string
	SourceRoot string

	Name        string
	Homepage    string
	OutDir      string
	Manifest    string
	Concurrency int
	DryRun      bool

	Logger *slog.Logger
}

func (o *Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

func (o *Options) sourceRoot() string {
	if o.SourceRoot == "" {
		return rewrite.DefaultSourceRoot
	}
	return o.SourceRoot
}

// Result describes a finished run.
type Result struct {
	Groups    []string
	Items     int
	Resolved  []*registry.Resolved
	Output    *emit.Output
	Written   []string
	Unchanged []string
}

// Checked is the outcome of the read-only stages.
type Checked struct {
	Groups   []string
	Registry *registry.Registry
	Resolved []*registry.Resolved
	Report   *validate.Report
}

// Load reads and aggregates the declaration groups.
func Load(opts Options) (*registry.Registry, []string, error) {
	log := opts.logger()

	groups := opts.Groups
	if len(groups) == 0 {
		discovered, err := registry.DiscoverGroups(opts.SourceFS, opts.sourceRoot())
		if err != nil {
			return nil, nil, fmt.Errorf("discovering groups: %w", err)
		}
		groups = discovered
		log.Debug("discovered group files", "root", opts.sourceRoot(), "count", len(groups))
	}

	loaded, err := item.LoadGroups(opts.SourceFS, groups)
	if err != nil {
		return nil, groups, err
	}

	reg, err := registry.Aggregate(loaded)
	if err != nil {
		return nil, groups, err
	}
	log.Debug("aggregated registry", "groups", len(groups), "items", reg.Len())

	return reg, groups, nil
}

// Check runs aggregation, resolution and validation. Aggregation and
// resolution stop at the first error; validation reports every violation.
// A non-nil Checked is returned with the validation report even when the
// report is invalid.
func Check(opts Options) (*Checked, error) {
	log := opts.logger()

	reg, groups, err := Load(opts)
	if err != nil {
		return nil, err
	}

	resolved, err := reg.ResolveAll()
	if err != nil {
		return nil, err
	}
	log.Debug("resolved registry", "items", len(resolved))

	report := validate.New(opts.SourceFS).Validate(append(reg.Items(), reg.Unnamed()...))
	log.Debug("validated registry", "checked", report.Checked, "violations", len(report.Violations))

	checked := &Checked{
		Groups:   groups,
		Registry: reg,
		Resolved: resolved,
		Report:   report,
	}
	if err := report.Err(); err != nil {
		return checked, err
	}
	return checked, nil
}

// Run executes the whole pipeline. Nothing is written unless every stage
// succeeds.
func Run(ctx context.Context, opts Options) (*Result, error) {
	log := opts.logger()

	checked, err := Check(opts)
	if err != nil {
		return nil, err
	}

	items := rewrite.New(opts.SourceRoot).ApplyAll(checked.Registry.Items())

	emitter := &emit.Emitter{
		Source:      opts.SourceFS,
		Name:        opts.Name,
		Homepage:    opts.Homepage,
		OutDir:      opts.OutDir,
		Manifest:    opts.Manifest,
		Concurrency: opts.Concurrency,
	}
	out, err := emitter.Render(ctx, items)
	if err != nil {
		return nil, err
	}
	log.Debug("rendered documents", "count", len(out.Items)+1)

	result := &Result{
		Groups:   checked.Groups,
		Items:    len(items),
		Resolved: checked.Resolved,
		Output:   out,
	}

	if opts.DryRun {
		log.Info("dry run, nothing written", "items", result.Items)
		return result, nil
	}

	published, err := emit.Publish(opts.OutFS, out)
	if err != nil {
		return nil, err
	}
	result.Written = published.Written
	result.Unchanged = published.Unchanged

	log.Info("registry built",
		"items", result.Items,
		"written", len(result.Written),
		"unchanged", len(result.Unchanged),
	)
	return result, nil
}

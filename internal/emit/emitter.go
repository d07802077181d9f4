package emit

import (
	"context"
	"fmt"
	"io"
	"path"
	"runtime"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/go-git/go-billy/v5"
	"golang.org/x/sync/errgroup"

	"github.com/glkit-labs/glkit/internal/item"
)

// Default output locations, relative to the output filesystem root.
const (
	DefaultOutDir   = "public/r"
	DefaultManifest = "registry.json"
)

// Emitter renders documents from items whose targets are already
// rewritten. Source reads member files; it is never written to.
type Emitter struct {
	Source      billy.Filesystem
	Name        string
	Homepage    string
	OutDir      string
	Manifest    string
	Concurrency int
}

func (e *Emitter) outDir() string {
	if e.OutDir == "" {
		return DefaultOutDir
	}
	return path.Clean(e.OutDir)
}

func (e *Emitter) manifestPath() string {
	if e.Manifest == "" {
		return DefaultManifest
	}
	return path.Clean(e.Manifest)
}

func (e *Emitter) limit() int {
	if e.Concurrency > 0 {
		return e.Concurrency
	}
	return runtime.NumCPU()
}

// ItemPath returns the output path of the per-item document for name.
func (e *Emitter) ItemPath(name string) string {
	return path.Join(e.outDir(), name+".json")
}

// Render builds every document in memory. Member files are read
// concurrently; the first read failure cancels the rest and is returned as
// a *FileReadError. Output order depends only on item names. Two documents
// that would land on the same path fail with a *PathConflictError before
// anything is read.
func (e *Emitter) Render(ctx context.Context, items []item.Item) (*Output, error) {
	ordered := slices.Clone(items)
	slices.SortFunc(ordered, func(a, b item.Item) int {
		return strings.Compare(a.Name, b.Name)
	})

	if err := e.checkPaths(ordered); err != nil {
		return nil, err
	}

	contents, err := e.readAll(ctx, ordered)
	if err != nil {
		return nil, err
	}

	out := &Output{Items: make([]Document, len(ordered))}
	manifest := Manifest{
		Name:     e.Name,
		Homepage: e.Homepage,
		Items:    make([]ManifestItem, len(ordered)),
	}

	for i, it := range ordered {
		manifest.Items[i] = manifestItem(it)

		doc := ItemDocument{
			Name:                 it.Name,
			Type:                 it.Type,
			Description:          it.Description,
			Dependencies:         sorted(it.Dependencies),
			RegistryDependencies: sorted(it.RegistryDependencies),
			Files:                make([]FileContent, len(it.Files)),
		}
		for j, f := range it.Files {
			doc.Files[j] = FileContent{
				Path:    targetOf(f),
				Type:    f.Type,
				Content: contents[i][j],
			}
		}

		data, err := marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", it.Name, err)
		}
		out.Items[i] = Document{Path: e.ItemPath(it.Name), Data: data}
	}

	data, err := marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	out.Manifest = Document{Path: e.manifestPath(), Data: data}

	return out, nil
}

func (e *Emitter) checkPaths(items []item.Item) error {
	owners := map[string]string{e.manifestPath(): "manifest"}
	for _, it := range items {
		p := e.ItemPath(it.Name)
		owner := fmt.Sprintf("item %q", it.Name)
		if first, taken := owners[p]; taken {
			return &PathConflictError{Path: p, First: first, Second: owner}
		}
		owners[p] = owner
	}
	return nil
}

// readAll returns contents[i][j] for file j of item i.
func (e *Emitter) readAll(ctx context.Context, items []item.Item) ([][]string, error) {
	contents := make([][]string, len(items))
	for i, it := range items {
		contents[i] = make([]string, len(it.Files))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit())

	for i, it := range items {
		for j, f := range it.Files {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				data, err := e.readFile(f.Path)
				if err != nil {
					return &FileReadError{Item: it.Name, Path: f.Path, Err: err}
				}
				if !utf8.Valid(data) {
					return &FileReadError{Item: it.Name, Path: f.Path, Err: ErrNotUTF8}
				}
				// Each goroutine owns its own slot.
				contents[i][j] = string(data)
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return contents, nil
}

func (e *Emitter) readFile(name string) ([]byte, error) {
	f, err := e.Source.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck // read-only handle

	return io.ReadAll(f)
}

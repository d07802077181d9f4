package rewrite

import (
	"path"
	"strings"

	"github.com/glkit-labs/glkit/internal/item"
)

// DefaultSourceRoot is the directory item sources live under.
const DefaultSourceRoot = "registry/webgl"

// Rewriter derives target paths. The zero value uses DefaultSourceRoot.
type Rewriter struct {
	SourceRoot string
}

// New returns a Rewriter stripping sourceRoot. An empty root means
// DefaultSourceRoot.
func New(sourceRoot string) *Rewriter {
	return &Rewriter{SourceRoot: sourceRoot}
}

func (r *Rewriter) root() string {
	root := r.SourceRoot
	if root == "" {
		root = DefaultSourceRoot
	}
	root = path.Clean(strings.ReplaceAll(root, `\`, "/"))
	if root == "." || root == "/" {
		return ""
	}
	return strings.TrimPrefix(root, "./")
}

// Target returns the installer path for f. An explicit Target is cleaned
// and returned as is.
func (r *Rewriter) Target(f item.File) string {
	if f.Target != "" {
		return path.Clean(f.Target)
	}
	return r.rewrite(f.Path, f.Type)
}

func (r *Rewriter) rewrite(p string, kind item.Kind) string {
	p = path.Clean(p)
	if root := r.root(); root != "" {
		switch {
		case p == root:
			p = ""
		case strings.HasPrefix(p, root+"/"):
			p = p[len(root)+1:]
		}
	}

	dir := kind.Dir()
	if dir == "" {
		return p
	}
	first, _, _ := strings.Cut(p, "/")
	if first == dir {
		return p
	}
	return path.Join(dir, p)
}

// Apply returns a copy of it with every file's Target filled in. Source
// paths are left untouched so the emitter can still read the files.
func (r *Rewriter) Apply(it item.Item) item.Item {
	out := it.Clone()
	for i := range out.Files {
		out.Files[i].Target = r.Target(out.Files[i])
	}
	return out
}

// ApplyAll rewrites every item, preserving order.
func (r *Rewriter) ApplyAll(items []item.Item) []item.Item {
	out := make([]item.Item, len(items))
	for i, it := range items {
		out[i] = r.Apply(it)
	}
	return out
}

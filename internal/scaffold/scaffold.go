package scaffold

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"text/template"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"go.yaml.in/yaml/v3"

	"github.com/glkit-labs/glkit/internal/item"
)

// groupFiles are the group file names scaffolding may append to, in
// priority order.
var groupFiles = []string{"_registry.yaml", "_registry.yml"}

// Options describes the item to scaffold.
type Options struct {
	Name                 string
	Kind                 item.Kind
	SourceRoot           string // e.g., "registry/webgl"
	Group                string // category directory below SourceRoot; defaults to the kind directory
	Description          string
	Dependencies         []string
	RegistryDependencies []string
}

// ScaffoldData holds all template variables available to scaffold templates.
type ScaffoldData struct {
	Name        string // e.g., "use-double-fbo"
	Identifier  string // Derived: useDoubleFbo, or PortalScene for components
	Kind        item.Kind
	Description string
	Year        int
}

// Result holds the outcome of a scaffold generation.
type Result struct {
	SourceFile   string
	GroupFile    string
	GroupCreated bool
	Item         item.Item
	Warnings     []string
}

// NewScaffoldData creates a ScaffoldData with derived fields populated.
func NewScaffoldData(name string, kind item.Kind, description string) *ScaffoldData {
	d := &ScaffoldData{
		Name:        name,
		Kind:        kind,
		Description: description,
		Year:        time.Now().Year(),
	}
	if d.Description == "" {
		d.Description = fmt.Sprintf("%s %s", strings.ToUpper(kind.Short()[:1])+kind.Short()[1:], name)
	}
	d.Identifier = identifier(name, kind == item.KindComponent)
	return d
}

// identifier turns "use-double-fbo" into "useDoubleFbo", or "UseDoubleFbo"
// when exported is set.
func identifier(name string, exported bool) string {
	var b strings.Builder
	for i, part := range strings.Split(name, "-") {
		if part == "" {
			continue
		}
		if i == 0 && !exported {
			b.WriteString(part)
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	return b.String()
}

// templateName returns the embedded template for a kind.
func templateName(kind item.Kind) string {
	if kind == item.KindComponent {
		return "component.tsx.tmpl"
	}
	return kind.Short() + ".ts.tmpl"
}

// sourceExt returns the file extension of generated sources.
func sourceExt(kind item.Kind) string {
	if kind == item.KindComponent {
		return ".tsx"
	}
	return ".ts"
}

// Generate writes the stub source file and appends the item declaration to
// the group file in the category directory, creating it when missing.
// Existing files are never overwritten.
func Generate(fsys billy.Filesystem, opts Options) (*Result, error) {
	if !opts.Kind.Valid() {
		return nil, fmt.Errorf("unknown kind %q", opts.Kind)
	}

	group := opts.Group
	if group == "" {
		group = opts.Kind.Dir()
	}
	dir := path.Join(opts.SourceRoot, group)
	sourceFile := path.Join(dir, opts.Name+sourceExt(opts.Kind))

	if _, err := fsys.Stat(sourceFile); err == nil {
		return nil, fmt.Errorf("%s already exists; remove it first", sourceFile)
	}

	groupFile, groupData, err := findGroup(fsys, dir)
	if err != nil {
		return nil, err
	}

	it := item.Item{
		Name:                 opts.Name,
		Type:                 opts.Kind,
		Description:          opts.Description,
		Dependencies:         opts.Dependencies,
		RegistryDependencies: opts.RegistryDependencies,
		Files:                []item.File{{Path: sourceFile, Type: opts.Kind}},
	}

	updated, err := appendItem(groupData, it)
	if err != nil {
		return nil, fmt.Errorf("updating %s: %w", groupFile, err)
	}

	tmplPath := path.Join("scaffolds", templateName(opts.Kind))
	tmplBytes, err := fs.ReadFile(scaffoldFS, tmplPath)
	if err != nil {
		return nil, fmt.Errorf("template for %s not found: %w", opts.Kind, err)
	}

	tmpl, err := template.New(templateName(opts.Kind)).Parse(string(tmplBytes))
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", tmplPath, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, NewScaffoldData(opts.Name, opts.Kind, opts.Description)); err != nil {
		return nil, fmt.Errorf("executing template %s: %w", tmplPath, err)
	}

	if err := util.WriteFile(fsys, sourceFile, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", sourceFile, err)
	}
	if err := util.WriteFile(fsys, groupFile, updated, 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", groupFile, err)
	}

	result := &Result{
		SourceFile:   sourceFile,
		GroupFile:    groupFile,
		GroupCreated: groupData == nil,
		Item:         it,
	}

	// Check the updated group against the group schema.
	valResult, valErr := item.ValidateGroup(updated)
	if valErr != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not validate group: %v", valErr))
	} else if !valResult.Valid {
		for _, issue := range valResult.Issues {
			msg := issue.Message
			if issue.Path != "" {
				msg = issue.Path + ": " + msg
			}
			result.Warnings = append(result.Warnings, msg)
		}
	}

	return result, nil
}

// findGroup returns the group file of dir and its content. Content is nil
// when the directory has no group file yet.
func findGroup(fsys billy.Filesystem, dir string) (string, []byte, error) {
	for _, name := range groupFiles {
		p := path.Join(dir, name)
		data, err := util.ReadFile(fsys, p)
		if err == nil {
			return p, data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", nil, fmt.Errorf("reading %s: %w", p, err)
		}
	}

	if _, err := fsys.Stat(path.Join(dir, "_registry.json")); err == nil {
		return "", nil, fmt.Errorf("%s has a JSON group file; add the item by hand", dir)
	}
	return path.Join(dir, groupFiles[0]), nil, nil
}

// appendItem adds it to the sequence in data, keeping existing comments and
// layout. A name already declared in the group is an error.
func appendItem(data []byte, it item.Item) ([]byte, error) {
	var doc yaml.Node
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	}

	if doc.Kind == 0 {
		doc = yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.SequenceNode, Tag: "!!seq"}},
		}
	}
	seq := doc.Content[0]
	if seq.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("group is not a list")
	}

	var existing []item.Item
	if err := seq.Decode(&existing); err != nil {
		return nil, err
	}
	for _, e := range existing {
		if e.Name == it.Name {
			return nil, fmt.Errorf("item %q is already declared", it.Name)
		}
	}

	var node yaml.Node
	if err := node.Encode(it); err != nil {
		return nil, err
	}
	seq.Content = append(seq.Content, &node)
	// Flow-style lists from an empty document would otherwise stay inline.
	seq.Style = 0

	var out bytes.Buffer
	enc := yaml.NewEncoder(&out)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

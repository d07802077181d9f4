package validate

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/go-git/go-billy/v5"

	"github.com/glkit-labs/glkit/internal/item"
)

// namePattern matches lowercase, hyphen-separated identifiers.
var namePattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// distTagPattern matches package manager dist-tags such as "latest" or "next".
var distTagPattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// ValidName reports whether s is a valid item identifier.
func ValidName(s string) bool {
	return namePattern.MatchString(s)
}

// Report collects every violation found in one pass.
type Report struct {
	Checked    int
	Violations []*SchemaViolationError
}

// Valid reports whether no violation was found.
func (r *Report) Valid() bool {
	return len(r.Violations) == 0
}

// Err joins all violations into one error, or returns nil.
func (r *Report) Err() error {
	if r.Valid() {
		return nil
	}
	errs := make([]error, len(r.Violations))
	for i, v := range r.Violations {
		errs[i] = v
	}
	return errors.Join(errs...)
}

// ByItem groups violations by item name, preserving order.
func (r *Report) ByItem() map[string][]*SchemaViolationError {
	out := make(map[string][]*SchemaViolationError)
	for _, v := range r.Violations {
		out[v.Item] = append(out[v.Item], v)
	}
	return out
}

// Validator checks items. File existence is checked against FS, whose root
// is the source tree that item file paths are relative to.
type Validator struct {
	FS billy.Filesystem
}

// New returns a Validator reading from fs.
func New(fs billy.Filesystem) *Validator {
	return &Validator{FS: fs}
}

// Validate checks every item and returns all violations. Filesystem errors
// other than "not found" are reported as violations of the path too.
func (v *Validator) Validate(items []item.Item) *Report {
	report := &Report{}
	for _, it := range items {
		report.Checked++
		report.Violations = append(report.Violations, v.ValidateItem(it)...)
	}
	return report
}

// ValidateItem checks a single item.
func (v *Validator) ValidateItem(it item.Item) []*SchemaViolationError {
	c := &collector{item: it.Name}

	switch {
	case it.Name == "":
		c.add(FieldName, -1, "", "is required")
	case !ValidName(it.Name):
		c.add(FieldName, -1, it.Name, "must be lowercase words separated by hyphens")
	}

	kindOK := it.Type.Valid()
	if !kindOK {
		c.add(FieldType, -1, string(it.Type), "must be one of "+kindList())
	}

	if len(it.Files) == 0 {
		c.add(FieldFiles, -1, "", "must list at least one file")
	}
	for i, f := range it.Files {
		v.checkFile(c, i, f, it.Type, kindOK)
	}

	for i, dep := range it.Dependencies {
		if reason := checkExternal(dep); reason != "" {
			c.add(FieldDependencies, i, dep, reason)
		}
	}
	for i, dep := range it.RegistryDependencies {
		if !ValidName(dep) {
			c.add(FieldRegistryDependencies, i, dep, "must name a registry item")
		}
	}

	return c.violations
}

func (v *Validator) checkFile(c *collector, i int, f item.File, kind item.Kind, kindOK bool) {
	switch {
	case !f.Type.Valid():
		c.add(FieldFileType, i, string(f.Type), "must be one of "+kindList())
	case kindOK && f.Type != kind:
		c.add(FieldFileType, i, string(f.Type), fmt.Sprintf("must match the item type %q", kind))
	}

	if f.Target != "" {
		if reason := checkRelative(f.Target); reason != "" {
			c.add(FieldTargetPath, i, f.Target, reason)
		}
	}

	if reason := checkRelative(f.Path); reason != "" {
		c.add(FieldSourcePath, i, f.Path, reason)
		return
	}

	info, err := v.FS.Stat(f.Path)
	switch {
	case os.IsNotExist(err):
		c.add(FieldSourcePath, i, f.Path, "does not exist")
	case err != nil:
		c.add(FieldSourcePath, i, f.Path, fmt.Sprintf("cannot be read: %v", err))
	case info.IsDir():
		c.add(FieldSourcePath, i, f.Path, "is a directory, not a file")
	}
}

// checkRelative returns a reason when p is not a clean relative path inside
// the tree.
func checkRelative(p string) string {
	switch {
	case p == "":
		return "is required"
	case strings.HasPrefix(p, "/") || filepath.IsAbs(p):
		return "must be relative"
	case strings.Contains(p, `\`):
		return "must use forward slashes"
	case path.Clean(p) != p:
		return "must be a clean path"
	case p == ".." || strings.HasPrefix(p, "../"):
		return "must not leave the source tree"
	}
	return ""
}

// checkExternal validates an external package reference. The optional
// version range after the last '@' (not at position 0) must parse; it is
// never resolved.
func checkExternal(dep string) string {
	if strings.TrimSpace(dep) == "" {
		return "must not be empty"
	}
	if strings.ContainsAny(dep, " \t\n") {
		return "must not contain whitespace"
	}

	at := strings.LastIndex(dep, "@")
	if at <= 0 {
		return ""
	}
	if strings.HasPrefix(dep, "@") && !strings.Contains(dep[:at], "/") {
		// "@scope" alone is not a package.
		return "scoped package must be @scope/name"
	}
	rng := dep[at+1:]
	if rng == "" {
		return "has an empty version range"
	}
	if distTagPattern.MatchString(rng) {
		return ""
	}
	if _, err := semver.NewConstraint(rng); err != nil {
		return fmt.Sprintf("has an invalid version range: %v", err)
	}
	return ""
}

func kindList() string {
	parts := make([]string, len(item.ValidKinds))
	for i, k := range item.ValidKinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, ", ")
}

type collector struct {
	item       string
	violations []*SchemaViolationError
}

func (c *collector) add(field string, index int, value, reason string) {
	c.violations = append(c.violations, &SchemaViolationError{
		Item:   c.item,
		Field:  field,
		Index:  index,
		Value:  value,
		Reason: reason,
	})
}

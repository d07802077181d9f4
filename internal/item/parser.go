package item

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"go.yaml.in/yaml/v3"
)

// GroupError reports a group file whose raw structure does not match the
// group schema. All issues found in the file are carried.
type GroupError struct {
	Source string
	Issues []ValidationIssue
}

func (e *GroupError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "group %s is malformed", e.Source)
	for _, issue := range e.Issues {
		b.WriteString("\n  ")
		if issue.Path != "" {
			b.WriteString(issue.Path + ": ")
		}
		b.WriteString(issue.Message)
	}
	return b.String()
}

// ParseGroup decodes a group document (a YAML or JSON sequence of item
// records). Unknown fields are rejected. An empty document is an empty group.
func ParseGroup(data []byte, source string) (*Group, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var items []Item
	if err := dec.Decode(&items); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing group %s: %w", source, err)
	}

	return &Group{Source: source, Items: items}, nil
}

// LoadGroup reads a group file from fs, checks it against the group schema
// and parses it.
func LoadGroup(fs billy.Filesystem, path string) (*Group, error) {
	data, err := util.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading group %s: %w", path, err)
	}

	result, err := ValidateGroup(data)
	if err != nil {
		return nil, fmt.Errorf("checking group %s: %w", path, err)
	}
	if !result.Valid {
		return nil, &GroupError{Source: path, Issues: result.Issues}
	}

	return ParseGroup(data, path)
}

// LoadGroups loads every group in order. The first failure aborts.
func LoadGroups(fs billy.Filesystem, paths []string) ([]Group, error) {
	groups := make([]Group, 0, len(paths))
	for _, p := range paths {
		g, err := LoadGroup(fs, p)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *g)
	}
	return groups, nil
}

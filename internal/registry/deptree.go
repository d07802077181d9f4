package registry

import (
	"fmt"
	"io"
	"strings"
)

// BuildDependencyTree resolves the named item and builds its dependency tree.
// Nodes that appear more than once are marked Deduped after their first
// occurrence. Cycles and missing references fail exactly as in Resolve.
func (r *Registry) BuildDependencyTree(name string) (*DependencyNode, error) {
	if _, err := r.Resolve(name); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	return r.buildNode(name, seen), nil
}

func (r *Registry) buildNode(name string, seen map[string]bool) *DependencyNode {
	it, _ := r.Get(name)
	node := &DependencyNode{
		Name: name,
		Kind: it.Type,
	}

	if seen[name] {
		node.Deduped = true
		return node
	}
	seen[name] = true

	for _, dep := range sortedUnique(it.RegistryDependencies) {
		node.Children = append(node.Children, r.buildNode(dep, seen))
	}
	return node
}

// FlattenTree returns item names in topological order (dependencies first)
// with duplicates removed.
func FlattenTree(root *DependencyNode) []string {
	seen := make(map[string]bool)
	var result []string
	flattenRecursive(root, seen, &result)
	return result
}

func flattenRecursive(node *DependencyNode, seen map[string]bool, result *[]string) {
	if node == nil || node.Deduped || seen[node.Name] {
		return
	}

	for _, child := range node.Children {
		flattenRecursive(child, seen, result)
	}

	seen[node.Name] = true
	*result = append(*result, node.Name)
}

// PrintTree prints the dependency tree with box-drawing characters.
func PrintTree(w io.Writer, node *DependencyNode, prefix string, isLast bool) {
	if node == nil {
		return
	}

	connector := "├── "
	if isLast {
		connector = "└── "
	}

	label := fmt.Sprintf("%s: %s", node.Kind.Short(), node.Name)
	if node.Deduped {
		label += " (deduped)"
	}

	if prefix == "" {
		fmt.Fprintf(w, "  %s\n", label)
	} else {
		fmt.Fprintf(w, "  %s%s%s\n", prefix, connector, label)
	}

	childPrefix := prefix
	if prefix != "" {
		if isLast {
			childPrefix += "    "
		} else {
			childPrefix += "│   "
		}
	} else {
		childPrefix = " "
	}

	for i, child := range node.Children {
		PrintTree(w, child, childPrefix, i == len(node.Children)-1)
	}
}

// PrintResolved prints the resolution summary for one item: the tree, the
// install order and the external packages the consumer has to add.
func PrintResolved(w io.Writer, root *DependencyNode, res *Resolved) {
	PrintTree(w, root, "", true)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Install order: %s (%d items)\n", strings.Join(res.Closure, ", "), len(res.Closure))
	if len(res.External) > 0 {
		fmt.Fprintf(w, "  External packages: %s\n", strings.Join(res.External, ", "))
	} else {
		fmt.Fprintln(w, "  External packages: none")
	}
}

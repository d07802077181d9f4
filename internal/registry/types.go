package registry

import (
	"sort"

	"github.com/glkit-labs/glkit/internal/item"
)

// Registry is the aggregate of all declaration groups, keyed by item name.
// It is built once per run and never mutated after Aggregate returns.
type Registry struct {
	items   map[string]item.Item
	sources map[string]string // item name -> group source
	order   []string          // declaration order
	unnamed []item.Item       // declared without a name
}

// Get returns the item with the given name.
func (r *Registry) Get(name string) (item.Item, bool) {
	it, ok := r.items[name]
	return it, ok
}

// Source returns the group file the item was declared in.
func (r *Registry) Source(name string) string {
	return r.sources[name]
}

// Len returns the number of items.
func (r *Registry) Len() int {
	return len(r.items)
}

// Names returns all item names sorted.
func (r *Registry) Names() []string {
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}

// DeclarationOrder returns item names in the order they were declared.
func (r *Registry) DeclarationOrder() []string {
	return append([]string(nil), r.order...)
}

// Items returns copies of all items sorted by name.
func (r *Registry) Items() []item.Item {
	names := r.Names()
	out := make([]item.Item, 0, len(names))
	for _, n := range names {
		out = append(out, r.items[n].Clone())
	}
	return out
}

// Unnamed returns copies of the items declared without a name. They are
// not part of the graph and never resolve; the validator reports them.
func (r *Registry) Unnamed() []item.Item {
	out := make([]item.Item, len(r.unnamed))
	for i, it := range r.unnamed {
		out[i] = it.Clone()
	}
	return out
}

// Resolved is an item together with its derived dependency closure.
type Resolved struct {
	Item     item.Item
	Closure  []string // dependencies first, the item itself last
	External []string // sorted union of external dependencies over Closure
}

// ClosureSet returns the closure names in sorted order.
func (r *Resolved) ClosureSet() []string {
	names := append([]string(nil), r.Closure...)
	sort.Strings(names)
	return names
}

// DependencyNode represents a node in the dependency tree.
type DependencyNode struct {
	Name     string
	Kind     item.Kind
	Children []*DependencyNode
	Deduped  bool // true if this item was already seen earlier in the tree
}

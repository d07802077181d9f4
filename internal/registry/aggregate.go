package registry

import (
	"github.com/glkit-labs/glkit/internal/item"
)

// Aggregate merges declaration groups, in order, into one Registry.
// A name declared twice, in one group or across groups, fails immediately.
// Items without a name are kept aside (see Unnamed) so validation can
// report them.
func Aggregate(groups []item.Group) (*Registry, error) {
	r := &Registry{
		items:   make(map[string]item.Item),
		sources: make(map[string]string),
	}

	for _, g := range groups {
		for _, it := range g.Items {
			if it.Name == "" {
				r.unnamed = append(r.unnamed, it.Clone())
				if _, ok := r.sources[""]; !ok {
					r.sources[""] = g.Source
				}
				continue
			}
			if first, exists := r.sources[it.Name]; exists {
				return nil, &DuplicateNameError{
					Name:   it.Name,
					First:  first,
					Second: g.Source,
				}
			}
			r.items[it.Name] = it.Clone()
			r.sources[it.Name] = g.Source
			r.order = append(r.order, it.Name)
		}
	}

	return r, nil
}

package registry

import (
	"fmt"
	"sort"
)

type visitState int

const (
	unvisited visitState = iota
	onPath
	done
)

// Resolve computes the transitive closure of registry dependencies for the
// named item and the union of external dependencies over that closure.
// Dependencies are visited in sorted order, so the closure is a deterministic
// topological order with the target last.
func (r *Registry) Resolve(name string) (*Resolved, error) {
	root, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("resolving %q: %w", name, ErrItemNotFound)
	}

	state := make(map[string]visitState)
	external := make(map[string]bool)
	var path []string
	var closure []string

	var visit func(name string) error
	visit = func(name string) error {
		state[name] = onPath
		path = append(path, name)

		it, _ := r.Get(name)
		for _, dep := range sortedUnique(it.RegistryDependencies) {
			switch state[dep] {
			case onPath:
				return cycleError(path, dep)
			case done:
				continue
			}
			if _, exists := r.Get(dep); !exists {
				return &UnresolvedDependencyError{Item: name, Dependency: dep}
			}
			if err := visit(dep); err != nil {
				return err
			}
		}

		for _, ext := range it.Dependencies {
			external[ext] = true
		}

		state[name] = done
		path = path[:len(path)-1]
		closure = append(closure, name)
		return nil
	}

	if err := visit(name); err != nil {
		return nil, err
	}

	return &Resolved{
		Item:     root.Clone(),
		Closure:  closure,
		External: sortedKeys(external),
	}, nil
}

// ResolveAll resolves every item in name order. The first failure aborts.
func (r *Registry) ResolveAll() ([]*Resolved, error) {
	names := r.Names()
	out := make([]*Resolved, 0, len(names))
	for _, n := range names {
		res, err := r.Resolve(n)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

// cycleError builds the cycle from the point where dep first appears on path.
func cycleError(path []string, dep string) error {
	start := 0
	for i, n := range path {
		if n == dep {
			start = i
			break
		}
	}
	cycle := append([]string(nil), path[start:]...)
	cycle = append(cycle, dep)
	return &CyclicDependencyError{Cycle: cycle}
}

func sortedUnique(in []string) []string {
	set := make(map[string]bool, len(in))
	for _, s := range in {
		set[s] = true
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

package registry

import (
	"errors"
	"fmt"
	"strings"
)

// ErrItemNotFound is returned when a requested item is not in the registry.
var ErrItemNotFound = errors.New("item not found")

// DuplicateNameError is returned when two declarations share a name.
type DuplicateNameError struct {
	Name   string
	First  string // group source of the first declaration
	Second string // group source of the conflicting declaration
}

func (e *DuplicateNameError) Error() string {
	if e.First == e.Second {
		return fmt.Sprintf("duplicate item name %q declared twice in %s", e.Name, e.First)
	}
	return fmt.Sprintf("duplicate item name %q declared in %s and %s", e.Name, e.First, e.Second)
}

// CyclicDependencyError is returned when registry dependencies form a cycle.
// Cycle starts and ends with the same name.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return "dependency cycle detected: " + strings.Join(e.Cycle, " -> ")
}

// UnresolvedDependencyError is returned when an item references a registry
// dependency that is not declared.
type UnresolvedDependencyError struct {
	Item       string
	Dependency string
}

func (e *UnresolvedDependencyError) Error() string {
	return fmt.Sprintf("item %q depends on %q, which is not in the registry", e.Item, e.Dependency)
}

// Package registry merges item declaration groups into a single Registry and
// resolves its dependency graph. It discovers group files by directory
// convention, rejects duplicate names, and computes for each item the
// topologically ordered closure of registry dependencies together with the
// union of external package dependencies pulled in along the way.
package registry

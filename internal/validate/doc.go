// Package validate checks registry items against the structural rules the
// installer relies on: identifier names, the closed kind set, non-empty file
// lists, relative source paths that exist on disk, and parseable external
// dependency ranges. Every violation found in a pass is reported, not only
// the first one.
package validate

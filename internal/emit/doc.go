// Package emit renders the registry manifest and the per-item documents and
// publishes them to an output filesystem.
//
// Rendering happens entirely in memory. Publishing stages every changed
// document first and only then moves them into place, so a failed run never
// leaves a partial output set behind.
package emit

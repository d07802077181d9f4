// Package cli defines the Cobra command tree for the glkit CLI. Each file in
// this package registers one top-level command with the root command.
// Commands delegate to internal packages for the registry build and only
// handle flag parsing, I/O formatting and exit status.
package cli

// Package config manages the project settings stored in glkit.yaml in the
// working directory. Every key can be overridden with a GLKIT_ prefixed
// environment variable.
package config

// Package branding provides compile-time identity values for the CLI.
//
// The values live in branding.yaml next to this file and are baked into the
// binary with //go:embed.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName     string `yaml:"cli_name"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
	ConfigFile  string `yaml:"config_file"`
	EnvPrefix   string `yaml:"env_prefix"`
	GoModule    string `yaml:"go_module"`
	Homepage    string `yaml:"homepage"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is empty.
		defaults = brand{
			CLIName:     "glkit",
			DisplayName: "glkit",
			Description: "Builds the WebGL component registry manifests",
			ConfigFile:  "glkit.yaml",
			EnvPrefix:   "GLKIT",
			GoModule:    "github.com/glkit-labs/glkit",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "glkit").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// ConfigFile returns the default project config file name (e.g., "glkit.yaml").
func ConfigFile() string { load(); return defaults.ConfigFile }

// EnvPrefix returns the environment variable prefix (e.g., "GLKIT").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GoModule returns the Go module path.
func GoModule() string { load(); return defaults.GoModule }

// Homepage returns the default registry homepage written to the manifest.
func Homepage() string { load(); return defaults.Homepage }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("out_dir") → "GLKIT_OUT_DIR".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}

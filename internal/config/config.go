package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/glkit-labs/glkit/internal/branding"
)

const fileType = "yaml"

// Setting keys.
const (
	KeyName        = "name"
	KeyHomepage    = "homepage"
	KeySourceRoot  = "source_root"
	KeyGroups      = "groups"
	KeyOutDir      = "out_dir"
	KeyManifest    = "manifest"
	KeyConcurrency = "concurrency"
)

// Keys lists every known setting in display order.
var Keys = []string{
	KeyName,
	KeyHomepage,
	KeySourceRoot,
	KeyGroups,
	KeyOutDir,
	KeyManifest,
	KeyConcurrency,
}

// Settings is the decoded project configuration.
type Settings struct {
	Name        string   `mapstructure:"name"`
	Homepage    string   `mapstructure:"homepage"`
	SourceRoot  string   `mapstructure:"source_root"`
	Groups      []string `mapstructure:"groups"`
	OutDir      string   `mapstructure:"out_dir"`
	Manifest    string   `mapstructure:"manifest"`
	Concurrency int      `mapstructure:"concurrency"`
}

var configFile string

// FilePath returns the config file in use. Before Load it is the default
// file name in the working directory.
func FilePath() string {
	if configFile == "" {
		return branding.ConfigFile()
	}
	return configFile
}

func setDefaults() {
	viper.SetDefault(KeyName, branding.CLIName())
	viper.SetDefault(KeyHomepage, branding.Homepage())
	viper.SetDefault(KeySourceRoot, "registry/webgl")
	viper.SetDefault(KeyGroups, []string{})
	viper.SetDefault(KeyOutDir, "public/r")
	viper.SetDefault(KeyManifest, "registry.json")
	viper.SetDefault(KeyConcurrency, 0)
}

// Load initializes Viper from path (or the default file) and the
// environment, then decodes the settings. A missing file is not an error.
func Load(path string) (*Settings, error) {
	configFile = path
	if configFile == "" {
		configFile = branding.ConfigFile()
	}

	viper.SetConfigFile(configFile)
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading config %s: %w", configFile, err)
	}

	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decoding config %s: %w", configFile, err)
	}
	if s.Concurrency < 0 {
		return nil, fmt.Errorf("%s must not be negative, got %d", KeyConcurrency, s.Concurrency)
	}
	return &s, nil
}

// Get returns a config value by key. Lists are joined with commas.
func Get(key string) string {
	if key == KeyGroups {
		return strings.Join(viper.GetStringSlice(key), ",")
	}
	return viper.GetString(key)
}

// Set writes a config key-value pair and saves the config file. Groups are
// given as a comma separated list.
func Set(key, value string) error {
	if !slices.Contains(Keys, key) {
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys, ", "))
	}

	if key == KeyGroups {
		var groups []string
		for _, g := range strings.Split(value, ",") {
			if g = strings.TrimSpace(g); g != "" {
				groups = append(groups, g)
			}
		}
		viper.Set(key, groups)
	} else {
		viper.Set(key, value)
	}

	path := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(path); os.IsNotExist(err) {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", path, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Init writes a new config file at FilePath holding the current settings
// and the given groups. An existing file is never overwritten.
func Init(groups []string) error {
	path := FilePath()
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	if len(groups) > 0 {
		viper.Set(KeyGroups, groups)
	}
	if err := viper.SafeWriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

package appconfig

import (
	"os"
	"path/filepath"

	"pkt.systems/companion/core"
	"pkt.systems/companion/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int            `mapstructure:"config_version" yaml:"config_version"`
	StateDir      string         `mapstructure:"state_dir" yaml:"state_dir"`
	Namespace     string         `mapstructure:"namespace" yaml:"namespace"`
	Registry      RegistryConfig `mapstructure:"registry" yaml:"registry"`
	Chooser       ChooserConfig  `mapstructure:"chooser" yaml:"chooser"`
	Launch        LaunchConfig   `mapstructure:"launch" yaml:"launch"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// RegistryConfig controls where application metadata is read from.
type RegistryConfig struct {
	DataDirs        []string `mapstructure:"data_dirs" yaml:"data_dirs"`
	Locale          string   `mapstructure:"locale" yaml:"locale"`
	LookupTimeoutMS int      `mapstructure:"lookup_timeout_ms" yaml:"lookup_timeout_ms"`
	IncludeActions  bool     `mapstructure:"include_actions" yaml:"include_actions"`
}

// ChooserConfig controls the chooser presentation.
type ChooserConfig struct {
	Title string `mapstructure:"title" yaml:"title"`
}

// LaunchConfig controls the default companion and what is started when no
// usable selection exists.
type LaunchConfig struct {
	Default  string `mapstructure:"default" yaml:"default"`
	Fallback string `mapstructure:"fallback" yaml:"fallback"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		StateDir:      filepath.Join(home, ".companion", "state"),
		Namespace:     schema.DefaultNamespace,
		Registry: RegistryConfig{
			DataDirs:        []string{},
			Locale:          "",
			LookupTimeoutMS: int(core.DefaultLookupTimeout.Milliseconds()),
			IncludeActions:  true,
		},
		Chooser: ChooserConfig{
			Title: core.DefaultChooserTitle,
		},
		Launch: LaunchConfig{
			Default:  "",
			Fallback: "",
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".companion", "config.yaml"), nil
}

package appconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"pkt.systems/companion/schema"
)

// Load reads configuration from the provided path. If path is empty, uses DefaultConfigPath.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("COMPANION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("state_dir", cfg.StateDir)
	v.SetDefault("namespace", cfg.Namespace)
	v.SetDefault("registry.data_dirs", cfg.Registry.DataDirs)
	v.SetDefault("registry.locale", cfg.Registry.Locale)
	v.SetDefault("registry.lookup_timeout_ms", cfg.Registry.LookupTimeoutMS)
	v.SetDefault("registry.include_actions", cfg.Registry.IncludeActions)
	v.SetDefault("chooser.title", cfg.Chooser.Title)
	v.SetDefault("launch.default", cfg.Launch.Default)
	v.SetDefault("launch.fallback", cfg.Launch.Fallback)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	} else {
		if !v.InConfig("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LookupTimeout returns the registry tier timeout.
func (c Config) LookupTimeout() time.Duration {
	return time.Duration(c.Registry.LookupTimeoutMS) * time.Millisecond
}

func validate(cfg Config) error {
	if strings.TrimSpace(cfg.StateDir) == "" {
		return fmt.Errorf("state_dir is required")
	}
	if strings.TrimSpace(cfg.Namespace) == "" {
		return fmt.Errorf("namespace is required")
	}
	if strings.ContainsAny(cfg.Namespace, `/\`) {
		return fmt.Errorf("namespace must not contain path separators")
	}
	if cfg.Registry.LookupTimeoutMS <= 0 {
		return fmt.Errorf("registry.lookup_timeout_ms must be positive")
	}
	for key, value := range map[string]string{
		"launch.default":  cfg.Launch.Default,
		"launch.fallback": cfg.Launch.Fallback,
	} {
		if strings.TrimSpace(value) == "" {
			continue
		}
		if _, err := schema.ParseComponentID(value); err != nil {
			return fmt.Errorf("%s: %w: %q", key, err, value)
		}
	}
	return nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.StateDir = expandEnv(cfg.StateDir)
	cfg.Registry.Locale = expandEnv(cfg.Registry.Locale)
	for i, dir := range cfg.Registry.DataDirs {
		cfg.Registry.DataDirs[i] = expandEnv(dir)
	}
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := lookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

func lookupEnv(key string) (string, bool) {
	if val, ok := os.LookupEnv(key); ok {
		return val, true
	}
	switch key {
	case "UID":
		return fmt.Sprintf("%d", os.Getuid()), true
	case "GID":
		return fmt.Sprintf("%d", os.Getgid()), true
	}
	return "", false
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

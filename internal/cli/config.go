package cli

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the optional TOML configuration loaded from
// ~/.config/reqsolver/config.toml. Flags override config values.
type Config struct {
	// Strategy is the default resolution strategy (greedy or backtracking).
	Strategy string `toml:"strategy"`

	// Python is the target interpreter version used for requires_python
	// filtering, e.g. "3.11". Empty disables the filter.
	Python string `toml:"python"`

	// TTL is how long cached candidate lists stay fresh.
	TTL duration `toml:"ttl"`

	Cache CacheConfig `toml:"cache"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	// Backend is one of "file" (default), "redis", "mongo", "none".
	Backend string `toml:"backend"`

	// Addr is the backend address: host:port for redis, a connection URI
	// for mongo. Unused by the file backend.
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`

	// Database and Collection apply to the mongo backend.
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// duration wraps time.Duration for TOML string parsing ("24h", "30m").
type duration time.Duration

func (d duration) value() time.Duration { return time.Duration(d) }

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

// defaultConfig returns the configuration used when no file exists.
func defaultConfig() *Config {
	return &Config{
		Strategy: "backtracking",
		TTL:      duration(24 * time.Hour),
		Cache: CacheConfig{
			Backend:    "file",
			Database:   appName,
			Collection: "catalog_cache",
		},
	}
}

// loadConfig reads the config file at path, or the default location when
// path is empty. A missing file yields the defaults; a malformed file is
// an error.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		var err error
		path, err = configPath()
		if err != nil {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configPath returns the config file location using XDG standard
// (~/.config/reqsolver/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Package cli implements the reqsolver command-line interface.
//
// This package provides commands for merging pip-style requirement files
// into a single pinned set and for managing the version catalog cache.
// The CLI is built using cobra and supports verbose logging via the
// charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - resolve: Merge requirement files and resolve a pinned version set
//   - cache: Manage the cached version catalog
//   - completion: Generate shell completion scripts
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/reqsolver/pkg/buildinfo"
	"github.com/matzehuels/reqsolver/pkg/cache"
)

// appName is the application name used for directories and display.
const appName = "reqsolver"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Reqsolver merges requirement files into one pinned set",
		Long:         `Reqsolver merges Python-style requirement files from multiple sources, resolves every package against the registry, and writes a single consistent pinned requirements file.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newCache builds the cache backend selected by flags and config.
// Backend failures fall back to a null cache so resolution still runs.
func (c *CLI) newCache(ctx context.Context, cfg *Config, noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}

	switch cfg.Cache.Backend {
	case "", "file":
		dir, err := cacheDir()
		if err != nil {
			c.Logger.Warnf("cache disabled: %v", err)
			return cache.NewNullCache()
		}
		store, err := cache.NewFileCache(dir)
		if err != nil {
			c.Logger.Warnf("cache disabled: %v", err)
			return cache.NewNullCache()
		}
		return store
	case "redis":
		store, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
			Prefix:   appName + ":",
		})
		if err != nil {
			c.Logger.Warnf("redis cache unavailable, caching disabled: %v", err)
			return cache.NewNullCache()
		}
		return store
	case "mongo":
		store, err := cache.NewMongoCache(ctx, cache.MongoConfig{
			URI:        cfg.Cache.Addr,
			Database:   cfg.Cache.Database,
			Collection: cfg.Cache.Collection,
		})
		if err != nil {
			c.Logger.Warnf("mongo cache unavailable, caching disabled: %v", err)
			return cache.NewNullCache()
		}
		return store
	case "none":
		return cache.NewNullCache()
	default:
		c.Logger.Warnf("unknown cache backend %q, caching disabled", cfg.Cache.Backend)
		return cache.NewNullCache()
	}
}

// cacheDir returns the cache directory using XDG standard (~/.cache/reqsolver/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

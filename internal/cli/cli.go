// Package cli implements the mindstorm command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Nicnick-Xia/MindStorm/pkg/buildinfo"
	"github.com/Nicnick-Xia/MindStorm/pkg/cache"
	"github.com/Nicnick-Xia/MindStorm/pkg/ideas"
	"github.com/Nicnick-Xia/MindStorm/pkg/mindmap"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "mindstorm"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "mindstorm",
		Short:        "MindStorm grows interactive mind maps from a seed concept",
		Long:         `MindStorm is a tool for exploring a concept as a radial mind map: seed a central idea, expand any node into related sub-ideas, and render the growing tree.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Generator Factory
// =============================================================================

// newGenerator builds the idea generator selected by cfg. The offline flag
// forces the deterministic built-in generator regardless of configuration.
func (c *CLI) newGenerator(ctx context.Context, cfg *Config, offline bool) (mindmap.Generator, error) {
	if offline || cfg.Generator.Backend == BackendStatic {
		return ideas.Static{}, nil
	}

	ideaCache, err := c.newCache(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return ideas.NewClient(ideas.Config{
		BaseURL: cfg.Generator.BaseURL,
		APIKey:  os.Getenv(cfg.Generator.APIKeyEnv),
		Model:   cfg.Generator.Model,
		Cache:   ideaCache,
		TTL:     cfg.Cache.TTL(),
	}), nil
}

// newCache builds the idea cache selected by cfg.
func (c *CLI) newCache(ctx context.Context, cfg *Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case CacheNone:
		return cache.NewNullCache(), nil
	case CacheRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			Prefix:   appName + ":",
		})
	default:
		dir := cfg.Cache.Dir
		if dir == "" {
			var err error
			dir, err = cacheDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
		}
		return cache.NewFileCache(dir)
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/mindstorm/).
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

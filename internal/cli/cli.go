// Package cli implements the frontscan command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/frontscan/frontscan/pkg/buildinfo"
	"github.com/frontscan/frontscan/pkg/cache"
	"github.com/frontscan/frontscan/pkg/config"
	"github.com/frontscan/frontscan/pkg/integrations/github"
)

const (
	// appName is the application name used for directories and display.
	appName = "frontscan"

	// tokenEnvVar holds the GitHub API token when no flag is given.
	tokenEnvVar = "GITHUB_TOKEN"
)

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
		Short:        "Frontscan tracks frontend library adoption across GitHub",
		Long:         `Frontscan crawls GitHub repositories, inspects their manifests and lockfiles, and reports which version of a tracked frontend package each repository actually installs.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.crawlCommand())
	root.AddCommand(c.repoCommand())
	root.AddCommand(c.reportCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newGitHubClient builds the GitHub API client from the configured
// cache backend and the token flag or environment.
func (c *CLI) newGitHubClient(cfg *config.Config, token string, noCache bool) (*github.Client, error) {
	if token == "" {
		token = os.Getenv(tokenEnvVar)
	}
	store, err := newCache(cfg, noCache)
	if err != nil {
		return nil, err
	}
	return github.NewClient(token, store, cfg.CacheTTL()), nil
}

func newCache(cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Cache.Backend == "none" {
		return cache.NewNullCache(), nil
	}
	if cfg.Cache.Backend == "redis" {
		return cache.NewRedisCache(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/frontscan/).
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

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Format("2006-01-02")
}

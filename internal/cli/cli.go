package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/spritepack/pkg/buildinfo"
	"github.com/matzehuels/spritepack/pkg/cache"
	"github.com/matzehuels/spritepack/pkg/config"
	"github.com/matzehuels/spritepack/pkg/errors"
	"github.com/matzehuels/spritepack/pkg/history"
	"github.com/matzehuels/spritepack/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "spritepack"

	// envRedisURL and envMongoURI name the environment fallbacks for the
	// shared backends.
	envRedisURL = "SPRITEPACK_REDIS_URL"
	envMongoURI = "SPRITEPACK_MONGO_URI"
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
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Spritepack packs images into sprite sheets",
		Long: `Spritepack packs a set of images into a single sprite sheet and writes
the stylesheet or JSON metadata that locates every image inside it.

Sheets are described in a spritepack.toml file and can be generated once,
or served over HTTP and rebuilt on demand.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.layoutsCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// backendFlags are the storage flags shared by commands that build sheets.
type backendFlags struct {
	noCache   bool
	redisURL  string
	mongoURI  string
	noHistory bool
}

func (f *backendFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().StringVar(&f.redisURL, "redis-url", os.Getenv(envRedisURL), "cache artifacts in Redis instead of on disk (env "+envRedisURL+")")
	cmd.Flags().StringVar(&f.mongoURI, "mongo-uri", os.Getenv(envMongoURI), "record build history in MongoDB instead of on disk (env "+envMongoURI+")")
	cmd.Flags().BoolVar(&f.noHistory, "no-history", false, "do not record build history")
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, f backendFlags) (*pipeline.Runner, error) {
	cc, err := newCache(ctx, f)
	if err != nil {
		return nil, err
	}
	// Cache entries are scoped by release.
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), buildinfo.Version+":")
	runner := pipeline.NewRunner(cc, keyer, c.Logger)

	if !f.noHistory {
		store, err := newHistoryStore(ctx, f.mongoURI)
		if err != nil {
			runner.Close()
			return nil, err
		}
		runner.History = store
	}
	return runner, nil
}

func newCache(ctx context.Context, f backendFlags) (cache.Cache, error) {
	if f.noCache {
		return cache.NewNullCache(), nil
	}
	if f.redisURL != "" {
		if err := errors.ValidateURL(f.redisURL, "redis", "rediss"); err != nil {
			return nil, err
		}
		return cache.NewRedisCache(ctx, f.redisURL, cache.WithRedisPrefix(appName+":"))
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

func newHistoryStore(ctx context.Context, mongoURI string) (history.Store, error) {
	if mongoURI != "" {
		if err := errors.ValidateURL(mongoURI, "mongodb", "mongodb+srv"); err != nil {
			return nil, err
		}
		return history.NewMongoStore(ctx, history.MongoConfig{URI: mongoURI})
	}
	dir, err := history.DefaultDir()
	if err != nil {
		return history.NopStore{}, nil
	}
	return history.NewFileStore(dir)
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads the sheet configuration, defaulting to spritepack.toml in
// the working directory.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.DefaultFile
	}
	return config.Load(path)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/spritepack/).
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

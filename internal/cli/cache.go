package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spritepack/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the artifact cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var redisURL string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached images and metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(cmd.OutOrStdout())
			if redisURL != "" {
				return clearRedis(cmd.Context(), p, redisURL)
			}
			return clearFiles(p)
		},
	}
	cmd.Flags().StringVar(&redisURL, "redis-url", os.Getenv(envRedisURL), "clear the Redis cache instead (env "+envRedisURL+")")
	return cmd
}

func clearFiles(p *printer) error {
	dir, err := cacheDir()
	if err != nil {
		return fmt.Errorf("get cache dir: %w", err)
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		p.note("Cache is empty")
		return nil
	}

	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return err
	}
	if err := fc.Clear(); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	p.ok("Cleared cache")
	p.detail("%s", dir)
	return nil
}

func clearRedis(ctx context.Context, p *printer, url string) error {
	rc, err := cache.NewRedisCache(ctx, url, cache.WithRedisPrefix(appName+":"))
	if err != nil {
		return err
	}
	defer rc.Close()

	n, err := rc.Clear(ctx)
	if err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	p.ok("Cleared %d cached entries", n)
	return nil
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spritepack/pkg/config"
	"github.com/matzehuels/spritepack/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		configPath string
		addr       string
		backend    backendFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve sprite sheets over HTTP",
		Long: `Serve sprite sheets over HTTP.

Sheets are built on demand from their sources and cached by fingerprint.
Responses carry an ETag, so browsers and proxies revalidate cheaply.

Routes:
  GET /healthz
  GET /sheets
  GET /sheets/{name}.{png|css|scss|json}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Serving never writes outputs, so there is nothing to record.
			backend.noHistory = true
			return c.runServe(cmd.Context(), newPrinter(cmd.OutOrStdout()), configPath, addr, backend)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default "+config.DefaultFile+")")
	cmd.Flags().StringVarP(&addr, "addr", "a", server.DefaultAddr, "listen address")
	cmd.Flags().BoolVar(&backend.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().StringVar(&backend.redisURL, "redis-url", os.Getenv(envRedisURL), "cache artifacts in Redis (env "+envRedisURL+")")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, p *printer, configPath, addr string, backend backendFlags) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, backend)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	logger := loggerFromContext(ctx)
	p.note("Serving %d sheets on %s", len(cfg.Sheets), styleLink.Render("http://"+addr))
	for _, name := range cfg.Names() {
		p.detail("/sheets/%s.*", name)
	}
	return server.New(cfg, runner, logger).ListenAndServe(ctx, addr)
}

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spritepack/pkg/config"
	"github.com/matzehuels/spritepack/pkg/errors"
	"github.com/matzehuels/spritepack/pkg/pipeline"
	"github.com/matzehuels/spritepack/pkg/sprite/positioner"
)

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	configPath string
	sheets     []string
	padding    int
	layout     string
	parallel   int
	keepGoing  bool
	dryRun     bool
	backend    backendFlags
}

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOpts

	cmd := &cobra.Command{
		Use:   "generate [sheet...]",
		Short: "Build sprite sheets and write their outputs",
		Long: `Build sprite sheets and write their outputs.

Every sheet in the configuration is built unless sheet names are given as
arguments or with --sheet. Outputs are written atomically: a sheet whose
image or metadata cannot be written leaves the previous files untouched.

Encoded images and metadata are cached by layout fingerprint, so rebuilding
an unchanged sheet is cheap.`,
		Example: `  spritepack generate
  spritepack generate icons flags --padding 2
  spritepack generate --layout column --keep-going -j 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.sheets = append(opts.sheets, args...)
			overrides, err := opts.overrides(cmd)
			if err != nil {
				return err
			}
			return c.runGenerate(cmd.Context(), newPrinter(cmd.OutOrStdout()), opts, overrides)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "config file (default "+config.DefaultFile+")")
	cmd.Flags().StringSliceVarP(&opts.sheets, "sheet", "s", nil, "sheet to build (repeatable)")
	cmd.Flags().IntVarP(&opts.padding, "padding", "p", 0, "override the padding of every sheet")
	cmd.Flags().StringVarP(&opts.layout, "layout", "l", "", "override the layout: "+strings.Join(positioner.Names(), ", "))
	cmd.Flags().IntVarP(&opts.parallel, "parallel", "j", 0, "sheets to build at once (default number of CPUs)")
	cmd.Flags().BoolVarP(&opts.keepGoing, "keep-going", "k", false, "keep building other sheets after a failure")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "build sheets without writing outputs")
	opts.backend.register(cmd)

	return cmd
}

// overrides converts the flags the user actually set into sheet overrides.
func (o generateOpts) overrides(cmd *cobra.Command) (config.Overrides, error) {
	var out config.Overrides
	if cmd.Flags().Changed("padding") {
		if o.padding < 0 {
			return out, errors.New(errors.ErrCodeConfiguration, "padding must be non-negative, got %d", o.padding)
		}
		p := o.padding
		out.Padding = &p
	}
	if o.layout != "" {
		if positioner.Canonical(o.layout) == "" {
			return out, errors.New(errors.ErrCodeConfiguration, "unknown layout %q (must be one of: %s)", o.layout, strings.Join(positioner.Names(), ", "))
		}
		out.Layout = o.layout
	}
	return out, nil
}

// runGenerate loads the config and builds the selected sheets.
func (c *CLI) runGenerate(ctx context.Context, p *printer, opts generateOpts, overrides config.Overrides) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.backend)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, "Building sprite sheets...")
	spinner.Start()

	results, err := runner.RunAll(ctx, cfg, opts.sheets, pipeline.RunAllOptions{
		Parallel:        opts.parallel,
		ContinueOnError: opts.keepGoing,
		Overrides:       overrides,
		DryRun:          opts.dryRun,
	})
	spinner.Stop()

	if len(results) == 0 && err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	built := printResults(p, results, opts.dryRun)
	prog.done("Built %d of %d sheets", built, len(results))
	if err != nil {
		return fmt.Errorf("%d of %d sheets failed", len(results)-built, len(results))
	}
	return nil
}

// printResults reports each sheet and returns how many succeeded.
func printResults(p *printer, results []pipeline.SheetResult, dryRun bool) int {
	built := 0
	for _, r := range results {
		switch {
		case r.Err == nil:
			built++
			p.built(r.Result)
			if dryRun || r.Record == nil {
				continue
			}
			for _, path := range r.Record.Outputs {
				p.output(path)
			}
		case errors.IsCanceled(r.Err):
			p.skipped(r.Name)
		default:
			p.failed(r.Name, errors.UserMessage(r.Err))
		}
	}
	return built
}

package pipeline

import (
	"context"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/spritepack/pkg/config"
	"github.com/matzehuels/spritepack/pkg/errors"
)

// RunAll builds the named sheets of cfg concurrently; no names selects every
// sheet. Results are returned in sheet name order, one per selected sheet.
//
// Without ContinueOnError the first failure cancels the remaining builds and
// is returned. With it every sheet runs to completion and the failures are
// joined.
func (r *Runner) RunAll(ctx context.Context, cfg *config.Config, names []string, opts RunAllOptions) ([]SheetResult, error) {
	sheets, err := cfg.Select(names...)
	if err != nil {
		return nil, err
	}

	if _, ok := RunIDFromContext(ctx); !ok {
		ctx = WithRunID(ctx, uuid.NewString())
	}

	limit := opts.Parallel
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	var g *errgroup.Group
	gctx := ctx
	if opts.ContinueOnError {
		g = &errgroup.Group{}
	} else {
		g, gctx = errgroup.WithContext(ctx)
	}
	g.SetLimit(limit)

	results := make([]SheetResult, len(sheets))
	for i := range sheets {
		sheet := sheets[i]
		sheet.Apply(opts.Overrides)
		results[i].Name = sheet.Name
		g.Go(func() error {
			res, err := r.Build(gctx, sheet)
			if err == nil && !opts.DryRun {
				results[i].Record, err = r.Write(gctx, res)
			}
			results[i].Result = res
			if err != nil {
				err = errors.WithSheet(err, sheet.Name)
				results[i].Err = err
				r.Logger.Error("sheet failed", "sheet", sheet.Name, "error", err)
			}
			return err
		})
	}

	err = g.Wait()
	if !opts.ContinueOnError {
		return results, err
	}

	var errs []error
	for _, res := range results {
		errs = append(errs, res.Err)
	}
	return results, errors.Join(errs...)
}

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/spritepack/pkg/cache"
	"github.com/matzehuels/spritepack/pkg/catalog"
	"github.com/matzehuels/spritepack/pkg/config"
	"github.com/matzehuels/spritepack/pkg/errors"
	"github.com/matzehuels/spritepack/pkg/history"
	"github.com/matzehuels/spritepack/pkg/sprite/metadata"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for its collaborators - it doesn't store
// results. Multiple goroutines can safely use the same Runner with
// different sheets.
type Runner struct {
	Cache   cache.Cache
	Keyer   cache.Keyer
	Logger  *log.Logger
	History history.Store
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// History is disabled until the History field is set.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:   c,
		Keyer:   keyer,
		Logger:  logger,
		History: history.NopStore{},
	}
}

// Build runs catalog → place → compose → emit for one sheet. It does not
// write any file. The context is checked between stages.
func (r *Runner) Build(ctx context.Context, sheet config.Sheet) (*Result, error) {
	if err := sheet.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid sheet: %w", errors.WithSheet(err, sheet.Name))
	}

	runID, ok := RunIDFromContext(ctx)
	if !ok {
		runID = uuid.NewString()
	}
	logger := r.Logger.With("sheet", sheet.Name)
	result := &Result{
		Sheet:     sheet,
		RunID:     runID,
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Catalog
	start := time.Now()
	images, err := r.Catalog(ctx, sheet)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", errors.WithSheet(err, sheet.Name))
	}
	result.Stats.CatalogTime = time.Since(start)
	result.Stats.ImageCount = len(images)
	result.SourceHash = catalog.Digest(images)
	logger.Debug("resolved images",
		"images", len(images),
		"duration", result.Stats.CatalogTime)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 2: Place
	start = time.Now()
	placement, err := r.Place(ctx, sheet, images)
	if err != nil {
		return nil, fmt.Errorf("place: %w", errors.WithSheet(err, sheet.Name))
	}
	result.Placement = placement
	result.Metadata = metadata.Emit(placement)
	result.Stats.PlaceTime = time.Since(start)
	logger.Debug("placed images",
		"strategy", placement.Strategy,
		"canvas", fmt.Sprintf("%dx%d", placement.Canvas.Width, placement.Canvas.Height),
		"duration", result.Stats.PlaceTime)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 3: Compose
	start = time.Now()
	img, hit, err := r.ComposeWithCacheInfo(ctx, sheet, placement, result.Metadata.Fingerprint, result.SourceHash)
	if err != nil {
		return nil, fmt.Errorf("compose: %w", errors.WithSheet(err, sheet.Name))
	}
	result.Image = img
	result.CacheInfo.ImageHit = hit
	result.Stats.ComposeTime = time.Since(start)
	logger.Debug("composed image",
		"bytes", len(img),
		"cached", hit,
		"duration", result.Stats.ComposeTime)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 4: Emit
	start = time.Now()
	artifacts, hit, err := r.EmitWithCacheInfo(ctx, sheet, result.Metadata)
	if err != nil {
		return nil, fmt.Errorf("emit: %w", errors.WithSheet(err, sheet.Name))
	}
	result.Artifacts = artifacts
	result.CacheInfo.MetadataHit = hit
	result.Stats.EmitTime = time.Since(start)

	logger.Info("built sheet",
		"images", result.Stats.ImageCount,
		"canvas", fmt.Sprintf("%dx%d", placement.Canvas.Width, placement.Canvas.Height),
		"fingerprint", result.Metadata.ShortFingerprint(),
		"duration", result.Stats.Total())

	return result, nil
}

// Write stores the image and metadata documents of res atomically and
// records the build in the history store. If any output cannot be written,
// none of the existing files are replaced.
func (r *Runner) Write(ctx context.Context, res *Result) (*history.Record, error) {
	sheet := res.Sheet
	logger := r.Logger.With("sheet", sheet.Name)

	files := []pendingFile{{path: sheet.Image, data: res.Image}}
	outputs := sheet.Outputs()
	for _, format := range sheet.Formats() {
		data, ok := res.Artifacts[format]
		if !ok {
			return nil, errors.WithSheet(errors.New(errors.ErrCodeInternal, "missing %s output", format), sheet.Name)
		}
		files = append(files, pendingFile{path: outputs[format], data: data})
	}

	if err := writeAll(files); err != nil {
		return nil, fmt.Errorf("write: %w", errors.WithSheet(err, sheet.Name))
	}

	rec := history.NewRecord(res.RunID, sheet.Name)
	rec.Fingerprint = res.Metadata.Fingerprint
	rec.SourceHash = res.SourceHash
	rec.Strategy = res.Placement.Strategy
	rec.Images = res.Placement.Len()
	rec.CanvasWidth = res.Metadata.Canvas.Width
	rec.CanvasHeight = res.Metadata.Canvas.Height
	for _, f := range files {
		rec.Outputs = append(rec.Outputs, f.path)
	}

	latest, err := r.History.Latest(ctx, sheet.Name)
	if err != nil {
		logger.Warn("read history", "error", err)
	}
	if latest.SameContent(rec) {
		logger.Info("unchanged since last build", "previous", latest.CreatedAt.Format(time.RFC3339))
	}
	if err := r.History.Put(ctx, rec); err != nil {
		logger.Warn("record history", "error", err)
	}

	for _, f := range files {
		logger.Debug("wrote file", "path", f.path, "bytes", len(f.data))
	}
	return rec, nil
}

// Run builds and writes one sheet.
func (r *Runner) Run(ctx context.Context, sheet config.Sheet) (*Result, *history.Record, error) {
	res, err := r.Build(ctx, sheet)
	if err != nil {
		return nil, nil, err
	}
	rec, err := r.Write(ctx, res)
	if err != nil {
		return res, nil, err
	}
	return res, rec, nil
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	var errs []error
	if r.Cache != nil {
		errs = append(errs, r.Cache.Close())
	}
	if r.History != nil {
		errs = append(errs, r.History.Close())
	}
	return errors.Join(errs...)
}

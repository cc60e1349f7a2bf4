// Package pipeline builds and writes sprite sheets.
//
// This package implements the complete catalog → place → compose → emit
// pipeline used by the CLI and the HTTP server, so both produce identical
// sheets from the same configuration.
//
// # Stages
//
//  1. Catalog: resolve and decode the source images of a sheet
//  2. Place: run the configured positioner over the images
//  3. Compose: render the composite image and encode it
//  4. Emit: derive metadata and render the configured text formats
//
// Encoded images and metadata documents are cached by layout fingerprint, so
// an unchanged sheet skips composition and encoding entirely.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Build(ctx, sheet)
//	if err != nil {
//	    return err
//	}
//	record, err := runner.Write(ctx, result)
//
// Build every sheet of a config concurrently:
//
//	results, err := runner.RunAll(ctx, cfg, nil, pipeline.RunAllOptions{Parallel: 4})
package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/spritepack/pkg/config"
	"github.com/matzehuels/spritepack/pkg/history"
	"github.com/matzehuels/spritepack/pkg/sprite"
	"github.com/matzehuels/spritepack/pkg/sprite/metadata"
)

// Result contains the outputs of building one sheet. Nothing has been
// written to disk yet.
type Result struct {
	// Sheet is the validated sheet the result was built from.
	Sheet config.Sheet

	// RunID identifies the run that produced the result.
	RunID string

	// Placement holds every image with its offset.
	Placement *sprite.PlacementResult

	// Metadata is the emitted sheet description.
	Metadata metadata.Metadata

	// SourceHash is the digest of the source pixels.
	SourceHash string

	// Image is the encoded composite image.
	Image []byte

	// Artifacts contains rendered metadata documents keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which outputs came from the cache.
	CacheInfo CacheInfo
}

// ImageURL returns the cache-busted URL of the sheet image.
func (r *Result) ImageURL() string {
	return r.Metadata.ImageURL(r.Sheet.URLPrefix, r.Sheet.ImageName())
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ImageCount  int
	CatalogTime time.Duration
	PlaceTime   time.Duration
	ComposeTime time.Duration
	EmitTime    time.Duration
}

// Total returns the summed stage durations.
func (s Stats) Total() time.Duration {
	return s.CatalogTime + s.PlaceTime + s.ComposeTime + s.EmitTime
}

// CacheInfo tracks cache hits for the cached outputs.
type CacheInfo struct {
	ImageHit    bool // Whether the encoded image came from cache
	MetadataHit bool // Whether every metadata document came from cache
}

// SheetResult is the outcome of one sheet in a batch.
type SheetResult struct {
	Name   string
	Result *Result
	Record *history.Record
	Err    error
}

// RunAllOptions controls a batch run.
type RunAllOptions struct {
	// Parallel bounds the number of sheets built at once. Zero means the
	// number of CPUs.
	Parallel int

	// ContinueOnError keeps building the remaining sheets after a failure.
	// By default the first failure cancels the batch.
	ContinueOnError bool

	// Overrides are applied to every selected sheet.
	Overrides config.Overrides

	// DryRun builds sheets without writing outputs or history.
	DryRun bool
}

type ctxKey struct{}

// WithRunID returns a context carrying a run id. Builds started with it
// report that id instead of generating one.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// RunIDFromContext returns the run id stored by WithRunID.
func RunIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

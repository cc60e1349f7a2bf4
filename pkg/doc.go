// Package pkg provides the core libraries for Spritepack sprite sheet
// generation.
//
// # Overview
//
// Spritepack packs a set of images into one composite image and describes
// where every image landed, so a web page can display each one with a single
// HTTP request. The pkg directory is organized into three areas:
//
//  1. [sprite] - Packing core (positioners, compositor, metadata)
//  2. [pipeline] - Orchestration (catalog → place → compose → emit)
//  3. Infrastructure - [config], [cache], [history], [server]
//
// # Architecture
//
// The typical data flow through Spritepack:
//
//	spritepack.toml + source images
//	         ↓
//	    [catalog] package (list and decode images)
//	         ↓
//	    [sprite/positioner] package (assign offsets)
//	         ↓
//	    [sprite/compositor] package (draw the composite)
//	         ↓
//	    [sprite/metadata] + [sink] packages (fingerprint, CSS/SCSS/JSON)
//	         ↓
//	    image + stylesheet outputs
//
// # Quick Start
//
// Pack two images in memory:
//
//	images := []sprite.SourceImage{
//	    sprite.NewSourceImage("logo", logo),
//	    sprite.NewSourceImage("arrow", arrow),
//	}
//	p, _ := positioner.New(positioner.NameMinArea)
//	res, _ := p.Place(images, 2)
//	img, _ := compositor.Compose(res)
//	meta := metadata.Emit(res)
//	css, _ := sink.CSS{}.Render(meta, sink.RenderOptions{
//	    ImageURL: meta.ImageURL("/img/", "sprites.png"),
//	})
//
// Build every sheet of a config file:
//
//	cfg, _ := config.Load("spritepack.toml")
//	runner := pipeline.NewRunner(nil, nil, nil)
//	results, err := runner.RunAll(ctx, cfg, nil, pipeline.RunAllOptions{})
//
// # Main Packages
//
// [sprite] - Shared types: source images, placed images, canvas and
// placement results.
//
// [sprite/positioner] - Placement strategies: column and min-area shelf
// packing. Both are pure and deterministic.
//
// [sprite/compositor] - Renders a placement into an RGBA canvas.
//
// [sprite/metadata] - Per-image offsets plus the layout fingerprint used for
// cache busting.
//
// [sink] - Metadata formatters (CSS, SCSS, JSON hash) and image encoding.
//
// [catalog] - Source image discovery and decoding (PNG, JPEG, GIF, BMP,
// TIFF, WebP).
//
// [config] - TOML sheet configuration with defaults and validation.
//
// [cache] - Artifact cache with file, Redis and null backends.
//
// [history] - Build records in local JSON files or MongoDB.
//
// [server] - HTTP serving of sheets built on demand.
//
// [errors] - Structured error codes shared by all packages.
//
// [observability] - Optional hooks for metrics and tracing.
//
// [sprite]: https://pkg.go.dev/github.com/matzehuels/spritepack/pkg/sprite
// [sprite/positioner]: https://pkg.go.dev/github.com/matzehuels/spritepack/pkg/sprite/positioner
// [sprite/compositor]: https://pkg.go.dev/github.com/matzehuels/spritepack/pkg/sprite/compositor
// [sprite/metadata]: https://pkg.go.dev/github.com/matzehuels/spritepack/pkg/sprite/metadata
// [sink]: https://pkg.go.dev/github.com/matzehuels/spritepack/pkg/sink
// [catalog]: https://pkg.go.dev/github.com/matzehuels/spritepack/pkg/catalog
// [config]: https://pkg.go.dev/github.com/matzehuels/spritepack/pkg/config
// [cache]: https://pkg.go.dev/github.com/matzehuels/spritepack/pkg/cache
// [history]: https://pkg.go.dev/github.com/matzehuels/spritepack/pkg/history
// [server]: https://pkg.go.dev/github.com/matzehuels/spritepack/pkg/server
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/spritepack/pkg/pipeline
// [errors]: https://pkg.go.dev/github.com/matzehuels/spritepack/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/spritepack/pkg/observability
package pkg

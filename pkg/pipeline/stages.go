package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/spritepack/pkg/cache"
	"github.com/matzehuels/spritepack/pkg/catalog"
	"github.com/matzehuels/spritepack/pkg/config"
	"github.com/matzehuels/spritepack/pkg/observability"
	"github.com/matzehuels/spritepack/pkg/sink"
	"github.com/matzehuels/spritepack/pkg/sprite"
	"github.com/matzehuels/spritepack/pkg/sprite/compositor"
	"github.com/matzehuels/spritepack/pkg/sprite/metadata"
	"github.com/matzehuels/spritepack/pkg/sprite/positioner"
)

// Cache key types reported to the cache hooks.
const (
	keyTypeImage    = "image"
	keyTypeMetadata = "metadata"
)

// Catalog resolves and decodes the source images of sheet.
func (r *Runner) Catalog(ctx context.Context, sheet config.Sheet) (images []sprite.SourceImage, err error) {
	hooks := observability.Pipeline()
	hooks.OnCatalogStart(ctx, sheet.Name)
	start := time.Now()
	defer func() {
		hooks.OnCatalogComplete(ctx, sheet.Name, len(images), time.Since(start), err)
	}()

	return catalog.Resolve(ctx, sheet.Source())
}

// Place runs the sheet's positioner over images and verifies the result.
func (r *Runner) Place(ctx context.Context, sheet config.Sheet, images []sprite.SourceImage) (res *sprite.PlacementResult, err error) {
	p, err := positioner.New(sheet.Layout)
	if err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnPlaceStart(ctx, sheet.Name, p.Name(), len(images))
	start := time.Now()
	defer func() {
		area := 0
		if res != nil {
			area = res.Canvas.Area()
		}
		hooks.OnPlaceComplete(ctx, sheet.Name, p.Name(), area, time.Since(start), err)
	}()

	res, err = p.Place(images, sheet.PaddingValue())
	if err != nil {
		return nil, err
	}
	if err := sprite.CheckLayout(res); err != nil {
		return nil, err
	}
	return res, nil
}

// ComposeWithCacheInfo returns the encoded sheet image, composing it only on
// a cache miss. The boolean reports a cache hit.
func (r *Runner) ComposeWithCacheInfo(ctx context.Context, sheet config.Sheet, res *sprite.PlacementResult, fingerprint, sourceHash string) (data []byte, hit bool, err error) {
	key := r.Keyer.ImageKey(fingerprint, sourceHash, sink.ImageFormat(sheet.Image))
	if data, ok := r.lookup(ctx, key, keyTypeImage); ok {
		return data, true, nil
	}

	hooks := observability.Pipeline()
	hooks.OnComposeStart(ctx, sheet.Name)
	start := time.Now()
	defer func() {
		hooks.OnComposeComplete(ctx, sheet.Name, len(data), time.Since(start), err)
	}()

	img, err := compositor.Compose(res)
	if err != nil {
		return nil, false, err
	}
	data, err = sink.EncodeImage(img, sheet.Image)
	if err != nil {
		return nil, false, err
	}

	r.store(ctx, key, keyTypeImage, data, cache.ImageTTL)
	return data, false, nil
}

// EmitWithCacheInfo renders every metadata format configured for sheet. The
// boolean reports whether all documents came from the cache.
func (r *Runner) EmitWithCacheInfo(ctx context.Context, sheet config.Sheet, meta metadata.Metadata) (artifacts map[string][]byte, allHit bool, err error) {
	formats := sheet.Formats()
	artifacts = make(map[string][]byte, len(formats))

	hooks := observability.Pipeline()
	hooks.OnEmitStart(ctx, sheet.Name, formats)
	start := time.Now()
	defer func() {
		hooks.OnEmitComplete(ctx, sheet.Name, formats, time.Since(start), err)
	}()

	opts := sheet.RenderOptions()
	opts.ImageURL = meta.ImageURL(sheet.URLPrefix, sheet.ImageName())
	optsHash := sheet.OptionsHash()

	allHit = len(formats) > 0
	for _, format := range formats {
		key := r.Keyer.MetadataKey(meta.Fingerprint, format, optsHash)
		if data, ok := r.lookup(ctx, key, keyTypeMetadata); ok {
			artifacts[format] = data
			continue
		}
		allHit = false

		f, err := sink.NewFormatter(format)
		if err != nil {
			return nil, false, err
		}
		data, err := f.Render(meta, opts)
		if err != nil {
			return nil, false, err
		}
		artifacts[format] = data
		r.store(ctx, key, keyTypeMetadata, data, cache.MetadataTTL)
	}
	return artifacts, allHit, nil
}

// lookup reads key from the cache. Cache errors count as misses.
func (r *Runner) lookup(ctx context.Context, key, keyType string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Debug("cache read failed", "key", key, "error", err)
	}
	if err == nil && hit {
		observability.Cache().OnCacheHit(ctx, keyType)
		return data, true
	}
	observability.Cache().OnCacheMiss(ctx, keyType)
	return nil, false
}

// store writes data to the cache. Failures are logged and otherwise ignored.
func (r *Runner) store(ctx context.Context, key, keyType string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Debug("cache write failed", "key", key, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// Package compositor renders a placement into a single pixel buffer.
//
// [Compose] allocates an *image.NRGBA the size of the placement's canvas,
// fills it with a background color (transparent by default) and copies every
// source image to its offset, row by row. Source pixels are never scaled or
// converted: each source must already be an *image.NRGBA of exactly the size
// recorded on the image, otherwise Compose fails with a FORMAT_ERROR.
//
// Compose validates the whole placement before it allocates the destination,
// so a failing call never returns a partially written buffer.
package compositor

import (
	"image"
	"image/color"

	"github.com/matzehuels/spritepack/pkg/errors"
	"github.com/matzehuels/spritepack/pkg/sprite"
)

// Option configures composition.
type Option func(*compositor)

type compositor struct {
	background color.NRGBA
}

// WithBackground fills the canvas with c instead of transparent black.
func WithBackground(c color.NRGBA) Option {
	return func(o *compositor) { o.background = c }
}

// Compose renders res into a new *image.NRGBA sized to res.Canvas.
//
// It fails with a FORMAT_ERROR if a source buffer is not an *image.NRGBA of
// the recorded size, and with a PLACEMENT_ERROR if an image rectangle does not
// lie inside the canvas. Both errors name the offending image.
func Compose(res *sprite.PlacementResult, opts ...Option) (*image.NRGBA, error) {
	o := compositor{}
	for _, opt := range opts {
		opt(&o)
	}

	if res == nil {
		return nil, errors.New(errors.ErrCodePlacement, "no placement to compose")
	}
	if res.Canvas.Width < 0 || res.Canvas.Height < 0 {
		return nil, errors.New(errors.ErrCodePlacement, "invalid canvas %dx%d", res.Canvas.Width, res.Canvas.Height)
	}

	sources := make([]*image.NRGBA, len(res.Images))
	for i, p := range res.Images {
		src, err := checkSource(p)
		if err != nil {
			return nil, err
		}
		if !p.Rect().In(res.Canvas.Bounds()) {
			return nil, errors.New(errors.ErrCodePlacement, "rectangle %v exceeds canvas %dx%d",
				p.Rect(), res.Canvas.Width, res.Canvas.Height).ForImage(p.ID)
		}
		sources[i] = src
	}

	dst := image.NewNRGBA(res.Canvas.Bounds())
	fill(dst, o.background)
	for i, p := range res.Images {
		blit(dst, sources[i], p.X, p.Y)
	}
	return dst, nil
}

// checkSource asserts the pixel format contract for one image.
func checkSource(p sprite.PlacedImage) (*image.NRGBA, error) {
	src, ok := p.Pixels.(*image.NRGBA)
	if !ok {
		return nil, errors.New(errors.ErrCodeFormat, "pixel buffer is %T, want *image.NRGBA", p.Pixels).ForImage(p.ID)
	}
	if size := src.Bounds().Size(); size.X != p.Width || size.Y != p.Height {
		return nil, errors.New(errors.ErrCodeFormat, "pixel buffer is %dx%d, image is %dx%d",
			size.X, size.Y, p.Width, p.Height).ForImage(p.ID)
	}
	return src, nil
}

// fill sets every pixel of dst to c.
func fill(dst *image.NRGBA, c color.NRGBA) {
	if c == (color.NRGBA{}) {
		return
	}
	b := dst.Bounds()
	if b.Empty() {
		return
	}
	row := dst.Pix[:b.Dx()*4]
	for i := 0; i < len(row); i += 4 {
		row[i], row[i+1], row[i+2], row[i+3] = c.R, c.G, c.B, c.A
	}
	for y := 1; y < b.Dy(); y++ {
		copy(dst.Pix[y*dst.Stride:], row)
	}
}

// blit copies src row by row into dst with its top-left corner at (x, y).
// The caller has checked that the rectangle fits.
func blit(dst, src *image.NRGBA, x, y int) {
	sb := src.Bounds()
	rowLen := sb.Dx() * 4
	if rowLen == 0 {
		return
	}
	for row := 0; row < sb.Dy(); row++ {
		si := src.PixOffset(sb.Min.X, sb.Min.Y+row)
		di := dst.PixOffset(x, y+row)
		copy(dst.Pix[di:di+rowLen], src.Pix[si:si+rowLen])
	}
}

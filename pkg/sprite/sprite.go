package sprite

import (
	"image"

	"github.com/matzehuels/spritepack/pkg/errors"
)

// SourceImage is one input image of a packing job.
//
// ID is derived from the base file name without extension and must be unique
// within a job. Pixels is opaque to the positioner; the compositor requires it
// to be an *image.NRGBA with bounds of exactly Width×Height.
type SourceImage struct {
	ID     string
	Width  int
	Height int
	Pixels image.Image
}

// NewSourceImage builds a SourceImage whose dimensions are taken from img.
func NewSourceImage(id string, img image.Image) SourceImage {
	b := img.Bounds()
	return SourceImage{ID: id, Width: b.Dx(), Height: b.Dy(), Pixels: img}
}

// PlacedImage is a SourceImage with its top-left offset inside the canvas.
type PlacedImage struct {
	SourceImage
	X, Y int
}

// Rect returns the image rectangle [X, X+Width) × [Y, Y+Height).
func (p PlacedImage) Rect() image.Rectangle {
	return image.Rect(p.X, p.Y, p.X+p.Width, p.Y+p.Height)
}

// PaddedRect returns the box owned by the image, which extends padding
// pixels past its right and bottom edges.
func (p PlacedImage) PaddedRect(padding int) image.Rectangle {
	return image.Rect(p.X, p.Y, p.X+p.Width+padding, p.Y+p.Height+padding)
}

// Canvas is the size of the composite image.
type Canvas struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns Width×Height.
func (c Canvas) Area() int { return c.Width * c.Height }

// Bounds returns the canvas rectangle anchored at the origin.
func (c Canvas) Bounds() image.Rectangle { return image.Rect(0, 0, c.Width, c.Height) }

// PlacementResult is the output of a positioner: every input image, in input
// order, with its offset, plus the canvas that encloses them. It must not be
// modified once returned.
type PlacementResult struct {
	Images   []PlacedImage
	Canvas   Canvas
	Padding  int
	Strategy string
}

// Len returns the number of placed images.
func (r *PlacementResult) Len() int { return len(r.Images) }

// Find returns the placed image with the given id.
func (r *PlacementResult) Find(id string) (PlacedImage, bool) {
	for _, img := range r.Images {
		if img.ID == id {
			return img, true
		}
	}
	return PlacedImage{}, false
}

// ValidateImages checks an image set before placement: it must be non-empty,
// ids must be valid and unique, and sizes must be non-negative.
func ValidateImages(images []SourceImage) error {
	if len(images) == 0 {
		return errors.New(errors.ErrCodeConfiguration, "no images to place")
	}
	seen := make(map[string]struct{}, len(images))
	for _, img := range images {
		if err := errors.ValidateImageID(img.ID); err != nil {
			return err
		}
		if _, dup := seen[img.ID]; dup {
			return errors.New(errors.ErrCodeConfiguration, "duplicate image id").ForImage(img.ID)
		}
		seen[img.ID] = struct{}{}
		if img.Width < 0 || img.Height < 0 {
			return errors.New(errors.ErrCodeConfiguration, "negative image size %dx%d", img.Width, img.Height).ForImage(img.ID)
		}
	}
	return nil
}

// ValidatePadding rejects negative padding.
func ValidatePadding(padding int) error {
	if padding < 0 {
		return errors.New(errors.ErrCodeConfiguration, "padding must be non-negative, got %d", padding)
	}
	return nil
}

// CheckLayout verifies the packing invariants of r: every padded box lies
// inside the canvas past the leading margin, and no two padded boxes overlap.
// It returns a PLACEMENT_ERROR naming the first offending image.
//
// The pairwise check is quadratic. Positioners do not call it.
func CheckLayout(r *PlacementResult) error {
	p := r.Padding
	inner := image.Rect(p, p, r.Canvas.Width, r.Canvas.Height)
	for i, a := range r.Images {
		box := a.PaddedRect(p)
		if !box.In(inner) {
			return errors.New(errors.ErrCodePlacement, "padded box %v exceeds canvas %dx%d", box, r.Canvas.Width, r.Canvas.Height).ForImage(a.ID)
		}
		for _, b := range r.Images[i+1:] {
			if box.Overlaps(b.PaddedRect(p)) {
				return errors.New(errors.ErrCodePlacement, "overlaps %q", b.ID).ForImage(a.ID)
			}
		}
	}
	return nil
}

package positioner

import "github.com/matzehuels/spritepack/pkg/sprite"

// Column stacks every image vertically in input order.
//
// For image i: x = padding, y = padding + Σ_{j<i}(height_j + padding).
// The canvas is padding*2 + max(width) wide and padding + Σ(height + padding)
// tall.
type Column struct{}

// Name returns "column".
func (Column) Name() string { return NameColumn }

// Place implements [Positioner].
func (Column) Place(images []sprite.SourceImage, padding int) (*sprite.PlacementResult, error) {
	if err := validate(images, padding); err != nil {
		return nil, err
	}
	return placeColumn(images, padding, NameColumn), nil
}

func placeColumn(images []sprite.SourceImage, padding int, strategy string) *sprite.PlacementResult {
	placed := make([]sprite.PlacedImage, len(images))
	y := padding
	maxWidth := 0
	for i, img := range images {
		placed[i] = sprite.PlacedImage{SourceImage: img, X: padding, Y: y}
		y += img.Height + padding
		maxWidth = max(maxWidth, img.Width)
	}
	return &sprite.PlacementResult{
		Images:   placed,
		Canvas:   sprite.Canvas{Width: 2*padding + maxWidth, Height: y},
		Padding:  padding,
		Strategy: strategy,
	}
}

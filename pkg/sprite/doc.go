// Package sprite defines the data model shared by the packing core.
//
// # Overview
//
// A packing job turns an ordered set of [SourceImage] values into a
// [PlacementResult]: the same images with a top-left offset each, plus the
// [Canvas] that encloses them. The result is the single hand-off object
// between the positioner and its two consumers:
//
//	images -> positioner.Place -> *PlacementResult -> compositor.Compose
//	                                               \-> metadata.Emit
//
// Both consumers read the same result, which keeps the composite image and
// its stylesheet/JSON metadata from drifting apart.
//
// # Padding
//
// Padding is a uniform, non-negative pixel gap. The canvas has a leading
// margin of padding on its top and left edges, and every placed image owns
// the padded box [X, X+Width+Padding) × [Y, Y+Height+Padding). Padded boxes of
// two images in the same result never overlap, so any two images are at least
// Padding pixels apart and at least Padding pixels away from every canvas edge.
//
// # Subpackages
//
//   - [positioner]: packing strategies (single column, shelf packing)
//   - [compositor]: renders a placement into an *image.NRGBA
//   - [metadata]: per-image rectangles and the layout fingerprint
//
// [positioner]: https://pkg.go.dev/github.com/matzehuels/spritepack/pkg/sprite/positioner
// [compositor]: https://pkg.go.dev/github.com/matzehuels/spritepack/pkg/sprite/compositor
// [metadata]: https://pkg.go.dev/github.com/matzehuels/spritepack/pkg/sprite/metadata
package sprite

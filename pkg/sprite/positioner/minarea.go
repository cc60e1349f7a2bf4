package positioner

import (
	"math"
	"sort"

	"github.com/matzehuels/spritepack/pkg/sprite"
)

// widthFactors scale the side of a square with the total padded image area
// to produce the candidate shelf widths MinArea evaluates.
var widthFactors = []float64{1.0, 1.15, 1.3, 1.5, 1.75, 2.0, 2.5, 3.0}

// MinArea packs images into horizontal shelves to reduce the canvas area.
//
// A working copy of the images is sorted by decreasing height, then
// decreasing width, then input order. For a given shelf width limit each image
// goes into the open shelf with the least remaining width that still fits it,
// and a new shelf is opened when none does. A shelf is as tall as its first
// (tallest) image.
//
// Several width limits are tried, derived from the square root of the total
// padded area and bounded below by the widest image; the packing with the
// smallest canvas area wins, with ties going to the squarer canvas. If no
// shelf packing beats the single column, the column placement is returned.
//
// Sorting is O(n log n). The best-fit shelf search scans the open shelves for
// every image, so each candidate width costs O(n·shelves). At most
// len(widthFactors)+2 widths are tried.
//
// The heuristic is not optimal. Only non-overlap, determinism and input order
// of the result are guaranteed.
type MinArea struct{}

// Name returns "min-area".
func (MinArea) Name() string { return NameMinArea }

// Place implements [Positioner].
func (MinArea) Place(images []sprite.SourceImage, padding int) (*sprite.PlacementResult, error) {
	if err := validate(images, padding); err != nil {
		return nil, err
	}

	order := sortedOrder(images)

	var best *shelfPacking
	for _, limit := range candidateLimits(images, padding) {
		pk := packShelves(images, order, padding, limit)
		if best == nil || pk.better(best) {
			best = pk
		}
	}

	column := placeColumn(images, padding, NameMinArea)
	if best.canvas.Area() > column.Canvas.Area() {
		return column, nil
	}

	placed := make([]sprite.PlacedImage, len(images))
	for i, img := range images {
		placed[i] = sprite.PlacedImage{SourceImage: img, X: best.xs[i], Y: best.ys[i]}
	}
	return &sprite.PlacementResult{
		Images:   placed,
		Canvas:   best.canvas,
		Padding:  padding,
		Strategy: NameMinArea,
	}, nil
}

// sortedOrder returns image indices sorted tallest first, then widest first,
// then by input position.
func sortedOrder(images []sprite.SourceImage) []int {
	order := make([]int, len(images))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := images[order[a]], images[order[b]]
		if ia.Height != ib.Height {
			return ia.Height > ib.Height
		}
		if ia.Width != ib.Width {
			return ia.Width > ib.Width
		}
		return order[a] < order[b]
	})
	return order
}

// candidateLimits returns the ascending, de-duplicated shelf width limits to
// evaluate. A limit is the maximum x extent of a shelf including the leading
// margin, so every limit fits the widest image.
func candidateLimits(images []sprite.SourceImage, padding int) []int {
	widest, rowWidth, area := 0, 0, 0
	for _, img := range images {
		w, h := img.Width+padding, img.Height+padding
		widest = max(widest, w)
		rowWidth += w
		area += w * h
	}

	side := math.Sqrt(float64(area))
	seen := make(map[int]struct{})
	var limits []int
	add := func(inner int) {
		limit := padding + max(widest, inner)
		if _, ok := seen[limit]; ok {
			return
		}
		seen[limit] = struct{}{}
		limits = append(limits, limit)
	}

	add(widest)
	for _, f := range widthFactors {
		add(int(math.Ceil(side * f)))
	}
	add(rowWidth)

	sort.Ints(limits)
	return limits
}

type shelf struct {
	y      int // top edge of the shelf
	height int // height of the tallest image in the shelf
	used   int // x offset where the next image would go
}

// shelfPacking is the result of packing for one width limit.
// xs and ys are indexed by input position.
type shelfPacking struct {
	xs, ys []int
	canvas sprite.Canvas
}

// better orders packings by area, then by the longer canvas side, then by
// width.
func (p *shelfPacking) better(o *shelfPacking) bool {
	if a, b := p.canvas.Area(), o.canvas.Area(); a != b {
		return a < b
	}
	if a, b := longSide(p.canvas), longSide(o.canvas); a != b {
		return a < b
	}
	return p.canvas.Width < o.canvas.Width
}

func longSide(c sprite.Canvas) int { return max(c.Width, c.Height) }

func packShelves(images []sprite.SourceImage, order []int, padding, limit int) *shelfPacking {
	pk := &shelfPacking{
		xs: make([]int, len(images)),
		ys: make([]int, len(images)),
	}

	var shelves []shelf
	nextY := padding
	for _, idx := range order {
		img := images[idx]
		need := img.Width + padding

		target := -1
		bestWaste := 0
		for s := range shelves {
			sh := &shelves[s]
			if img.Height > sh.height || sh.used+need > limit {
				continue
			}
			waste := limit - sh.used - need
			if target < 0 || waste < bestWaste {
				target, bestWaste = s, waste
			}
		}

		if target < 0 {
			shelves = append(shelves, shelf{y: nextY, height: img.Height, used: padding})
			nextY += img.Height + padding
			target = len(shelves) - 1
		}

		sh := &shelves[target]
		pk.xs[idx] = sh.used
		pk.ys[idx] = sh.y
		sh.used += need
	}

	width := 2 * padding
	for _, sh := range shelves {
		width = max(width, sh.used)
	}
	pk.canvas = sprite.Canvas{Width: width, Height: nextY}
	return pk
}

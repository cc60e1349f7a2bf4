// Package positioner assigns non-overlapping offsets to the images of a
// packing job.
//
// # Strategies
//
// Two interchangeable strategies implement [Positioner]:
//
//   - [Column] ("column"): stacks images vertically in input order.
//   - [MinArea] ("min-area"): shelf packing that tries to minimize the canvas area.
//
// Both are pure and deterministic: identical ordered input and padding always
// yield identical coordinates and canvas size. Both return images in input
// order; MinArea sorts a private working copy and only the coordinates reflect
// that sort.
//
// Strategies are selected by name with [New]. The names used by earlier
// sprite generator configurations ("one-column", "min-image") are accepted as
// aliases.
//
//	p, err := positioner.New("min-area")
//	if err != nil {
//	    return err
//	}
//	res, err := p.Place(images, 2)
package positioner

import (
	"sort"
	"strings"

	"github.com/matzehuels/spritepack/pkg/errors"
	"github.com/matzehuels/spritepack/pkg/sprite"
)

// Strategy names.
const (
	NameColumn  = "column"
	NameMinArea = "min-area"
)

// DefaultName is the strategy used when a configuration does not name one.
const DefaultName = NameMinArea

// Positioner computes a placement for an ordered set of images.
type Positioner interface {
	// Name returns the canonical strategy name.
	Name() string

	// Place assigns an offset to every image. The returned result lists the
	// images in input order. It fails with a CONFIGURATION_ERROR for an empty
	// image set, duplicate ids or negative padding.
	Place(images []sprite.SourceImage, padding int) (*sprite.PlacementResult, error)
}

var aliases = map[string]string{
	NameColumn:   NameColumn,
	"one-column": NameColumn,
	NameMinArea:  NameMinArea,
	"min-image":  NameMinArea,
}

// New returns the strategy registered under name (case-insensitive).
func New(name string) (Positioner, error) {
	switch Canonical(name) {
	case NameColumn:
		return Column{}, nil
	case NameMinArea:
		return MinArea{}, nil
	}
	return nil, errors.New(errors.ErrCodeConfiguration, "unknown layout %q (must be one of: %s)", name, strings.Join(Names(), ", "))
}

// Canonical maps a strategy name or alias to its canonical name.
// It returns "" for unknown names.
func Canonical(name string) string {
	return aliases[strings.ToLower(strings.TrimSpace(name))]
}

// Names returns the canonical strategy names in sorted order.
func Names() []string {
	names := []string{NameColumn, NameMinArea}
	sort.Strings(names)
	return names
}

// validate runs the checks shared by all strategies before any placement.
func validate(images []sprite.SourceImage, padding int) error {
	if err := sprite.ValidatePadding(padding); err != nil {
		return err
	}
	return sprite.ValidateImages(images)
}

// Package metadata derives the addressing metadata of a sprite sheet from a
// placement: one record per image and a content fingerprint.
//
// The fingerprint is a hex SHA-256 over a canonical JSON encoding of the
// canvas size and the ordered (id, x, y, width, height) records. It does not
// depend on pixel content, time or file paths, so two placements with equal
// geometry share a fingerprint. Consumers append its short form to the image
// URL to bust caches when the layout changes.
package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/matzehuels/spritepack/pkg/sprite"
)

// ShortLen is the number of fingerprint characters used in image URLs.
const ShortLen = 20

// Sprite addresses one image inside the sheet.
type Sprite struct {
	ID     string `json:"id"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Metadata is the emitted description of a sheet.
type Metadata struct {
	Canvas      sprite.Canvas `json:"canvas"`
	Sprites     []Sprite      `json:"sprites"`
	Fingerprint string        `json:"fingerprint"`
}

// Emit builds the metadata for res. Sprites keep the placement order.
func Emit(res *sprite.PlacementResult) Metadata {
	sprites := make([]Sprite, len(res.Images))
	for i, p := range res.Images {
		sprites[i] = Sprite{ID: p.ID, X: p.X, Y: p.Y, Width: p.Width, Height: p.Height}
	}
	return Metadata{
		Canvas:      res.Canvas,
		Sprites:     sprites,
		Fingerprint: Fingerprint(res.Canvas, sprites),
	}
}

// Fingerprint hashes the canvas and the ordered sprite records.
func Fingerprint(canvas sprite.Canvas, sprites []Sprite) string {
	// Arrays keep the encoding independent of struct tags.
	records := make([][5]any, len(sprites))
	for i, s := range sprites {
		records[i] = [5]any{s.ID, s.X, s.Y, s.Width, s.Height}
	}
	// Only strings and ints are encoded, which cannot fail.
	data, _ := json.Marshal(struct {
		Canvas  [2]int   `json:"canvas"`
		Sprites [][5]any `json:"sprites"`
	}{
		Canvas:  [2]int{canvas.Width, canvas.Height},
		Sprites: records,
	})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ShortFingerprint returns the first [ShortLen] characters of the fingerprint.
func (m Metadata) ShortFingerprint() string {
	if len(m.Fingerprint) <= ShortLen {
		return m.Fingerprint
	}
	return m.Fingerprint[:ShortLen]
}

// ImageURL returns prefix + imageName + "?" + the short fingerprint.
func (m Metadata) ImageURL(prefix, imageName string) string {
	return prefix + imageName + "?" + m.ShortFingerprint()
}

// Find returns the sprite with the given id.
func (m Metadata) Find(id string) (Sprite, bool) {
	for _, s := range m.Sprites {
		if s.ID == id {
			return s, true
		}
	}
	return Sprite{}, false
}

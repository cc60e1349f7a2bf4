// Package sink turns sprite metadata and composed pixels into output files.
//
// # Metadata formats
//
// A [Formatter] renders [metadata.Metadata] as text. Three formats exist:
//
//   - css: one base class carrying the background image and one rule per
//     sprite with its background-position and size
//   - scss: the same rules nested under the base class, plus a Sass map of
//     every sprite's geometry
//   - json: a "hash" document with frames keyed by sprite id and a meta block
//
// All formats reference the cache-busted image URL built by
// [metadata.Metadata.ImageURL]. Formatters are looked up by name with
// [NewFormatter]:
//
//	f, err := sink.NewFormatter("scss")
//	out, err := f.Render(meta, sink.RenderOptions{Class: "icon", ImageURL: url})
//
// # Image encoding
//
// [EncodeImage] picks the codec from the output file name (png, jpg, gif,
// bmp, tif) and defaults to PNG.
package sink

import (
	"bytes"
	"image"
	"sort"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/spritepack/pkg/errors"
	"github.com/matzehuels/spritepack/pkg/sprite/metadata"
)

// Format names.
const (
	FormatCSS  = "css"
	FormatSCSS = "scss"
	FormatJSON = "json"
)

// DefaultClass is the base class name when none is configured.
const DefaultClass = "sprite"

// RenderOptions carries the per-sheet settings every formatter needs.
type RenderOptions struct {
	// Class is the base CSS class, also used as the Sass variable prefix.
	Class string
	// ImageURL is the cache-busted URL of the sheet image.
	ImageURL string
}

func (o RenderOptions) class() string {
	if o.Class == "" {
		return DefaultClass
	}
	return o.Class
}

// Formatter renders metadata as text.
type Formatter interface {
	// Name returns the canonical format name.
	Name() string
	// Ext returns the conventional file extension without the dot.
	Ext() string
	// Render produces the document. It does not modify m.
	Render(m metadata.Metadata, opts RenderOptions) ([]byte, error)
}

var formatters = map[string]Formatter{
	FormatCSS:  CSS{},
	FormatSCSS: SCSS{},
	FormatJSON: JSONHash{},
}

var formatAliases = map[string]string{
	"sass": FormatSCSS,
	"hash": FormatJSON,
}

// NewFormatter returns the formatter for name. Unknown names are a
// CONFIGURATION_ERROR.
func NewFormatter(name string) (Formatter, error) {
	key := CanonicalFormat(name)
	if f, ok := formatters[key]; ok {
		return f, nil
	}
	return nil, errors.New(errors.ErrCodeConfiguration, "unknown metadata format %q (want one of %s)",
		name, strings.Join(FormatNames(), ", "))
}

// CanonicalFormat lowercases name and resolves aliases.
func CanonicalFormat(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := formatAliases[key]; ok {
		return alias
	}
	return key
}

// FormatNames lists the canonical format names.
func FormatNames() []string {
	names := make([]string, 0, len(formatters))
	for n := range formatters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// EncodeImage encodes img in the format implied by filename. Unknown
// extensions fall back to PNG.
func EncodeImage(img image.Image, filename string) ([]byte, error) {
	format, err := imaging.FormatFromFilename(filename)
	if err != nil {
		format = imaging.PNG
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "encode %s", format)
	}
	return buf.Bytes(), nil
}

// ImageFormat returns the canonical image format name for filename, "png"
// when the extension is unknown.
func ImageFormat(filename string) string {
	format, err := imaging.FormatFromFilename(filename)
	if err != nil {
		format = imaging.PNG
	}
	return strings.ToLower(format.String())
}

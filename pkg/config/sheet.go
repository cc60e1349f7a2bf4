package config

import (
	"encoding/json"
	"path/filepath"

	"github.com/matzehuels/spritepack/pkg/cache"
	"github.com/matzehuels/spritepack/pkg/catalog"
	"github.com/matzehuels/spritepack/pkg/errors"
	"github.com/matzehuels/spritepack/pkg/sink"
	"github.com/matzehuels/spritepack/pkg/sprite/positioner"
)

// Default values for sheet settings.
const (
	DefaultPadding   = 0
	DefaultLayout    = positioner.DefaultName
	DefaultCSSFormat = sink.FormatCSS
	DefaultClass     = sink.DefaultClass
)

// ValidCSSFormats is the set of stylesheet formats a sheet may select.
var ValidCSSFormats = map[string]bool{
	sink.FormatCSS:  true,
	sink.FormatSCSS: true,
}

// Sheet describes one sprite sheet job.
type Sheet struct {
	Name string `toml:"-" json:"name"`

	// Sources
	Dir        string   `toml:"dir" json:"dir,omitempty"`
	Files      []string `toml:"files" json:"files,omitempty"`
	Extensions []string `toml:"extensions" json:"extensions,omitempty"`

	// Packing
	Padding *int   `toml:"padding" json:"padding,omitempty"`
	Layout  string `toml:"layout" json:"layout,omitempty"`

	// Outputs
	Image     string `toml:"image" json:"image"`
	CSS       string `toml:"css" json:"css,omitempty"`
	CSSFormat string `toml:"css_format" json:"css_format,omitempty"`
	JSON      string `toml:"json" json:"json,omitempty"`
	Class     string `toml:"class" json:"class,omitempty"`
	URLPrefix string `toml:"url_prefix" json:"url_prefix,omitempty"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Overrides are command-line settings applied on top of the file.
type Overrides struct {
	Padding *int
	Layout  string
}

// Apply sets the non-zero overrides on s and clears its validated state.
func (s *Sheet) Apply(o Overrides) {
	if o.Padding != nil {
		p := *o.Padding
		s.Padding = &p
	}
	if o.Layout != "" {
		s.Layout = o.Layout
	}
	s.validated = false
}

// ValidateAndSetDefaults checks required fields and fills in defaults.
// This method is idempotent.
func (s *Sheet) ValidateAndSetDefaults() error {
	if s.validated {
		return nil
	}
	if err := errors.ValidateSheetName(s.Name); err != nil {
		return err
	}
	if s.Dir == "" && len(s.Files) == 0 {
		return errors.New(errors.ErrCodeConfiguration, "dir or files is required")
	}
	if s.Image == "" {
		return errors.New(errors.ErrCodeConfiguration, "image is required")
	}
	for _, p := range append([]string{s.Dir, s.Image, s.CSS, s.JSON}, s.Files...) {
		if p == "" {
			continue
		}
		if err := errors.ValidatePath(p); err != nil {
			return err
		}
	}

	if s.Padding == nil {
		p := DefaultPadding
		s.Padding = &p
	}
	if *s.Padding < 0 {
		return errors.New(errors.ErrCodeConfiguration, "padding must be non-negative, got %d", *s.Padding)
	}

	if s.Layout == "" {
		s.Layout = DefaultLayout
	}
	if _, err := positioner.New(s.Layout); err != nil {
		return err
	}
	s.Layout = positioner.Canonical(s.Layout)

	if s.CSSFormat == "" {
		s.CSSFormat = DefaultCSSFormat
	}
	s.CSSFormat = sink.CanonicalFormat(s.CSSFormat)
	if !ValidCSSFormats[s.CSSFormat] {
		return errors.New(errors.ErrCodeConfiguration, "invalid css_format %q (must be one of: css, scss)", s.CSSFormat)
	}

	if s.Class == "" {
		s.Class = DefaultClass
	}
	s.validated = true
	return nil
}

// PaddingValue returns the padding, or DefaultPadding when unset.
func (s *Sheet) PaddingValue() int {
	if s.Padding == nil {
		return DefaultPadding
	}
	return *s.Padding
}

// Source returns the catalog selection for the sheet.
func (s *Sheet) Source() catalog.Source {
	return catalog.Source{Dir: s.Dir, Files: s.Files, Extensions: s.Extensions}
}

// ImageName returns the base name of the image output, used in URLs.
func (s *Sheet) ImageName() string {
	return filepath.Base(s.Image)
}

// Outputs maps each metadata format the sheet emits to its output path.
func (s *Sheet) Outputs() map[string]string {
	out := make(map[string]string, 2)
	if s.CSS != "" {
		out[s.CSSFormat] = s.CSS
	}
	if s.JSON != "" {
		out[sink.FormatJSON] = s.JSON
	}
	return out
}

// Formats lists the metadata formats the sheet emits, sorted.
func (s *Sheet) Formats() []string {
	var formats []string
	if s.CSS != "" {
		formats = append(formats, s.CSSFormat)
	}
	if s.JSON != "" {
		formats = append(formats, sink.FormatJSON)
	}
	return formats
}

// RenderOptions returns the formatter settings for the sheet.
func (s *Sheet) RenderOptions() sink.RenderOptions {
	return sink.RenderOptions{Class: s.Class}
}

// OptionsHash hashes the settings that affect rendered metadata text but not
// the placement. It is part of metadata cache keys.
func (s *Sheet) OptionsHash() string {
	data, _ := json.Marshal(struct {
		Class     string `json:"class"`
		URLPrefix string `json:"url_prefix"`
		Image     string `json:"image"`
	}{s.Class, s.URLPrefix, s.ImageName()})
	return cache.Hash(data)
}

func (s *Sheet) applyDefaults(d Defaults) {
	if s.Padding == nil && d.Padding != nil {
		p := *d.Padding
		s.Padding = &p
	}
	if s.Layout == "" {
		s.Layout = d.Layout
	}
	if s.CSSFormat == "" {
		s.CSSFormat = d.CSSFormat
	}
	if s.Class == "" {
		s.Class = d.Class
	}
	if s.URLPrefix == "" {
		s.URLPrefix = d.URLPrefix
	}
	if len(s.Extensions) == 0 && len(d.Extensions) > 0 {
		s.Extensions = append([]string(nil), d.Extensions...)
	}
}

func (s *Sheet) resolvePaths(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	s.Image = abs(s.Image)
	s.CSS = abs(s.CSS)
	s.JSON = abs(s.JSON)
	if s.Dir != "" {
		s.Dir = abs(s.Dir)
	} else {
		for i, f := range s.Files {
			s.Files[i] = abs(f)
		}
	}
}

// clone returns a deep copy so jobs never share slices or pointers.
func (s *Sheet) clone() Sheet {
	out := *s
	out.Files = append([]string(nil), s.Files...)
	out.Extensions = append([]string(nil), s.Extensions...)
	if s.Padding != nil {
		p := *s.Padding
		out.Padding = &p
	}
	return out
}

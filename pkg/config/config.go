// Package config loads sprite sheet jobs from a TOML file.
//
// A config file has an optional [defaults] table and one [sheets.<name>]
// table per sprite sheet:
//
//	[defaults]
//	padding = 2
//	layout = "min-area"
//	css_format = "css"
//	class = "sprite"
//
//	[sheets.icons]
//	dir = "assets/icons"
//	extensions = ["png", "gif"]
//	image = "public/img/icons.png"
//	css = "public/css/icons.css"
//	json = "public/img/icons.json"
//	url_prefix = "../img/"
//
// Relative paths are resolved against the directory of the config file.
// Values set on a sheet win over [defaults], and [Overrides] from the command
// line win over both.
package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/spritepack/pkg/errors"
)

// DefaultFile is the config file name looked up in the working directory.
const DefaultFile = "spritepack.toml"

// Defaults holds values applied to every sheet that does not set them.
type Defaults struct {
	Padding    *int     `toml:"padding"`
	Layout     string   `toml:"layout"`
	CSSFormat  string   `toml:"css_format"`
	Class      string   `toml:"class"`
	URLPrefix  string   `toml:"url_prefix"`
	Extensions []string `toml:"extensions"`
}

// Config is a parsed config file.
type Config struct {
	Defaults Defaults          `toml:"defaults"`
	Sheets   map[string]*Sheet `toml:"sheets"`

	// Path is the file the config was loaded from, empty for Parse.
	Path string `toml:"-"`
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read config")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	cfg, err := Parse(data, filepath.Dir(abs))
	if err != nil {
		return nil, err
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes TOML data. Relative paths in sheets are resolved against
// baseDir when it is non-empty. Unknown keys are rejected.
func Parse(data []byte, baseDir string) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeConfiguration, "unknown config keys: %s", strings.Join(keys, ", "))
	}

	for name, s := range cfg.Sheets {
		if s == nil {
			s = &Sheet{}
			cfg.Sheets[name] = s
		}
		s.Name = name
		if baseDir != "" {
			s.resolvePaths(baseDir)
		}
	}
	return &cfg, nil
}

// Names returns the sheet names in lexicographic order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Sheets))
	for n := range c.Sheets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Sheet returns the named sheet with defaults applied and validated.
func (c *Config) Sheet(name string) (Sheet, error) {
	s, ok := c.Sheets[name]
	if !ok {
		return Sheet{}, errors.New(errors.ErrCodeSheetNotFound, "sprite config for %s not found", name)
	}
	out := s.clone()
	out.applyDefaults(c.Defaults)
	if err := out.ValidateAndSetDefaults(); err != nil {
		return Sheet{}, errors.WithSheet(err, name)
	}
	return out, nil
}

// Select returns the named sheets, or every sheet when names is empty, in
// lexicographic name order. Each returned Sheet is an independent,
// validated value.
func (c *Config) Select(names ...string) ([]Sheet, error) {
	if len(c.Sheets) == 0 {
		return nil, errors.New(errors.ErrCodeConfiguration, "no sprite configs found")
	}
	if len(names) == 0 {
		names = c.Names()
	} else {
		names = dedupe(names)
	}

	sheets := make([]Sheet, 0, len(names))
	for _, n := range names {
		s, err := c.Sheet(n)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, s)
	}
	return sheets, nil
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

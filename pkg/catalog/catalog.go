// Package catalog resolves the source images of a sprite sheet.
//
// A [Source] names either a directory to scan or an explicit file list. Each
// file is decoded with imaging (PNG, JPEG, GIF, BMP, TIFF and WebP are
// registered) and normalized to an *image.NRGBA anchored at the origin, which
// is the pixel format the compositor requires.
//
// Image ids are base file names without their extension. Results are sorted by
// id so a directory listing produces the same job on every platform.
package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/spritepack/pkg/errors"
	"github.com/matzehuels/spritepack/pkg/sprite"
)

// Source selects the images of one sheet.
type Source struct {
	// Dir is scanned non-recursively when Files is empty. When Files is set,
	// relative entries are resolved against Dir.
	Dir string

	// Extensions filters the directory scan. Matching is case-insensitive and
	// a leading dot is optional. Empty means every regular file.
	Extensions []string

	// Files lists image files explicitly, in any order.
	Files []string
}

// Entry is a file selected by a [Source], before decoding.
type Entry struct {
	ID   string
	Path string
}

// IDFromPath returns the base name of path without its extension.
func IDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// List returns the files selected by src, sorted by id. It does not decode
// anything. A duplicate id is a CONFIGURATION_ERROR.
func List(src Source) ([]Entry, error) {
	var entries []Entry
	if len(src.Files) > 0 {
		for _, f := range src.Files {
			path := f
			if src.Dir != "" && !filepath.IsAbs(path) {
				path = filepath.Join(src.Dir, path)
			}
			entries = append(entries, Entry{ID: IDFromPath(path), Path: path})
		}
	} else {
		scanned, err := scan(src.Dir, src.Extensions)
		if err != nil {
			return nil, err
		}
		entries = scanned
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	for i := 1; i < len(entries); i++ {
		if entries[i].ID == entries[i-1].ID {
			return nil, errors.New(errors.ErrCodeConfiguration, "%s and %s share an id",
				entries[i-1].Path, entries[i].Path).ForImage(entries[i].ID)
		}
	}
	return entries, nil
}

func scan(dir string, extensions []string) ([]Entry, error) {
	if dir == "" {
		return nil, errors.New(errors.ErrCodeConfiguration, "no image directory or file list")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "image source directory doesn't exist")
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeIO, "%s is not a directory", dir)
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read %s", dir)
	}

	allowed := normalizeExtensions(extensions)
	var entries []Entry
	for _, de := range dirEntries {
		name := de.Name()
		if strings.HasPrefix(name, ".") || !de.Type().IsRegular() {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))]; !ok {
				continue
			}
		}
		entries = append(entries, Entry{ID: IDFromPath(name), Path: filepath.Join(dir, name)})
	}
	return entries, nil
}

func normalizeExtensions(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			out[e] = struct{}{}
		}
	}
	return out
}

// Resolve lists and decodes the images selected by src. The context is
// checked between files.
func Resolve(ctx context.Context, src Source) ([]sprite.SourceImage, error) {
	entries, err := List(src)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errors.New(errors.ErrCodeConfiguration, "no images found")
	}

	images := make([]sprite.SourceImage, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := Load(e.Path)
		if err != nil {
			return nil, err
		}
		images = append(images, sprite.NewSourceImage(e.ID, img))
	}
	return images, nil
}

// Load reads and decodes one file into an *image.NRGBA anchored at (0, 0).
// A missing or unreadable file is an IO_ERROR, an undecodable one a
// FORMAT_ERROR.
func Load(path string) (*image.NRGBA, error) {
	id := IDFromPath(path)
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "open %s", path).ForImage(id)
	}
	defer f.Close()

	img, err := imaging.Decode(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFormat, err, "decode %s", path).ForImage(id)
	}
	return Normalize(img), nil
}

// Normalize returns img as an *image.NRGBA anchored at the origin, copying
// only when needed.
func Normalize(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Bounds().Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}

// Digest hashes the ids, sizes and pixels of images in order. Unlike the
// metadata fingerprint it changes when pixel content changes.
func Digest(images []sprite.SourceImage) string {
	h := sha256.New()
	var buf [8]byte
	writeInt := func(v int) {
		binary.BigEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	for _, img := range images {
		writeInt(len(img.ID))
		h.Write([]byte(img.ID))
		writeInt(img.Width)
		writeInt(img.Height)
		if n, ok := img.Pixels.(*image.NRGBA); ok {
			b := n.Bounds()
			for y := b.Min.Y; y < b.Max.Y; y++ {
				i := n.PixOffset(b.Min.X, y)
				h.Write(n.Pix[i : i+b.Dx()*4])
			}
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/spritepack/pkg/cache"
	"github.com/matzehuels/spritepack/pkg/config"
	"github.com/matzehuels/spritepack/pkg/errors"
	"github.com/matzehuels/spritepack/pkg/history"
	"github.com/matzehuels/spritepack/pkg/observability"
)

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

// fixture writes two source images and a config with an "icons" sheet
// stacked in a column with padding 2.
func fixture(t *testing.T, extra string) (*config.Config, string) {
	t.Helper()
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "icons", "a.png"), 10, 10, color.NRGBA{255, 0, 0, 255})
	writePNG(t, filepath.Join(dir, "icons", "b.png"), 20, 5, color.NRGBA{0, 255, 0, 255})

	toml := `
[sheets.icons]
dir = "icons"
image = "out/icons.png"
css = "out/icons.css"
json = "out/icons.json"
padding = 2
layout = "column"
url_prefix = "/img/"
` + extra
	cfg, err := config.Parse([]byte(toml), dir)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	return cfg, dir
}

func quietRunner(c cache.Cache) *Runner {
	return NewRunner(c, nil, log.New(&bytes.Buffer{}))
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	if r.Cache == nil || r.Keyer == nil || r.Logger == nil || r.History == nil {
		t.Errorf("NewRunner should fill every collaborator: %+v", r)
	}
}

func TestBuild(t *testing.T) {
	cfg, _ := fixture(t, "")
	sheet, err := cfg.Sheet("icons")
	if err != nil {
		t.Fatal(err)
	}

	res, err := quietRunner(nil).Build(context.Background(), sheet)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	if c := res.Metadata.Canvas; c.Width != 24 || c.Height != 21 {
		t.Errorf("canvas = %dx%d, want 24x21", c.Width, c.Height)
	}
	a, _ := res.Metadata.Find("a")
	b, _ := res.Metadata.Find("b")
	if a.X != 2 || a.Y != 2 || b.X != 2 || b.Y != 14 {
		t.Errorf("offsets a=(%d,%d) b=(%d,%d), want (2,2) (2,14)", a.X, a.Y, b.X, b.Y)
	}
	if res.Stats.ImageCount != 2 || res.RunID == "" || res.SourceHash == "" {
		t.Errorf("result = %+v", res)
	}

	img, err := png.Decode(bytes.NewReader(res.Image))
	if err != nil {
		t.Fatalf("image is not a PNG: %v", err)
	}
	if got := img.Bounds().Size(); got != (image.Point{24, 21}) {
		t.Errorf("image size = %v", got)
	}
	if _, _, _, alpha := img.At(2, 14).RGBA(); alpha == 0 {
		t.Error("pixel at b's offset should be opaque")
	}

	url := res.ImageURL()
	if !strings.HasPrefix(url, "/img/icons.png?") {
		t.Errorf("ImageURL = %q", url)
	}
	if css := string(res.Artifacts["css"]); !strings.Contains(css, url) {
		t.Errorf("css does not reference %q:\n%s", url, css)
	}
	var doc map[string]any
	if err := json.Unmarshal(res.Artifacts["json"], &doc); err != nil {
		t.Errorf("json artifact is invalid: %v", err)
	}
}

func TestBuildRunIDFromContext(t *testing.T) {
	cfg, _ := fixture(t, "")
	sheet, _ := cfg.Sheet("icons")

	ctx := WithRunID(context.Background(), "run-42")
	res, err := quietRunner(nil).Build(ctx, sheet)
	if err != nil {
		t.Fatal(err)
	}
	if res.RunID != "run-42" {
		t.Errorf("RunID = %q, want run-42", res.RunID)
	}
}

func TestBuildUsesCache(t *testing.T) {
	cfg, _ := fixture(t, "")
	sheet, _ := cfg.Sheet("icons")
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := quietRunner(fc)
	ctx := context.Background()

	first, err := r.Build(ctx, sheet)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.ImageHit || first.CacheInfo.MetadataHit {
		t.Errorf("first build should miss: %+v", first.CacheInfo)
	}

	second, err := r.Build(ctx, sheet)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.ImageHit || !second.CacheInfo.MetadataHit {
		t.Errorf("second build should hit: %+v", second.CacheInfo)
	}
	if !bytes.Equal(first.Image, second.Image) {
		t.Error("cached image differs from composed image")
	}
	if !bytes.Equal(first.Artifacts["css"], second.Artifacts["css"]) {
		t.Error("cached css differs from rendered css")
	}

	// Changing the class changes the rendered text but not the image.
	sheet.Class = "icon"
	third, err := r.Build(ctx, sheet)
	if err != nil {
		t.Fatal(err)
	}
	if !third.CacheInfo.ImageHit || third.CacheInfo.MetadataHit {
		t.Errorf("class change should reuse the image only: %+v", third.CacheInfo)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		sheet config.Sheet
		code  errors.Code
	}{
		{
			name:  "missing directory",
			sheet: config.Sheet{Name: "icons", Dir: "/does/not/exist", Image: "out.png"},
			code:  errors.ErrCodeIO,
		},
		{
			name:  "unknown layout",
			sheet: config.Sheet{Name: "icons", Dir: "x", Image: "out.png", Layout: "spiral"},
			code:  errors.ErrCodeConfiguration,
		},
		{
			name:  "no sources",
			sheet: config.Sheet{Name: "icons", Image: "out.png"},
			code:  errors.ErrCodeConfiguration,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := quietRunner(nil).Build(context.Background(), tt.sheet)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("error code = %s, want %s (%v)", errors.GetCode(err), tt.code, err)
			}
			if errors.SheetOf(err) != "icons" {
				t.Errorf("SheetOf = %q, want icons", errors.SheetOf(err))
			}
		})
	}
}

func TestBuildCanceled(t *testing.T) {
	cfg, _ := fixture(t, "")
	sheet, _ := cfg.Sheet("icons")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := quietRunner(nil).Build(ctx, sheet); err == nil {
		t.Error("Build with a canceled context should fail")
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	mu     sync.Mutex
	events []string
}

func (h *recordingHooks) add(e string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *recordingHooks) OnCatalogStart(context.Context, string) { h.add("catalog") }
func (h *recordingHooks) OnPlaceStart(_ context.Context, _, strategy string, _ int) {
	h.add("place:" + strategy)
}
func (h *recordingHooks) OnComposeStart(context.Context, string)        { h.add("compose") }
func (h *recordingHooks) OnEmitStart(context.Context, string, []string) { h.add("emit") }

func TestBuildEmitsHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetPipelineHooks(hooks)
	t.Cleanup(observability.Reset)

	cfg, _ := fixture(t, "")
	sheet, _ := cfg.Sheet("icons")
	if _, err := quietRunner(nil).Build(context.Background(), sheet); err != nil {
		t.Fatal(err)
	}

	want := "catalog place:column compose emit"
	if got := strings.Join(hooks.events, " "); got != want {
		t.Errorf("events = %q, want %q", got, want)
	}
}

func TestWrite(t *testing.T) {
	cfg, dir := fixture(t, "")
	sheet, _ := cfg.Sheet("icons")

	var logs bytes.Buffer
	r := NewRunner(nil, nil, log.New(&logs))
	store, err := history.NewFileStore(filepath.Join(dir, "history"))
	if err != nil {
		t.Fatal(err)
	}
	r.History = store
	ctx := context.Background()

	res, rec, err := r.Run(ctx, sheet)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	for _, p := range []string{sheet.Image, sheet.CSS, sheet.JSON} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("output %s missing: %v", p, err)
		}
	}
	written, _ := os.ReadFile(sheet.Image)
	if !bytes.Equal(written, res.Image) {
		t.Error("written image differs from result")
	}

	if rec.Fingerprint != res.Metadata.Fingerprint || rec.Images != 2 || rec.Strategy != "column" {
		t.Errorf("record = %+v", rec)
	}
	if rec.CanvasWidth != 24 || rec.CanvasHeight != 21 || len(rec.Outputs) != 3 {
		t.Errorf("record = %+v", rec)
	}
	if strings.Contains(logs.String(), "unchanged") {
		t.Error("first write should not be reported as unchanged")
	}

	if _, _, err := r.Run(ctx, sheet); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(logs.String(), "unchanged") {
		t.Errorf("second write should be reported as unchanged, logs:\n%s", logs.String())
	}

	records, err := store.List(ctx, "icons", 0)
	if err != nil || len(records) != 2 {
		t.Errorf("history has %d records, err %v", len(records), err)
	}
}

func TestWriteIsAllOrNothing(t *testing.T) {
	cfg, dir := fixture(t, "")
	sheet, _ := cfg.Sheet("icons")

	// A regular file where the json output directory should be.
	blocker := filepath.Join(dir, "blocked")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	sheet.JSON = filepath.Join(blocker, "icons.json")

	r := quietRunner(nil)
	res, err := r.Build(context.Background(), sheet)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Write(context.Background(), res); !errors.Is(err, errors.ErrCodeIO) {
		t.Fatalf("Write error = %v, want IO_ERROR", err)
	}

	entries, _ := os.ReadDir(filepath.Join(dir, "out"))
	for _, e := range entries {
		t.Errorf("unexpected file left behind: %s", e.Name())
	}
}

func TestWriteAllReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b.txt")
	if err := writeAll([]pendingFile{{path: path, data: []byte("one")}}); err != nil {
		t.Fatal(err)
	}
	if err := writeAll([]pendingFile{{path: path, data: []byte("two")}}); err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "two" {
		t.Errorf("content = %q, want two", got)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1", len(entries))
	}
}

func TestWriteAllDirectoryTarget(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "icons.png")
	css := filepath.Join(dir, "icons.css")
	if err := os.WriteFile(img, []byte("old-image"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(css, "nested"), 0755); err != nil {
		t.Fatal(err)
	}

	err := writeAll([]pendingFile{
		{path: img, data: []byte("new-image")},
		{path: css, data: []byte("new-css")},
	})
	if !errors.Is(err, errors.ErrCodeIO) {
		t.Fatalf("writeAll error = %v, want IO_ERROR", err)
	}
	if got, _ := os.ReadFile(img); string(got) != "old-image" {
		t.Errorf("image = %q, want old-image", got)
	}
	if _, err := os.Stat(filepath.Join(css, "nested")); err != nil {
		t.Errorf("css directory was touched: %v", err)
	}
	assertNoTemporaries(t, dir)
}

func TestWriteAllRestoresOnRenameFailure(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "icons.png")
	css := filepath.Join(dir, "icons.css")
	js := filepath.Join(dir, "icons.json")
	for path, data := range map[string]string{img: "old-image", css: "old-css"} {
		if err := os.WriteFile(path, []byte(data), 0644); err != nil {
			t.Fatal(err)
		}
	}

	rename = func(from, to string) error {
		if to == css && strings.HasSuffix(from, ".tmp") {
			return os.ErrPermission
		}
		return os.Rename(from, to)
	}
	t.Cleanup(func() { rename = os.Rename })

	err := writeAll([]pendingFile{
		{path: img, data: []byte("new-image")},
		{path: js, data: []byte("new-json")},
		{path: css, data: []byte("new-css")},
	})
	if !errors.Is(err, errors.ErrCodeIO) {
		t.Fatalf("writeAll error = %v, want IO_ERROR", err)
	}

	tests := []struct {
		path string
		want string
	}{
		{img, "old-image"},
		{css, "old-css"},
	}
	for _, tt := range tests {
		if got, _ := os.ReadFile(tt.path); string(got) != tt.want {
			t.Errorf("%s = %q, want %q", filepath.Base(tt.path), got, tt.want)
		}
	}
	if _, err := os.Stat(js); !os.IsNotExist(err) {
		t.Errorf("new json output should be removed, stat error = %v", err)
	}
	assertNoTemporaries(t, dir)
}

func assertNoTemporaries(t *testing.T, dir string) {
	t.Helper()
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}

const brokenSheet = `
[sheets.broken]
dir = "missing"
image = "out/broken.png"
`

func TestRunAll(t *testing.T) {
	cfg, dir := fixture(t, `
[sheets.single]
files = ["icons/a.png"]
image = "out/single.png"
json = "out/single.json"
`)
	results, err := quietRunner(nil).RunAll(context.Background(), cfg, nil, RunAllOptions{Parallel: 2})
	if err != nil {
		t.Fatalf("RunAll error: %v", err)
	}
	if len(results) != 2 || results[0].Name != "icons" || results[1].Name != "single" {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Result.RunID != results[1].Result.RunID {
		t.Error("sheets of one batch should share a run id")
	}
	for _, r := range results {
		if r.Err != nil || r.Record == nil {
			t.Errorf("%s: err=%v record=%v", r.Name, r.Err, r.Record)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "single.json")); err != nil {
		t.Error("single.json should be written")
	}
}

func TestRunAllContinueOnError(t *testing.T) {
	cfg, dir := fixture(t, brokenSheet)
	results, err := quietRunner(nil).RunAll(context.Background(), cfg, nil, RunAllOptions{ContinueOnError: true})
	if err == nil {
		t.Fatal("RunAll should report the broken sheet")
	}
	if errors.SheetOf(err) != "broken" {
		t.Errorf("SheetOf = %q, want broken", errors.SheetOf(err))
	}
	if len(results) != 2 || results[0].Err == nil || results[1].Err != nil {
		t.Errorf("results = %+v", results)
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "icons.png")); err != nil {
		t.Error("the healthy sheet should still be written")
	}
}

func TestRunAllStopsOnError(t *testing.T) {
	cfg, _ := fixture(t, brokenSheet)
	_, err := quietRunner(nil).RunAll(context.Background(), cfg, []string{"broken"}, RunAllOptions{})
	if !errors.Is(err, errors.ErrCodeIO) {
		t.Errorf("error = %v, want IO_ERROR", err)
	}
}

func TestRunAllUnknownSheet(t *testing.T) {
	cfg, _ := fixture(t, "")
	_, err := quietRunner(nil).RunAll(context.Background(), cfg, []string{"nope"}, RunAllOptions{})
	if !errors.Is(err, errors.ErrCodeSheetNotFound) {
		t.Errorf("error = %v, want SHEET_NOT_FOUND", err)
	}
}

func TestRunAllOverridesAndDryRun(t *testing.T) {
	cfg, dir := fixture(t, "")
	pad := 0
	results, err := quietRunner(nil).RunAll(context.Background(), cfg, nil, RunAllOptions{
		DryRun:    true,
		Overrides: config.Overrides{Padding: &pad},
	})
	if err != nil {
		t.Fatal(err)
	}
	if c := results[0].Result.Metadata.Canvas; c.Width != 20 || c.Height != 15 {
		t.Errorf("canvas = %dx%d, want 20x15 with padding 0", c.Width, c.Height)
	}
	if results[0].Record != nil {
		t.Error("dry run should not record history")
	}
	if _, err := os.Stat(filepath.Join(dir, "out")); !os.IsNotExist(err) {
		t.Error("dry run should not write outputs")
	}
}

func TestStatsTotal(t *testing.T) {
	s := Stats{CatalogTime: time.Second, PlaceTime: 2 * time.Second, ComposeTime: 3 * time.Second, EmitTime: 4 * time.Second}
	if s.Total() != 10*time.Second {
		t.Errorf("Total = %v", s.Total())
	}
}

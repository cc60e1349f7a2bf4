package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/spritepack/pkg/config"
	"github.com/matzehuels/spritepack/pkg/errors"
	"github.com/matzehuels/spritepack/pkg/observability"
	"github.com/matzehuels/spritepack/pkg/pipeline"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(0, 0, color.NRGBA{255, 0, 0, 255})
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "icons", "a.png"), 10, 10)
	writePNG(t, filepath.Join(dir, "icons", "b.png"), 20, 5)

	cfg, err := config.Parse([]byte(`
[sheets.icons]
dir = "icons"
image = "out/icons.png"
css = "out/icons.css"
padding = 2
layout = "column"

[sheets.broken]
dir = "missing"
image = "out/broken.png"
`), dir)
	if err != nil {
		t.Fatal(err)
	}
	logger := log.New(&bytes.Buffer{})
	return New(cfg, pipeline.NewRunner(nil, nil, logger), nil), dir
}

func get(t *testing.T, h http.Handler, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestListSheets(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s, "/sheets", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var got []sheetSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Name != "broken" || got[1].Name != "icons" {
		t.Fatalf("sheets = %+v", got)
	}
	if got[0].Error == "" {
		t.Error("broken sheet should report its error")
	}
	icons := got[1]
	if icons.Fingerprint == "" || icons.Width != 24 || icons.Height != 21 || icons.Images != 2 {
		t.Errorf("icons summary = %+v", icons)
	}
}

func TestServeSheet(t *testing.T) {
	s, dir := newTestServer(t)

	tests := []struct {
		path        string
		contentType string
		contains    string
	}{
		{"/sheets/icons.png", "image/png", ""},
		{"/sheets/icons.css", "text/css; charset=utf-8", "background-image"},
		{"/sheets/icons.json", "application/json", `"frames"`},
		{"/sheets/icons.sass", "text/x-scss; charset=utf-8", "$"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(t, s, tt.path, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", ct, tt.contentType)
			}
			if rec.Header().Get("ETag") == "" {
				t.Error("missing ETag")
			}
			if tt.contains != "" && !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("body does not contain %q:\n%s", tt.contains, rec.Body.String())
			}
		})
	}

	if _, err := os.Stat(filepath.Join(dir, "out")); !os.IsNotExist(err) {
		t.Error("serving should not write outputs")
	}
}

func TestServeImageIsPNG(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s, "/sheets/icons.png", nil)
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := img.Bounds().Size(); got != (image.Point{24, 21}) {
		t.Errorf("size = %v, want 24x21", got)
	}
}

func TestConditionalRequest(t *testing.T) {
	s, _ := newTestServer(t)
	first := get(t, s, "/sheets/icons.css", nil)
	etag := first.Header().Get("ETag")

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"matching", etag, http.StatusNotModified},
		{"weak", "W/" + etag, http.StatusNotModified},
		{"list", `"other", ` + etag, http.StatusNotModified},
		{"wildcard", "*", http.StatusNotModified},
		{"stale", `"stale"`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, "/sheets/icons.css", http.Header{"If-None-Match": {tt.header}})
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if rec.Code == http.StatusNotModified && rec.Body.Len() != 0 {
				t.Error("304 must not carry a body")
			}
		})
	}
}

func TestETagTracksPixels(t *testing.T) {
	s, dir := newTestServer(t)
	before := get(t, s, "/sheets/icons.png", nil).Header().Get("ETag")

	// Same size, different pixels: the layout is unchanged.
	path := filepath.Join(dir, "icons", "a.png")
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	after := get(t, s, "/sheets/icons.png", nil).Header().Get("ETag")
	if before == after {
		t.Errorf("ETag should change with source pixels: %s", after)
	}
}

func TestServeErrors(t *testing.T) {
	s, _ := newTestServer(t)
	tests := []struct {
		path string
		want int
		code errors.Code
	}{
		{"/sheets/nope.png", http.StatusNotFound, errors.ErrCodeSheetNotFound},
		{"/sheets/icons.gif", http.StatusNotFound, errors.ErrCodeNotFound},
		{"/sheets/broken.png", http.StatusInternalServerError, errors.ErrCodeIO},
		{"/sheets/icons", http.StatusNotFound, errors.ErrCodeNotFound},
		{"/sheets/icons.", http.StatusNotFound, errors.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(t, s, tt.path, nil)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			var body errorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Code != tt.code {
				t.Errorf("code = %s, want %s", body.Code, tt.code)
			}
		})
	}
}

func TestServeDottedSheetName(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "icons", "a.png"), 10, 10)
	cfg, err := config.Parse([]byte(`
[sheets."icons.v2"]
dir = "icons"
image = "out/icons.v2.png"
css = "out/icons.v2.css"
`), dir)
	if err != nil {
		t.Fatal(err)
	}
	s := New(cfg, pipeline.NewRunner(nil, nil, log.New(&bytes.Buffer{})), nil)

	for _, path := range []string{"/sheets/icons.v2.png", "/sheets/icons.v2.css", "/sheets/icons.v2.JSON"} {
		t.Run(path, func(t *testing.T) {
			if rec := get(t, s, path, nil); rec.Code != http.StatusOK {
				t.Errorf("status = %d, body %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestSplitFile(t *testing.T) {
	tests := []struct {
		file      string
		name, ext string
		ok        bool
	}{
		{"icons.png", "icons", "png", true},
		{"icons.v2.CSS", "icons.v2", "css", true},
		{"icons", "", "", false},
		{".png", "", "", false},
		{"icons.", "", "", false},
	}
	for _, tt := range tests {
		name, ext, ok := splitFile(tt.file)
		if name != tt.name || ext != tt.ext || ok != tt.ok {
			t.Errorf("splitFile(%q) = %q, %q, %v; want %q, %q, %v", tt.file, name, ext, ok, tt.name, tt.ext, tt.ok)
		}
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeSheetNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeInvalidPath, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeConfiguration, "x"), http.StatusInternalServerError},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

type recordingServerHooks struct {
	mu       sync.Mutex
	requests []string
	statuses []int
}

func (h *recordingServerHooks) OnRequest(_ context.Context, method, path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests = append(h.requests, method+" "+path)
}

func (h *recordingServerHooks) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, status)
}

func TestServerHooks(t *testing.T) {
	hooks := &recordingServerHooks{}
	observability.SetServerHooks(hooks)
	t.Cleanup(observability.Reset)

	s, _ := newTestServer(t)
	get(t, s, "/healthz", nil)
	get(t, s, "/sheets/nope.css", nil)

	if len(hooks.requests) != 2 || hooks.requests[0] != "GET /healthz" {
		t.Errorf("requests = %v", hooks.requests)
	}
	if len(hooks.statuses) != 2 || hooks.statuses[0] != 200 || hooks.statuses[1] != 404 {
		t.Errorf("statuses = %v", hooks.statuses)
	}
}

// Package server serves sprite sheets over HTTP.
//
// Sheets are built on demand through a [pipeline.Runner], so a server backed
// by a shared cache answers repeated requests without recomposing images.
// Every sheet response carries an ETag derived from the layout fingerprint
// and the source pixel digest, and conditional requests are answered with
// 304 Not Modified.
//
// # Routes
//
//	GET /healthz                 liveness probe
//	GET /sheets                  JSON summary of every configured sheet
//	GET /sheets/{name}.{ext}     sheet image (by its extension) or metadata
//	                             document (css, scss, json)
package server

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/spritepack/pkg/config"
	"github.com/matzehuels/spritepack/pkg/errors"
	"github.com/matzehuels/spritepack/pkg/pipeline"
	"github.com/matzehuels/spritepack/pkg/sink"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = "127.0.0.1:8080"

// cacheControl is sent with every sheet response. Clients revalidate with
// the ETag.
const cacheControl = "public, max-age=0, must-revalidate"

// Server serves the sheets of one configuration.
type Server struct {
	cfg    *config.Config
	runner *pipeline.Runner
	logger *log.Logger
	router chi.Router
}

// New creates a server for cfg. If logger is nil, the runner's logger is used.
func New(cfg *config.Config, runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = runner.Logger
	}
	s := &Server{cfg: cfg, runner: runner, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Get("/sheets", s.handleList)
	r.Get("/sheets/{file}", s.handleSheet)
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "sheets", len(s.cfg.Sheets))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return errors.Wrap(errors.ErrCodeIO, err, "listen on %s", addr)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type sheetSummary struct {
	Name        string `json:"name"`
	Fingerprint string `json:"fingerprint,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	Images      int    `json:"images,omitempty"`
	Error       string `json:"error,omitempty"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	names := s.cfg.Names()
	out := make([]sheetSummary, 0, len(names))
	for _, name := range names {
		sum := sheetSummary{Name: name}
		res, err := s.build(r.Context(), name)
		if err != nil {
			sum.Error = errors.UserMessage(err)
		} else {
			sum.Fingerprint = res.Metadata.Fingerprint
			sum.ImageURL = res.ImageURL()
			sum.Width = res.Metadata.Canvas.Width
			sum.Height = res.Metadata.Canvas.Height
			sum.Images = len(res.Metadata.Sprites)
		}
		out = append(out, sum)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSheet(w http.ResponseWriter, r *http.Request) {
	name, ext, ok := splitFile(chi.URLParam(r, "file"))
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "missing file extension"))
		return
	}

	res, err := s.build(r.Context(), name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	body, contentType, err := s.document(res, ext)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	etag := ETag(res)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", cacheControl)
	if match := r.Header.Get("If-None-Match"); match != "" && etagMatches(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// splitFile splits a requested file name at its last dot, so sheet names may
// contain dots themselves.
func splitFile(file string) (name, ext string, ok bool) {
	i := strings.LastIndexByte(file, '.')
	if i <= 0 || i == len(file)-1 {
		return "", "", false
	}
	return file[:i], strings.ToLower(file[i+1:]), true
}

// document selects the response body for ext: the encoded image when ext
// matches the sheet image, otherwise a metadata document.
func (s *Server) document(res *pipeline.Result, ext string) ([]byte, string, error) {
	imageExt := strings.TrimPrefix(strings.ToLower(filepath.Ext(res.Sheet.Image)), ".")
	if ext == imageExt {
		ct := mime.TypeByExtension("." + ext)
		if ct == "" {
			ct = "application/octet-stream"
		}
		return res.Image, ct, nil
	}

	format := sink.CanonicalFormat(ext)
	if data, ok := res.Artifacts[format]; ok {
		return data, contentTypes[format], nil
	}

	// Formats the sheet does not write to disk are still served.
	f, err := sink.NewFormatter(format)
	if err != nil {
		return nil, "", errors.New(errors.ErrCodeNotFound, "no %s output for sheet %s", ext, res.Sheet.Name)
	}
	opts := res.Sheet.RenderOptions()
	opts.ImageURL = res.ImageURL()
	data, err := f.Render(res.Metadata, opts)
	if err != nil {
		return nil, "", err
	}
	return data, contentTypes[format], nil
}

var contentTypes = map[string]string{
	sink.FormatCSS:  "text/css; charset=utf-8",
	sink.FormatSCSS: "text/x-scss; charset=utf-8",
	sink.FormatJSON: "application/json",
}

func (s *Server) build(ctx context.Context, name string) (*pipeline.Result, error) {
	sheet, err := s.cfg.Sheet(name)
	if err != nil {
		return nil, err
	}
	return s.runner.Build(ctx, sheet)
}

// ETag returns the entity tag for every response of a built sheet. It changes
// whenever the layout or any source pixel changes.
func ETag(res *pipeline.Result) string {
	src := res.SourceHash
	if len(src) > 12 {
		src = src[:12]
	}
	return `"` + res.Metadata.ShortFingerprint() + "-" + src + `"`
}

// etagMatches reports whether an If-None-Match header value matches etag.
// Weak validators compare equal to their strong form.
func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
	Sheet   string      `json:"sheet,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, errorBody{Code: code, Message: errors.UserMessage(err), Sheet: errors.SheetOf(err)})
}

// StatusFor maps an error to an HTTP status code.
func StatusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeNotFound, errors.ErrCodeSheetNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

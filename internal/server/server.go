// Package server serves the results dashboard over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"resultsview/internal/artifact"
	"resultsview/internal/view"
)

// CookieName is the cookie carrying the browser's session id.
const CookieName = "resultsview_session"

// maxPathField bounds the relative path sent alongside each uploaded file.
const maxPathField = 4 << 10

// Config holds the dependencies of a Server.
type Config struct {
	Registry *Registry
	Builder  *view.Builder
	// Candidates are the bases probed by POST /discover. Nil means
	// artifact.DefaultCandidates.
	Candidates     []string
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// Server is the dashboard HTTP handler.
type Server struct {
	reg        *Registry
	builder    *view.Builder
	renderer   *view.Renderer
	candidates []string
	maxUpload  int64
	log        *slog.Logger
}

// New creates a Server.
func New(cfg Config) (*Server, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	r, err := view.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	b := cfg.Builder
	if b == nil {
		b = view.NewBuilder(log)
	}
	limit := cfg.MaxUploadBytes
	if limit <= 0 {
		limit = 512 << 20
	}
	return &Server{
		reg:        cfg.Registry,
		builder:    b,
		renderer:   r,
		candidates: cfg.Candidates,
		maxUpload:  limit,
		log:        log,
	}, nil
}

// Handler returns the routed, gzip-compressed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /page/{id}", s.handlePage)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /discover", s.handleDiscover)
	mux.HandleFunc("GET /remote", s.handleRemote)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /health", s.handleHealth)
	return gzhttp.GzipHandler(s.logRequests(mux))
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("elapsed", time.Since(start)))
	})
}

// session returns the caller's session, issuing a cookie for new ones.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*artifact.Session, string) {
	var id string
	if c, err := r.Cookie(CookieName); err == nil {
		id = c.Value
	}
	sess, got := s.reg.Get(id)
	if got != id {
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    got,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess, got
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/page/overview", http.StatusFound)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.session(w, r)
	p, err := s.builder.Build(r.Context(), sess, r.PathValue("id"), r.URL.Query())
	switch {
	case errors.Is(err, view.ErrUnknownPage):
		http.NotFound(w, r)
		return
	case err != nil:
		s.log.Warn("build page", slog.String("page", r.PathValue("id")), slog.Any("err", err))
		http.Error(w, "page unavailable", http.StatusServiceUnavailable)
		return
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, p); err != nil {
		s.log.Error("render page", slog.String("page", p.ID), slog.Any("err", err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

// handleUpload reads a folder selection. Each file part may be preceded by
// a "path" field holding the browser's relative path; without one the raw
// filename of the part is used.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sess, id := s.session(w, r)
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	files, err := readUpload(r)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(files) == 0 {
		http.Error(w, "no files selected", http.StatusBadRequest)
		return
	}
	sess.SetSource(artifact.NewUpload(files))
	s.reg.MarkCustom(id)
	http.Redirect(w, r, "/page/overview", http.StatusSeeOther)
}

func readUpload(r *http.Request) ([]artifact.File, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	var files []artifact.File
	var pending string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return files, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}
		switch part.FormName() {
		case "path":
			b, err := io.ReadAll(io.LimitReader(part, maxPathField))
			if err != nil {
				return nil, fmt.Errorf("read path field: %w", err)
			}
			pending = string(b)
		case "files":
			name := pending
			pending = ""
			if name == "" {
				name = rawFileName(part.Header.Get("Content-Disposition"))
			}
			data, err := io.ReadAll(part)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", name, err)
			}
			if name != "" {
				files = append(files, artifact.File{Path: name, Data: data})
			}
		}
		part.Close()
	}
}

// rawFileName returns the filename parameter as sent, directories included.
func rawFileName(disposition string) string {
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	sess, id := s.session(w, r)
	remote := s.reg.Remote()
	if remote.Fetcher != nil {
		var err error
		remote, err = artifact.Discover(r.Context(), remote.Fetcher, s.candidates, s.log)
		if err != nil && !errors.Is(err, artifact.ErrRootNotFound) {
			s.log.Warn("discover results root", slog.Any("err", err))
		}
	}
	sess.SetSource(remote)
	s.reg.MarkCustom(id)
	http.Redirect(w, r, "/page/overview", http.StatusSeeOther)
}

// handleRemote streams a remote artifact so the browser can display
// images that live beside the server rather than under its web root.
func (s *Server) handleRemote(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.session(w, r)
	remote := sess.Remote()
	ref := r.URL.Query().Get("ref")
	if remote.Fetcher == nil || !underBase(ref, remote.Base) {
		http.NotFound(w, r)
		return
	}
	data, err := fetch(r.Context(), remote.Fetcher, ref)
	if err != nil {
		s.log.Debug("remote artifact unavailable", slog.String("ref", ref), slog.Any("err", err))
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", artifact.ContentType(ref, data))
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(data)
}

func fetch(ctx context.Context, f artifact.Fetcher, ref string) ([]byte, error) {
	data, err := f.Fetch(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ref, err)
	}
	return data, nil
}

// underBase reports whether ref names a file inside base once cleaned.
func underBase(ref, base string) bool {
	if ref == "" || path.IsAbs(ref) || strings.Contains(ref, `\`) {
		return false
	}
	ref = path.Clean(ref)
	base = path.Clean(base)
	if base == "." {
		return ref != ".." && !strings.HasPrefix(ref, "../")
	}
	return strings.HasPrefix(ref, base+"/")
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.session(w, r)
	st := sess.Status()
	writeJSON(w, struct {
		artifact.Status
		Message string `json:"message"`
	}{st, st.Message()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

package artifact

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Session owns one dashboard's artifact source and the cache of values
// parsed from it. Changing the source clears the cache.
type Session struct {
	mu     sync.RWMutex
	remote Remote
	upload *Upload
	gen    uint64

	cache        *Cache
	group        singleflight.Group
	remotePrefix string
	log          *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithRemotePrefix makes ImageURI return prefix+url.QueryEscape(ref) for
// remote images instead of the bare reference.
func WithRemotePrefix(prefix string) Option {
	return func(s *Session) { s.remotePrefix = prefix }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// NewSession returns a session reading from remote.
func NewSession(remote Remote, opts ...Option) *Session {
	s := &Session{remote: remote, cache: NewCache(), log: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SetSource installs src and invalidates the cache. A Remote replaces the
// remote base; an *Upload is layered over the current remote base. An empty
// upload leaves only the remote base, as Reset does.
func (s *Session) SetSource(src Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch v := src.(type) {
	case Remote:
		s.remote = v
		s.upload = nil
	case *Upload:
		s.upload = v
		if v.Len() == 0 {
			s.upload = nil
		}
	default:
		panic(fmt.Sprintf("artifact: unknown source %T", src))
	}
	s.gen++
	s.cache.Clear()
	s.log.Info("artifact source changed",
		slog.String("kind", string(s.kindLocked())),
		slog.String("base", s.remote.Base),
		slog.Int("files", s.upload.Len()),
		slog.Uint64("generation", s.gen))
}

// Reset drops any uploaded files, returning to the remote base, and clears
// the cache.
func (s *Session) Reset() {
	s.mu.RLock()
	remote := s.remote
	s.mu.RUnlock()
	s.SetSource(remote)
}

// Status describes the active source.
type Status struct {
	Kind        Kind   `json:"kind"`
	Base        string `json:"base"`
	Discovered  bool   `json:"discovered"`
	Files       int    `json:"files"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Cached      int    `json:"cached"`
	Generation  uint64 `json:"generation"`
}

// Message renders the one-line load status shown on every page.
func (st Status) Message() string {
	switch {
	case st.Kind == KindUpload:
		return fmt.Sprintf("Loaded %d files", st.Files)
	case st.Discovered:
		return fmt.Sprintf("Loaded: %s/", st.Base)
	default:
		return "Results folder not found. Please ensure 'results/' folder exists."
	}
}

// OK reports whether the status line describes a usable source.
func (st Status) OK() bool {
	return st.Kind == KindUpload || st.Discovered
}

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Kind:        s.kindLocked(),
		Base:        s.remote.Base,
		Discovered:  s.remote.Discovered,
		Files:       s.upload.Len(),
		Fingerprint: s.upload.Fingerprint(),
		Cached:      s.cache.Len(),
		Generation:  s.gen,
	}
}

// Remote returns the current remote base, which stays in effect as the
// fallback while files are uploaded.
func (s *Session) Remote() Remote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remote
}

// Uploaded reports whether an upload set is active.
func (s *Session) Uploaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.upload.Len() > 0
}

func (s *Session) kindLocked() Kind {
	if s.upload != nil {
		return KindUpload
	}
	return KindRemote
}

func (s *Session) snapshot() (Resolver, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Resolver{Remote: s.remote, Upload: s.upload, Logger: s.log}, s.gen
}

// Table loads a CSV artifact. Absence yields ErrNotFound; malformed CSV
// yields a *ParseError.
func (s *Session) Table(ctx context.Context, p string) (*Table, error) {
	v, err := s.load(ctx, "csv", p, func(data []byte) (any, error) {
		t, err := ParseTable(data)
		if err != nil {
			return nil, &ParseError{Path: p, Format: "csv", Err: err}
		}
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	t, ok := v.(*Table)
	if !ok {
		return nil, fmt.Errorf("%s cached as %T: %w", p, v, ErrNotFound)
	}
	return t, nil
}

// JSON loads a structured artifact. A payload that does not parse is
// treated as absent: the error matches ErrNotFound and also unwraps to the
// *ParseError.
func (s *Session) JSON(ctx context.Context, p string) (any, error) {
	return s.load(ctx, "json", p, func(data []byte) (any, error) {
		v, err := ParseJSON(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, &ParseError{Path: p, Format: "json", Err: err})
		}
		return v, nil
	})
}

// load parses p once per source generation. Values are cached per format,
// so the same path read as CSV and as JSON yields two entries.
func (s *Session) load(ctx context.Context, format, p string, parse func([]byte) (any, error)) (any, error) {
	ck := format + ":" + p
	if v, ok := s.cache.Get(ck); ok {
		return v, nil
	}
	res, gen := s.snapshot()

	v, err, _ := s.group.Do(strconv.FormatUint(gen, 10)+":"+ck, func() (any, error) {
		if v, ok := s.cache.Get(ck); ok {
			return v, nil
		}
		data, ok := res.Resolve(ctx, p)
		if !ok {
			return nil, fmt.Errorf("%s: %w", p, ErrNotFound)
		}
		v, err := parse(data)
		if err != nil {
			return nil, err
		}
		s.store(gen, ck, v)
		return v, nil
	})
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			s.log.Warn("artifact malformed", slog.String("path", p), slog.Any("err", err))
		}
		return nil, err
	}
	return v, nil
}

// store caches v under key unless the source changed while it was being
// loaded.
func (s *Session) store(gen uint64, key string, v any) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.gen != gen {
		s.log.Debug("dropping stale load", slog.String("key", key), slog.Uint64("generation", gen))
		return
	}
	s.cache.Put(key, v)
}

// Exists reports whether p is available. With files uploaded only the
// upload set counts.
func (s *Session) Exists(ctx context.Context, p string) bool {
	res, _ := s.snapshot()
	return res.Exists(ctx, p)
}

// Image is a displayable reference to an image artifact.
type Image struct {
	URI string
	// Inline is set when URI is a self-contained data URI built from
	// uploaded bytes. Otherwise the consumer must handle load failure.
	Inline bool
}

// ImageURI resolves p to an inline data URI when it was uploaded, and to
// its remote reference otherwise.
func (s *Session) ImageURI(_ context.Context, p string) Image {
	s.mu.RLock()
	remote, upload, prefix := s.remote, s.upload, s.remotePrefix
	s.mu.RUnlock()

	if f, ok := upload.Lookup(p, remote.Base); ok {
		return Image{URI: DataURI(f.Path, f.Data), Inline: true}
	}
	ref := remote.Ref(p)
	if prefix != "" {
		return Image{URI: prefix + url.QueryEscape(ref)}
	}
	return Image{URI: ref}
}

// DataURI encodes data as a base64 data URI, typed from name's extension or
// sniffed from the content.
func DataURI(name string, data []byte) string {
	return "data:" + ContentType(name, data) + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ContentType picks a MIME type for an artifact.
func ContentType(name string, data []byte) string {
	if t := mime.TypeByExtension(path.Ext(toSlash(name))); t != "" {
		return t
	}
	return http.DetectContentType(data)
}

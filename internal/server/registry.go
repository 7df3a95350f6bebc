package server

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"resultsview/internal/artifact"
)

// RemotePrefix is the route remote images are served through.
const RemotePrefix = "/remote?ref="

// Registry holds one artifact session per browser. New sessions start from
// the default remote base, with the default upload layered on top when the
// server watches a local directory.
type Registry struct {
	mu       sync.Mutex
	remote   artifact.Remote
	upload   *artifact.Upload
	sessions map[string]*entry
	now      func() time.Time
	log      *slog.Logger
}

type entry struct {
	session *artifact.Session
	// custom is set once the browser picked its own source; such sessions
	// no longer follow the default upload.
	custom   bool
	lastUsed time.Time
}

// NewRegistry returns an empty registry. upload may be nil.
func NewRegistry(remote artifact.Remote, upload *artifact.Upload, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		remote:   remote,
		upload:   upload,
		sessions: make(map[string]*entry),
		now:      time.Now,
		log:      log,
	}
}

// Get returns the session for id, creating one under a fresh id when id is
// empty or unknown. The returned id is the one to hand back to the client.
func (r *Registry) Get(id string) (*artifact.Session, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[id]; ok {
		e.lastUsed = r.now()
		return e.session, id
	}
	id = uuid.NewString()
	s := artifact.NewSession(r.remote,
		artifact.WithRemotePrefix(RemotePrefix),
		artifact.WithLogger(r.log.With(slog.String("session", id))))
	if r.upload != nil {
		s.SetSource(r.upload)
	}
	r.sessions[id] = &entry{session: s, lastUsed: r.now()}
	r.log.Debug("session created", slog.String("session", id))
	return s, id
}

// MarkCustom detaches session id from the default upload.
func (r *Registry) MarkCustom(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[id]; ok {
		e.custom = true
	}
}

// Remote returns the default remote base.
func (r *Registry) Remote() artifact.Remote {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remote
}

// ReplaceDefaultUpload installs u as the default upload and applies it to
// every session that has not picked its own source.
func (r *Registry) ReplaceDefaultUpload(u *artifact.Upload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upload = u
	n := 0
	for _, e := range r.sessions {
		if !e.custom {
			e.session.SetSource(u)
			n++
		}
	}
	r.log.Info("default upload replaced",
		slog.Int("files", u.Len()),
		slog.String("fingerprint", u.Fingerprint()),
		slog.Int("sessions", n))
}

// Prune drops sessions idle for longer than idle and returns how many.
func (r *Registry) Prune(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-idle)
	n := 0
	for id, e := range r.sessions {
		if e.lastUsed.Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

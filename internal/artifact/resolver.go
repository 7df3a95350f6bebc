package artifact

import (
	"context"
	"log/slog"
)

// Resolver locates the bytes of a logical path. Uploaded files take
// precedence; anything not uploaded is fetched from the remote base.
type Resolver struct {
	Remote Remote
	Upload *Upload
	Logger *slog.Logger
}

// Resolve never fails: absence from both sources is reported as ok=false.
func (r Resolver) Resolve(ctx context.Context, path string) ([]byte, bool) {
	if f, ok := r.Upload.Lookup(path, r.Remote.Base); ok {
		return f.Data, true
	}
	if r.Remote.Fetcher == nil {
		return nil, false
	}
	ref := r.Remote.Ref(path)
	data, err := r.Remote.Fetcher.Fetch(ctx, ref)
	if err != nil {
		r.logger().Debug("artifact unavailable", slog.String("ref", ref), slog.Any("err", err))
		return nil, false
	}
	return data, true
}

// Exists reports presence without reading remote bytes. With files
// uploaded, only the upload set is consulted, by exact relative path: a
// file uploaded under another folder does not count.
func (r Resolver) Exists(ctx context.Context, path string) bool {
	if r.Upload.Len() > 0 {
		return r.Upload.Has(stripBase(toSlash(path), toSlash(r.Remote.Base)))
	}
	if r.Remote.Fetcher == nil {
		return false
	}
	return r.Remote.Fetcher.Exists(ctx, r.Remote.Ref(path))
}

func (r Resolver) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

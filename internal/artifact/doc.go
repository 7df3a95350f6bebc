// Package artifact resolves, parses and caches the files of an evaluation
// results directory.
//
// A results directory is reachable in one of two ways: through a remote
// base path fetched over a [Fetcher], or as a set of files uploaded from a
// user-selected local folder. A [Session] owns the active source together
// with a cache of parsed values and exposes typed loaders for tables (CSV),
// structured values (JSON) and images.
//
// Artifacts are optional. A missing file is reported as [ErrNotFound] and
// never as a failure of the caller.
package artifact

package artifact

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that neither the upload set nor the remote base
// produced bytes for a logical path.
var ErrNotFound = errors.New("artifact not found")

// ErrRootNotFound is returned by Discover when no candidate base path
// serves the probe file.
var ErrRootNotFound = errors.New("results folder not found")

// ParseError is returned when an artifact was found but its payload could
// not be decoded.
type ParseError struct {
	Path   string
	Format string // "csv" or "json"
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %s: %v", e.Format, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StatusError is a non-success HTTP response from a remote fetch.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
}

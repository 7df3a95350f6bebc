package manifest

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Prober reports whether a logical path is available.
type Prober interface {
	Exists(ctx context.Context, path string) bool
}

// FileStatus is the presence of one expected file.
type FileStatus struct {
	Path    string
	Present bool
}

// CategoryStatus is the checker result for one category, in manifest order.
type CategoryStatus struct {
	Name  string
	Files []FileStatus
}

// Counts returns how many files are present and how many were checked.
func (c CategoryStatus) Counts() (present, total int) {
	for _, f := range c.Files {
		if f.Present {
			present++
		}
	}
	return present, len(c.Files)
}

// Check probes every file of cats with at most limit probes in flight.
// Results keep the manifest order regardless of completion order.
func Check(ctx context.Context, p Prober, cats []Category, limit int) ([]CategoryStatus, error) {
	out := make([]CategoryStatus, len(cats))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, cat := range cats {
		out[i] = CategoryStatus{Name: cat.Name, Files: make([]FileStatus, len(cat.Files))}
		for j, file := range cat.Files {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				out[i].Files[j] = FileStatus{Path: file, Present: p.Exists(gctx, file)}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// AvailableCases filters caseIDs to those whose artifact exists.
func AvailableCases(ctx context.Context, p Prober, caseIDs []string, pathFor func(string) string) []string {
	var out []string
	for _, id := range caseIDs {
		if p.Exists(ctx, pathFor(id)) {
			out = append(out, id)
		}
	}
	return out
}

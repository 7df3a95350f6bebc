package artifact

import (
	"context"
	"log/slog"
)

// DefaultCandidates are the base paths probed, in order, when locating the
// results root.
var DefaultCandidates = []string{
	"results",
	"masld_export/results",
	"../results",
	"./masld_export/results",
}

// ProbeFile is fetched under each candidate base during discovery.
const ProbeFile = "run_config.json"

// Discover returns a Remote for the first candidate whose ProbeFile can be
// fetched. When none can, the Remote keeps the first candidate as its base,
// has Discovered=false, and ErrRootNotFound is returned alongside it.
func Discover(ctx context.Context, f Fetcher, candidates []string, log *slog.Logger) (Remote, error) {
	if log == nil {
		log = slog.Default()
	}
	if len(candidates) == 0 {
		candidates = DefaultCandidates
	}
	for _, base := range candidates {
		if err := ctx.Err(); err != nil {
			return Remote{Fetcher: f, Base: candidates[0]}, err
		}
		r := Remote{Fetcher: f, Base: base}
		if _, err := f.Fetch(ctx, r.Ref(ProbeFile)); err != nil {
			log.Debug("results root candidate rejected", slog.String("base", base), slog.Any("err", err))
			continue
		}
		r.Discovered = true
		log.Info("results root found", slog.String("base", base))
		return r, nil
	}
	log.Warn("results root not found", slog.Any("candidates", candidates))
	return Remote{Fetcher: f, Base: candidates[0]}, ErrRootNotFound
}

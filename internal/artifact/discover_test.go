package artifact

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDiscover_FallsThroughToParentResults(t *testing.T) {
	f := newMemFetcher(map[string]string{
		"../results/run_config.json":             `{"timestamp":"2025-02-11"}`,
		"./masld_export/results/run_config.json": `{}`,
	})
	r, err := Discover(context.Background(), f, nil, quietLogger())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if r.Base != "../results" || !r.Discovered {
		t.Errorf("remote = %+v, want base ../results", r)
	}

	probed := []string{}
	for _, c := range DefaultCandidates {
		if f.count(c+"/run_config.json") > 0 {
			probed = append(probed, c)
		}
	}
	if diff := cmp.Diff([]string{"results", "masld_export/results", "../results"}, probed); diff != "" {
		t.Errorf("probe order mismatch (-want +got):\n%s", diff)
	}

	f.set("../results/patient_metrics_summary.csv", "n_patients\n10\n")
	s := NewSession(r, WithLogger(quietLogger()))
	tb, err := s.Table(context.Background(), "patient_metrics_summary.csv")
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	if got := tb.Cell(0, "n_patients"); got != "10" {
		t.Errorf("n_patients = %q, want 10", got)
	}
}

func TestDiscover_NotFound(t *testing.T) {
	f := newMemFetcher(map[string]string{})
	r, err := Discover(context.Background(), f, nil, quietLogger())
	if !errors.Is(err, ErrRootNotFound) {
		t.Fatalf("err = %v, want ErrRootNotFound", err)
	}
	if r.Discovered || r.Base != "results" {
		t.Errorf("remote = %+v, want undiscovered default base", r)
	}
	for _, c := range DefaultCandidates {
		if n := f.count(c + "/run_config.json"); n != 1 {
			t.Errorf("candidate %q probed %d times, want 1", c, n)
		}
	}
}

func TestDiscover_CustomCandidates(t *testing.T) {
	f := newMemFetcher(map[string]string{"out/run_config.json": "{}"})
	r, err := Discover(context.Background(), f, []string{"missing", "out"}, quietLogger())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if r.Base != "out" {
		t.Errorf("base = %q, want out", r.Base)
	}
}

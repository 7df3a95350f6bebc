package manifest

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"resultsview/internal/artifact"
)

type setProber struct {
	present  map[string]bool
	inFlight atomic.Int32
	peak     atomic.Int32
	mu       sync.Mutex
	probed   []string
}

func (p *setProber) Exists(_ context.Context, path string) bool {
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		old := p.peak.Load()
		if n <= old || p.peak.CompareAndSwap(old, n) {
			break
		}
	}
	p.mu.Lock()
	p.probed = append(p.probed, path)
	p.mu.Unlock()
	return p.present[path]
}

func TestExpected(t *testing.T) {
	cats := Expected()
	var names []string
	total := 0
	for _, c := range cats {
		names = append(names, c.Name)
		total += len(c.Files)
	}
	want := []string{"CSV Files", "Images", "Configuration", "Calibration Plots", "SHAP Plots", "AI Reports"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
	if total != 19 {
		t.Errorf("expected files = %d, want 19", total)
	}
	if got := cats[3].Files[1]; got != "calibration_plots/calibration_plot_patientlevel_RF_calibrated.png" {
		t.Errorf("second calibration plot = %q", got)
	}
}

func TestCheck_KeepsManifestOrder(t *testing.T) {
	p := &setProber{present: map[string]bool{
		RunConfig:     true,
		CoverageCurve: true,
		ReportsIndex:  true,
	}}
	cats := Expected()
	got, err := Check(context.Background(), p, cats, 3)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(got) != len(cats) {
		t.Fatalf("categories = %d, want %d", len(got), len(cats))
	}
	for i, c := range cats {
		for j, f := range c.Files {
			st := got[i].Files[j]
			if st.Path != f || st.Present != p.present[f] {
				t.Errorf("%s[%d] = %+v, want %s present=%v", c.Name, j, st, f, p.present[f])
			}
		}
	}
	if present, total := got[1].Counts(); present != 1 || total != 4 {
		t.Errorf("Images counts = %d/%d, want 1/4", present, total)
	}
	if peak := p.peak.Load(); peak > 3 {
		t.Errorf("peak concurrent probes = %d, limit 3", peak)
	}
	if len(p.probed) != 19 {
		t.Errorf("probes = %d, want 19", len(p.probed))
	}
}

func TestCheck_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Check(ctx, &setProber{}, Expected(), 1); err == nil {
		t.Error("expected context error")
	}
}

func TestAvailableCases(t *testing.T) {
	p := &setProber{present: map[string]bool{
		ShapLocalPlot("02"): true,
		ShapLocalPlot("05"): true,
	}}
	got := AvailableCases(context.Background(), p, ShapCases, ShapLocalPlot)
	if diff := cmp.Diff([]string{"02", "05"}, got); diff != "" {
		t.Errorf("AvailableCases mismatch (-want +got):\n%s", diff)
	}
}

func uploadProber(paths ...string) Prober {
	files := make([]artifact.File, len(paths))
	for i, p := range paths {
		files[i] = artifact.File{Path: p, Data: []byte("png")}
	}
	s := artifact.NewSession(artifact.Remote{Base: "results"},
		artifact.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.SetSource(artifact.NewUpload(files))
	return s
}

func TestCheck_UploadRequiresExactPath(t *testing.T) {
	p := uploadProber(
		"results/misc/calibration_plot_patientlevel_RF_raw.png",
		"results/"+CalibrationPlot("CNN", "calibrated"),
	)
	got, err := Check(context.Background(), p, Expected(), 4)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	var present []string
	for _, c := range got {
		for _, f := range c.Files {
			if f.Present {
				present = append(present, f.Path)
			}
		}
	}
	if diff := cmp.Diff([]string{CalibrationPlot("CNN", "calibrated")}, present); diff != "" {
		t.Errorf("present files mismatch (-want +got):\n%s", diff)
	}
}

func TestAvailableCases_UploadRequiresExactPath(t *testing.T) {
	p := uploadProber(
		"results/"+ShapLocalPlot("01"),
		"results/old/shap_local_case_03.png",
		"results/"+ReportImage("03"),
	)
	got := AvailableCases(context.Background(), p, ShapCases, ShapLocalPlot)
	if diff := cmp.Diff([]string{"01"}, got); diff != "" {
		t.Errorf("AvailableCases mismatch (-want +got):\n%s", diff)
	}
}

func TestArtifactNames(t *testing.T) {
	tests := []struct{ got, want string }{
		{ShapLocalPlot("04"), "shap_plots/shap_local_case_04.png"},
		{ReportImage("07"), "ai_reports/Case-07.png"},
		{CalibrationPlot("XGB", "raw"), "calibration_plots/calibration_plot_patientlevel_XGB_raw.png"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

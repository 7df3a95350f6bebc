package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"

	"resultsview/internal/artifact"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startWatcher(t *testing.T, dir string) (*Watcher, <-chan *artifact.Upload) {
	t.Helper()
	ch := make(chan *artifact.Upload, 64)
	onChange := func(u *artifact.Upload) {
		select {
		case ch <- u:
		default:
		}
	}
	w, err := New(dir, 50*time.Millisecond, onChange, quietLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return w, ch
}

func waitUpload(t *testing.T, ch <-chan *artifact.Upload, has string) *artifact.Upload {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case u := <-ch:
			if u.Has(has) {
				return u
			}
		case <-deadline:
			t.Fatalf("no reload containing %s", has)
			return nil
		}
	}
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := filepath.Join(t.TempDir(), "results")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	w, ch := startWatcher(t, dir)
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "run_config.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	u := waitUpload(t, ch, "results/run_config.json")
	if u.Len() != 1 {
		t.Errorf("files = %d, want 1", u.Len())
	}

	sub := filepath.Join(dir, "shap_plots")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	// Give the watcher a moment to register the new directory.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(sub, "shap_global_summary.png"), []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitUpload(t, ch, "results/shap_plots/shap_global_summary.png")

	if st := w.Stats(); st.Reloads < 2 || st.Events == 0 {
		t.Errorf("stats = %+v", st)
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, _ := startWatcher(t, t.TempDir())
	w.Stop()
	w.Stop()
}

func TestWatcher_ContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := New(t.TempDir(), 0, func(*artifact.Upload) {}, quietLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()
	w.Stop()
}

func TestWatcher_MissingDir(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := New(filepath.Join(t.TempDir(), "absent"), 0, func(*artifact.Upload) {}, quietLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(context.Background()); err == nil {
		t.Error("expected error for missing directory")
	}
	w.Stop()
}

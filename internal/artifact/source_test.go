package artifact

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "export")
	files := map[string]string{
		"run_config.json":                    "{}",
		"shap_plots/shap_global_summary.png": "png",
		".cache/ignored.csv":                 "x",
	}
	for name, data := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	u, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if u.Len() != 2 {
		t.Errorf("Len = %d, want 2 (hidden directories skipped)", u.Len())
	}
	if !u.Has("export/shap_plots/shap_global_summary.png") {
		t.Error("file should be registered with the folder name prefix")
	}
	if _, ok := u.Lookup("results/shap_plots/shap_global_summary.png", "results"); !ok {
		t.Error("lookup through the remote base prefix failed")
	}
	if _, ok := u.Lookup("ignored.csv", ""); ok {
		t.Error("hidden directory contents should not be loaded")
	}
}

func TestUpload_Fingerprint(t *testing.T) {
	a := NewUpload([]File{{Path: "r/a.csv", Data: []byte("1")}, {Path: "r/b.csv", Data: []byte("2")}})
	b := NewUpload([]File{{Path: "r/b.csv", Data: []byte("2")}, {Path: "r/a.csv", Data: []byte("1")}})
	c := NewUpload([]File{{Path: "r/a.csv", Data: []byte("1")}, {Path: "r/b.csv", Data: []byte("3")}})

	if a.Fingerprint() == "" {
		t.Fatal("empty fingerprint")
	}
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("fingerprint should not depend on upload order")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("fingerprint should change with content")
	}
}

func TestUpload_Nil(t *testing.T) {
	var u *Upload
	if u.Len() != 0 || u.Has("x") || u.Fingerprint() != "" {
		t.Error("nil upload should behave as empty")
	}
	if _, ok := u.Lookup("x", ""); ok {
		t.Error("nil upload lookup should miss")
	}
}

func TestRemote_Ref(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"results", "run_config.json", "results/run_config.json"},
		{"../results/", "ai_reports/index.csv", "../results/ai_reports/index.csv"},
		{"", `shap_plots\shap_global_summary.png`, "shap_plots/shap_global_summary.png"},
	}
	for _, tt := range tests {
		if got := (Remote{Base: tt.base}).Ref(tt.path); got != tt.want {
			t.Errorf("Ref(%q) with base %q = %q, want %q", tt.path, tt.base, got, tt.want)
		}
	}
}

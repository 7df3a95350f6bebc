package view

import (
	"context"
	"html/template"
	"strings"
	"testing"

	"resultsview/internal/manifest"
)

func TestRenderer_AllPages(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	l := newLoader(t, map[string]string{
		manifest.MetricsSummary:      "n_patients,n_pos,n_neg\n10,4,6\n",
		manifest.RunConfig:           `{"timestamp":"2025-06-30T12:00:00"}`,
		manifest.ShapLocalPlot("01"): "png",
	})
	b := NewBuilder(quietLogger())

	for _, meta := range Pages {
		t.Run(meta.ID, func(t *testing.T) {
			p, err := b.Build(context.Background(), l, meta.ID, map[string][]string{"case": {"01"}})
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			var sb strings.Builder
			if err := r.Render(&sb, p); err != nil {
				t.Fatalf("Render: %v", err)
			}
			out := sb.String()
			if !strings.Contains(out, `<main id="`+meta.ID+`"`) {
				t.Errorf("page container missing for %s", meta.ID)
			}
			if !strings.Contains(out, `class="active">`+template.HTMLEscapeString(meta.Title)) {
				t.Errorf("nav entry for %s not marked active", meta.ID)
			}
			if !strings.Contains(out, "Loaded 3 files") {
				t.Errorf("status line missing")
			}
		})
	}
}

func TestRenderer_ImagePlaceholder(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	p, err := NewBuilder(quietLogger()).Build(context.Background(), newLoader(t, nil), "uncertainty", nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var sb strings.Builder
	if err := r.Render(&sb, p); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := sb.String()
	for _, want := range []string{
		`<img id="coverageCurveImg" src="results/coverage_curve.png"`,
		`style="display:block"`,
		`<div id="coverageCurveImgError" class="image-error" style="display:none">`,
		"No data available",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRenderer_InlineImageKeepsDataURI(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	l := newLoader(t, map[string]string{manifest.ShapGlobalSummary: "\x89PNG"})
	p, err := NewBuilder(quietLogger()).Build(context.Background(), l, "shap", nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var sb strings.Builder
	if err := r.Render(&sb, p); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(sb.String(), `src="data:image/png;base64,`) {
		t.Error("data URI was not emitted verbatim")
	}
	if strings.Contains(sb.String(), "ZgotmplZ") {
		t.Error("template sanitizer rejected the image URI")
	}
}

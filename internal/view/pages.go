package view

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strconv"

	"golang.org/x/sync/errgroup"

	"resultsview/internal/manifest"
)

const unset = "-"

// OverviewBody holds the headline counts and the summary plots.
type OverviewBody struct {
	TotalPatients string
	PositiveCases string
	NegativeCases string
	RunDate       string
	Images        []ImageView
}

func (b *Builder) Overview(ctx context.Context, l Loader) *OverviewBody {
	body := &OverviewBody{TotalPatients: unset, PositiveCases: unset, NegativeCases: unset, RunDate: unset}

	var g errgroup.Group
	g.Go(func() error {
		t, err := l.Table(ctx, manifest.MetricsSummary)
		if err != nil || t.Len() == 0 {
			return nil
		}
		first := t.First()
		body.TotalPatients = orDefault(first["n_patients"], strconv.Itoa(t.Len()))
		body.PositiveCases = orDefault(first["n_pos"], "N/A")
		body.NegativeCases = orDefault(first["n_neg"], "N/A")
		return nil
	})
	g.Go(func() error {
		v, err := l.JSON(ctx, manifest.RunConfig)
		if err != nil {
			return nil
		}
		if cfg, ok := v.(map[string]any); ok {
			if ts, ok := cfg["timestamp"].(string); ok && ts != "" {
				body.RunDate = prefix(ts, 10)
			}
		}
		return nil
	})
	body.Images = []ImageView{
		image(ctx, l, "rocCurves", "ROC Curves", manifest.ROCCurves),
		image(ctx, l, "prCurves", "Precision-Recall Curves", manifest.PRCurves),
		image(ctx, l, "confusionMatrices", "Confusion Matrices", manifest.ConfusionImage),
		image(ctx, l, "coverageCurve", "Coverage Curve", manifest.CoverageCurve),
	}
	_ = g.Wait()
	return body
}

// MetricsBody holds the performance tables.
type MetricsBody struct {
	Metrics         TableView
	Confusion       TableView
	ConfusionImage  ImageView
	ModelComparison TableView
}

func (b *Builder) Metrics(ctx context.Context, l Loader) *MetricsBody {
	body := &MetricsBody{}
	var g errgroup.Group
	g.Go(func() error {
		body.Metrics = b.table(ctx, l, "metricsTable", "Patient-Level Metrics", manifest.MetricsSummary)
		return nil
	})
	g.Go(func() error {
		body.Confusion = b.table(ctx, l, "confusionTable", "Confusion Matrices", manifest.ConfusionMatrices)
		return nil
	})
	g.Go(func() error {
		body.ModelComparison = b.table(ctx, l, "modelComparisonTable", "Model Comparison", manifest.ModelComparison)
		return nil
	})
	body.ConfusionImage = image(ctx, l, "confusionImage", "Confusion Matrices", manifest.ConfusionImage)
	_ = g.Wait()
	return body
}

// CalibrationBody holds the plot selector and the calibration summary.
type CalibrationBody struct {
	Models  []string
	Types   []string
	Model   string
	Type    string
	Plot    ImageView
	Summary TableView
}

// Calibration shows the plot for model and typ; values outside the known
// grid fall back to the first model and type.
func (b *Builder) Calibration(ctx context.Context, l Loader, model, typ string) *CalibrationBody {
	if !slices.Contains(manifest.CalibrationModels, model) {
		model = manifest.CalibrationModels[0]
	}
	if !slices.Contains(manifest.CalibrationTypes, typ) {
		typ = manifest.CalibrationTypes[0]
	}
	body := &CalibrationBody{
		Models: manifest.CalibrationModels,
		Types:  manifest.CalibrationTypes,
		Model:  model,
		Type:   typ,
		Plot:   image(ctx, l, "calibrationPlot", model+" "+typ, manifest.CalibrationPlot(model, typ)),
	}
	body.Summary = b.table(ctx, l, "calibrationSummaryTable", "Calibration Summary", manifest.CalibrationSummary)
	return body
}

// UncertaintyBody holds the uncertainty and coverage results.
type UncertaintyBody struct {
	Uncertainty   TableView
	Coverage      TableView
	CoverageCurve ImageView
}

func (b *Builder) Uncertainty(ctx context.Context, l Loader) *UncertaintyBody {
	body := &UncertaintyBody{}
	var g errgroup.Group
	g.Go(func() error {
		body.Uncertainty = b.table(ctx, l, "uncertaintyTable", "CNN Uncertainty", manifest.UncertaintyTable)
		return nil
	})
	g.Go(func() error {
		body.Coverage = b.table(ctx, l, "coverageTable", "Coverage vs Performance", manifest.CoverageTable)
		return nil
	})
	body.CoverageCurve = image(ctx, l, "coverageCurveImg", "Coverage Curve", manifest.CoverageCurve)
	_ = g.Wait()
	return body
}

// CaseBody is a page with a case selector and the selected case's image.
type CaseBody struct {
	Cases    []string
	Selected string
	Image    *ImageView
}

// ShapBody holds the global and per-case SHAP plots.
type ShapBody struct {
	Global ImageView
	CaseBody
}

func (b *Builder) Shap(ctx context.Context, l Loader, caseID string) *ShapBody {
	return &ShapBody{
		Global:   image(ctx, l, "shapGlobal", "Global Feature Importance", manifest.ShapGlobalSummary),
		CaseBody: b.cases(ctx, l, b.ShapCases, caseID, "shapLocal", manifest.ShapLocalPlot),
	}
}

// ReportsBody holds the report index and the selected case report.
type ReportsBody struct {
	Index TableView
	CaseBody
}

func (b *Builder) Reports(ctx context.Context, l Loader, caseID string) *ReportsBody {
	body := &ReportsBody{}
	var g errgroup.Group
	g.Go(func() error {
		body.Index = b.table(ctx, l, "reportsIndexTable", "Report Index", manifest.ReportsIndex)
		return nil
	})
	body.CaseBody = b.cases(ctx, l, b.ReportCases, caseID, "reportImage", manifest.ReportImage)
	_ = g.Wait()
	return body
}

// cases offers every configured case id, narrowed to the ones present when
// files were uploaded, and resolves the selected case if it is offered.
func (b *Builder) cases(ctx context.Context, l Loader, all []string, selected, imgID string, pathFor func(string) string) CaseBody {
	offered := all
	if l.Uploaded() {
		offered = manifest.AvailableCases(ctx, l, all, pathFor)
	}
	body := CaseBody{Cases: offered}
	if selected != "" && slices.Contains(offered, selected) {
		img := image(ctx, l, imgID, "Case-"+selected, pathFor(selected))
		body.Selected = selected
		body.Image = &img
	}
	return body
}

// ConfigBody holds run_config.json pretty-printed.
type ConfigBody struct {
	JSON  string
	Found bool
}

func (b *Builder) Config(ctx context.Context, l Loader) *ConfigBody {
	v, err := l.JSON(ctx, manifest.RunConfig)
	if err != nil || empty(v) {
		return &ConfigBody{}
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		b.Log.Warn("format run config", slog.Any("err", err))
		return &ConfigBody{}
	}
	return &ConfigBody{JSON: string(out), Found: true}
}

// CheckerBody holds the presence of every expected file.
type CheckerBody struct {
	Categories []manifest.CategoryStatus
}

func (b *Builder) Checker(ctx context.Context, l Loader) (*CheckerBody, error) {
	cats, err := manifest.Check(ctx, l, manifest.Expected(), b.CheckLimit)
	if err != nil {
		return nil, err
	}
	return &CheckerBody{Categories: cats}, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// prefix returns the first n runes of s.
func prefix(s string, n int) string {
	for i := range s {
		if n == 0 {
			return s[:i]
		}
		n--
	}
	return s
}

// empty reports whether a decoded JSON value carries nothing to show:
// null, false, zero or the empty string.
func empty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	case string:
		return x == ""
	case json.Number:
		f, err := x.Float64()
		return err == nil && f == 0
	}
	return false
}

// Package manifest names the artifacts of a results directory and checks
// which of them are present.
package manifest

import "fmt"

// Tabular artifacts.
const (
	MetricsSummary     = "patient_metrics_summary.csv"
	ConfusionMatrices  = "patient_confusion_matrices.csv"
	ModelComparison    = "model_comparison_stats.csv"
	CoverageTable      = "coverage_vs_performance.csv"
	CalibrationSummary = "calibration_summary.csv"
	UncertaintyTable   = "cnn_uncertainty_patientlevel.csv"
	ReportsIndex       = "ai_reports/index.csv"
)

// Structured artifacts.
const RunConfig = "run_config.json"

// Image artifacts.
const (
	ROCCurves         = "roc_curves_patient_level.png"
	PRCurves          = "pr_curves_patient_level.png"
	ConfusionImage    = "confusion_matrices_patient_level.png"
	CoverageCurve     = "coverage_curve.png"
	ShapGlobalSummary = "shap_plots/shap_global_summary.png"
)

var (
	// CalibrationModels and CalibrationTypes span the calibration plot grid.
	CalibrationModels = []string{"RF", "XGB", "CNN"}
	CalibrationTypes  = []string{"raw", "calibrated"}

	// ShapCases and ReportCases are the case ids offered when the source
	// cannot be listed.
	ShapCases   = []string{"01", "02", "03", "04", "05", "06"}
	ReportCases = []string{"01", "02", "03", "04", "05", "06", "07", "08"}
)

// CalibrationPlot is the plot for one model before or after calibration.
func CalibrationPlot(model, typ string) string {
	return fmt.Sprintf("calibration_plots/calibration_plot_patientlevel_%s_%s.png", model, typ)
}

// ShapLocalPlot is the local SHAP explanation for a case id such as "03".
func ShapLocalPlot(caseID string) string {
	return fmt.Sprintf("shap_plots/shap_local_case_%s.png", caseID)
}

// ReportImage is the rendered AI report for a case id.
func ReportImage(caseID string) string {
	return fmt.Sprintf("ai_reports/Case-%s.png", caseID)
}

// Category is a named group of expected files.
type Category struct {
	Name  string
	Files []string
}

// Expected returns the files a complete results directory contains,
// grouped for the file checker.
func Expected() []Category {
	var calibration []string
	for _, m := range CalibrationModels {
		for _, typ := range CalibrationTypes {
			calibration = append(calibration, CalibrationPlot(m, typ))
		}
	}
	return []Category{
		{Name: "CSV Files", Files: []string{
			MetricsSummary,
			ConfusionMatrices,
			ModelComparison,
			CoverageTable,
			CalibrationSummary,
			UncertaintyTable,
		}},
		{Name: "Images", Files: []string{ROCCurves, PRCurves, ConfusionImage, CoverageCurve}},
		{Name: "Configuration", Files: []string{RunConfig}},
		{Name: "Calibration Plots", Files: calibration},
		{Name: "SHAP Plots", Files: []string{ShapGlobalSummary}},
		{Name: "AI Reports", Files: []string{ReportsIndex}},
	}
}

// Package view builds the dashboard pages. Each page declares the artifacts
// it needs, loads them independently and renders whatever is available.
package view

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"slices"

	"resultsview/internal/artifact"
	"resultsview/internal/manifest"
)

// Loader is the artifact access a page needs. *artifact.Session implements it.
type Loader interface {
	Table(ctx context.Context, path string) (*artifact.Table, error)
	JSON(ctx context.Context, path string) (any, error)
	ImageURI(ctx context.Context, path string) artifact.Image
	Exists(ctx context.Context, path string) bool
	Uploaded() bool
	Status() artifact.Status
}

// ErrUnknownPage is returned by Build for an unrecognised page id.
var ErrUnknownPage = errors.New("unknown page")

// Meta identifies a page in the navigation menu.
type Meta struct {
	ID    string
	Title string
}

// Pages lists the dashboard pages in menu order.
var Pages = []Meta{
	{ID: "overview", Title: "Overview"},
	{ID: "metrics", Title: "Performance Metrics"},
	{ID: "calibration", Title: "Calibration"},
	{ID: "uncertainty", Title: "Uncertainty & Coverage"},
	{ID: "shap", Title: "SHAP Explainability"},
	{ID: "reports", Title: "AI Reports"},
	{ID: "config", Title: "Configuration"},
	{ID: "checker", Title: "File Checker"},
}

// Page is a fully built page ready for the layout template.
type Page struct {
	Meta
	Nav    []Meta
	Status artifact.Status
	Body   any
}

// ImageView is an image slot with its placeholder. URI is trusted: it is
// either a data URI built from uploaded bytes or a path on this server.
type ImageView struct {
	ID     string
	Title  string
	URI    template.URL
	Inline bool
}

// TableView is a table slot. A nil Table renders the "no data" placeholder.
type TableView struct {
	ID    string
	Title string
	Table *artifact.Table
}

// Builder turns a page id and its query parameters into a Page.
type Builder struct {
	ShapCases   []string
	ReportCases []string
	// CheckLimit bounds concurrent probes on the file checker page.
	CheckLimit int
	Log        *slog.Logger
}

// NewBuilder returns a Builder with the default case lists.
func NewBuilder(log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{
		ShapCases:   manifest.ShapCases,
		ReportCases: manifest.ReportCases,
		CheckLimit:  4,
		Log:         log,
	}
}

// Build loads the artifacts of page id. Missing or malformed artifacts
// leave their slot empty; only an unknown id or a cancelled context fail.
func (b *Builder) Build(ctx context.Context, l Loader, id string, q url.Values) (*Page, error) {
	i := slices.IndexFunc(Pages, func(m Meta) bool { return m.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPage, id)
	}

	var body any
	switch id {
	case "overview":
		body = b.Overview(ctx, l)
	case "metrics":
		body = b.Metrics(ctx, l)
	case "calibration":
		body = b.Calibration(ctx, l, q.Get("model"), q.Get("type"))
	case "uncertainty":
		body = b.Uncertainty(ctx, l)
	case "shap":
		body = b.Shap(ctx, l, q.Get("case"))
	case "reports":
		body = b.Reports(ctx, l, q.Get("case"))
	case "config":
		body = b.Config(ctx, l)
	case "checker":
		c, err := b.Checker(ctx, l)
		if err != nil {
			return nil, fmt.Errorf("check files: %w", err)
		}
		body = c
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Page{Meta: Pages[i], Nav: Pages, Status: l.Status(), Body: body}, nil
}

func (b *Builder) table(ctx context.Context, l Loader, id, title, path string) TableView {
	t, err := l.Table(ctx, path)
	if err != nil {
		b.Log.Debug("table unavailable", slog.String("path", path), slog.Any("err", err))
		t = nil
	}
	return TableView{ID: id, Title: title, Table: t}
}

func image(ctx context.Context, l Loader, id, title, path string) ImageView {
	img := l.ImageURI(ctx, path)
	return ImageView{ID: id, Title: title, URI: template.URL(img.URI), Inline: img.Inline}
}

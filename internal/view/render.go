package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer executes the embedded page templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	t, err := template.New("").Funcs(template.FuncMap{
		"table":      TableHTML,
		"caseSelect": newCaseSelect,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: t}, nil
}

type caseSelect struct {
	SelectID string
	Prompt   string
	Body     CaseBody
}

func newCaseSelect(id, prompt string, body CaseBody) caseSelect {
	return caseSelect{SelectID: id, Prompt: prompt, Body: body}
}

type layoutData struct {
	*Page
	Content template.HTML
}

// Render writes p inside the dashboard layout. The page body is rendered
// to a buffer first so a template error never leaves a half-written page.
func (r *Renderer) Render(w io.Writer, p *Page) error {
	var body bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&body, "page-"+p.ID, p.Body); err != nil {
		return fmt.Errorf("render %s: %w", p.ID, err)
	}
	var out bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&out, "layout", layoutData{Page: p, Content: template.HTML(body.String())}); err != nil {
		return fmt.Errorf("render layout: %w", err)
	}
	_, err := out.WriteTo(w)
	return err
}

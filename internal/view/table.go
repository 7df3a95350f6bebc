package view

import (
	"bytes"
	"html/template"
	"io"

	"resultsview/internal/artifact"
)

const noData = "<p>No data available</p>"

var tableTmpl = template.Must(template.New("table").Parse(
	`<table><thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead><tbody>` +
		`{{range $row := .Rows}}<tr>{{range $.Columns}}<td>{{index $row .}}</td>{{end}}</tr>{{end}}` +
		`</tbody></table>`))

// RenderTable writes t as an HTML table: one header cell per column in
// header order, one body row per record, missing cells empty. A nil or
// empty table renders the "no data" placeholder.
func RenderTable(w io.Writer, t *artifact.Table) error {
	if t.Len() == 0 {
		_, err := io.WriteString(w, noData)
		return err
	}
	return tableTmpl.Execute(w, t)
}

// TableHTML is RenderTable for use inside templates.
func TableHTML(t *artifact.Table) (template.HTML, error) {
	var buf bytes.Buffer
	if err := RenderTable(&buf, t); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

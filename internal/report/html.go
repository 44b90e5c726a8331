package report

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/yildizm/mlstudio/internal/views"
)

var pageTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>ML Pipeline Report</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 960px; color: #1f2937; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #e5e7eb; padding: 4px 10px; text-align: left; }
.heatmap td { text-align: center; min-width: 48px; }
.heatmap td.bright { color: #ffffff; }
</style>
</head>
<body>
{{.Body}}
{{if .Heatmap}}<h2>Correlation Heatmap</h2>
<table class="heatmap">
<tr><th></th>{{range .Heatmap.Columns}}<th>{{.}}</th>{{end}}</tr>
{{range $i, $row := .Heatmap.Cells}}<tr><th>{{index $.Heatmap.Columns $i}}</th>{{range $row}}<td{{if .Bright}} class="bright"{{end}} style="background-color: {{.Color}}">{{.Label}}</td>{{end}}</tr>
{{end}}</table>
{{end}}</body>
</html>
`))

// htmlFormatter renders the Markdown report to a standalone HTML page with goldmark
type htmlFormatter struct {
	md goldmark.Markdown
}

// NewHTML creates a new HTML formatter
func NewHTML() Formatter {
	return &htmlFormatter{md: goldmark.New(goldmark.WithExtensions(extension.GFM))}
}

func (f *htmlFormatter) Format(r *Report) ([]byte, error) {
	// the heatmap is drawn with cell colors below, not as a plain table
	body := *r
	body.Heatmap = nil

	src, err := NewMarkdown().Format(&body)
	if err != nil {
		return nil, err
	}

	var html bytes.Buffer
	if err := f.md.Convert(src, &html); err != nil {
		return nil, fmt.Errorf("failed to convert markdown: %w", err)
	}

	var out bytes.Buffer
	data := struct {
		Body    template.HTML
		Heatmap *htmlHeatmap
	}{
		Body:    template.HTML(html.String()),
		Heatmap: newHTMLHeatmap(r.Heatmap),
	}
	if err := pageTemplate.Execute(&out, data); err != nil {
		return nil, fmt.Errorf("failed to render html: %w", err)
	}
	return out.Bytes(), nil
}

type htmlHeatmap struct {
	Columns []string
	Cells   [][]htmlCell
}

type htmlCell struct {
	Label  string
	Color  template.CSS
	Bright bool
}

func newHTMLHeatmap(h *views.Heatmap) *htmlHeatmap {
	if h == nil {
		return nil
	}
	out := &htmlHeatmap{Columns: h.Columns, Cells: make([][]htmlCell, len(h.Cells))}
	for i, row := range h.Cells {
		out.Cells[i] = make([]htmlCell, len(row))
		for j, c := range row {
			out.Cells[i][j] = htmlCell{
				Label:  c.Label,
				Color:  template.CSS(c.Color.CSS()),
				Bright: c.Bright,
			}
		}
	}
	return out
}

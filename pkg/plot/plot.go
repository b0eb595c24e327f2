// Package plot renders training curves: an HTML report with inline SVG
// charts and a compact terminal chart.
package plot

import (
	"fmt"
	"html/template"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/papercomputeco/siamese/pkg/train"
)

const (
	width   = 560
	height  = 300
	padding = 40
)

// Series is one named line of a chart.
type Series struct {
	Name   string
	Color  string
	Values []float64
}

// Chart is a titled set of series sharing one epoch axis.
type Chart struct {
	Title  string
	YLabel string
	Series []Series
}

// Charts returns the accuracy and loss charts of h.
func Charts(h *train.History) []Chart {
	return []Chart{
		{
			Title:  "Model Accuracy",
			YLabel: "accuracy",
			Series: []Series{
				{Name: "Training", Color: "#1f77b4", Values: h.Accuracy},
				{Name: "Validation", Color: "#ff7f0e", Values: h.ValAccuracy},
			},
		},
		{
			Title:  "Model Loss",
			YLabel: "loss",
			Series: []Series{
				{Name: "Training", Color: "#1f77b4", Values: h.Loss},
				{Name: "Validation", Color: "#ff7f0e", Values: h.ValLoss},
			},
		},
	}
}

type svgLine struct {
	Name    string
	Color   string
	Points  string
	LegendX int
	LegendY int
}

type svgChart struct {
	Title      string
	YLabel     string
	Width      int
	Height     int
	Pad        int
	Bottom     int
	Right      int
	LegendX    int
	Lines      []svgLine
	YMin, YMax string
	Epochs     int
}

func layout(c Chart) svgChart {
	lo, hi := math.Inf(1), math.Inf(-1)
	epochs := 0
	for _, s := range c.Series {
		epochs = max(epochs, len(s.Values))
		for _, v := range s.Values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if epochs == 0 {
		lo, hi = 0, 1
	}
	if hi-lo < 1e-12 {
		hi = lo + 1
	}

	x := func(i int) float64 {
		if epochs <= 1 {
			return padding
		}
		return padding + float64(i)*float64(width-2*padding)/float64(epochs-1)
	}
	y := func(v float64) float64 {
		return float64(height-padding) - (v-lo)/(hi-lo)*float64(height-2*padding)
	}

	out := svgChart{
		Title:   c.Title,
		YLabel:  c.YLabel,
		Width:   width,
		Height:  height,
		Pad:     padding,
		Bottom:  height - padding,
		Right:   width - padding,
		LegendX: width - 2*padding - 40,
		YMin:    fmt.Sprintf("%.3f", lo),
		YMax:    fmt.Sprintf("%.3f", hi),
		Epochs:  epochs,
	}
	for k, s := range c.Series {
		if len(s.Values) == 0 {
			continue
		}
		pts := make([]string, len(s.Values))
		for i, v := range s.Values {
			pts[i] = fmt.Sprintf("%.1f,%.1f", x(i), y(v))
		}
		out.Lines = append(out.Lines, svgLine{
			Name:    s.Name,
			Color:   s.Color,
			Points:  strings.Join(pts, " "),
			LegendX: out.LegendX,
			LegendY: padding + 16*k,
		})
	}
	return out
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title>
<style>body{font-family:sans-serif;margin:2em}svg{margin:1em 0;background:#fff}</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Charts}}
<svg xmlns="http://www.w3.org/2000/svg" width="{{.Width}}" height="{{.Height}}" role="img" aria-label="{{.Title}}">
  <text x="{{.Pad}}" y="20" font-size="14" font-weight="bold">{{.Title}}</text>
  <line x1="{{.Pad}}" y1="{{.Pad}}" x2="{{.Pad}}" y2="{{.Bottom}}" stroke="#333"/>
  <line x1="{{.Pad}}" y1="{{.Bottom}}" x2="{{.Right}}" y2="{{.Bottom}}" stroke="#333"/>
  <text x="4" y="{{.Pad}}" font-size="10">{{.YMax}}</text>
  <text x="4" y="{{.Bottom}}" font-size="10">{{.YMin}}</text>
  <text x="{{.Right}}" y="{{.Height}}" font-size="10" text-anchor="end">epoch {{.Epochs}}</text>
  <text x="{{.Pad}}" y="{{.Height}}" font-size="10">{{.YLabel}} / epoch</text>
  {{range .Lines}}
  <polyline fill="none" stroke="{{.Color}}" stroke-width="2" points="{{.Points}}"/>
  <text x="{{.LegendX}}" y="{{.LegendY}}" font-size="11" fill="{{.Color}}">{{.Name}}</text>
  {{end}}
</svg>
{{end}}
</body>
</html>
`))

type report struct {
	Title  string
	Charts []svgChart
}

// Render writes the HTML report for h to w.
func Render(w io.Writer, title string, h *train.History) error {
	r := report{Title: title}
	for _, c := range Charts(h) {
		r.Charts = append(r.Charts, layout(c))
	}
	return reportTemplate.Execute(w, r)
}

// WriteHTML writes the HTML report for h to path, creating parent
// directories as needed.
func WriteHTML(path string, h *train.History) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := Render(f, "Training history", h); err != nil {
		f.Close()
		return fmt.Errorf("rendering report: %w", err)
	}
	return f.Close()
}

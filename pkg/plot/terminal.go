package plot

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/papercomputeco/siamese/pkg/train"
)

var (
	sparkRunes = []rune("▁▂▃▄▅▆▇█")

	titleStyle = lipgloss.NewStyle().Bold(true)
	trainStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	valStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Sparkline maps values onto block runes between lo and hi.
func Sparkline(values []float64, lo, hi float64) string {
	if len(values) == 0 {
		return ""
	}
	span := hi - lo
	var b strings.Builder
	for _, v := range values {
		idx := 0
		if span > 0 {
			idx = int(math.Round((v - lo) / span * float64(len(sparkRunes)-1)))
		}
		idx = min(max(idx, 0), len(sparkRunes)-1)
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}

// Terminal renders the charts of h as boxed sparklines.
func Terminal(h *train.History) string {
	var blocks []string
	for _, c := range Charts(h) {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, s := range c.Series {
			for _, v := range s.Values {
				lo, hi = math.Min(lo, v), math.Max(hi, v)
			}
		}

		lines := []string{titleStyle.Render(c.Title)}
		for i, s := range c.Series {
			if len(s.Values) == 0 {
				continue
			}
			style := trainStyle
			if i > 0 {
				style = valStyle
			}
			last := s.Values[len(s.Values)-1]
			lines = append(lines, fmt.Sprintf("%-10s %s %s",
				s.Name,
				style.Render(Sparkline(s.Values, lo, hi)),
				dimStyle.Render(fmt.Sprintf("%.4f", last)),
			))
		}
		blocks = append(blocks, boxStyle.Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, blocks...)
}

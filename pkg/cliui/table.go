package cliui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Table renders rows under headers with a rounded border, styled for w.
func Table(w io.Writer, headers []string, rows [][]string) string {
	r := NewRenderer(w)
	header := r.NewStyle().Foreground(lipgloss.Color("212")).Bold(true).Padding(0, 1)
	cell := r.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})

	return t.Render() + "\n"
}

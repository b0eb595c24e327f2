package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// format describes the columns of one supported TSV layout.
type format struct {
	left, right, label string

	// normalize maps the raw label column onto [0, 1].
	normalize func(float64) float64
}

var formats = map[string]format{
	// SICK relatedness scores run from 1 to 5.
	"sick": {
		left:      "sentence_A",
		right:     "sentence_B",
		label:     "relatedness_score",
		normalize: func(v float64) float64 { return (v - 1) / 4 },
	},
	"quora": {
		left:      "question1",
		right:     "question2",
		label:     "is_duplicate",
		normalize: func(v float64) float64 { return v },
	},
}

type row struct {
	left, right string
	label       float64
}

func readRows(path string, f format) ([]row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer file.Close()

	return parseRows(file, f)
}

func parseRows(r io.Reader, f format) ([]row, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading dataset header: %w", err)
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	li, lok := cols[f.left]
	ri, rok := cols[f.right]
	yi, yok := cols[f.label]
	if !lok || !rok || !yok {
		return nil, fmt.Errorf("dataset header must contain %q, %q and %q", f.left, f.right, f.label)
	}
	width := max(li, ri, yi) + 1

	var rows []row
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("reading dataset line %d: %w", line, err)
		}
		if len(record) < width {
			// Blank trailing lines and truncated records carry no pair.
			continue
		}
		label, err := strconv.ParseFloat(strings.TrimSpace(record[yi]), 64)
		if err != nil {
			return nil, fmt.Errorf("dataset line %d: parsing %s: %w", line, f.label, err)
		}
		rows = append(rows, row{
			left:  record[li],
			right: record[ri],
			label: f.normalize(label),
		})
	}
	return rows, nil
}

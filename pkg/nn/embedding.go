package nn

import (
	"errors"
	"fmt"
)

// ErrTokenRange is returned when a token ID has no row in the embedding table.
var ErrTokenRange = errors.New("token id out of embedding range")

// Embedding is a frozen lookup table. Lookups return slices that alias the
// table, callers must treat them as read-only.
type Embedding struct {
	Weight *Param
}

// NewEmbedding wraps weight (shape [rows, dim]) as a non-trainable table.
func NewEmbedding(weight *Param) (*Embedding, error) {
	if weight == nil || len(weight.Shape) != 2 {
		return nil, errors.New("embedding weight must be a 2-D parameter")
	}
	if weight.Rows()*weight.Cols() != len(weight.Data) {
		return nil, fmt.Errorf("embedding weight %s has %d values", weight, len(weight.Data))
	}
	weight.Trainable = false
	return &Embedding{Weight: weight}, nil
}

// Rows returns the number of table rows (vocabulary size + padding row).
func (e *Embedding) Rows() int {
	return e.Weight.Rows()
}

// Dim returns the embedding width.
func (e *Embedding) Dim() int {
	return e.Weight.Cols()
}

// Lookup maps each token id to its embedding row.
func (e *Embedding) Lookup(ids []int) ([][]float64, error) {
	rows := e.Rows()
	out := make([][]float64, len(ids))
	for t, id := range ids {
		if id < 0 || id >= rows {
			return nil, fmt.Errorf("%w: id %d at position %d, table has %d rows", ErrTokenRange, id, t, rows)
		}
		out[t] = e.Weight.Row(id)
	}
	return out, nil
}

package siamese

import (
	"fmt"
	"strings"

	"github.com/papercomputeco/siamese/pkg/nn"
)

// Layer is one row of a Summary.
type Layer struct {
	Name        string
	Kind        string
	OutputShape string
	Params      int
	ConnectedTo []string
}

// Summary describes the model topology and its parameter counts.
type Summary struct {
	Layers       []Layer
	Total        int
	Trainable    int
	NonTrainable int
}

// Summary lists the layers in the order the scorer evaluates them.
func (m *Model) Summary() Summary {
	c := m.cfg
	seq := fmt.Sprintf("(None, %d)", c.MaxLen)
	emb := fmt.Sprintf("(None, %d, %d)", c.MaxLen, c.EmbeddingSize)
	hid := fmt.Sprintf("(None, %d)", c.HiddenSize)

	embParams := nn.CountParams([]*nn.Param{m.embedding.Weight})
	lstmParams := nn.CountParams(m.encoder.Params())

	s := Summary{
		Layers: []Layer{
			{Name: "input_left", Kind: "InputLayer", OutputShape: seq},
			{Name: "input_right", Kind: "InputLayer", OutputShape: seq},
			{Name: "embedding", Kind: "Embedding", OutputShape: emb, Params: embParams, ConnectedTo: []string{"input_left", "input_right"}},
			{Name: EncoderName, Kind: "LSTM", OutputShape: hid, Params: lstmParams, ConnectedTo: []string{"embedding[0]", "embedding[1]"}},
			{Name: "concatenate", Kind: "Concatenate", OutputShape: fmt.Sprintf("(None, %d)", 2*c.HiddenSize), ConnectedTo: []string{EncoderName + "[0]", EncoderName + "[1]"}},
			{Name: "similarity", Kind: "Lambda(" + c.Metric.String() + ")", OutputShape: "(None, 1)", ConnectedTo: []string{"concatenate"}},
		},
		Trainable:    lstmParams,
		NonTrainable: embParams,
	}
	s.Total = s.Trainable + s.NonTrainable
	return s
}

// Markdown renders the summary as a markdown table.
func (s Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("| Layer | Type | Output shape | Params | Connected to |\n")
	b.WriteString("|---|---|---|---:|---|\n")
	for _, l := range s.Layers {
		fmt.Fprintf(&b, "| %s | %s | `%s` | %d | %s |\n",
			l.Name, l.Kind, l.OutputShape, l.Params, strings.Join(l.ConnectedTo, ", "))
	}
	fmt.Fprintf(&b, "\n- **Total params:** %d\n- **Trainable params:** %d\n- **Non-trainable params:** %d\n",
		s.Total, s.Trainable, s.NonTrainable)
	return b.String()
}

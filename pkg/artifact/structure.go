// Package artifact persists a trained siamese model as a structure file, a
// binary weights file and a vocabulary file, and restores a scorer from them.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"

	"github.com/papercomputeco/siamese/pkg/nn"
	"github.com/papercomputeco/siamese/pkg/siamese"
)

const (
	// StructureFile holds the topology and hyperparameters.
	StructureFile = "model.json"

	// WeightsFile holds the variable manifest and float64 payloads.
	WeightsFile = "model.weights"

	// VocabFile holds word_to_id.
	VocabFile = "vocab.json"

	// Format tags the structure file layout.
	Format = "siamese-lstm/v1"
)

// ErrMismatch is returned when a structure file and a weights file do not
// describe the same model.
var ErrMismatch = errors.New("structure and weights mismatch")

// LayerSpec is one node of the serialized topology.
type LayerSpec struct {
	Name      string   `json:"name"`
	ClassName string   `json:"class_name"`
	Inbound   []string `json:"inbound_nodes,omitempty"`
	Shared    bool     `json:"shared,omitempty"`
	Trainable bool     `json:"trainable"`
}

// Variable describes one persisted parameter.
type Variable struct {
	Name      string `json:"name"`
	Shape     []int  `json:"shape"`
	Trainable bool   `json:"trainable"`
}

// Structure is the content of model.json.
type Structure struct {
	Format  string         `json:"format"`
	Config  siamese.Config `json:"config"`
	Inputs  []string       `json:"inputs"`
	Outputs []string       `json:"outputs"`
	Layers  []LayerSpec    `json:"layers"`
	Weights []Variable     `json:"weights"`
}

// Describe builds the structure of m.
func Describe(m *siamese.Model) *Structure {
	cfg := m.Config()
	return &Structure{
		Format:  Format,
		Config:  cfg,
		Inputs:  []string{"input_left", "input_right"},
		Outputs: []string{"similarity"},
		Layers: []LayerSpec{
			{Name: "input_left", ClassName: "InputLayer"},
			{Name: "input_right", ClassName: "InputLayer"},
			{Name: "embedding", ClassName: "Embedding", Inbound: []string{"input_left", "input_right"}, Shared: true},
			{Name: siamese.EncoderName, ClassName: "LSTM", Inbound: []string{"embedding[0]", "embedding[1]"}, Shared: true, Trainable: true},
			{Name: "concatenate", ClassName: "Concatenate", Inbound: []string{siamese.EncoderName + "[0]", siamese.EncoderName + "[1]"}},
			{Name: "similarity", ClassName: "Lambda", Inbound: []string{"concatenate"}},
		},
		Weights: variables(m.Params()),
	}
}

func variables(params []*nn.Param) []Variable {
	vars := make([]Variable, len(params))
	for i, p := range params {
		vars[i] = Variable{Name: p.Name, Shape: append([]int(nil), p.Shape...), Trainable: p.Trainable}
	}
	return vars
}

// Fingerprint hashes the hyperparameters and variable manifest. A weights
// file is only accepted by a structure with the same fingerprint.
func (s *Structure) Fingerprint() (string, error) {
	data, err := json.Marshal(struct {
		Config  siamese.Config `json:"config"`
		Weights []Variable     `json:"weights"`
	}{s.Config, s.Weights})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// LoadStructure reads a model.json file.
func LoadStructure(path string) (*Structure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading structure: %w", err)
	}
	var s Structure
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing structure: %w", err)
	}
	if s.Format != Format {
		return nil, fmt.Errorf("%w: unsupported structure format %q", ErrMismatch, s.Format)
	}
	if err := s.Config.Validate(); err != nil {
		return nil, fmt.Errorf("structure config: %w", err)
	}
	return &s, nil
}

// Skeleton assembles an untrained model with a zero embedding table matching
// the structure. Its variables must then be filled by LoadWeights.
func (s *Structure) Skeleton() (*siamese.Model, error) {
	cfg := s.Config
	if len(s.Weights) == 0 {
		return nil, fmt.Errorf("%w: structure lists no variables", ErrMismatch)
	}
	// Params lists the embedding first.
	emb := nn.NewParam(s.Weights[0].Name, false, cfg.VocabSize+1, cfg.EmbeddingSize)
	m, err := siamese.New(cfg, emb, rand.New(rand.NewSource(0)))
	if err != nil {
		return nil, err
	}

	have := variables(m.Params())
	if len(have) != len(s.Weights) {
		return nil, fmt.Errorf("%w: structure lists %d variables, model has %d", ErrMismatch, len(s.Weights), len(have))
	}
	for i, v := range s.Weights {
		if v.Name != have[i].Name || !sameShape(v.Shape, have[i].Shape) {
			return nil, fmt.Errorf("%w: variable %d is %s%v, model expects %s%v",
				ErrMismatch, i, v.Name, v.Shape, have[i].Name, have[i].Shape)
		}
	}
	return m, nil
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

package artifact

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/papercomputeco/siamese/pkg/nn"
)

const (
	weightsMagic   = "SIAMESEW"
	weightsVersion = 1

	// maxHeaderLen guards against reading a garbage length as a huge
	// allocation.
	maxHeaderLen = 16 << 20
)

type weightsHeader struct {
	Fingerprint string     `json:"fingerprint"`
	Variables   []Variable `json:"variables"`
}

// writeWeights encodes params after a header carrying fingerprint.
func writeWeights(w io.Writer, fingerprint string, params []*nn.Param) error {
	header, err := json.Marshal(weightsHeader{Fingerprint: fingerprint, Variables: variables(params)})
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(weightsMagic); err != nil {
		return err
	}
	var word [4]byte
	binary.LittleEndian.PutUint32(word[:], weightsVersion)
	if _, err := bw.Write(word[:]); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(word[:], uint32(len(header)))
	if _, err := bw.Write(word[:]); err != nil {
		return err
	}
	if _, err := bw.Write(header); err != nil {
		return err
	}

	var buf [8]byte
	for _, p := range params {
		for _, v := range p.Data {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			if _, err := bw.Write(buf[:]); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// readWeights fills params from r. The header must carry fingerprint and
// list exactly the same variables, in order.
func readWeights(r io.Reader, fingerprint string, params []*nn.Param) error {
	br := bufio.NewReader(r)

	magic := make([]byte, len(weightsMagic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return fmt.Errorf("reading weights magic: %w", err)
	}
	if !bytes.Equal(magic, []byte(weightsMagic)) {
		return fmt.Errorf("%w: not a weights file", ErrMismatch)
	}

	var word [4]byte
	if _, err := io.ReadFull(br, word[:]); err != nil {
		return fmt.Errorf("reading weights version: %w", err)
	}
	if v := binary.LittleEndian.Uint32(word[:]); v != weightsVersion {
		return fmt.Errorf("%w: unsupported weights version %d", ErrMismatch, v)
	}
	if _, err := io.ReadFull(br, word[:]); err != nil {
		return fmt.Errorf("reading weights header length: %w", err)
	}
	n := binary.LittleEndian.Uint32(word[:])
	if n > maxHeaderLen {
		return fmt.Errorf("%w: weights header of %d bytes", ErrMismatch, n)
	}
	raw := make([]byte, n)
	if _, err := io.ReadFull(br, raw); err != nil {
		return fmt.Errorf("reading weights header: %w", err)
	}
	var header weightsHeader
	if err := json.Unmarshal(raw, &header); err != nil {
		return fmt.Errorf("parsing weights header: %w", err)
	}

	if header.Fingerprint != fingerprint {
		return fmt.Errorf("%w: fingerprint %.12s does not match structure %.12s", ErrMismatch, header.Fingerprint, fingerprint)
	}
	if len(header.Variables) != len(params) {
		return fmt.Errorf("%w: weights hold %d variables, model has %d", ErrMismatch, len(header.Variables), len(params))
	}
	for i, v := range header.Variables {
		p := params[i]
		if v.Name != p.Name || !sameShape(v.Shape, p.Shape) {
			return fmt.Errorf("%w: weights variable %s%v, model expects %s%v", ErrMismatch, v.Name, v.Shape, p.Name, p.Shape)
		}
	}

	var buf [8]byte
	for _, p := range params {
		for i := range p.Data {
			if _, err := io.ReadFull(br, buf[:]); err != nil {
				return fmt.Errorf("%w: payload for %s is truncated: %w", ErrMismatch, p.Name, err)
			}
			p.Data[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[:]))
		}
	}
	if _, err := br.ReadByte(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing bytes after payload", ErrMismatch)
	}
	return nil
}

// LoadWeights fills the parameters of a model built from s with the
// contents of the weights file at path.
func LoadWeights(path string, s *Structure, params []*nn.Param) error {
	fingerprint, err := s.Fingerprint()
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening weights: %w", err)
	}
	defer f.Close()

	return readWeights(f, fingerprint, params)
}

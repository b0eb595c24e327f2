package embeddings

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ReadVectors streams a pretrained embedding file and returns the vectors of
// the words in wanted. A nil wanted keeps every word.
//
// Files ending in .bin (optionally .bin.gz) are read as word2vec binary;
// everything else is read as whitespace separated text, with or without the
// word2vec "count dim" header line that GloVe files omit.
func ReadVectors(path string, wanted map[string]struct{}) (map[string][]float32, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("opening embedding file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	name := path
	if strings.HasSuffix(name, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, Stats{}, fmt.Errorf("opening gzip embedding file: %w", err)
		}
		defer gz.Close()
		r = gz
		name = strings.TrimSuffix(name, ".gz")
	}

	br := bufio.NewReaderSize(r, 1<<20)
	if strings.HasSuffix(name, ".bin") {
		return readBinary(br, wanted)
	}
	return readText(br, wanted)
}

func keep(wanted map[string]struct{}, word string) bool {
	if wanted == nil {
		return true
	}
	_, ok := wanted[word]
	return ok
}

func parseHeader(line string) (count, dim int, ok bool) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, 0, false
	}
	count, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, false
	}
	dim, err = strconv.Atoi(fields[1])
	if err != nil || dim <= 0 {
		return 0, 0, false
	}
	return count, dim, true
}

func readBinary(r *bufio.Reader, wanted map[string]struct{}) (map[string][]float32, Stats, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return nil, Stats{}, fmt.Errorf("reading word2vec header: %w", err)
	}
	count, dim, ok := parseHeader(line)
	if !ok {
		return nil, Stats{}, fmt.Errorf("malformed word2vec header %q", strings.TrimSpace(line))
	}

	out := map[string][]float32{}
	stats := Stats{Dim: dim}
	buf := make([]byte, 4*dim)
	for i := 0; i < count; i++ {
		word, err := r.ReadString(' ')
		if errors.Is(err, io.EOF) && strings.TrimSpace(word) == "" {
			break
		}
		if err != nil {
			return nil, Stats{}, fmt.Errorf("reading word2vec entry %d: %w", i, err)
		}
		word = strings.TrimLeft(strings.TrimSuffix(word, " "), "\n")

		if !keep(wanted, word) {
			if _, err := r.Discard(len(buf)); err != nil {
				return nil, Stats{}, fmt.Errorf("reading word2vec vector %q: %w", word, err)
			}
			stats.FileWords++
			continue
		}
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, Stats{}, fmt.Errorf("reading word2vec vector %q: %w", word, err)
		}
		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*j:]))
		}
		out[word] = vec
		stats.FileWords++
	}
	return out, stats, nil
}

func readText(r *bufio.Reader, wanted map[string]struct{}) (map[string][]float32, Stats, error) {
	out := map[string][]float32{}
	var stats Stats

	first := true
	lineNo := 0
	for {
		line, err := r.ReadString('\n')
		if line == "" && errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, Stats{}, fmt.Errorf("reading embedding file: %w", err)
		}
		lineNo++

		if first {
			first = false
			if _, dim, ok := parseHeader(line); ok {
				stats.Dim = dim
				continue
			}
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		word, values := fields[0], fields[1:]
		if stats.Dim == 0 {
			stats.Dim = len(values)
		}
		if len(values) != stats.Dim {
			return nil, Stats{}, fmt.Errorf("embedding line %d: %d values, want %d", lineNo, len(values), stats.Dim)
		}
		stats.FileWords++
		if !keep(wanted, word) {
			continue
		}

		vec := make([]float32, len(values))
		for j, s := range values {
			v, err := strconv.ParseFloat(s, 32)
			if err != nil {
				return nil, Stats{}, fmt.Errorf("embedding line %d: %w", lineNo, err)
			}
			vec[j] = float32(v)
		}
		out[word] = vec
	}
	return out, stats, nil
}

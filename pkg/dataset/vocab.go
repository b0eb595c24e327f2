package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"
)

// Padding is the token id reserved for padding. Vocabulary ids start at 1.
const Padding = 0

// Tokenize lowercases text and splits it on every rune that is not a letter
// or digit.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Pad returns ids padded or truncated to exactly n values. Padding and
// truncation both happen at the front, keeping the end of the sentence
// next to the encoder's final state.
func Pad(ids []int, n int) []int {
	out := make([]int, n)
	if len(ids) >= n {
		copy(out, ids[len(ids)-n:])
		return out
	}
	copy(out[n-len(ids):], ids)
	return out
}

// Vocabulary maps words to dense ids in order of first appearance.
type Vocabulary struct {
	WordToID map[string]int `json:"word_to_id"`
}

// NewVocabulary returns an empty vocabulary.
func NewVocabulary() *Vocabulary {
	return &Vocabulary{WordToID: map[string]int{}}
}

// Add returns the id for word, assigning the next id if word is new.
func (v *Vocabulary) Add(word string) int {
	if id, ok := v.WordToID[word]; ok {
		return id
	}
	id := len(v.WordToID) + 1
	v.WordToID[word] = id
	return id
}

// AddText tokenizes text and adds every token.
func (v *Vocabulary) AddText(text string) []int {
	tokens := Tokenize(text)
	ids := make([]int, len(tokens))
	for i, t := range tokens {
		ids[i] = v.Add(t)
	}
	return ids
}

// ID returns the id of word and whether it is known.
func (v *Vocabulary) ID(word string) (int, bool) {
	id, ok := v.WordToID[word]
	return id, ok
}

// Size returns the number of words, excluding padding.
func (v *Vocabulary) Size() int {
	return len(v.WordToID)
}

// Words returns the vocabulary ordered by id, so Words()[i] has id i+1.
func (v *Vocabulary) Words() []string {
	words := make([]string, 0, len(v.WordToID))
	for w := range v.WordToID {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		return v.WordToID[words[i]] < v.WordToID[words[j]]
	})
	return words
}

// Encode maps tokens to ids, dropping words that are not in the
// vocabulary.
func (v *Vocabulary) Encode(tokens []string) []int {
	ids := make([]int, 0, len(tokens))
	for _, t := range tokens {
		if id, ok := v.WordToID[t]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// EncodeText tokenizes, encodes and pads text to maxLen.
func (v *Vocabulary) EncodeText(text string, maxLen int) []int {
	return Pad(v.Encode(Tokenize(text)), maxLen)
}

// Validate checks that ids form the dense range 1..Size.
func (v *Vocabulary) Validate() error {
	seen := make([]bool, len(v.WordToID)+1)
	for w, id := range v.WordToID {
		if id < 1 || id > len(v.WordToID) || seen[id] {
			return fmt.Errorf("vocabulary: word %q has invalid id %d", w, id)
		}
		seen[id] = true
	}
	return nil
}

// LoadVocabulary reads a vocab.json file holding a word_to_id object.
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vocabulary: %w", err)
	}
	v := NewVocabulary()
	if err := json.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("parsing vocabulary: %w", err)
	}
	if v.WordToID == nil {
		v.WordToID = map[string]int{}
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// Package vectorizer maps normalized text onto the fixed-width bag-of-words
// feature space the classifier was trained on.
package vectorizer

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Vectorizer holds a fitted token-to-column mapping. The mapping is
// read-only after construction, so a single instance is safe for concurrent
// use by any number of requests.
type Vectorizer struct {
	index map[string]int
	dim   int
}

// New loads a fitted vocabulary artifact from path. The artifact is a JSON
// object mapping each token to its column index, the persisted form of an
// offline bag-of-words fit.
func New(path string) (*Vectorizer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vectorizer: %w", err)
	}
	v, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("vectorizer: %s: %w", path, err)
	}
	return v, nil
}

// Parse builds a Vectorizer from a raw vocabulary artifact. Column indices
// must form a permutation of [0, len); anything else means the artifact is
// corrupt and the caller should treat the failure as fatal.
func Parse(raw []byte) (*Vectorizer, error) {
	var vocab map[string]int
	if err := json.Unmarshal(raw, &vocab); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}
	if len(vocab) == 0 {
		return nil, fmt.Errorf("vocabulary is empty")
	}

	index := make(map[string]int, len(vocab))
	seen := make([]bool, len(vocab))
	for tok, col := range vocab {
		if col < 0 || col >= len(vocab) {
			return nil, fmt.Errorf("token %q: column %d outside [0,%d)", tok, col, len(vocab))
		}
		if seen[col] {
			return nil, fmt.Errorf("column %d assigned to more than one token", col)
		}
		seen[col] = true
		index[norm.NFC.String(tok)] = col
	}
	if len(index) != len(vocab) {
		return nil, fmt.Errorf("vocabulary keys collide after NFC normalization")
	}

	return &Vectorizer{index: index, dim: len(vocab)}, nil
}

// Dim returns the fixed width of vectors produced by Transform. It never
// changes for the lifetime of the Vectorizer.
func (v *Vectorizer) Dim() int {
	return v.dim
}

// Transform counts in-vocabulary token occurrences of text into a fresh
// vector of length Dim(). Unknown tokens contribute nothing. Transform is
// total: any input, including the empty string, yields a valid vector.
func (v *Vectorizer) Transform(text string) []float32 {
	vec := make([]float32, v.dim)
	for _, tok := range tokenize(text) {
		if col, ok := v.index[tok]; ok {
			vec[col]++
		}
	}
	return vec
}

// tokenize splits text into lowercased runs of letters, digits and
// underscores, dropping single-rune tokens. This mirrors how the vocabulary
// was fitted, so lookups agree with the offline tokenization.
func tokenize(text string) []string {
	var tokens []string
	var current []rune
	flush := func() {
		if len(current) >= 2 {
			tokens = append(tokens, norm.NFC.String(strings.ToLower(string(current))))
		}
		current = current[:0]
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			current = append(current, r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

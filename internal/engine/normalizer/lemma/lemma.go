// Package lemma reduces English words to their dictionary noun form using a
// WordNet-style morphological detachment procedure over an embedded noun
// index and irregular-plural exception list.
//
// Words outside the index pass through unchanged, and every returned lemma
// is itself a fixed point, so Noun is idempotent for all inputs.
package lemma

import (
	_ "embed"
	"strings"
)

//go:embed nounindex.txt
var indexRaw string

//go:embed nounexc.txt
var excRaw string

var (
	nounIndex  = loadIndex(indexRaw)
	exceptions = loadExceptions(excRaw)
)

// Suffix detachment rules. Candidates they produce only count when present
// in the noun index.
var detachments = []struct{ old, new string }{
	{"ses", "s"},
	{"ves", "f"},
	{"xes", "x"},
	{"zes", "z"},
	{"ches", "ch"},
	{"shes", "sh"},
	{"men", "man"},
	{"ies", "y"},
	{"s", ""},
}

func loadIndex(raw string) map[string]struct{} {
	set := make(map[string]struct{}, 600)
	for _, w := range strings.Fields(raw) {
		set[w] = struct{}{}
	}
	return set
}

func loadExceptions(raw string) map[string]string {
	m := make(map[string]string, 40)
	for _, line := range strings.Split(raw, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 {
			m[fields[0]] = fields[1]
		}
	}
	return m
}

// Noun returns the noun lemma of word: the irregular-plural mapping when one
// exists, otherwise the shortest in-index candidate produced by suffix
// detachment (the word itself counts as a candidate when indexed), otherwise
// the word unchanged.
func Noun(word string) string {
	if base, ok := exceptions[word]; ok {
		if _, in := nounIndex[base]; in {
			return base
		}
		return word
	}

	var candidates []string
	if _, in := nounIndex[word]; in {
		candidates = append(candidates, word)
	}
	for _, d := range detachments {
		if !strings.HasSuffix(word, d.old) {
			continue
		}
		base := word[:len(word)-len(d.old)] + d.new
		if _, in := nounIndex[base]; in {
			candidates = append(candidates, base)
		}
	}
	if len(candidates) == 0 {
		return word
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if len(c) < len(best) {
			best = c
		}
	}
	return best
}

// Known reports whether word is present in the embedded noun index.
func Known(word string) bool {
	_, ok := nounIndex[word]
	return ok
}

// Package normalizer turns raw free-form text into the canonical form the
// vectorizer was fitted on: lowercase, stopword-free, digit-free, URL-free,
// punctuation-free, with each token reduced to its noun lemma.
//
// The pipeline is a fixed ordered sequence of total, deterministic stages.
// Every stage accepts any string and never fails; empty or whitespace-only
// input flows through to an empty result.
package normalizer

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ferndale/pigeonhole/internal/engine/normalizer/lemma"
)

// Stage is one named text transform in the normalization pipeline.
type Stage struct {
	Name  string
	Apply func(string) string
}

// Stages returns the pipeline stages in application order.
func Stages() []Stage {
	return []Stage{
		{Name: "lowercase", Apply: Lowercase},
		{Name: "stopwords", Apply: RemoveStopwords},
		{Name: "digits", Apply: RemoveDigits},
		{Name: "urls", Apply: RemoveURLs},
		{Name: "punctuation", Apply: RemovePunctuation},
		{Name: "lemmatize", Apply: Lemmatize},
	}
}

var pipeline = Stages()

// Normalize runs the full pipeline over text.
func Normalize(text string) string {
	for _, s := range pipeline {
		text = s.Apply(text)
	}
	return text
}

// Lowercase splits on whitespace, lowercases each token and rejoins with
// single spaces.
func Lowercase(text string) string {
	tokens := strings.Fields(text)
	for i, tok := range tokens {
		tokens[i] = strings.ToLower(tok)
	}
	return strings.Join(tokens, " ")
}

// RemoveStopwords drops whitespace-separated tokens that exactly match the
// embedded English stopword set.
func RemoveStopwords(text string) string {
	tokens := strings.Fields(text)
	kept := tokens[:0]
	for _, tok := range tokens {
		if !IsStopword(tok) {
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, " ")
}

// RemoveDigits deletes every decimal digit rune in place, so "covid19"
// becomes "covid". Tokens are never removed whole.
func RemoveDigits(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return -1
		}
		return r
	}, text)
}

var urlPattern = regexp.MustCompile(`https?://\S+|www\.\S+`)

// RemoveURLs deletes URL-shaped substrings entirely, with no replacement
// space. Runs before punctuation removal so scheme and path separators are
// still intact when the pattern is applied.
func RemoveURLs(text string) string {
	return urlPattern.ReplaceAllString(text, "")
}

const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// RemovePunctuation replaces every punctuation rune with a single space,
// strips any remaining literal periods, and trims the ends. Interior
// whitespace runs are deliberately left uncollapsed; the lemmatize stage
// re-splits on whitespace, so end-to-end output is still single-spaced.
func RemovePunctuation(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(punctuation, r) {
			b.WriteRune(' ')
		} else {
			b.WriteRune(r)
		}
	}
	out := strings.ReplaceAll(b.String(), ".", "")
	return strings.TrimSpace(out)
}

// Lemmatize reduces each whitespace-separated token to its noun lemma and
// rejoins with single spaces. Tokens already in lemma form pass through
// unchanged, which makes the full pipeline idempotent on normalized text.
func Lemmatize(text string) string {
	tokens := strings.Fields(text)
	for i, tok := range tokens {
		tokens[i] = lemma.Noun(tok)
	}
	return strings.Join(tokens, " ")
}

package normalizer

import (
	"strings"
	"testing"
)

func TestLowercase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello world"},
		{"  MiXeD   CaSe  ", "mixed case"},
		{"already lower", "already lower"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := Lowercase(tt.in); got != tt.want {
			t.Errorf("Lowercase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRemoveStopwords(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"i bought a car", "bought car"},
		{"this is the best movie", "best movie"},
		{"no stopwords here", "stopwords"}, // "no" and "here" are stopwords
		{"", ""},
		{"the the the", ""},
		// matching is exact against lowercased tokens; mixed case survives
		{"The car", "The car"},
	}
	for _, tt := range tests {
		if got := RemoveStopwords(tt.in); got != tt.want {
			t.Errorf("RemoveStopwords(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsStopword(t *testing.T) {
	for _, w := range []string{"i", "the", "in", "don't", "wouldn't", "s"} {
		if !IsStopword(w) {
			t.Errorf("expected %q to be a stopword", w)
		}
	}
	for _, w := range []string{"car", "bought", "check", "The", ""} {
		if IsStopword(w) {
			t.Errorf("did not expect %q to be a stopword", w)
		}
	}
}

func TestStopwordSetSize(t *testing.T) {
	if len(stopwords) != 179 {
		t.Errorf("stopword set has %d entries, want 179", len(stopwords))
	}
}

func TestRemoveDigits(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"covid19", "covid"},
		{"2020 vision", " vision"},
		{"no digits", "no digits"},
		{"123", ""},
		{"a1b2c3", "abc"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := RemoveDigits(tt.in); got != tt.want {
			t.Errorf("RemoveDigits(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRemoveURLs(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"see http://example.com now", "see  now"},
		{"see https://example.com/a?b=c now", "see  now"},
		{"visit www.example.com today", "visit  today"},
		{"no links", "no links"},
		{"http://one.com http://two.com", " "},
		{"", ""},
	}
	for _, tt := range tests {
		if got := RemoveURLs(tt.in); got != tt.want {
			t.Errorf("RemoveURLs(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRemovePunctuation(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello, world!", "hello  world"},
		{"wow!!!", "wow"},
		{"a.b.c", "a b c"},
		{"semi;colon", "semi colon"},
		{"", ""},
		{"...", ""},
	}
	for _, tt := range tests {
		if got := RemovePunctuation(tt.in); got != tt.want {
			t.Errorf("RemovePunctuation(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// Interior whitespace runs produced by punctuation replacement are kept
// as-is by this stage; only the lemmatize stage's split/rejoin collapses
// them. Guards against "helpfully" collapsing here and changing stage-level
// behavior.
func TestRemovePunctuationKeepsInteriorRuns(t *testing.T) {
	got := RemovePunctuation("cars!!! check")
	want := "cars    check"
	if got != want {
		t.Errorf("RemovePunctuation(%q) = %q, want %q", "cars!!! check", got, want)
	}
	if !strings.Contains(got, "  ") {
		t.Error("expected preserved interior whitespace run")
	}
}

func TestLemmatize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"cars", "car"},
		{"bought cars", "bought car"},
		{"the   quick   foxes", "the quick fox"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Lemmatize(tt.in); got != tt.want {
			t.Errorf("Lemmatize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "full example",
			in:   "I bought 2 cars in 2020!!! Check http://example.com",
			want: "bought car check",
		},
		{
			name: "www url",
			in:   "Deals at www.example.com TODAY",
			want: "deal today",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
		{
			name: "whitespace only",
			in:   "   \t\n  ",
			want: "",
		},
		{
			name: "stopwords only",
			in:   "I am the one who was",
			want: "one",
		},
		{
			name: "digits inside token",
			in:   "covid19 cases rising",
			want: "covid case rising",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"I bought 2 cars in 2020!!! Check http://example.com",
		"covid19 cases rising",
		"The quick brown foxes jumped over 3 lazy dogs!",
		"",
		"plain already normal text",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	in := "Some 42 input WITH http://a.b punctuation!!! and Cars"
	first := Normalize(in)
	for i := 0; i < 10; i++ {
		if got := Normalize(in); got != first {
			t.Fatalf("Normalize(%q) changed between calls: %q vs %q", in, first, got)
		}
	}
}

func TestStagesOrder(t *testing.T) {
	want := []string{"lowercase", "stopwords", "digits", "urls", "punctuation", "lemmatize"}
	stages := Stages()
	if len(stages) != len(want) {
		t.Fatalf("expected %d stages, got %d", len(want), len(stages))
	}
	for i, s := range stages {
		if s.Name != want[i] {
			t.Errorf("stage %d = %q, want %q", i, s.Name, want[i])
		}
		if s.Apply == nil {
			t.Errorf("stage %q has nil Apply", s.Name)
		}
	}
}

// Composing the exported stages by hand must agree with Normalize.
func TestStagesComposeToNormalize(t *testing.T) {
	in := "I bought 2 cars in 2020!!! Check http://example.com"
	text := in
	for _, s := range Stages() {
		text = s.Apply(text)
	}
	if got := Normalize(in); got != text {
		t.Errorf("stage composition %q != Normalize %q", text, got)
	}
}

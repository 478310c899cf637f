package normalizer

import (
	_ "embed"
	"strings"
)

// The embedded set is the standard English stopword list the model was
// trained against. Changing it invalidates persisted vocabularies.
//
//go:embed stopwords.txt
var stopwordsRaw string

var stopwords = func() map[string]struct{} {
	set := make(map[string]struct{}, 180)
	for _, w := range strings.Fields(stopwordsRaw) {
		set[w] = struct{}{}
	}
	return set
}()

// IsStopword reports whether token is in the embedded English stopword set.
// Matching is exact; callers are expected to lowercase first.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

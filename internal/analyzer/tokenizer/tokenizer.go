// Package tokenizer turns free text into a normalized set of significant
// words. It lower-cases input, splits on non-alphanumeric boundaries, drops
// stop words and anything shorter than three characters, and collapses
// duplicates. Tokenization is pure: identical input always yields an
// identical set.
package tokenizer

import (
	"sort"
	"strings"
	"unicode"
)

// DefaultStopWords is the fixed stop-word set used when no explicit set is
// supplied. Treated as immutable; never written after init.
var DefaultStopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {},
	"you": {}, "your": {}, "our": {}, "how": {}, "why": {},
}

// Tokenizer extracts significant-token sets using a fixed stop-word set
// closed over at construction time.
type Tokenizer struct {
	stopWords map[string]struct{}
}

// New creates a Tokenizer with the given stop-word set. A nil set falls back
// to DefaultStopWords.
func New(stopWords map[string]struct{}) *Tokenizer {
	if stopWords == nil {
		stopWords = DefaultStopWords
	}
	return &Tokenizer{stopWords: stopWords}
}

// Tokenize returns the set of significant tokens in text. Empty or
// whitespace-only input yields an empty set, not an error.
func (t *Tokenizer) Tokenize(text string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make(map[string]struct{}, len(words))
	for _, word := range words {
		if len(word) <= 2 {
			continue
		}
		if _, isStop := t.stopWords[word]; isStop {
			continue
		}
		tokens[word] = struct{}{}
	}
	return tokens
}

// TokenList returns the token set as a sorted slice, for stable JSON output.
func (t *Tokenizer) TokenList(text string) []string {
	set := t.Tokenize(text)
	list := make([]string, 0, len(set))
	for tok := range set {
		list = append(list, tok)
	}
	sort.Strings(list)
	return list
}

var defaultTokenizer = New(nil)

// Tokenize applies the default Tokenizer.
func Tokenize(text string) map[string]struct{} {
	return defaultTokenizer.Tokenize(text)
}

// TokenList applies the default Tokenizer and returns a sorted slice.
func TokenList(text string) []string {
	return defaultTokenizer.TokenList(text)
}

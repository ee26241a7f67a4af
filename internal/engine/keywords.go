package engine

import (
	"strings"
	"unicode"
)

// DefaultMinKeywordLength is the shortest token kept by Keywords.
const DefaultMinKeywordLength = 4

// stopWords lists purely grammatical words that carry no symptom signal.
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for",
		"of", "with", "by", "from", "as", "is", "was", "are", "were", "been",
		"be", "being", "have", "has", "had", "do", "does", "did", "will",
		"would", "should", "could", "may", "might", "must", "can", "this",
		"that", "these", "those", "i", "you", "he", "she", "it", "we", "they",
		"my", "your", "his", "her", "its", "our", "their", "me", "him",
		"them", "us", "am", "feel", "feeling", "having", "not", "no", "so",
		"very", "much", "some", "just", "like", "get", "got", "also", "about",
		"after", "before", "when", "since", "again", "still", "today",
	} {
		stopWords[w] = struct{}{}
	}
}

// Keywords tokenises free text into lower-cased keywords. Non-word runes are
// treated as separators, tokens shorter than minLen and stop-words are
// dropped. Output preserves input order and keeps duplicates: repeated
// tokens are the signal recurrence counting feeds on.
func Keywords(text string, minLen int) []string {
	if minLen <= 0 {
		minLen = DefaultMinKeywordLength
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if isWordRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	fields := strings.Fields(b.String())
	keywords := make([]string, 0, len(fields))
	for _, word := range fields {
		if len(word) < minLen {
			continue
		}
		if _, ok := stopWords[word]; ok {
			continue
		}
		keywords = append(keywords, word)
	}
	return keywords
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

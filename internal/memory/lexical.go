package memory

import (
	"strings"
	"unicode"
)

// Tokenize splits text into lowercase search terms. Runs of letters and
// digits form words; Han text, which has no spaces, is split into
// overlapping bigrams.
func Tokenize(text string) []string {
	var (
		terms []string
		word  []rune
		han   []rune
	)
	seen := make(map[string]bool)
	add := func(t string) {
		if t != "" && !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}
	flushWord := func() {
		if len(word) > 1 || (len(word) == 1 && unicode.IsDigit(word[0])) {
			add(string(word))
		}
		word = word[:0]
	}
	flushHan := func() {
		switch {
		case len(han) == 1:
			add(string(han))
		case len(han) > 1:
			for i := 0; i+1 < len(han); i++ {
				add(string(han[i : i+2]))
			}
		}
		han = han[:0]
	}

	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.Is(unicode.Han, r):
			flushWord()
			han = append(han, r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			flushHan()
			word = append(word, r)
		default:
			flushWord()
			flushHan()
		}
	}
	flushWord()
	flushHan()
	return terms
}

// Overlap is the fraction of query terms present in content.
func Overlap(queryTerms []string, content string) float64 {
	if len(queryTerms) == 0 {
		return 0
	}
	have := make(map[string]bool)
	for _, t := range Tokenize(content) {
		have[t] = true
	}
	hits := 0
	for _, t := range queryTerms {
		if have[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(queryTerms))
}

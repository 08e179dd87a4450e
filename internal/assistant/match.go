package assistant

import (
	"strings"
	"unicode"
)

// tokenize lower-cases s and splits it on anything that is not a letter,
// digit or apostrophe. Curly apostrophes are folded to straight ones.
func tokenize(s string) []string {
	s = strings.ToLower(strings.ReplaceAll(s, "’", "'"))
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// phrase is a pre-tokenized keyword.
type phrase []string

func phrases(words ...string) []phrase {
	out := make([]phrase, len(words))
	for i, w := range words {
		out[i] = tokenize(w)
	}
	return out
}

// matchesIn reports whether p occurs as a contiguous run of tokens. The
// final word of p also matches its plural.
func (p phrase) matchesIn(tokens []string) bool {
	if len(p) == 0 || len(p) > len(tokens) {
		return false
	}
	last := len(p) - 1
	for i := 0; i+len(p) <= len(tokens); i++ {
		ok := true
		for j, w := range p {
			t := tokens[i+j]
			if t == w || (j == last && t == w+"s") {
				continue
			}
			ok = false
			break
		}
		if ok {
			return true
		}
	}
	return false
}

func (p phrase) startsWith(tokens []string) bool {
	return len(p) > 0 && p.matchesIn(tokens[:min(len(p), len(tokens))])
}

func anyIn(ps []phrase, tokens []string) bool {
	for _, p := range ps {
		if p.matchesIn(tokens) {
			return true
		}
	}
	return false
}

func countIn(ps []phrase, tokens []string) int {
	n := 0
	for _, p := range ps {
		if p.matchesIn(tokens) {
			n++
		}
	}
	return n
}

func anyPrefix(ps []phrase, tokens []string) bool {
	for _, p := range ps {
		if p.startsWith(tokens) {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}

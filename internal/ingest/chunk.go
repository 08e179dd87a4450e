package ingest

import (
	"strings"
	"unicode/utf8"
)

// Default chunking parameters, in characters.
const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

// separators are tried in order: paragraphs, lines, sentences, words and
// finally single characters.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter cuts text into overlapping chunks of at most Size characters,
// preferring the coarsest boundary that fits.
type Splitter struct {
	Size    int
	Overlap int
}

// NewSplitter returns a splitter, substituting defaults for invalid values.
func NewSplitter(size, overlap int) *Splitter {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = min(DefaultChunkOverlap, size/10)
	}
	return &Splitter{Size: size, Overlap: overlap}
}

// Split returns the chunks of text in order. Chunks are trimmed and never empty.
func (s *Splitter) Split(text string) []string {
	return s.split(text, separators)
}

func (s *Splitter) split(text string, seps []string) []string {
	sep, rest := "", []string(nil)
	for i, c := range seps {
		if c == "" || strings.Contains(text, c) {
			sep, rest = c, seps[i+1:]
			break
		}
	}

	var out, pending []string
	for _, piece := range splitKeep(text, sep) {
		if runeLen(piece) < s.Size {
			pending = append(pending, piece)
			continue
		}
		if len(pending) > 0 {
			out = append(out, s.merge(pending)...)
			pending = nil
		}
		if len(rest) == 0 {
			if t := strings.TrimSpace(piece); t != "" {
				out = append(out, t)
			}
			continue
		}
		out = append(out, s.split(piece, rest)...)
	}
	if len(pending) > 0 {
		out = append(out, s.merge(pending)...)
	}
	return out
}

// merge packs consecutive pieces into chunks, carrying up to Overlap
// characters of trailing pieces into the next chunk.
func (s *Splitter) merge(pieces []string) []string {
	var out, window []string
	total := 0
	emit := func() {
		if doc := strings.TrimSpace(strings.Join(window, "")); doc != "" {
			out = append(out, doc)
		}
	}

	for _, p := range pieces {
		n := runeLen(p)
		if total+n > s.Size && len(window) > 0 {
			emit()
			for len(window) > 0 && (total > s.Overlap || total+n > s.Size) {
				total -= runeLen(window[0])
				window = window[1:]
			}
		}
		window = append(window, p)
		total += n
	}
	emit()
	return out
}

// splitKeep splits text after each occurrence of sep, keeping sep at the
// end of the preceding piece. An empty sep splits into characters.
func splitKeep(text, sep string) []string {
	if sep == "" {
		out := make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}
	return strings.SplitAfter(text, sep)
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

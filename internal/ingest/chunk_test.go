package ingest

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitShortText(t *testing.T) {
	s := NewSplitter(500, 50)
	assert.Equal(t, []string{"Settlement uses TBB1."}, s.Split("  Settlement uses TBB1.\n"))
	assert.Empty(t, s.Split("   \n\n  "))
}

func TestSplitPrefersParagraphs(t *testing.T) {
	p1 := strings.Repeat("a", 30)
	p2 := strings.Repeat("b", 30)
	p3 := strings.Repeat("c", 30)
	s := NewSplitter(70, 0)

	got := s.Split(p1 + "\n\n" + p2 + "\n\n" + p3)
	require.Len(t, got, 2)
	assert.Equal(t, p1+"\n\n"+p2, got[0])
	assert.Equal(t, p3, got[1])
}

func TestSplitRespectsSizeAndOverlap(t *testing.T) {
	words := make([]string, 400)
	for i := range words {
		words[i] = "word"
	}
	text := strings.Join(words, " ")
	s := NewSplitter(100, 20)

	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 100)
		assert.NotEmpty(t, c)
	}
	// Consecutive chunks share their boundary words.
	for i := 1; i < len(chunks); i++ {
		prevTail := chunks[i-1][len(chunks[i-1])-9:]
		assert.True(t, strings.HasPrefix(chunks[i], "word word"), "chunk %d starts with %q", i, chunks[i][:9])
		assert.Equal(t, "word word", prevTail)
	}
}

func TestSplitSentences(t *testing.T) {
	text := "Open TBB1 for the deal. Select the company code. Execute the posting run. Check the log in TPM13."
	got := NewSplitter(50, 0).Split(text)
	require.NotEmpty(t, got)
	for _, c := range got {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 50)
	}
	assert.Equal(t, "Open TBB1 for the deal. Select the company code.", got[0])
}

func TestSplitUnbreakableWord(t *testing.T) {
	long := strings.Repeat("x", 25)
	got := NewSplitter(10, 0).Split(long)
	assert.Equal(t, []string{"xxxxxxxxxx", "xxxxxxxxxx", "xxxxx"}, got)
}

func TestSplitMultibyte(t *testing.T) {
	text := strings.Repeat("€", 15)
	got := NewSplitter(10, 0).Split(text)
	require.Len(t, got, 2)
	assert.Equal(t, 10, utf8.RuneCountInString(got[0]))
}

func TestNewSplitterDefaults(t *testing.T) {
	s := NewSplitter(0, -1)
	assert.Equal(t, DefaultChunkSize, s.Size)
	assert.Equal(t, DefaultChunkOverlap, s.Overlap)

	s = NewSplitter(100, 200)
	assert.Equal(t, 10, s.Overlap)
}

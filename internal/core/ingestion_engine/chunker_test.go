package ingestion_engine

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paragraph(word string, n int) string {
	return strings.TrimSpace(strings.Repeat(word+" ", n))
}

func TestChunkTextEmpty(t *testing.T) {
	assert.Empty(t, ChunkText("", 1000, 300))
	assert.Empty(t, ChunkText("  \n\n \n\n\t", 1000, 300))
}

func TestChunkTextSingleShortParagraph(t *testing.T) {
	chunks := ChunkText("  Study   design   overview.  ", 1000, 300)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Study design overview.", chunks[0])
}

func TestChunkTextGreedyPacking(t *testing.T) {
	p := paragraph("alpha", 20) // 119 chars
	text := strings.Join([]string{p, p, p, p, p}, "\n\n")

	chunks := ChunkText(text, 250, 0)

	// two paragraphs + separator = 240 fit, a third would not.
	require.Len(t, chunks, 3)
	assert.Equal(t, p+"\n\n"+p, chunks[0])
	assert.Equal(t, p+"\n\n"+p, chunks[1])
	assert.Equal(t, p, chunks[2])
}

func TestChunkTextRespectsMaxSize(t *testing.T) {
	var paras []string
	for i := 0; i < 40; i++ {
		paras = append(paras, paragraph("word", 5+i%17))
	}
	text := strings.Join(paras, "\n\n")

	for _, c := range ChunkText(text, 300, 100) {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 300)
	}
}

func TestChunkTextOversizedParagraphStandsAlone(t *testing.T) {
	big := paragraph("x", 600) // 1199 chars
	text := "Intro.\n\n" + big + "\n\nOutro."

	chunks := ChunkText(text, 1000, 0)

	require.Len(t, chunks, 3)
	assert.Equal(t, "Intro.", chunks[0])
	assert.Equal(t, big, chunks[1])
	assert.Equal(t, "Outro.", chunks[2])
}

func TestChunkTextMergesSmallTail(t *testing.T) {
	// raw paragraph is 238 chars, 199 once double spaces collapse.
	p := strings.TrimSpace(strings.Repeat("beta  ", 40))
	cleaned := paragraph("beta", 40)
	text := p + "\n\nShort tail."

	// greedy pass sees 238+2+11 > 250 and splits; merge pass sees 199+2+11.
	chunks := ChunkText(text, 250, 50)
	require.Len(t, chunks, 1)
	assert.Equal(t, cleaned+"\n\nShort tail.", chunks[0])

	assert.Len(t, ChunkText(text, 250, 0), 2)
}

func TestChunkTextSmallChunkKeptWhenMergeOverflows(t *testing.T) {
	p := paragraph("gamma", 60) // 359 chars
	text := p + "\n\nTiny."

	chunks := ChunkText(text, 362, 100)

	require.Len(t, chunks, 2)
	assert.Equal(t, "Tiny.", chunks[1])
}

func TestChunkTextPreservesParagraphOrder(t *testing.T) {
	paras := []string{"First paragraph.", "Second   one.", "Third\n\n\n\nfourth.", "Fifth."}
	text := strings.Join(paras, "\n\n")

	chunks := ChunkText(text, 30, 0)
	joined := strings.Join(chunks, " ")

	last := -1
	for _, want := range []string{"First paragraph.", "Second one.", "Third", "fourth.", "Fifth."} {
		idx := strings.Index(joined, want)
		require.GreaterOrEqual(t, idx, 0, want)
		assert.Greater(t, idx, last)
		last = idx
	}
}

func TestChunkTextCountsRunesNotBytes(t *testing.T) {
	ru := paragraph("исследование", 10) // 129 runes, 249 bytes
	text := ru + "\n\n" + ru

	chunks := ChunkText(text, 260, 0)

	require.Len(t, chunks, 1)
}

func TestCleanWhitespace(t *testing.T) {
	in := "  a    b \n\n\n\n  c\t  d  \n"
	assert.Equal(t, "a b\n\nc\t d", cleanWhitespace(in))
}

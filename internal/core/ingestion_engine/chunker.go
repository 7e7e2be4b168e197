package ingestion_engine

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	DefaultMaxChunkSize = 1000
	DefaultMinChunkSize = 300

	paragraphSep = "\n\n"
)

var (
	manyNewlines = regexp.MustCompile(`\n{3,}`)
	manySpaces   = regexp.MustCompile(` +`)
)

// ChunkText splits text into paragraph-aligned chunks of at most maxSize
// characters. A single paragraph longer than maxSize becomes its own chunk
// and is never split. Chunks shorter than minSize are folded into their
// predecessor when the merge still fits in maxSize. Sizes count runes.
func ChunkText(text string, maxSize, minSize int) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var (
		chunks  []string
		current []string
		curLen  int
	)

	flush := func() {
		if len(current) == 0 {
			return
		}
		if c := cleanWhitespace(strings.Join(current, paragraphSep)); c != "" {
			chunks = append(chunks, c)
		}
		current = current[:0]
		curLen = 0
	}

	for _, p := range strings.Split(text, paragraphSep) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		pLen := runeLen(p)
		if len(current) > 0 && curLen+len(paragraphSep)+pLen > maxSize {
			flush()
		}
		if len(current) > 0 {
			curLen += len(paragraphSep)
		}
		current = append(current, p)
		curLen += pLen
	}
	flush()

	if minSize <= 0 {
		return chunks
	}
	return mergeSmall(chunks, maxSize, minSize)
}

// mergeSmall folds undersized chunks into the previous one when the result fits.
func mergeSmall(chunks []string, maxSize, minSize int) []string {
	merged := make([]string, 0, len(chunks))
	for _, c := range chunks {
		n := len(merged)
		if n > 0 && runeLen(c) < minSize {
			prev := merged[n-1]
			if runeLen(prev)+runeLen(c)+len(paragraphSep) <= maxSize {
				merged[n-1] = cleanWhitespace(prev + paragraphSep + c)
				continue
			}
		}
		merged = append(merged, c)
	}
	return merged
}

// cleanWhitespace collapses 3+ newlines to two, squeezes runs of spaces
// inside each line and trims the edges.
func cleanWhitespace(text string) string {
	text = manyNewlines.ReplaceAllString(text, paragraphSep)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = manySpaces.ReplaceAllString(strings.TrimSpace(line), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

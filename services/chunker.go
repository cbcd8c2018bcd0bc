package services

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxChunkSize bounds chunk length in characters.
// DefaultMinChunkSize drops fragments too short to be useful context.
const (
	DefaultMaxChunkSize = 800
	DefaultMinChunkSize = 50
)

var (
	paragraphRegex = regexp.MustCompile(`\n{2,}`)
	// Marks sentence ends so the terminal punctuation stays with its sentence.
	sentenceEndRegex = regexp.MustCompile(`([.!?]+)\s+`)
)

// ChunkText splits extracted document text into bounded chunks suitable for
// keyword retrieval. Paragraphs are accumulated into a buffer that is flushed
// whenever the next paragraph would push it past maxChunkSize. A paragraph
// longer than maxChunkSize is split into sentences and accumulated at
// sentence granularity instead; a single sentence longer than maxChunkSize is
// never split further, so such a chunk can exceed the configured maximum.
// Chunks whose trimmed length is at most minChunkSize are discarded as noise.
// Lengths are counted in runes, not bytes.
func ChunkText(text string, maxChunkSize, minChunkSize int) []string {
	chunks := splitChunks(text, maxChunkSize)

	filtered := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if utf8.RuneCountInString(strings.TrimSpace(chunk)) > minChunkSize {
			filtered = append(filtered, chunk)
		}
	}
	return filtered
}

// splitChunks produces the raw, unfiltered chunk sequence.
func splitChunks(text string, maxChunkSize int) []string {
	paragraphs := paragraphRegex.Split(text, -1)

	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		trimmed := strings.TrimSpace(current.String())
		if trimmed != "" {
			chunks = append(chunks, trimmed)
		}
		current.Reset()
		currentLen = 0
	}

	for _, paragraph := range paragraphs {
		paraLen := utf8.RuneCountInString(paragraph)

		// Flush before the buffer would overflow.
		if currentLen > 0 && currentLen+paraLen > maxChunkSize {
			flush()
		}

		if paraLen > maxChunkSize {
			// Oversized paragraph: accumulate sentence by sentence.
			marked := sentenceEndRegex.ReplaceAllString(paragraph, "$1\x1f")
			for _, sentence := range strings.Split(marked, "\x1f") {
				sentLen := utf8.RuneCountInString(sentence)
				if currentLen > 0 && currentLen+sentLen > maxChunkSize {
					flush()
				}
				current.WriteString(sentence)
				current.WriteString(" ")
				currentLen += sentLen + 1
			}
		} else {
			current.WriteString(paragraph)
			current.WriteString("\n\n")
			currentLen += paraLen + 2
		}
	}

	flush()
	return chunks
}

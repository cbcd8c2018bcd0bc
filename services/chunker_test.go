package services

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkText_FlushesBeforeOverflow(t *testing.T) {
	text := "Paragraph one.\n\nParagraph two is a bit longer than usual for this test."

	chunks := ChunkText(text, 40, DefaultMinChunkSize)

	// "Paragraph one." flushes as its own chunk but is then dropped by the
	// minimum-length filter; only the second paragraph survives.
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d: %q", len(chunks), chunks)
	}
	if chunks[0] != "Paragraph two is a bit longer than usual for this test." {
		t.Fatalf("unexpected chunk content: %q", chunks[0])
	}
}

func TestChunkText_DropsShortChunks(t *testing.T) {
	text := "Short fragment.\n\n" + strings.Repeat("This paragraph is long enough to survive filtering. ", 3)

	chunks := ChunkText(text, 800, DefaultMinChunkSize)

	for _, chunk := range chunks {
		if utf8.RuneCountInString(strings.TrimSpace(chunk)) <= DefaultMinChunkSize {
			t.Fatalf("chunk below minimum length leaked through: %q", chunk)
		}
	}
}

func TestChunkText_OversizedParagraphSplitsOnSentences(t *testing.T) {
	sentence := "Every sentence in this paragraph carries enough words to matter. "
	text := strings.Repeat(sentence, 10) // one paragraph, ~660 chars

	chunks := ChunkText(text, 200, DefaultMinChunkSize)

	if len(chunks) < 2 {
		t.Fatalf("expected oversized paragraph to split, got %d chunks", len(chunks))
	}
	for i, chunk := range chunks {
		// No single sentence exceeds the max here, so every chunk obeys it.
		if n := utf8.RuneCountInString(chunk); n > 200 {
			t.Errorf("chunk %d exceeds max size: %d runes", i, n)
		}
	}
}

func TestChunkText_OversizedSentenceEmittedWhole(t *testing.T) {
	// A single sentence longer than the max is never split further.
	long := strings.Repeat("word ", 60) // ~300 runes, no sentence-terminal punctuation
	chunks := ChunkText(long, 100, DefaultMinChunkSize)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != strings.TrimSpace(long) {
		t.Fatalf("oversized sentence was modified: %q", chunks[0])
	}
}

func TestSplitChunks_PreservesContent(t *testing.T) {
	text := "First paragraph with some words. And a second sentence!\n\n" +
		"Second paragraph here? It keeps going with more text.\n\n\n" +
		"Third paragraph, short."

	chunks := splitChunks(text, 60)

	stripSpace := func(s string) string {
		return strings.Join(strings.Fields(s), "")
	}
	want := stripSpace(text)
	got := stripSpace(strings.Join(chunks, " "))
	if got != want {
		t.Fatalf("chunking dropped or reordered content:\nwant %q\ngot  %q", want, got)
	}
}

func TestChunkText_Idempotent(t *testing.T) {
	text := strings.Repeat("A reasonably sized sentence for repeatability checks. ", 30)

	first := ChunkText(text, 300, DefaultMinChunkSize)
	second := ChunkText(text, 300, DefaultMinChunkSize)

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("chunk %d differs between runs", i)
		}
	}
}

func TestChunkText_EmptyInput(t *testing.T) {
	if chunks := ChunkText("", 800, DefaultMinChunkSize); len(chunks) != 0 {
		t.Fatalf("expected no chunks for empty input, got %d", len(chunks))
	}
	if chunks := ChunkText("\n\n\n\n", 800, DefaultMinChunkSize); len(chunks) != 0 {
		t.Fatalf("expected no chunks for blank input, got %d", len(chunks))
	}
}

func TestChunkText_CountsRunesNotBytes(t *testing.T) {
	// Vietnamese text is multi-byte; the bound must hold in runes.
	sentence := "Kỳ thi trung học phổ thông quốc gia được tổ chức hằng năm. "
	text := strings.Repeat(sentence, 20)

	chunks := ChunkText(text, 200, DefaultMinChunkSize)
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for i, chunk := range chunks {
		if n := utf8.RuneCountInString(chunk); n > 200 {
			t.Errorf("chunk %d exceeds max size in runes: %d", i, n)
		}
	}
}

package services

import (
	"strings"
	"testing"
)

func TestQualityOK(t *testing.T) {
	good := "Quy chế thi tốt nghiệp trung học phổ thông được ban hành hằng năm."
	if !qualityOK(good) {
		t.Fatal("expected readable text to pass the quality check")
	}

	if qualityOK("too short") {
		t.Fatal("expected very short text to fail the quality check")
	}

	garbled := strings.Repeat("�", 40)
	if qualityOK(garbled) {
		t.Fatal("expected replacement-rune soup to fail the quality check")
	}
}

func TestSanitize(t *testing.T) {
	in := "line one\r\nline two\rline three\x00\x07  "
	got := sanitize(in)

	if strings.ContainsAny(got, "\r\x00\x07") {
		t.Fatalf("control characters survived sanitize: %q", got)
	}
	if !strings.Contains(got, "line one\nline two\nline three") {
		t.Fatalf("line endings not normalized: %q", got)
	}
}

func TestExtract_GarbageInput(t *testing.T) {
	e := NewPDFExtractor()
	if _, err := e.Extract([]byte("definitely not a pdf")); err == nil {
		t.Fatal("expected error for non-PDF content")
	}
}

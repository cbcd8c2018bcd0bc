package services

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor extracts plain text from PDF files. The pure-Go reader is
// tried first; when the result looks like mojibake the poppler pdftotext
// binary is used as a fallback if present.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// ExtractionResult contains the outcome of a PDF text extraction.
type ExtractionResult struct {
	Text   string
	Pages  int
	Method string
}

// ExtractFile reads and extracts one PDF from disk.
func (e *PDFExtractor) ExtractFile(filePath string) (*ExtractionResult, error) {
	stat, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat PDF file: %w", err)
	}
	if stat.Size() > 200<<20 { // 200MB safety cap
		return nil, fmt.Errorf("pdf too large for in-memory extraction")
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF file: %w", err)
	}

	return e.Extract(content)
}

// Extract extracts text from in-memory PDF content using the available
// methods in order of preference.
func (e *PDFExtractor) Extract(content []byte) (*ExtractionResult, error) {
	text, pages, goErr := extractWithGoPDF(content)
	if qualityOK(text) {
		return &ExtractionResult{Text: sanitize(text), Pages: pages, Method: "go-pdf"}, nil
	}

	if hasBinary("pdftotext") {
		if txt, err := extractWithPoppler(content); err == nil && qualityOK(txt) {
			return &ExtractionResult{Text: sanitize(txt), Pages: pages, Method: "poppler"}, nil
		}
	}

	if goErr != nil {
		return nil, fmt.Errorf("pdf extraction failed: %w", goErr)
	}
	return nil, fmt.Errorf("pdf extraction produced unusable text")
}

// extractWithGoPDF extracts text using the Go PDF library. Pages are joined
// with blank lines so page boundaries line up with paragraph breaks for the
// chunker.
func extractWithGoPDF(fileContent []byte) (string, int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(fileContent), int64(len(fileContent)))
	if err != nil {
		return "", 0, err
	}

	var b strings.Builder
	pages := reader.NumPage()

	for i := 1; i <= pages; i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		fonts := make(map[string]*pdf.Font)
		t, err := p.GetPlainText(fonts)
		if err != nil {
			continue
		}
		b.WriteString(t)
		b.WriteString("\n\n")
	}

	return b.String(), pages, nil
}

// hasBinary checks if a binary exists in PATH
func hasBinary(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// extractWithPoppler extracts text using pdftotext
func extractWithPoppler(fileContent []byte) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", "-", "-")
	cmd.Stdin = bytes.NewReader(fileContent)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftotext error: %v (%s)", err, errb.String())
	}

	return out.String(), nil
}

// sanitize strips control characters and normalizes line endings.
func sanitize(s string) string {
	if s == "" {
		return s
	}

	var b strings.Builder
	for _, r := range s {
		// keep newlines/tabs/printables
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r < 0xD800) || (r >= 0xE000 && r <= 0xFFFD) {
			b.WriteRune(r)
		}
	}

	clean := strings.ReplaceAll(b.String(), "\u0000", "")
	clean = strings.ReplaceAll(clean, "\r\n", "\n")
	clean = strings.ReplaceAll(clean, "\r", "\n")

	return strings.TrimSpace(clean)
}

// qualityOK rejects extractions that are mostly garbage glyphs.
func qualityOK(s string) bool {
	if len(strings.TrimSpace(s)) < 20 {
		return false
	}

	total := 0
	printable := 0
	replacementRunes := 0

	for _, r := range s {
		total++
		if r == '�' {
			replacementRunes++
		}
		if (r >= 32 && r < 0xD800) || (r >= 0xE000 && r <= 0xFFFD) {
			printable++
		}
	}

	if total == 0 {
		return false
	}

	ratio := float64(printable) / float64(total)
	return ratio > 0.85 && replacementRunes < 10
}

package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"exam-chatbot-backend/internal/config"
	"exam-chatbot-backend/internal/kb"
	"exam-chatbot-backend/models"
)

func testIngestConfig(t *testing.T, pdfDir string) (*config.Config, *kb.Store) {
	t.Helper()
	cfg := &config.Config{
		PDFDirectory:  pdfDir,
		KnowledgePath: filepath.Join(t.TempDir(), "knowledge_base.json"),
		MaxChunkSize:  800,
		MinChunkSize:  50,
	}
	return cfg, kb.NewStore(cfg.KnowledgePath)
}

func TestIngest_MissingDirectoryIsCreated(t *testing.T) {
	pdfDir := filepath.Join(t.TempDir(), "does-not-exist-yet")
	cfg, store := testIngestConfig(t, pdfDir)
	ing := NewIngestor(cfg, NewPDFExtractor(), store)

	report, err := ing.Run(context.Background())
	if err != nil {
		t.Fatalf("missing directory should not be an error: %v", err)
	}
	if report.PDFsFound != 0 || report.TotalChunks != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}

	if _, err := os.Stat(pdfDir); err != nil {
		t.Fatalf("PDF directory was not created: %v", err)
	}
	// A zero-output run must not write anything.
	if _, err := os.Stat(cfg.KnowledgePath); !os.IsNotExist(err) {
		t.Fatalf("zero-output run should not write a knowledge base file: %v", err)
	}
}

func TestIngest_ZeroOutputRunKeepsExistingKnowledgeBase(t *testing.T) {
	seed := []models.Chunk{{ID: "1", Source: "quyche.pdf", Content: "Thí sinh phải có mặt tại phòng thi đúng giờ quy định."}}

	t.Run("missing directory", func(t *testing.T) {
		pdfDir := filepath.Join(t.TempDir(), "gone")
		cfg, store := testIngestConfig(t, pdfDir)
		if err := store.Replace(seed); err != nil {
			t.Fatal(err)
		}
		ing := NewIngestor(cfg, NewPDFExtractor(), store)

		if _, err := ing.Run(context.Background()); err != nil {
			t.Fatal(err)
		}
		if store.Count() != 1 {
			t.Fatalf("existing knowledge base was wiped, got %d chunks", store.Count())
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		cfg, store := testIngestConfig(t, t.TempDir())
		if err := store.Replace(seed); err != nil {
			t.Fatal(err)
		}
		ing := NewIngestor(cfg, NewPDFExtractor(), store)

		if _, err := ing.Run(context.Background()); err != nil {
			t.Fatal(err)
		}
		if store.Count() != 1 {
			t.Fatalf("existing knowledge base was wiped, got %d chunks", store.Count())
		}
	})
}

func TestIngest_BadDocumentDoesNotAbortRun(t *testing.T) {
	pdfDir := t.TempDir()
	for _, name := range []string{"broken-a.pdf", "broken-b.pdf"} {
		if err := os.WriteFile(filepath.Join(pdfDir, name), []byte("not a real pdf"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cfg, store := testIngestConfig(t, pdfDir)
	ing := NewIngestor(cfg, NewPDFExtractor(), store)

	report, err := ing.Run(context.Background())
	if err != nil {
		t.Fatalf("bad documents must be skipped, not fatal: %v", err)
	}
	if report.PDFsFound != 2 {
		t.Fatalf("expected 2 PDFs found, got %d", report.PDFsFound)
	}
	if report.PDFsFailed != 2 || report.PDFsProcessed != 0 {
		t.Fatalf("expected both documents skipped, got %+v", report)
	}
	if store.Count() != 0 {
		t.Fatalf("expected empty knowledge base, got %d chunks", store.Count())
	}
}

func TestIngest_IgnoresNonPDFFiles(t *testing.T) {
	pdfDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(pdfDir, "notes.txt"), []byte("plain text"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, store := testIngestConfig(t, pdfDir)
	ing := NewIngestor(cfg, NewPDFExtractor(), store)

	report, err := ing.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.PDFsFound != 0 {
		t.Fatalf("non-PDF files must be ignored, got %d found", report.PDFsFound)
	}
	if store.Count() != 0 {
		t.Fatalf("expected empty knowledge base, got %d chunks", store.Count())
	}
}

func TestIngest_CancelledContext(t *testing.T) {
	pdfDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(pdfDir, "doc.pdf"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, store := testIngestConfig(t, pdfDir)
	ing := NewIngestor(cfg, NewPDFExtractor(), store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := ing.Run(ctx); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

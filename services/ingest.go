package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"exam-chatbot-backend/internal/config"
	"exam-chatbot-backend/internal/kb"
	"exam-chatbot-backend/internal/logger"
	"exam-chatbot-backend/models"
)

// Ingestor rebuilds the knowledge base from a directory of PDF files.
// Each run regenerates every chunk: ids restart from 1 and the persisted
// file is replaced wholesale.
type Ingestor struct {
	cfg       *config.Config
	extractor *PDFExtractor
	store     *kb.Store
}

func NewIngestor(cfg *config.Config, extractor *PDFExtractor, store *kb.Store) *Ingestor {
	return &Ingestor{cfg: cfg, extractor: extractor, store: store}
}

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	PDFsFound     int `json:"pdfs_found"`
	PDFsProcessed int `json:"pdfs_processed"`
	PDFsFailed    int `json:"pdfs_failed"`
	TotalChunks   int `json:"total_chunks"`
}

// Run ingests every PDF in the configured directory into the knowledge base.
// A document that fails to extract is logged and skipped; a single bad file
// never aborts the run. A missing source directory is created and a run that
// finds no PDFs at all returns without touching the knowledge base, so a
// previously built corpus survives an empty source directory.
func (ing *Ingestor) Run(ctx context.Context) (*IngestReport, error) {
	report := &IngestReport{}

	pdfFiles, err := listPDFs(ing.cfg.PDFDirectory)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("PDF directory not found, creating it",
				"dir", ing.cfg.PDFDirectory)
			if mkErr := os.MkdirAll(ing.cfg.PDFDirectory, 0o755); mkErr != nil {
				return nil, fmt.Errorf("failed to create PDF directory: %w", mkErr)
			}
			return report, nil
		}
		return nil, fmt.Errorf("failed to list PDF directory: %w", err)
	}

	if len(pdfFiles) == 0 {
		logger.Warn("no PDF files found, keeping existing knowledge base",
			"dir", ing.cfg.PDFDirectory)
		return report, nil
	}

	report.PDFsFound = len(pdfFiles)
	logger.Info("starting ingestion", "dir", ing.cfg.PDFDirectory, "pdfs", len(pdfFiles))

	knowledge := make([]models.Chunk, 0)
	chunkID := 1

	for _, pdfFile := range pdfFiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := filepath.Base(pdfFile)
		result, err := ing.extractor.ExtractFile(pdfFile)
		if err != nil {
			logger.Error("failed to process PDF, skipping", "file", name, "error", err)
			report.PDFsFailed++
			continue
		}

		if strings.TrimSpace(result.Text) == "" {
			logger.Warn("no text extracted from PDF, skipping", "file", name)
			report.PDFsFailed++
			continue
		}

		chunks := ChunkText(result.Text, ing.cfg.MaxChunkSize, ing.cfg.MinChunkSize)
		for _, chunk := range chunks {
			knowledge = append(knowledge, models.Chunk{
				ID:      strconv.Itoa(chunkID),
				Source:  name,
				Content: chunk,
			})
			chunkID++
		}

		report.PDFsProcessed++
		logger.Info("processed PDF", "file", name,
			"method", result.Method, "pages", result.Pages,
			"chars", len(result.Text), "chunks", len(chunks))
	}

	if err := ing.store.Replace(knowledge); err != nil {
		return nil, err
	}

	report.TotalChunks = len(knowledge)
	logger.Info("ingestion complete",
		"pdfs_processed", report.PDFsProcessed,
		"pdfs_failed", report.PDFsFailed,
		"total_chunks", report.TotalChunks,
		"output", ing.store.Path())
	return report, nil
}

// listPDFs returns the .pdf files in dir sorted by name, so chunk ids are
// stable across runs over the same documents.
func listPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

package main

import (
	"context"
	"flag"
	"log"
	"time"

	"exam-chatbot-backend/internal/config"
	"exam-chatbot-backend/internal/kb"
	"exam-chatbot-backend/internal/logger"
	"exam-chatbot-backend/services"
)

// Offline ingestion run: extracts text from every PDF in the source
// directory, chunks it, and replaces the knowledge base file.
func main() {
	pdfDir := flag.String("pdf-dir", "", "PDF source directory (overrides PDF_DIRECTORY)")
	output := flag.String("output", "", "knowledge base output path (overrides KNOWLEDGE_BASE_PATH)")
	timeout := flag.Duration("timeout", 30*time.Minute, "overall ingestion timeout")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	if *pdfDir != "" {
		cfg.PDFDirectory = *pdfDir
	}
	if *output != "" {
		cfg.KnowledgePath = *output
	}

	logger.InitLogger(cfg)

	store := kb.NewStore(cfg.KnowledgePath)
	extractor := services.NewPDFExtractor()
	ingestor := services.NewIngestor(cfg, extractor, store)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	report, err := ingestor.Run(ctx)
	if err != nil {
		log.Fatal("Ingestion failed:", err)
	}

	if report.PDFsFound == 0 {
		logger.Warn("no PDF files found, place PDFs in the source directory and re-run",
			"dir", cfg.PDFDirectory)
	}
}

package kb

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"exam-chatbot-backend/models"
)

func TestStore_LoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.json"))

	if err := store.Load(); err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if store.Count() != 0 {
		t.Fatalf("expected empty store, got %d chunks", store.Count())
	}
}

func TestStore_ReplaceAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge_base.json")
	store := NewStore(path)

	chunks := []models.Chunk{
		{ID: "1", Source: "quy-che-thi.pdf", Content: "Kỳ thi THPT Quốc gia diễn ra vào tháng 6."},
		{ID: "2", Source: "quy-che-thi.pdf", Content: "Điểm chuẩn đại học công bố sau kỳ thi."},
		{ID: "3", Source: "tuyen-sinh.pdf", Content: "Thí sinh đăng ký nguyện vọng trực tuyến."},
	}
	if err := store.Replace(chunks); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	// A fresh store reading the same file must see identical order.
	reloaded := NewStore(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	got := reloaded.Chunks()
	if len(got) != len(chunks) {
		t.Fatalf("expected %d chunks, got %d", len(chunks), len(got))
	}
	for i := range chunks {
		if got[i] != chunks[i] {
			t.Fatalf("chunk %d changed across round trip:\nwant %+v\ngot  %+v", i, chunks[i], got[i])
		}
	}
}

func TestStore_ReplaceOverwritesWholesale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge_base.json")
	store := NewStore(path)

	if err := store.Replace([]models.Chunk{{ID: "1", Content: "old content"}}); err != nil {
		t.Fatalf("first replace failed: %v", err)
	}
	if err := store.Replace([]models.Chunk{{ID: "1", Content: "new content"}}); err != nil {
		t.Fatalf("second replace failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if strings.Contains(string(data), "old content") {
		t.Fatal("old knowledge base content survived a replace")
	}
	if store.Count() != 1 || store.Chunks()[0].Content != "new content" {
		t.Fatal("in-memory view not swapped after replace")
	}
}

func TestStore_ReplaceKeepsUnicodeReadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge_base.json")
	store := NewStore(path)

	if err := store.Replace([]models.Chunk{{ID: "1", Content: "Điểm chuẩn"}}); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	// Vietnamese text is stored as UTF-8, not \u escapes.
	if !strings.Contains(string(data), "Điểm chuẩn") {
		t.Fatalf("expected raw UTF-8 content in file, got: %s", data)
	}

	// No stray temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".kb-") {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}

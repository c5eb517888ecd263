package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/apetrei/librarian/internal/config"
)

func TestLoadCorpus_Default(t *testing.T) {
	books, err := loadCorpus(config.Config{})
	if err != nil {
		t.Fatalf("loadCorpus: %v", err)
	}
	if len(books) == 0 {
		t.Fatal("embedded corpus is empty")
	}
}

func TestLoadCorpus_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.txt")
	content := "## Title: Cartea Unu\nUn rezumat scurt.\n\n## Title: Cartea Doi\nAlt rezumat.\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing corpus: %v", err)
	}

	cfg := config.Config{}
	cfg.Library.CorpusPath = path

	books, err := loadCorpus(cfg)
	if err != nil {
		t.Fatalf("loadCorpus: %v", err)
	}
	if len(books) != 2 || books[0].Title != "Cartea Unu" {
		t.Errorf("books = %+v", books)
	}
}

func TestLoadCorpus_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.txt")
	if err := os.WriteFile(path, []byte("no markers here\n"), 0o644); err != nil {
		t.Fatalf("writing corpus: %v", err)
	}

	cfg := config.Config{}
	cfg.Library.CorpusPath = path

	if _, err := loadCorpus(cfg); err == nil {
		t.Fatal("expected error for corpus without books")
	}
}

func TestColorize_NoColor(t *testing.T) {
	noColor = true
	t.Cleanup(func() { noColor = false })

	if got := colorize(colorGreen, "ok"); got != "ok" {
		t.Errorf("colorize = %q", got)
	}
}

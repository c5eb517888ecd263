package library

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

// SummaryNotFound is returned by Store.Summary for titles absent from the
// corpus. Lookups never fail; callers that need to distinguish use Lookup.
const SummaryNotFound = "Rezumat indisponibil pentru acest titlu."

const titleMarker = "## Title:"

//go:embed data/book_summaries.txt
var defaultCorpus string

// Book is a single corpus record. Immutable after load.
type Book struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// Parse splits a corpus text into books. Blocks are delimited by lines of the
// form "## Title: <name>"; the lines that follow, up to the next marker, form
// the summary joined with single spaces. Content before the first marker is
// ignored, and input without any marker yields an empty result.
func Parse(text string) []Book {
	var books []Book
	var title string
	var fragments []string

	flush := func() {
		if title == "" {
			return
		}
		books = append(books, Book{Title: title, Summary: strings.Join(fragments, " ")})
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, titleMarker) {
			flush()
			title = strings.TrimSpace(strings.TrimPrefix(line, titleMarker))
			fragments = nil
			continue
		}
		if line != "" && title != "" {
			fragments = append(fragments, line)
		}
	}
	flush()
	return books
}

// LoadFile parses a corpus from the given path.
func LoadFile(path string) ([]Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}
	return Parse(string(data)), nil
}

// Default returns the books from the embedded sample corpus.
func Default() []Book {
	return Parse(defaultCorpus)
}

// Store holds the loaded corpus and answers exact-title summary lookups.
// It is read-only after construction and safe for concurrent use.
type Store struct {
	books   []Book
	byTitle map[string]string
}

// NewStore builds a Store from the given books. Order is preserved; on
// duplicate titles the first occurrence wins.
func NewStore(books []Book) *Store {
	s := &Store{
		books:   books,
		byTitle: make(map[string]string, len(books)),
	}
	for _, b := range books {
		if _, ok := s.byTitle[b.Title]; !ok {
			s.byTitle[b.Title] = b.Summary
		}
	}
	return s
}

// Books returns a copy of the corpus in load order.
func (s *Store) Books() []Book {
	out := make([]Book, len(s.books))
	copy(out, s.books)
	return out
}

// Titles returns all titles in load order.
func (s *Store) Titles() []string {
	out := make([]string, len(s.books))
	for i, b := range s.books {
		out[i] = b.Title
	}
	return out
}

// Lookup returns the summary for an exact title and whether it exists.
func (s *Store) Lookup(title string) (string, bool) {
	summary, ok := s.byTitle[title]
	return summary, ok
}

// Summary returns the summary for an exact title, or the SummaryNotFound
// sentinel when the title is not in the corpus. This is the function exposed
// to the model as the get_summary_by_title tool.
func (s *Store) Summary(title string) string {
	if summary, ok := s.byTitle[title]; ok {
		return summary
	}
	return SummaryNotFound
}

// Len returns the number of loaded books.
func (s *Store) Len() int { return len(s.books) }

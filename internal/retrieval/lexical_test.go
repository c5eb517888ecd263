package retrieval

import (
	"context"
	"testing"

	"github.com/apetrei/librarian/internal/library"
)

func testBooks() []library.Book {
	return []library.Book{
		{Title: "The Hobbit", Summary: "O aventură despre prietenie și maturizare cu dragonul Smaug."},
		{Title: "1984", Summary: "O societate distopică sub controlul total al statului."},
		{Title: "War and Peace", Summary: "Viețile aristocraților ruși în timpul războaielor napoleoniene."},
	}
}

func TestLexical_RecommendMatchesQuery(t *testing.T) {
	l := NewLexical(testBooks())

	titles, err := l.Recommend(context.Background(), "o poveste despre prietenie", 3)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(titles) == 0 {
		t.Fatal("expected at least one match")
	}
	if titles[0] != "The Hobbit" {
		t.Errorf("best match = %q, want The Hobbit", titles[0])
	}
}

func TestLexical_EmptyQuery(t *testing.T) {
	l := NewLexical(testBooks())

	for _, q := range []string{"", "   ", "\t\n"} {
		titles, err := l.Recommend(context.Background(), q, 3)
		if err != nil {
			t.Fatalf("Recommend(%q): %v", q, err)
		}
		if len(titles) != 0 {
			t.Errorf("Recommend(%q) = %v, want empty", q, titles)
		}
	}
}

func TestLexical_NoMatchReturnsNothing(t *testing.T) {
	l := NewLexical(testBooks())

	titles, err := l.Recommend(context.Background(), "xyzzy quux", 3)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(titles) != 0 {
		t.Errorf("expected no matches, got %v", titles)
	}
}

func TestLexical_ResultsBoundedAndUnique(t *testing.T) {
	books := library.Default()
	l := NewLexical(books)

	titles, err := l.Recommend(context.Background(), "o carte despre curaj și prietenie", 3)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(titles) > 3 {
		t.Fatalf("got %d titles, want at most 3", len(titles))
	}

	known := make(map[string]bool)
	for _, b := range books {
		known[b.Title] = true
	}
	seen := make(map[string]bool)
	for _, title := range titles {
		if !known[title] {
			t.Errorf("title %q not in corpus", title)
		}
		if seen[title] {
			t.Errorf("duplicate title %q", title)
		}
		seen[title] = true
	}
}

func TestLexical_DegradedOverlapMode(t *testing.T) {
	// A corpus with no letters yields no vocabulary and forces the
	// token-overlap strategy.
	books := []library.Book{
		{Title: "12345", Summary: "67890"},
		{Title: "000", Summary: "999"},
	}
	l := NewLexical(books)
	if !l.degraded {
		t.Fatal("expected degraded mode for letterless corpus")
	}

	titles, err := l.Recommend(context.Background(), "678", 3)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(titles) != 1 || titles[0] != "12345" {
		t.Errorf("titles = %v, want [12345]", titles)
	}
}

func TestLexical_TieBrokenByCorpusOrder(t *testing.T) {
	books := []library.Book{
		{Title: "Alpha", Summary: "magie vrăjitorie"},
		{Title: "Beta", Summary: "magie vrăjitorie"},
	}
	l := NewLexical(books)

	titles, err := l.Recommend(context.Background(), "magie", 2)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(titles) != 2 || titles[0] != "Alpha" || titles[1] != "Beta" {
		t.Errorf("titles = %v, want corpus order on tie", titles)
	}
}

package retrieval

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/apetrei/librarian/internal/library"
)

// Lexical ranks books with TF-IDF cosine similarity over "title + summary"
// documents. When the corpus yields no usable vocabulary it degrades to
// counting query tokens that appear as substrings of each document.
type Lexical struct {
	docs       []string // case-folded "title summary", corpus order
	titles     []string
	vocabulary map[string]int
	idf        []float64
	vectors    [][]float64 // L2-normalized, one per doc
	degraded   bool

	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewLexical builds the index once from the full corpus.
func NewLexical(books []library.Book) *Lexical {
	l := &Lexical{
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		stopwords:    defaultStopwords(),
	}
	for _, b := range books {
		l.titles = append(l.titles, b.Title)
		l.docs = append(l.docs, strings.ToLower(b.Title+" "+b.Summary))
	}
	l.build()
	return l
}

func (l *Lexical) build() {
	df := make(map[string]int)
	tokenized := make([][]string, len(l.docs))
	for i, doc := range l.docs {
		tokens := l.tokenize(doc)
		tokenized[i] = tokens
		seen := make(map[string]struct{})
		for _, tok := range tokens {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	if len(df) == 0 {
		l.degraded = true
		return
	}

	// Stable vocabulary ordering.
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	l.vocabulary = make(map[string]int, len(terms))
	l.idf = make([]float64, len(terms))
	n := float64(len(l.docs))
	for i, term := range terms {
		l.vocabulary[term] = i
		// Smoothed IDF.
		l.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}

	l.vectors = make([][]float64, len(l.docs))
	for i, tokens := range tokenized {
		l.vectors[i] = l.vectorize(tokens)
	}
}

// Recommend returns up to n titles with strictly positive similarity,
// best first, ties broken by corpus order.
func (l *Lexical) Recommend(_ context.Context, query string, n int) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if n <= 0 {
		n = 3
	}
	if l.degraded {
		return l.recommendOverlap(query, n), nil
	}

	qvec := l.vectorize(l.tokenize(strings.ToLower(query)))
	scores := make([]float64, len(l.vectors))
	for i, v := range l.vectors {
		scores[i] = dot(v, qvec)
	}
	return l.rank(scores, n), nil
}

// recommendOverlap counts case-folded query tokens appearing as substrings
// of each document.
func (l *Lexical) recommendOverlap(query string, n int) []string {
	tokens := strings.Fields(strings.ToLower(query))
	scores := make([]float64, len(l.docs))
	for i, doc := range l.docs {
		count := 0
		for _, tok := range tokens {
			if strings.Contains(doc, tok) {
				count++
			}
		}
		scores[i] = float64(count)
	}
	return l.rank(scores, n)
}

func (l *Lexical) rank(scores []float64, n int) []string {
	idxs := make([]int, len(scores))
	for i := range idxs {
		idxs[i] = i
	}
	// Stable sort keeps corpus order on equal scores.
	sort.SliceStable(idxs, func(i, j int) bool {
		return scores[idxs[i]] > scores[idxs[j]]
	})

	var out []string
	for _, i := range idxs {
		if scores[i] <= 0 || len(out) >= n {
			break
		}
		out = append(out, l.titles[i])
	}
	return out
}

func (l *Lexical) tokenize(text string) []string {
	raw := l.tokenPattern.FindAllString(text, -1)
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := l.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

// vectorize computes the L2-normalized TF-IDF vector for the given tokens.
func (l *Lexical) vectorize(tokens []string) []float64 {
	vec := make([]float64, len(l.vocabulary))
	tf := make(map[int]int)
	total := 0
	for _, tok := range tokens {
		if idx, ok := l.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec
	}
	for idx, count := range tf {
		vec[idx] = float64(count) / float64(total) * l.idf[idx]
	}
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		// English
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for",
		"to", "of", "in", "on", "at", "by", "with", "as", "is", "are",
		"was", "were", "be", "been", "being", "it", "this", "that", "these",
		"those", "from", "about", "into", "through", "so", "such", "can",
		"will", "just", "very", "too", "now",
		// Romanian (the sample corpus is Romanian)
		"o", "un", "și", "sau", "dar", "dacă", "pentru", "de", "din", "la",
		"cu", "pe", "în", "este", "sunt", "care", "ce", "mai", "nu", "se",
		"al", "ai", "ale", "lui", "sa", "său", "îi", "își",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

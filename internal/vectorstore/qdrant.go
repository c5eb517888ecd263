package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultQdrantTimeout = 15 * time.Second

// Qdrant is a minimal REST client to a Qdrant collection. It assumes cosine
// distance and creates the collection if missing.
type Qdrant struct {
	baseURL    string
	apiKey     string
	collection string
	dimension  int
	httpClient *http.Client
}

// QdrantConfig holds connection details for a Qdrant store.
type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// NewQdrant creates a Qdrant store client. The collection is created lazily
// by Init.
func NewQdrant(cfg QdrantConfig) *Qdrant {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultQdrantTimeout
	}
	collection := cfg.Collection
	if collection == "" {
		collection = "books"
	}
	return &Qdrant{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: collection,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (q *Qdrant) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	q.dimension = dimension
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	// Qdrant answers 200 when the collection already exists with the same
	// schema; anything else propagates.
	return q.putJSON(ctx, fmt.Sprintf("%s/collections/%s", q.baseURL, q.collection), body)
}

func (q *Qdrant) Upsert(ctx context.Context, points []Point, vectors [][]float64) error {
	if len(points) != len(vectors) {
		return errors.New("points and vectors length mismatch")
	}
	payload := make([]map[string]any, len(points))
	for i, p := range points {
		payload[i] = map[string]any{
			"id":     i,
			"vector": vectors[i],
			"payload": map[string]any{
				"point_id": p.ID,
				"title":    p.Title,
				"text":     p.Text,
			},
		}
	}
	body := map[string]any{"points": payload}
	url := fmt.Sprintf("%s/collections/%s/points?wait=true", q.baseURL, q.collection)
	return q.putJSON(ctx, url, body)
}

func (q *Qdrant) Search(ctx context.Context, vector []float64, topK int) ([]Result, error) {
	if topK <= 0 {
		topK = 3
	}
	body := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", q.baseURL, q.collection)
	if err := q.postJSON(ctx, url, body, &resp); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(resp.Result))
	for _, r := range resp.Result {
		p := Point{}
		if v, ok := r.Payload["point_id"].(string); ok {
			p.ID = v
		}
		if v, ok := r.Payload["title"].(string); ok {
			p.Title = v
		}
		if v, ok := r.Payload["text"].(string); ok {
			p.Text = v
		}
		results = append(results, Result{Point: p, Score: r.Score})
	}
	return results, nil
}

func (q *Qdrant) putJSON(ctx context.Context, url string, body any) error {
	return q.doJSON(ctx, http.MethodPut, url, body, nil)
}

func (q *Qdrant) postJSON(ctx context.Context, url string, body any, out any) error {
	return q.doJSON(ctx, http.MethodPost, url, body, out)
}

func (q *Qdrant) doJSON(ctx context.Context, method, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshalling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}

	resp, err := q.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

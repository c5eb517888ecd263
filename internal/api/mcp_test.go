package api

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/apetrei/librarian/internal/librarian"
	"github.com/apetrei/librarian/internal/library"
	"github.com/apetrei/librarian/internal/retrieval"
	"github.com/apetrei/librarian/internal/storage"
)

func newTestMCPDeps(t *testing.T) (MCPDeps, *storage.Store) {
	t.Helper()
	log, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { log.Close() })

	store := library.NewStore(testBooks)
	svc := librarian.New(store, retrieval.NewLexical(store.Books()), nil, nil, "")
	return MCPDeps{Service: svc, Log: log}, log
}

func callToolRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func textContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("content = %+v, want one text item", result.Content)
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T", result.Content[0])
	}
	return text.Text
}

func TestMCPRecommendBooks(t *testing.T) {
	deps, _ := newTestMCPDeps(t)
	handler := mcpRecommendBooks(deps)

	result, err := handler(context.Background(), callToolRequest(map[string]any{
		"query": "distopie supraveghere",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", textContent(t, result))
	}

	var titles []string
	if err := json.Unmarshal([]byte(textContent(t, result)), &titles); err != nil {
		t.Fatalf("decoding titles: %v", err)
	}
	if len(titles) == 0 || titles[0] != "1984" {
		t.Errorf("titles = %v", titles)
	}
}

func TestMCPRecommendBooks_MissingQuery(t *testing.T) {
	deps, _ := newTestMCPDeps(t)
	handler := mcpRecommendBooks(deps)

	result, err := handler(context.Background(), callToolRequest(nil))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for missing query")
	}
}

func TestMCPGetSummary(t *testing.T) {
	deps, _ := newTestMCPDeps(t)
	handler := mcpGetSummary(deps)

	result, err := handler(context.Background(), callToolRequest(map[string]any{
		"title": "The Hobbit",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !strings.Contains(textContent(t, result), "Bilbo") {
		t.Errorf("summary = %q", textContent(t, result))
	}
}

func TestMCPGetSummary_UnknownTitle(t *testing.T) {
	deps, _ := newTestMCPDeps(t)
	handler := mcpGetSummary(deps)

	result, err := handler(context.Background(), callToolRequest(map[string]any{
		"title": "Necunoscut",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if result.IsError {
		t.Fatal("unknown title should not be a tool error")
	}
	if textContent(t, result) != library.SummaryNotFound {
		t.Errorf("text = %q", textContent(t, result))
	}
}

func TestMCPChat_LogsInteraction(t *testing.T) {
	deps, log := newTestMCPDeps(t)
	handler := mcpChat(deps)

	result, err := handler(context.Background(), callToolRequest(map[string]any{
		"message": "vreau o aventură cu Bilbo",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	var chatResult librarian.Result
	if err := json.Unmarshal([]byte(textContent(t, result)), &chatResult); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if !strings.HasPrefix(chatResult.Reply, "Îți recomand: ") {
		t.Errorf("reply = %q", chatResult.Reply)
	}

	n, err := log.CountInteractions()
	if err != nil {
		t.Fatalf("CountInteractions: %v", err)
	}
	if n != 1 {
		t.Errorf("interaction count = %d, want 1", n)
	}
}

func TestMCPResourceBooks(t *testing.T) {
	deps, _ := newTestMCPDeps(t)
	handler := mcpResourceBooks(deps)

	req := mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{URI: "library://books"},
	}

	contents, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %+v", contents)
	}
	text := contents[0].(mcp.TextResourceContents).Text

	var titles []string
	if err := json.Unmarshal([]byte(text), &titles); err != nil {
		t.Fatalf("decoding titles: %v", err)
	}
	if len(titles) != 2 || titles[0] != "The Hobbit" {
		t.Errorf("titles = %v", titles)
	}
}

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/apetrei/librarian/internal/librarian"
	"github.com/apetrei/librarian/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Service *librarian.Service
	Log     *storage.Store // optional interaction log
}

// NewMCPServer creates an MCP server with the librarian tools and resources
// registered. It is served over stdio alongside the HTTP listener.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"librarian",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("Smart Librarian — recomandă cărți din biblioteca locală și oferă rezumate."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("recommend_books",
			mcp.WithDescription("Recommend book titles from the local library matching a free-text query."),
			mcp.WithString("query", mcp.Description("What the reader is looking for"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of titles (default 3)")),
		),
		mcpRecommendBooks(deps),
	)

	s.AddTool(
		mcp.NewTool(librarian.ToolGetSummary,
			mcp.WithDescription("Return the full summary for an exact book title from the local library."),
			mcp.WithString("title", mcp.Description("Exact book title"), mcp.Required()),
		),
		mcpGetSummary(deps),
	)

	s.AddTool(
		mcp.NewTool("chat",
			mcp.WithDescription("Ask the librarian for a recommendation with a full conversational reply."),
			mcp.WithString("message", mcp.Description("The reader's message"), mcp.Required()),
		),
		mcpChat(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"library://books",
			"Library Books",
			mcp.WithResourceDescription("All book titles in the local library"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceBooks(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"library://recent",
			"Recent Interactions",
			mcp.WithResourceDescription("Last 10 logged exchanges (queries only)"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRecent(deps),
	)

	return s
}

func mcpRecommendBooks(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		limit := req.GetInt("limit", 3)
		if limit <= 0 {
			limit = 3
		}
		if limit > 10 {
			limit = 10
		}

		titles := deps.Service.Recommend(ctx, query, limit)
		if titles == nil {
			titles = []string{}
		}

		b, err := json.Marshal(titles)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal titles: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpGetSummary(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		title, err := req.RequireString("title")
		if err != nil {
			return mcpError("title is required"), nil
		}
		// Unknown titles yield the not-found sentinel text, not an error.
		return mcpText(deps.Service.Store().Summary(title)), nil
	}
}

func mcpChat(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}

		result := deps.Service.ChatWithHistory(ctx, []librarian.Turn{{Role: "user", Content: message}})

		if deps.Log != nil {
			logErr := deps.Log.SaveInteraction(storage.Interaction{
				ID:               uuid.NewString(),
				CreatedAt:        time.Now(),
				Source:           "mcp",
				UserQuery:        message,
				Reply:            result.Reply,
				RecommendedTitle: result.RecommendedTitle,
			})
			if logErr != nil {
				slog.Warn("saving interaction failed", "error", logErr)
			}
		}

		b, err := json.Marshal(result)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceBooks(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(deps.Service.Store().Titles())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal titles: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpResourceRecent(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		if deps.Log == nil {
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      req.Params.URI,
					MIMEType: "application/json",
					Text:     "[]",
				},
			}, nil
		}

		interactions, err := deps.Log.GetRecentInteractions(10)
		if err != nil {
			return nil, fmt.Errorf("failed to get recent interactions: %w", err)
		}

		type interactionSummary struct {
			ID        string `json:"id"`
			CreatedAt string `json:"created_at"`
			Query     string `json:"query"`
		}

		summaries := make([]interactionSummary, len(interactions))
		for i, ix := range interactions {
			query := ix.UserQuery
			if utf8.RuneCountInString(query) > 200 {
				runes := []rune(query)
				query = string(runes[:200]) + "..."
			}
			summaries[i] = interactionSummary{
				ID:        ix.ID,
				CreatedAt: ix.CreatedAt.Format(time.RFC3339),
				Query:     query,
			}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal interactions: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}

// Package api exposes the librarian over HTTP and as an MCP tool server.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/apetrei/librarian/internal/conversation"
	"github.com/apetrei/librarian/internal/cover"
	"github.com/apetrei/librarian/internal/librarian"
	"github.com/apetrei/librarian/internal/library"
	"github.com/apetrei/librarian/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Deps holds the collaborators of the HTTP handler. Log may be nil; logging
// interactions is best-effort and never affects the reply path.
type Deps struct {
	Service       *librarian.Service
	Conversations *conversation.Store
	Log           *storage.Store
}

// NewHandler returns the REST API handler.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(corsAllowAll)

	r.Get("/health", handleHealth)
	r.Get("/summaries", handleSummaries(deps.Service))
	r.Get("/summary/{title}", handleSummary(deps.Service))
	r.Post("/recommend", handleRecommend(deps.Service))
	r.Post("/responses", handleResponses(deps))
	r.Post("/conversations", handleCreateConversation(deps.Conversations))
	r.Get("/conversations/{id}", handleGetConversation(deps.Conversations))
	r.Post("/conversations/message", handlePostMessage(deps))
	r.Post("/cover", handleCover)

	return r
}

// corsAllowAll permits any origin; the API serves local frontends during
// development and carries no credentials.
func corsAllowAll(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleSummaries(svc *librarian.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Store().Books())
	}
}

func handleSummary(svc *librarian.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		title, err := url.PathUnescape(chi.URLParam(r, "title"))
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid title: %v", err)
			return
		}
		summary, ok := svc.Store().Lookup(title)
		if !ok {
			httpError(w, http.StatusNotFound, "not_found_error", "summary not found")
			return
		}
		writeJSON(w, http.StatusOK, library.Book{Title: title, Summary: summary})
	}
}

func handleRecommend(svc *librarian.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		titles := svc.Recommend(r.Context(), req.Query, 3)
		if titles == nil {
			titles = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"recommended_titles": titles})
	}
}

func handleResponses(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []librarian.Turn `json:"messages"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		result := deps.Service.ChatWithHistory(r.Context(), req.Messages)
		logInteraction(deps.Log, lastUserContent(req.Messages), result)
		writeJSON(w, http.StatusOK, result)
	}
}

func handleCreateConversation(store *conversation.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"conversation_id": store.Create()})
	}
}

func handleGetConversation(store *conversation.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		writeJSON(w, http.StatusOK, map[string]any{"messages": store.Get(id)})
	}
}

// handlePostMessage appends a user message to a conversation. A stale or
// unknown conversation id is recovered by creating a fresh conversation and
// retrying, so clients never lose a message to an expired id.
func handlePostMessage(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ConversationID string `json:"conversation_id"`
			Message        string `json:"message"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		id := req.ConversationID
		result, err := deps.Conversations.AddUserMessage(r.Context(), id, req.Message)
		if errors.Is(err, conversation.ErrNotFound) {
			id = deps.Conversations.Create()
			result, err = deps.Conversations.AddUserMessage(r.Context(), id, req.Message)
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "handling message: %v", err)
			return
		}

		logInteraction(deps.Log, req.Message, result)
		writeJSON(w, http.StatusOK, struct {
			librarian.Result
			ConversationID string `json:"conversation_id"`
		}{Result: result, ConversationID: id})
	}
}

func handleCover(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title  string `json:"title"`
		Prompt string `json:"prompt"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	subject := req.Title
	if subject == "" {
		subject = req.Prompt
	}
	writeJSON(w, http.StatusOK, map[string]string{"image_data_url": cover.PlaceholderDataURL(subject)})
}

// --- helpers ---

func logInteraction(log *storage.Store, query string, result librarian.Result) {
	if log == nil {
		return
	}
	err := log.SaveInteraction(storage.Interaction{
		ID:               uuid.NewString(),
		CreatedAt:        time.Now(),
		Source:           "http",
		UserQuery:        query,
		Reply:            result.Reply,
		RecommendedTitle: result.RecommendedTitle,
	})
	if err != nil {
		slog.Warn("saving interaction failed", "error", err)
	}
}

func lastUserContent(turns []librarian.Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == "user" {
			return turns[i].Content
		}
	}
	return ""
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

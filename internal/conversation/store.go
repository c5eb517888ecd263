// Package conversation keeps in-memory chat histories keyed by generated
// identifiers. State lives for the process lifetime only.
package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/apetrei/librarian/internal/librarian"
)

// ErrNotFound is returned for unknown conversation ids. The boundary layer
// recovers by creating a fresh conversation and retrying.
var ErrNotFound = errors.New("conversation not found")

const replyEmptyMessage = "Mesaj gol."

// Responder produces the assistant reply for a conversation history.
type Responder interface {
	ChatWithHistory(ctx context.Context, turns []librarian.Turn) librarian.Result
}

// Store owns the conversation map. Calls against different ids are safe;
// concurrent messages to the same id are last-writer-wins (single writer per
// conversation is assumed by clients).
type Store struct {
	mu        sync.Mutex
	responder Responder
	turns     map[string][]librarian.Turn
}

// NewStore creates an empty Store delegating replies to responder.
func NewStore(responder Responder) *Store {
	return &Store{
		responder: responder,
		turns:     make(map[string][]librarian.Turn),
	}
}

// Create registers a new empty conversation and returns its id.
func (s *Store) Create() string {
	id := uuid.NewString()
	s.mu.Lock()
	s.turns[id] = []librarian.Turn{}
	s.mu.Unlock()
	return id
}

// Get returns a copy of the conversation's turns, or an empty slice for
// unknown ids.
func (s *Store) Get(id string) []librarian.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]librarian.Turn, len(s.turns[id]))
	copy(out, s.turns[id])
	return out
}

// AddUserMessage appends a user turn, asks the responder for a reply over the
// full history and appends the assistant turn. Unknown ids fail with
// ErrNotFound; blank content returns a fixed reply without mutating state.
func (s *Store) AddUserMessage(ctx context.Context, id, content string) (librarian.Result, error) {
	content = strings.TrimSpace(content)

	s.mu.Lock()
	history, ok := s.turns[id]
	if !ok {
		s.mu.Unlock()
		return librarian.Result{}, ErrNotFound
	}
	if content == "" {
		s.mu.Unlock()
		return librarian.Result{Reply: replyEmptyMessage}, nil
	}
	history = append(history, librarian.Turn{Role: "user", Content: content})
	s.turns[id] = history
	snapshot := make([]librarian.Turn, len(history))
	copy(snapshot, history)
	s.mu.Unlock()

	// The model call happens outside the lock; same-id writers may interleave.
	result := s.responder.ChatWithHistory(ctx, snapshot)

	s.mu.Lock()
	s.turns[id] = append(s.turns[id], librarian.Turn{Role: "assistant", Content: result.Reply})
	s.mu.Unlock()

	return result, nil
}

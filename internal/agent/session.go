package agent

import (
	"sync"

	"github.com/vyaapari360/munim/internal/llm"
)

// DefaultMaxHistoryMessages caps per-conversation history retained in memory.
const DefaultMaxHistoryMessages = 100

// SessionStore holds per-conversation message history.
// Implementations must be safe for concurrent use.
type SessionStore interface {
	// Get returns the history for a conversation and whether it exists.
	Get(conversationID string) ([]llm.Message, bool)

	// Put replaces the history for a conversation.
	Put(conversationID string, history []llm.Message)
}

// InMemorySessionStore keeps conversation history in process memory.
// History is lost on restart.
type InMemorySessionStore struct {
	mu         sync.RWMutex
	sessions   map[string][]llm.Message
	maxHistory int
}

// NewInMemorySessionStore creates a session store.
// maxHistory <= 0 uses DefaultMaxHistoryMessages.
func NewInMemorySessionStore(maxHistory int) *InMemorySessionStore {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistoryMessages
	}
	return &InMemorySessionStore{
		sessions:   make(map[string][]llm.Message),
		maxHistory: maxHistory,
	}
}

func (s *InMemorySessionStore) Get(conversationID string) ([]llm.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history, ok := s.sessions[conversationID]
	if !ok {
		return nil, false
	}
	out := make([]llm.Message, len(history))
	copy(out, history)
	return out, true
}

func (s *InMemorySessionStore) Put(conversationID string, history []llm.Message) {
	trimmed := trimHistory(history, s.maxHistory)
	out := make([]llm.Message, len(trimmed))
	copy(out, trimmed)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[conversationID] = out
}

// Len returns the number of active conversations.
func (s *InMemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// trimHistory keeps the last max messages.
// Ensures the first kept message has role "user" to avoid protocol violations.
func trimHistory(history []llm.Message, max int) []llm.Message {
	if max <= 0 || len(history) <= max {
		return history
	}
	trimmed := history[len(history)-max:]
	for len(trimmed) > 0 && trimmed[0].Role == llm.RoleAssistant {
		trimmed = trimmed[1:]
	}
	return trimmed
}

// Package session owns per-conversation mutable state. Adapters never hold
// conversation data on their own instances; the caller checks a State out of
// the Store, the adapter mutates it under the session lock, and the Store
// keeps it for the next turn. A session's history shape is fixed by the model
// family that created it.
package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/gptportal/portal-go/internal/llm"
	"github.com/gptportal/portal-go/internal/models"
)

// State is the conversation state for one chat session. Each model family
// maintains its own history representation:
//
//   - Chat: flat role/content pairs (OpenAI chat, Groq, Mistral, DeepSeek,
//     OpenRouter)
//   - Claude: ordered content-block messages
//   - Deepseek: transcript copy carrying the formatted thinking sections
//   - Gemini: a single growing prompt/response string
//   - LastResponseID: response-chain ids for OpenAI reasoning models, keyed
//     by model id
type State struct {
	ID       string
	Provider models.Provider

	Chat           []llm.Message
	Claude         []llm.Message
	Deepseek       []llm.Message
	Gemini         string
	LastResponseID map[string]string

	// Assistants-flow handles, created lazily on first use.
	AssistantID string
	ThreadID    string

	mu sync.Mutex
}

// New creates a session bound to the model family that will drive it.
func New(modelID string) *State {
	return &State{
		ID:             uuid.NewString(),
		Provider:       models.RouteModel(modelID),
		LastResponseID: make(map[string]string),
	}
}

// Lock serializes adapter access to this session. Concurrent requests for the
// same session append in lock order rather than interleaving.
func (s *State) Lock() { s.mu.Lock() }

// Unlock releases the session lock.
func (s *State) Unlock() { s.mu.Unlock() }

// EnsureFamily rejects use of a session by a different model family. A family
// switch requires a fresh session; histories are never reshaped in place.
func (s *State) EnsureFamily(modelID string) error {
	p := models.RouteModel(modelID)
	if p != s.Provider {
		return fmt.Errorf("session %s holds %s history, cannot serve %s model %q",
			s.ID, s.Provider, p, modelID)
	}
	return nil
}

// Store is an in-memory session registry keyed by session id.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*State
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*State)}
}

// Get returns an existing session.
func (st *Store) Get(id string) (*State, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// GetOrCreate returns the session for id, or creates one bound to modelID's
// family when id is empty or unknown.
func (st *Store) GetOrCreate(id, modelID string) *State {
	if id != "" {
		if s, ok := st.Get(id); ok {
			return s
		}
	}

	s := New(modelID)
	if id != "" {
		s.ID = id
	}

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()

	return s
}

// Delete removes a session.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

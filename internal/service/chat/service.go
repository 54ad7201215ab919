package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/code-companion/backend/internal/model/catalog"
	"github.com/zhouzirui/code-companion/backend/internal/model/chat"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionBusy        = errors.New("session is awaiting a response")
	ErrEmptyMessage       = errors.New("message is empty")
	ErrEmptyHistory       = errors.New("history is empty")
	ErrInvalidContextSize = errors.New("context size out of range")
	ErrUnknownModel       = errors.New("unknown model")
	ErrInferenceFailed    = errors.New("inference failed")
)

// Settings are the per-session options the service is created with.
type Settings struct {
	Greeting      string
	ContextWindow int
	ContextMin    int
	ContextMax    int
}

// Service owns every live session and their histories, in memory only.
type Service struct {
	models   catalog.Store
	settings Settings

	mu       sync.RWMutex
	sessions map[string]*chat.Session
}

// NewService bootstraps the in-memory session registry.
func NewService(models catalog.Store, settings Settings) *Service {
	return &Service{
		models:   models,
		settings: settings,
		sessions: make(map[string]*chat.Session),
	}
}

// Settings returns the registry's defaults and bounds.
func (s *Service) Settings() Settings {
	return s.settings
}

// Models returns the model catalog sessions choose from.
func (s *Service) Models() catalog.Store {
	return s.models
}

// CreateSession starts a conversation holding only the greeting. Empty
// modelID and zero contextSize select the defaults.
func (s *Service) CreateSession(_ context.Context, modelID string, contextSize int) (chat.Session, error) {
	if modelID == "" {
		modelID = s.models.Default().ID
	}
	if contextSize == 0 {
		contextSize = s.settings.ContextWindow
	}
	if err := s.validate(modelID, contextSize); err != nil {
		return chat.Session{}, err
	}

	session := &chat.Session{
		ID:          uuid.NewString(),
		Model:       modelID,
		ContextSize: contextSize,
		State:       chat.StateIdle,
		CreatedAt:   time.Now().UTC(),
		History:     chat.NewHistory(s.greeting()),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return session.Clone(), nil
}

// GetSession retrieves a snapshot of a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return session.Clone(), nil
}

// DeleteSession discards a session and its history.
func (s *Service) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

// Transcript returns the session's turns, oldest first.
func (s *Service) Transcript(_ context.Context, sessionID string) ([]chat.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session.History.Turns(), nil
}

// Configure changes the model and/or context size. Empty modelID and zero
// contextSize leave the current value in place.
func (s *Service) Configure(_ context.Context, sessionID, modelID string, contextSize int) (chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}

	if modelID == "" {
		modelID = session.Model
	}
	if contextSize == 0 {
		contextSize = session.ContextSize
	}
	if err := s.validate(modelID, contextSize); err != nil {
		return chat.Session{}, err
	}

	session.Model = modelID
	session.ContextSize = contextSize
	return session.Clone(), nil
}

// BeginTurn moves the session from idle to awaiting a response and appends
// the user's message. The returned snapshot already contains that turn.
func (s *Service) BeginTurn(_ context.Context, sessionID, content string) (chat.Session, error) {
	if strings.TrimSpace(content) == "" {
		return chat.Session{}, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	if session.State == chat.StateAwaitingResponse {
		return chat.Session{}, ErrSessionBusy
	}

	session.History.Append(chat.UserTurn(content))
	session.State = chat.StateAwaitingResponse
	return session.Clone(), nil
}

// CompleteTurn appends the model's reply and returns the session to idle.
func (s *Service) CompleteTurn(_ context.Context, sessionID, content string) (chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	if session.State != chat.StateAwaitingResponse {
		return chat.Session{}, fmt.Errorf("complete turn: session %s is %s", sessionID, session.State)
	}

	session.History.Append(chat.AITurn(content))
	session.State = chat.StateIdle
	return session.Clone(), nil
}

// AbortTurn returns the session to idle after a failed turn. The user's
// message stays in the history.
func (s *Service) AbortTurn(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	session.State = chat.StateIdle
	return nil
}

// Clear resets the history to the greeting alone.
func (s *Service) Clear(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	if session.State == chat.StateAwaitingResponse {
		return chat.Session{}, ErrSessionBusy
	}

	session.History.Reset(s.greeting())
	return session.Clone(), nil
}

// Export renders the history as a downloadable JSON document. It does not
// modify the session.
func (s *Service) Export(ctx context.Context, sessionID string) ([]byte, error) {
	turns, err := s.Transcript(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return chat.EncodeTurns(turns)
}

// Import replaces the history with the turns of an exported document.
func (s *Service) Import(_ context.Context, sessionID string, data []byte) (chat.Session, error) {
	turns, err := chat.DecodeTurns(data)
	if err != nil {
		return chat.Session{}, err
	}
	if len(turns) == 0 {
		return chat.Session{}, ErrEmptyHistory
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	if session.State == chat.StateAwaitingResponse {
		return chat.Session{}, ErrSessionBusy
	}

	session.History.Replace(turns)
	return session.Clone(), nil
}

func (s *Service) greeting() chat.Turn {
	return chat.AITurn(s.settings.Greeting)
}

func (s *Service) validate(modelID string, contextSize int) error {
	if _, ok := s.models.FindByID(modelID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownModel, modelID)
	}
	if contextSize < s.settings.ContextMin || contextSize > s.settings.ContextMax {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidContextSize, contextSize, s.settings.ContextMin, s.settings.ContextMax)
	}
	return nil
}

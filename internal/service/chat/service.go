package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/feels/backend/internal/model/chat"
	"github.com/zhouzirui/feels/backend/internal/model/profile"
)

var (
	ErrProfileRequired = errors.New("profile id is required")
	ErrProfileNotFound = errors.New("profile not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrMessageNotFound = errors.New("message not found")
)

// Service encapsulates conversation state management.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]chat.Session
	messages map[string][]chat.Message
	profiles profile.Store
	logger   *zap.Logger
}

// NewService bootstraps the in-memory chat service. A nil profiles store accepts any profile id.
func NewService(profiles profile.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		sessions: make(map[string]chat.Session),
		messages: make(map[string][]chat.Message),
		profiles: profiles,
		logger:   logger,
	}
}

// CreateSession provisions an anonymous session bound to a chat profile.
func (s *Service) CreateSession(_ context.Context, profileID string) (chat.Session, error) {
	if profileID == "" {
		return chat.Session{}, ErrProfileRequired
	}
	if s.profiles != nil {
		if _, ok := s.profiles.FindByID(profileID); !ok {
			return chat.Session{}, ErrProfileNotFound
		}
	}

	session := chat.Session{
		ID:        uuid.NewString(),
		ProfileID: profileID,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.messages[session.ID] = make([]chat.Message, 0, 16)
	s.mu.Unlock()

	s.logger.Info("session created", zap.String("session", session.ID), zap.String("profile", profileID))
	return session, nil
}

// SaveMessage appends a message to the session history and returns it with its assigned id.
func (s *Service) SaveMessage(_ context.Context, message chat.Message) (chat.Message, error) {
	if message.SessionID == "" {
		return chat.Message{}, ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[message.SessionID]; !ok {
		return chat.Message{}, ErrSessionNotFound
	}

	message.ID = uuid.NewString()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	s.messages[message.SessionID] = append(s.messages[message.SessionID], message)
	return message, nil
}

// AttachSegments stores speech segments on a previously saved message.
func (s *Service) AttachSegments(_ context.Context, sessionID, messageID string, segments []chat.Segment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	for i := range messages {
		if messages[i].ID == messageID {
			messages[i].Segments = append([]chat.Segment(nil), segments...)
			return nil
		}
	}
	return ErrMessageNotFound
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// LoadTranscript returns stored messages for the provided session.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

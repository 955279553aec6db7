package conversation

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/zhouzirui/feels/backend/internal/model/chat"
	"github.com/zhouzirui/feels/backend/internal/model/profile"
	"github.com/zhouzirui/feels/backend/internal/observability"
	chatService "github.com/zhouzirui/feels/backend/internal/service/chat"
	"github.com/zhouzirui/feels/backend/internal/service/processor"
	"github.com/zhouzirui/feels/backend/internal/service/prosody"
)

// ErrProfileMissing 表示会话绑定的配置已不存在。
var ErrProfileMissing = errors.New("session profile not found")

// Responder 是生成助手回复的大模型服务。
type Responder interface {
	StreamingEnabled() bool
	GenerateResponse(ctx context.Context, sessionID string, p profile.Profile, messages []chat.Message, userMessage string) (*schema.Message, error)
	StreamResponse(ctx context.Context, p profile.Profile, messages []chat.Message, userMessage string) (*schema.StreamReader[*schema.Message], error)
}

// Turn 是一轮对话的结果。
type Turn struct {
	Session  chat.Session
	Profile  profile.Profile
	Reply    chat.Message
	Segments []chat.Segment
	Streamed bool
}

// Service 串联一轮对话：保存用户消息，生成回复，把回复拆成带情绪的朗读分段。
type Service struct {
	responder Responder
	chats     *chatService.Service
	profiles  profile.Store
	processor *processor.Service
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewService 组装对话服务。responder 为 nil 时 Respond 返回错误。
func NewService(responder Responder, chats *chatService.Service, profiles profile.Store, proc *processor.Service, metrics *observability.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if proc == nil {
		proc = processor.NewService(nil, nil, metrics, logger)
	}
	return &Service{
		responder: responder,
		chats:     chats,
		profiles:  profiles,
		processor: proc,
		metrics:   metrics,
		logger:    logger,
	}
}

// Available 表示是否配置了大模型。
func (s *Service) Available() bool {
	return s != nil && s.responder != nil
}

// Resolve 返回会话及其绑定的配置。
func (s *Service) Resolve(ctx context.Context, sessionID string) (chat.Session, profile.Profile, error) {
	session, err := s.chats.GetSession(ctx, sessionID)
	if err != nil {
		return chat.Session{}, profile.Profile{}, err
	}
	p, ok := s.profiles.FindByID(session.ProfileID)
	if !ok {
		return chat.Session{}, profile.Profile{}, fmt.Errorf("%w: %s", ErrProfileMissing, session.ProfileID)
	}
	return session, p, nil
}

// Respond 执行一轮对话。onDelta 在流式输出时收到每个增量片段，可以为 nil。
func (s *Service) Respond(ctx context.Context, sessionID, userMessage string, onDelta func(string)) (turn Turn, err error) {
	if !s.Available() {
		return Turn{}, errors.New("ai service unavailable")
	}

	session, p, err := s.Resolve(ctx, sessionID)
	if err != nil {
		return Turn{}, err
	}
	defer func() { s.metrics.ObserveChatTurn(p.ID, err) }()

	messages, err := s.chats.LoadTranscript(ctx, session.ID)
	if err != nil {
		return Turn{}, err
	}

	// When the client already persisted the message via REST, avoid duplicating it.
	history := messages
	if hasMatchingUserMessage(messages, sessionID, userMessage) {
		history = messages[:len(messages)-1]
	} else if _, err := s.chats.SaveMessage(ctx, chat.Message{SessionID: sessionID, Sender: "user", Content: userMessage}); err != nil {
		s.logger.Warn("failed to save user message", zap.String("session", sessionID), zap.Error(err))
	}

	var response *schema.Message
	streamed := s.responder.StreamingEnabled() && onDelta != nil
	if streamed {
		response, err = s.stream(ctx, p, history, userMessage, onDelta)
	} else {
		response, err = s.responder.GenerateResponse(ctx, sessionID, p, history, userMessage)
	}
	if err != nil {
		return Turn{}, err
	}

	reply, err := s.chats.SaveMessage(ctx, chat.Message{SessionID: sessionID, Sender: "assistant", Content: response.Content})
	if err != nil {
		return Turn{}, err
	}

	segments := Segments(s.processor.Process(ctx, reply.Content))
	if err := s.chats.AttachSegments(ctx, sessionID, reply.ID, segments); err != nil {
		s.logger.Warn("failed to attach segments", zap.String("session", sessionID), zap.Error(err))
	}
	reply.Segments = segments

	s.logger.Info("chat turn completed",
		zap.String("session", sessionID),
		zap.String("profile", p.ID),
		zap.Int("segments", len(segments)),
		zap.Bool("streamed", streamed))

	return Turn{Session: session, Profile: p, Reply: reply, Segments: segments, Streamed: streamed}, nil
}

func (s *Service) stream(ctx context.Context, p profile.Profile, history []chat.Message, userMessage string, onDelta func(string)) (*schema.Message, error) {
	stream, err := s.responder.StreamResponse(ctx, p, history, userMessage)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 8)
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return nil, recvErr
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			onDelta(chunk.Content)
		}
	}

	if len(chunks) == 0 {
		return schema.AssistantMessage("", nil), nil
	}
	return schema.ConcatMessages(chunks)
}

// Segments 把处理结果转换为带语气提示的朗读分段。
func Segments(results []processor.ProcessedChunk) []chat.Segment {
	segments := make([]chat.Segment, len(results))
	for i, r := range results {
		segments[i] = chat.Segment{
			OriginalChunk:  r.OriginalChunk,
			ProcessedChunk: r.ProcessedChunk,
			Sentiment:      r.Sentiment,
			Exaggeration:   prosody.Exaggeration(r.Sentiment),
		}
	}
	return segments
}

func hasMatchingUserMessage(messages []chat.Message, sessionID, content string) bool {
	if len(messages) == 0 {
		return false
	}

	last := messages[len(messages)-1]
	return last.SessionID == sessionID && last.Sender == "user" && last.Content == content
}

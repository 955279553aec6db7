package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/feels/backend/internal/analysis/emotion"
	"github.com/zhouzirui/feels/backend/internal/model/chat"
	"github.com/zhouzirui/feels/backend/internal/model/profile"
	chatservice "github.com/zhouzirui/feels/backend/internal/service/chat"
	"github.com/zhouzirui/feels/backend/internal/service/conversation"
	"github.com/zhouzirui/feels/backend/internal/service/processor"
)

func boolPtr(v bool) *bool { return &v }

type fakeResponder struct{ reply string }

func (f fakeResponder) StreamingEnabled() bool { return true }

func (f fakeResponder) GenerateResponse(context.Context, string, profile.Profile, []chat.Message, string) (*schema.Message, error) {
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f fakeResponder) StreamResponse(context.Context, profile.Profile, []chat.Message, string) (*schema.StreamReader[*schema.Message], error) {
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage(f.reply, nil)}), nil
}

func TestApplyConfigUpdatesState(t *testing.T) {
	state := newConnectionState("session", "qwen/qwen3-8b")

	applyConfig(state, ConfigMessage{StreamMode: boolPtr(false), Segments: boolPtr(false)})

	if state.streamMode {
		t.Fatalf("expected stream mode disabled")
	}
	if state.segments {
		t.Fatalf("expected segments disabled")
	}

	applyConfig(state, ConfigMessage{})
	if state.streamMode || state.segments {
		t.Fatalf("empty config must not change state")
	}
}

func startServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	profiles := profile.NewMemoryStore(profile.Seed())
	chats := chatservice.NewService(profiles, nil)
	proc := processor.NewService(nil, emotion.NewClassifier(emotion.LexiconBackend, emotion.NewLexicon(), nil), nil, nil)
	convo := conversation.NewService(fakeResponder{reply: "So sorry, my fault it was."}, chats, profiles, proc, nil, nil)

	session, err := chats.CreateSession(context.Background(), profiles.Default().ID)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	r := chi.NewRouter()
	New(convo, nil, nil).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, session.ID
}

type result struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

func readUntil(t *testing.T, conn *websocket.Conn, kind string) result {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg result
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read %s: %v", kind, err)
		}
		if msg.Type == "error" {
			t.Fatalf("unexpected error message: %v", msg.Data)
		}
		if msg.Data["type"] == kind {
			return msg
		}
	}
}

func TestWebSocketTextTurn(t *testing.T) {
	srv, sessionID := startServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readUntil(t, conn, "connected")

	data, _ := json.Marshal(TextMessage{Text: "you broke it"})
	if err := conn.WriteJSON(inboundMessage{Type: "text", Data: data}); err != nil {
		t.Fatalf("write: %v", err)
	}

	ai := readUntil(t, conn, "ai")
	if ai.Data["text"] != "So sorry, my fault it was." {
		t.Fatalf("unexpected ai reply: %v", ai.Data)
	}

	segments := readUntil(t, conn, "segments")
	items, ok := segments.Data["segments"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("unexpected segments: %v", segments.Data)
	}
	sentiment := items[0].(map[string]any)["sentiment"].(map[string]any)
	if sentiment["emotion"] != string(emotion.Remorse) {
		t.Fatalf("expected remorse, got %v", sentiment)
	}
}

func TestWebSocketUnknownSession(t *testing.T) {
	srv, _ := startServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", resp)
	}
}

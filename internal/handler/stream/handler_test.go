package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/feels/backend/internal/analysis/emotion"
	"github.com/zhouzirui/feels/backend/internal/model/chat"
	"github.com/zhouzirui/feels/backend/internal/model/profile"
	chatservice "github.com/zhouzirui/feels/backend/internal/service/chat"
	"github.com/zhouzirui/feels/backend/internal/service/conversation"
	"github.com/zhouzirui/feels/backend/internal/service/processor"
)

type fakeResponder struct {
	reply     string
	streaming bool
}

func (f fakeResponder) StreamingEnabled() bool { return f.streaming }

func (f fakeResponder) GenerateResponse(context.Context, string, profile.Profile, []chat.Message, string) (*schema.Message, error) {
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f fakeResponder) StreamResponse(context.Context, profile.Profile, []chat.Message, string) (*schema.StreamReader[*schema.Message], error) {
	parts := strings.SplitAfter(f.reply, " ")
	chunks := make([]*schema.Message, len(parts))
	for i, p := range parts {
		chunks[i] = schema.AssistantMessage(p, nil)
	}
	return schema.StreamReaderFromArray(chunks), nil
}

func setup(t *testing.T, responder conversation.Responder) (*chi.Mux, string) {
	t.Helper()
	profiles := profile.NewMemoryStore(profile.Seed())
	chats := chatservice.NewService(profiles, nil)
	proc := processor.NewService(nil, emotion.NewClassifier(emotion.LexiconBackend, emotion.NewLexicon(), nil), nil, nil)
	convo := conversation.NewService(responder, chats, profiles, proc, nil, nil)

	session, err := chats.CreateSession(context.Background(), "qwen/qwen3-14b")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	r := chi.NewRouter()
	New(convo, nil, nil).RegisterRoutes(r)
	return r, session.ID
}

func readEvents(t *testing.T, body string) []StreamResponse {
	t.Helper()
	var events []StreamResponse
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev StreamResponse
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("decode event %q: %v", line, err)
		}
		events = append(events, ev)
	}
	return events
}

func TestStreamEmitsSegmentsAfterMessage(t *testing.T) {
	r, sessionID := setup(t, fakeResponder{reply: "Thank you, grateful I am.", streaming: true})

	req := httptest.NewRequest(http.MethodGet, "/stream/"+sessionID+"?message="+url.QueryEscape("thanks!"), nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if ct := resp.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	events := readEvents(t, resp.Body.String())
	var names []string
	for _, ev := range events {
		if ev.Event != "delta" {
			names = append(names, ev.Event)
		}
	}
	if strings.Join(names, ",") != "start,message,segments,end" {
		t.Fatalf("unexpected event order: %v", names)
	}
	if events[1].Event != "delta" {
		t.Fatalf("expected deltas after start, got %s", events[1].Event)
	}

	segments := events[len(events)-2]
	if segments.Segments == nil || len(*segments.Segments) != 1 || (*segments.Segments)[0].Sentiment.Emotion != emotion.Gratitude {
		t.Fatalf("unexpected segments event: %+v", segments)
	}
	if segments.MessageID == "" {
		t.Fatal("segments event should reference the assistant message")
	}
}

func TestStreamEmptyReplyStillCarriesSegments(t *testing.T) {
	r, sessionID := setup(t, fakeResponder{reply: ""})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/stream/"+sessionID+"?message=hi", nil))

	var line string
	for _, l := range strings.Split(resp.Body.String(), "\n") {
		if strings.Contains(l, `"event":"segments"`) {
			line = l
		}
	}
	if !strings.Contains(line, `"segments":[]`) {
		t.Fatalf("expected empty segments array, got %q", line)
	}
	for _, ev := range readEvents(t, resp.Body.String()) {
		if ev.Event != "segments" && ev.Segments != nil {
			t.Fatalf("%s event should not carry segments", ev.Event)
		}
	}
}

func TestStreamNonStreamingResponder(t *testing.T) {
	r, sessionID := setup(t, fakeResponder{reply: "Hmm."})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/stream/"+sessionID+"?message=hi", nil))

	for _, ev := range readEvents(t, resp.Body.String()) {
		if ev.Event == "delta" {
			t.Fatal("unexpected delta in non-streaming mode")
		}
	}
}

func TestStreamValidation(t *testing.T) {
	r, sessionID := setup(t, fakeResponder{reply: "x"})

	cases := []struct {
		path string
		want int
	}{
		{path: "/stream/" + sessionID, want: http.StatusBadRequest},
		{path: "/stream/missing?message=hi", want: http.StatusNotFound},
	}
	for _, tc := range cases {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if resp.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.path, tc.want, resp.Code)
		}
	}
}

func TestStreamUnavailableWithoutResponder(t *testing.T) {
	profiles := profile.NewMemoryStore(profile.Seed())
	convo := conversation.NewService(nil, chatservice.NewService(profiles, nil), profiles, nil, nil, nil)

	r := chi.NewRouter()
	New(convo, nil, nil).RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/stream/abc?message=hi", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zhouzirui/feels/backend/internal/analysis/emotion"
	"github.com/zhouzirui/feels/backend/internal/model/profile"
	"github.com/zhouzirui/feels/backend/internal/observability"
	chatService "github.com/zhouzirui/feels/backend/internal/service/chat"
	"github.com/zhouzirui/feels/backend/internal/service/conversation"
	"github.com/zhouzirui/feels/backend/internal/service/processor"
)

func newTestRouter() http.Handler {
	profiles := profile.NewMemoryStore(profile.Seed())
	chats := chatService.NewService(profiles, nil)
	metrics := observability.NewMetrics("feels", prometheus.NewRegistry())
	proc := processor.NewService(nil, emotion.NewClassifier(emotion.LexiconBackend, emotion.NewLexicon(), nil), metrics, nil)
	return NewRouter(Deps{
		Profiles:      profiles,
		Chats:         chats,
		Conversations: conversation.NewService(nil, chats, profiles, proc, metrics, nil),
		Processor:     proc,
		Metrics:       metrics,
	})
}

func TestRouterRoutes(t *testing.T) {
	r := newTestRouter()

	cases := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{method: http.MethodGet, path: "/api/health", want: http.StatusOK},
		{method: http.MethodGet, path: "/api/profiles", want: http.StatusOK},
		{method: http.MethodPost, path: "/api/session", body: `{}`, want: http.StatusCreated},
		{method: http.MethodPost, path: "/api/process", body: `{"message":"hello"}`, want: http.StatusOK},
		{method: http.MethodGet, path: "/api/stream/abc?message=hi", want: http.StatusServiceUnavailable},
		{method: http.MethodOptions, path: "/api/process", want: http.StatusNoContent},
		{method: http.MethodGet, path: "/metrics", want: http.StatusOK},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, bytes.NewReader([]byte(tc.body)))
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		if resp.Code != tc.want {
			t.Errorf("%s %s: expected %d, got %d", tc.method, tc.path, tc.want, resp.Code)
		}
	}
}

func TestMetricsReflectProcessing(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/process", bytes.NewReader([]byte(`{"message":"hi there"}`)))
	r.ServeHTTP(httptest.NewRecorder(), req)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !bytes.Contains(resp.Body.Bytes(), []byte("feels_messages_processed_total 1")) {
		t.Fatalf("expected processed counter in metrics output:\n%s", resp.Body.String())
	}
}

package process

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/feels/backend/internal/analysis/emotion"
	"github.com/zhouzirui/feels/backend/internal/service/processor"
)

func newRouter(classifier *emotion.Classifier) *chi.Mux {
	r := chi.NewRouter()
	New(processor.NewService(nil, classifier, nil, nil)).RegisterRoutes(r)
	return r
}

func doProcess(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/process", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestProcessReturnsSegments(t *testing.T) {
	r := newRouter(emotion.NewClassifier(emotion.LexiconBackend, emotion.NewLexicon(), nil))

	resp := doProcess(r, `{"message":"I'm so excited for the concert tonight!"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		Backend  string `json:"backend"`
		Segments []struct {
			OriginalChunk  string  `json:"original_chunk"`
			ProcessedChunk string  `json:"processed_chunk"`
			Exaggeration   float32 `json:"exaggeration"`
			Sentiment      struct {
				Emotion string  `json:"emotion"`
				Score   float32 `json:"score"`
			} `json:"sentiment"`
		} `json:"segments"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Backend != emotion.LexiconBackend || len(body.Segments) != 1 {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
	seg := body.Segments[0]
	if seg.ProcessedChunk != "Im so excited for the concert tonight!" || seg.Sentiment.Emotion != "excitement" {
		t.Fatalf("unexpected segment: %+v", seg)
	}
}

func TestProcessUninitializedClassifier(t *testing.T) {
	r := newRouter(emotion.Uninitialized(emotion.ONNXBackend, errors.New("missing model"), nil))

	resp := doProcess(r, `{"message":"hello"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !bytes.Contains(resp.Body.Bytes(), []byte(`"sentiment":{"error":"Classifier not initialized. Please check logs for details."}`)) {
		t.Fatalf("expected error sentiment, got %s", resp.Body.String())
	}
}

func TestProcessEmptyMessage(t *testing.T) {
	r := newRouter(emotion.NewClassifier(emotion.LexiconBackend, emotion.NewLexicon(), nil))

	resp := doProcess(r, `{"message":""}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !bytes.Contains(resp.Body.Bytes(), []byte(`"segments":[]`)) {
		t.Fatalf("expected empty segments, got %s", resp.Body.String())
	}
}

func TestProcessRejectsBadBody(t *testing.T) {
	r := newRouter(nil)
	for _, body := range []string{`{}`, `not json`} {
		if resp := doProcess(r, body); resp.Code != http.StatusBadRequest {
			t.Fatalf("%q: expected 400, got %d", body, resp.Code)
		}
	}
}

package config

import (
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ARK_API_KEY", "ARK_ACCESS_KEY", "ARK_SECRET_KEY", "Model", "ARK_TEMPERATURE",
		"ARK_TOP_P", "ARK_MAX_TOKENS", "ARK_STREAM", "AI_SYSTEM_PROMPT", "ARK_USE_PROFILE_MODEL", "CHUNK_MAX_TOKENS",
		"EMOTION_BACKEND", "EMOTION_MODEL_PATH", "EMOTION_ONNX_FILE", "EMOTION_TOKENIZER_PATH",
		"LOG_LEVEL", "LOG_FORMAT", "METRICS_NAMESPACE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("expected default addr :8080, got %s", cfg.Server.Addr)
	}
	if cfg.AI.Temperature == nil || *cfg.AI.Temperature != 0 {
		t.Fatalf("expected default temperature 0, got %v", cfg.AI.Temperature)
	}
	if cfg.AI.SystemPrompt != DefaultSystemPrompt {
		t.Fatalf("unexpected system prompt: %q", cfg.AI.SystemPrompt)
	}
	if !cfg.AI.StreamResponse {
		t.Fatal("expected streaming enabled by default")
	}
	if cfg.AI.Enabled() {
		t.Fatal("AI should be disabled without credentials")
	}

	p := cfg.Pipeline
	if p.ChunkMaxTokens != 200 || p.EmotionBackend != BackendONNX || p.EmotionONNXFile != "model.onnx" {
		t.Fatalf("unexpected pipeline defaults: %+v", p)
	}
	if p.EmotionTokenizer != filepath.Join(p.EmotionModelPath, "tokenizer.json") {
		t.Fatalf("tokenizer path should default next to the model, got %s", p.EmotionTokenizer)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Fatalf("unexpected log defaults: %+v", cfg.Log)
	}
	if cfg.Metrics.Namespace != "feels" {
		t.Fatalf("unexpected metrics namespace: %s", cfg.Metrics.Namespace)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("ARK_API_KEY", "key")
	t.Setenv("Model", "ep-123")
	t.Setenv("ARK_TEMPERATURE", "0.7")
	t.Setenv("CHUNK_MAX_TOKENS", "64")
	t.Setenv("EMOTION_BACKEND", "Lexicon")
	t.Setenv("EMOTION_TOKENIZER_PATH", "/opt/tok.json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}
	if !cfg.AI.Enabled() {
		t.Fatal("expected AI enabled with api key and model")
	}
	if *cfg.AI.Temperature != 0.7 {
		t.Fatalf("unexpected temperature: %v", *cfg.AI.Temperature)
	}
	if cfg.Pipeline.ChunkMaxTokens != 64 || cfg.Pipeline.EmotionBackend != BackendLexicon {
		t.Fatalf("unexpected pipeline: %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.EmotionTokenizer != "/opt/tok.json" {
		t.Fatalf("unexpected tokenizer path: %s", cfg.Pipeline.EmotionTokenizer)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":             "80 80",
		"ARK_TEMPERATURE":  "warm",
		"ARK_STREAM":       "sometimes",
		"CHUNK_MAX_TOKENS": "0",
		"EMOTION_BACKEND":  "bert",
	}
	for key, value := range cases {
		clearEnv(t)
		t.Setenv(key, value)
		if _, err := Load(); err == nil {
			t.Errorf("expected error for %s=%q", key, value)
		}
	}
}

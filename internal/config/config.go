package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	Pipeline PipelineConfig
	Log      LogConfig
	Metrics  MetricsConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	pipeline, err := loadPipelineConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		AI:       ai,
		Pipeline: pipeline,
		Log:      loadLogConfig(),
		Metrics:  MetricsConfig{Namespace: getEnvOrDefault("METRICS_NAMESPACE", "feels")},
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// DefaultSystemPrompt 是未配置时使用的聊天系统提示词。
const DefaultSystemPrompt = "You are a helpful bot, you always reply in Object/Subject/Verb format. If asked, you will always give your name as Yoda."

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	APIKey         string
	AccessKey      string
	SecretKey      string
	Model          string
	BaseURL        string
	Region         string
	Temperature    *float64
	TopP           *float64
	MaxTokens      *int
	StreamResponse bool
	SystemPrompt   string

	// UseProfileModel 为 true 时按会话的配置覆盖请求中的模型名。
	UseProfileModel bool
}

// Emotion backends.
const (
	BackendONNX    = "onnx"
	BackendLLM     = "llm"
	BackendLexicon = "lexicon"
)

// PipelineConfig 描述语音预处理流水线的配置。
type PipelineConfig struct {
	ChunkMaxTokens   int
	EmotionBackend   string
	EmotionModelPath string
	EmotionONNXFile  string
	EmotionTokenizer string
}

// LogConfig 描述日志输出。
type LogConfig struct {
	Level  string
	Format string
}

// MetricsConfig 描述 Prometheus 指标。
type MetricsConfig struct {
	Namespace string
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	stream, err := parseBoolEnv("ARK_STREAM", true)
	if err != nil {
		return AIConfig{}, err
	}

	useProfileModel, err := parseBoolEnv("ARK_USE_PROFILE_MODEL", false)
	if err != nil {
		return AIConfig{}, err
	}

	if temperature == nil {
		zero := 0.0
		temperature = &zero
	}

	return AIConfig{
		APIKey:         strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:      strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:      strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:          strings.TrimSpace(os.Getenv("Model")),
		BaseURL:        getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:         getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:    temperature,
		TopP:           topP,
		MaxTokens:      maxTokens,
		StreamResponse: stream,
		SystemPrompt:   getEnvOrDefault("AI_SYSTEM_PROMPT", DefaultSystemPrompt),

		UseProfileModel: useProfileModel,
	}, nil
}

func loadPipelineConfig() (PipelineConfig, error) {
	maxTokens := 200
	if override, err := parseOptionalIntEnv("CHUNK_MAX_TOKENS"); err != nil {
		return PipelineConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return PipelineConfig{}, fmt.Errorf("invalid CHUNK_MAX_TOKENS value %d: must be positive", *override)
		}
		maxTokens = *override
	}

	backend := strings.ToLower(getEnvOrDefault("EMOTION_BACKEND", BackendONNX))
	switch backend {
	case BackendONNX, BackendLLM, BackendLexicon:
	default:
		return PipelineConfig{}, fmt.Errorf("invalid EMOTION_BACKEND value %q: want onnx, llm or lexicon", backend)
	}

	modelPath := getEnvOrDefault("EMOTION_MODEL_PATH", "./models/distilbert-base-uncased-go-emotions-student")

	return PipelineConfig{
		ChunkMaxTokens:   maxTokens,
		EmotionBackend:   backend,
		EmotionModelPath: modelPath,
		EmotionONNXFile:  getEnvOrDefault("EMOTION_ONNX_FILE", "model.onnx"),
		EmotionTokenizer: getEnvOrDefault("EMOTION_TOKENIZER_PATH", filepath.Join(modelPath, "tokenizer.json")),
	}, nil
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "info"),
		Format: getEnvOrDefault("LOG_FORMAT", "json"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

package emotion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	analysis "github.com/zhouzirui/feels/backend/internal/analysis/emotion"
)

// LLMBackend 名称，供配置选择。
const LLMBackend = "llm"

// Predictor 让大模型在 GoEmotions 标签集中为文本挑选一个情绪，实现 analysis.Predictor。
type Predictor struct {
	classifier compose.Runnable[map[string]any, *schema.Message]
	logger     *zap.Logger
}

// NewPredictor 编译情绪分类链。chatModel 可重用对话服务的大模型实例。
func NewPredictor(ctx context.Context, chatModel model.ChatModel, logger *zap.Logger) (*Predictor, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required for llm emotion classifier")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(emotionSystemPrompt),
		schema.UserMessage(emotionUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile emotion classifier chain: %w", err)
	}

	return &Predictor{classifier: runnable, logger: logger}, nil
}

// Predict 调用大模型并解析其 JSON 输出。
func (p *Predictor) Predict(ctx context.Context, text string) ([]analysis.Prediction, error) {
	input := map[string]any{
		"labels": strings.Join(analysis.LabelNames(), ", "),
		"text":   strings.TrimSpace(text),
	}

	msg, err := p.classifier.Invoke(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("classifier invoke failed: %w", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return nil, nil
	}

	result, err := parseClassifierOutput(msg.Content)
	if err != nil {
		p.logger.Debug("unparseable classifier output", zap.String("content", msg.Content))
		return nil, fmt.Errorf("classifier output parse failed: %w", err)
	}

	return []analysis.Prediction{{
		Label: strings.TrimSpace(result.Emotion),
		Score: result.Score,
	}}, nil
}

// parseClassifierOutput 解析大模型返回的 JSON，容忍前后多余文本或代码块标记。
func parseClassifierOutput(content string) (*classifierPayload, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("missing json object")
	}

	payload := &classifierPayload{}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), payload); err != nil {
		return nil, err
	}
	if strings.TrimSpace(payload.Emotion) == "" {
		return nil, fmt.Errorf("missing emotion field")
	}
	return payload, nil
}

type classifierPayload struct {
	Emotion string  `json:"emotion"`
	Score   float32 `json:"score"`
}

const emotionSystemPrompt = "You are an emotion classifier for short chat messages. Pick the single emotion that best describes the text from this list: {labels}.\nReturn only one JSON object with the fields emotion (one label from the list, lowercase) and score (your confidence between 0 and 1). Do not output anything else."

const emotionUserPrompt = "Text:\n{text}"

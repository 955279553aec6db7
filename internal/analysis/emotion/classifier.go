package emotion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
)

const (
	msgNotInitialized = "Classifier not initialized. Please check logs for details."
	msgNoPredictions  = "No predictions returned by the classifier."
)

// ErrNotInitialized 表示分类器在启动时未能加载模型。
var ErrNotInitialized = errors.New("emotion classifier not initialized")

// Prediction 是后端返回的单个标签及其置信度。
type Prediction struct {
	Label string
	Score float32
}

// Predictor 抽象具体的推理后端（ONNX 模型、大模型、关键词词典）。
// 实现需要支持并发调用。
type Predictor interface {
	Predict(ctx context.Context, text string) ([]Prediction, error)
}

// Sentiment 是单次分类的结果：成功时包含 Emotion/Score，失败时只有 Err。
type Sentiment struct {
	Emotion Label
	Score   float32
	Err     string
}

// OK 报告结果是否可用。
func (s Sentiment) OK() bool {
	return s.Err == ""
}

type sentimentPayload struct {
	Emotion Label    `json:"emotion,omitempty"`
	Score   *float32 `json:"score,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// MarshalJSON 输出 {"emotion","score"} 或 {"error"} 两种形态之一。
func (s Sentiment) MarshalJSON() ([]byte, error) {
	if !s.OK() {
		return json.Marshal(sentimentPayload{Error: s.Err})
	}
	score := s.Score
	return json.Marshal(sentimentPayload{Emotion: s.Emotion, Score: &score})
}

// UnmarshalJSON 解析 MarshalJSON 的输出。
func (s *Sentiment) UnmarshalJSON(data []byte) error {
	var payload sentimentPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	*s = Sentiment{Emotion: payload.Emotion, Err: payload.Error}
	if payload.Score != nil {
		s.Score = *payload.Score
	}
	return nil
}

func failure(msg string) Sentiment {
	return Sentiment{Err: msg}
}

// Classifier 持有已加载的推理后端，对短文本给出 top-1 情绪标签。
// 后端不可用时不会报错，而是返回带 Err 的 Sentiment。
type Classifier struct {
	predictor Predictor
	backend   string
	initErr   error
	logger    *zap.Logger
}

// NewClassifier 使用给定后端创建分类器。predictor 为 nil 时视为未初始化。
func NewClassifier(backend string, predictor Predictor, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Classifier{
		predictor: predictor,
		backend:   backend,
		logger:    logger,
	}
	if predictor == nil {
		c.initErr = ErrNotInitialized
	}
	return c
}

// Uninitialized 记录一次初始化失败，之后每次调用都返回未初始化错误。
func Uninitialized(backend string, err error, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err == nil {
		err = ErrNotInitialized
	}
	logger.Error("emotion classifier initialization failed",
		zap.String("backend", backend),
		zap.Error(err))
	return &Classifier{backend: backend, initErr: err, logger: logger}
}

// Ready 表示分类器是否可以执行推理。
func (c *Classifier) Ready() bool {
	return c != nil && c.initErr == nil && c.predictor != nil
}

// Backend 返回后端名称。
func (c *Classifier) Backend() string {
	if c == nil {
		return ""
	}
	return c.backend
}

// Classify 返回 text 的最佳情绪标签。推理失败只影响本次调用。
func (c *Classifier) Classify(ctx context.Context, text string) (result Sentiment) {
	if !c.Ready() {
		return failure(msgNotInitialized)
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("emotion classification panicked", zap.Any("panic", r))
			result = inferenceFailure(fmt.Errorf("%v", r))
		}
	}()

	predictions, err := c.predictor.Predict(ctx, text)
	if err != nil {
		c.logger.Warn("emotion classification failed", zap.String("backend", c.backend), zap.Error(err))
		return inferenceFailure(err)
	}
	if len(predictions) == 0 {
		return failure(msgNoPredictions)
	}

	best := predictions[0]
	for _, p := range predictions[1:] {
		if p.Score > best.Score {
			best = p
		}
	}

	label, ok := ParseLabel(best.Label)
	if !ok {
		return inferenceFailure(fmt.Errorf("unknown emotion label %q", best.Label))
	}

	return Sentiment{Emotion: label, Score: clampScore(best.Score)}
}

func inferenceFailure(err error) Sentiment {
	return failure(fmt.Sprintf("An error occurred during classification: %v", err))
}

func clampScore(score float32) float32 {
	if math.IsNaN(float64(score)) || score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

package emotion

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"go.uber.org/zap"
)

// ONNXBackend 名称，供配置选择。
const ONNXBackend = "onnx"

// DefaultModelID 是导出为 ONNX 的 GoEmotions 学生模型。
const DefaultModelID = "joeddav/distilbert-base-uncased-go-emotions-student"

// ONNXPredictor 在进程内运行 hugot 文本分类流水线。
// 模型加载后只读，RunPipeline 可以被多个 goroutine 同时调用。
type ONNXPredictor struct {
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
	logger   *zap.Logger
}

// NewONNXPredictor 从 modelPath 目录加载 onnxFilename（默认 model.onnx）及其 tokenizer.json。
func NewONNXPredictor(modelPath, onnxFilename string, logger *zap.Logger) (*ONNXPredictor, error) {
	modelPath = strings.TrimSpace(modelPath)
	if modelPath == "" {
		return nil, errors.New("model path is required for onnx emotion classifier")
	}
	if onnxFilename == "" {
		onnxFilename = "model.onnx"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := os.Stat(filepath.Join(modelPath, onnxFilename)); err != nil {
		return nil, fmt.Errorf("onnx model unavailable: %w", err)
	}

	logger.Info("initializing onnx emotion classifier",
		zap.String("model_path", modelPath),
		zap.String("onnx_filename", onnxFilename))

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("creating hugot session: %w", err)
	}

	config := hugot.TextClassificationConfig{
		ModelPath:    modelPath,
		OnnxFilename: onnxFilename,
		Name:         fmt.Sprintf("emotion:%s:%s", modelPath, onnxFilename),
		Options: []hugot.TextClassificationOption{
			pipelines.WithSingleLabel(),
		},
	}

	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		_ = session.Destroy()
		return nil, fmt.Errorf("creating text classification pipeline: %w", err)
	}

	logger.Info("onnx emotion classifier ready")
	return &ONNXPredictor{session: session, pipeline: pipeline, logger: logger}, nil
}

// Predict 对单条文本执行推理。
func (p *ONNXPredictor) Predict(ctx context.Context, text string) ([]Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	output, err := p.pipeline.RunPipeline([]string{text})
	if err != nil {
		return nil, fmt.Errorf("running text classification: %w", err)
	}
	if output == nil || len(output.ClassificationOutputs) == 0 {
		return nil, nil
	}

	results := output.ClassificationOutputs[0]
	predictions := make([]Prediction, 0, len(results))
	for _, r := range results {
		predictions = append(predictions, Prediction{Label: r.Label, Score: r.Score})
	}
	return predictions, nil
}

// Close 释放 hugot 会话。
func (p *ONNXPredictor) Close() error {
	if p == nil || p.session == nil {
		return nil
	}
	p.logger.Info("destroying hugot session")
	return p.session.Destroy()
}

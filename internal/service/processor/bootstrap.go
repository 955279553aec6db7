package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"go.uber.org/zap"

	"github.com/zhouzirui/feels/backend/internal/analysis/emotion"
	"github.com/zhouzirui/feels/backend/internal/config"
	"github.com/zhouzirui/feels/backend/internal/observability"
	emotionservice "github.com/zhouzirui/feels/backend/internal/service/emotion"
	"github.com/zhouzirui/feels/backend/internal/textproc"
)

// Bootstrap 按配置装配分词器与情绪分类后端。加载失败不会中断启动：
// 分词器缺失时整段返回，分类器缺失时每次调用返回未初始化错误。
// 返回的 close 函数释放后端资源。
func Bootstrap(ctx context.Context, cfg config.PipelineConfig, chatModel model.ChatModel, metrics *observability.Metrics, logger *zap.Logger) (*Service, func() error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var tokenizer textproc.Tokenizer
	if wp, err := textproc.LoadWordPiece(cfg.EmotionTokenizer); err != nil {
		logger.Warn("tokenizer unavailable, messages will not be chunked",
			zap.String("path", cfg.EmotionTokenizer), zap.Error(err))
	} else {
		tokenizer = wp
		logger.Info("tokenizer loaded", zap.String("path", cfg.EmotionTokenizer))
	}
	chunker := textproc.NewChunker(tokenizer, cfg.ChunkMaxTokens, logger.Named("chunker"))

	classifier, closeFn := newClassifier(ctx, cfg, chatModel, logger.Named("emotion"))
	return NewService(chunker, classifier, metrics, logger.Named("processor")), closeFn
}

func newClassifier(ctx context.Context, cfg config.PipelineConfig, chatModel model.ChatModel, logger *zap.Logger) (*emotion.Classifier, func() error) {
	noop := func() error { return nil }

	switch cfg.EmotionBackend {
	case config.BackendLexicon:
		return emotion.NewClassifier(emotion.LexiconBackend, emotion.NewLexicon(), logger), noop

	case config.BackendLLM:
		if chatModel == nil {
			return emotion.Uninitialized(emotionservice.LLMBackend, errors.New("chat model not configured"), logger), noop
		}
		predictor, err := emotionservice.NewPredictor(ctx, chatModel, logger)
		if err != nil {
			return emotion.Uninitialized(emotionservice.LLMBackend, err, logger), noop
		}
		return emotion.NewClassifier(emotionservice.LLMBackend, predictor, logger), noop

	case config.BackendONNX, "":
		predictor, err := emotion.NewONNXPredictor(cfg.EmotionModelPath, cfg.EmotionONNXFile, logger)
		if err != nil {
			return emotion.Uninitialized(emotion.ONNXBackend, err, logger), noop
		}
		return emotion.NewClassifier(emotion.ONNXBackend, predictor, logger), predictor.Close

	default:
		return emotion.Uninitialized(cfg.EmotionBackend, fmt.Errorf("unknown emotion backend %q", cfg.EmotionBackend), logger), noop
	}
}

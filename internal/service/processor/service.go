package processor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/zhouzirui/feels/backend/internal/analysis/emotion"
	"github.com/zhouzirui/feels/backend/internal/observability"
	"github.com/zhouzirui/feels/backend/internal/textproc"
)

// ProcessedChunk 是消息中一个分块的处理结果。
type ProcessedChunk struct {
	OriginalChunk  string            `json:"original_chunk"`
	ProcessedChunk string            `json:"processed_chunk"`
	Sentiment      emotion.Sentiment `json:"sentiment"`
}

// Service 把一条回复拆成适合朗读的分段，并为每段标注情绪。
// 本身不做网络 I/O，可被多个会话并发调用。
type Service struct {
	chunker    *textproc.Chunker
	classifier *emotion.Classifier
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewService 组装处理流水线。metrics 可以为 nil。
func NewService(chunker *textproc.Chunker, classifier *emotion.Classifier, metrics *observability.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if chunker == nil {
		chunker = textproc.NewChunker(nil, textproc.DefaultMaxTokens, logger)
	}
	if classifier == nil {
		classifier = emotion.NewClassifier("", nil, logger)
	}
	return &Service{
		chunker:    chunker,
		classifier: classifier,
		metrics:    metrics,
		logger:     logger,
	}
}

// Classifier 返回底层分类器。
func (s *Service) Classifier() *emotion.Classifier {
	return s.classifier
}

// Process 按默认上限分块，依次清洗并分类。每个分块恰好对应一个结果，分类失败的分块同样保留。
func (s *Service) Process(ctx context.Context, message string) []ProcessedChunk {
	start := time.Now()

	chunks := s.chunker.Chunk(message)
	results := make([]ProcessedChunk, 0, len(chunks))
	for i, chunk := range chunks {
		cleaned := textproc.Scrub(chunk.Text)

		classifyStart := time.Now()
		sentiment := s.classifier.Classify(ctx, cleaned)
		s.metrics.ObserveClassification(s.classifier.Backend(), sentiment.OK(), time.Since(classifyStart))

		result := ProcessedChunk{
			OriginalChunk:  chunk.Text,
			ProcessedChunk: cleaned,
			Sentiment:      sentiment,
		}
		results = append(results, result)

		s.logger.Debug("processed chunk",
			zap.Int("index", i),
			zap.String("original_chunk", result.OriginalChunk),
			zap.String("processed_chunk", result.ProcessedChunk),
			zap.String("emotion", string(sentiment.Emotion)),
			zap.Float32("score", sentiment.Score),
			zap.String("error", sentiment.Err))
	}

	fallback := message != "" && !s.chunker.Available()
	s.metrics.ObserveProcess(len(results), fallback, time.Since(start))
	return results
}

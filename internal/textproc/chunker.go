package textproc

import (
	"go.uber.org/zap"
)

// DefaultMaxTokens 单个分块允许的最大 token 数，与情绪分类模型的输入长度限制对齐。
const DefaultMaxTokens = 200

// Tokenizer 抽象情绪模型配套的子词分词器。
type Tokenizer interface {
	Encode(text string) ([]int, error)
	Decode(ids []int) string
}

// Chunk 是原始 token 序列中连续的一段，以及它重新解码后的文本。
type Chunk struct {
	Text   string `json:"text"`
	Tokens []int  `json:"-"`
}

// Chunker 按 token 数量切分长文本。tokenizer 为 nil 时退化为整段返回。
type Chunker struct {
	tokenizer Tokenizer
	maxTokens int
	logger    *zap.Logger
}

// NewChunker 创建分块器；maxTokens <= 0 时使用 DefaultMaxTokens。
func NewChunker(tokenizer Tokenizer, maxTokens int, logger *zap.Logger) *Chunker {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chunker{
		tokenizer: tokenizer,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// MaxTokens 返回默认的分块上限。
func (c *Chunker) MaxTokens() int {
	return c.maxTokens
}

// Available 表示分词器是否已加载。
func (c *Chunker) Available() bool {
	return c != nil && c.tokenizer != nil
}

// Chunk 使用默认上限切分文本。
func (c *Chunker) Chunk(text string) []Chunk {
	return c.ChunkN(text, c.maxTokens)
}

// ChunkN 将 text 切分为若干不超过 maxTokens 个 token 的分块，顺序与原文一致。
// 空文本返回空切片；分词器不可用、编码失败或编码结果为空（如纯空白）时返回仅包含原文的单个分块。
func (c *Chunker) ChunkN(text string, maxTokens int) []Chunk {
	if text == "" {
		return nil
	}
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	if !c.Available() {
		c.logger.Warn("tokenizer not initialized, returning text unchunked")
		return []Chunk{{Text: text}}
	}

	ids, err := c.tokenizer.Encode(text)
	if err != nil {
		c.logger.Warn("tokenizer encode failed, returning text unchunked", zap.Error(err))
		return []Chunk{{Text: text}}
	}
	if len(ids) == 0 {
		return []Chunk{{Text: text}}
	}

	if len(ids) <= maxTokens {
		return []Chunk{{Text: text, Tokens: ids}}
	}

	chunks := make([]Chunk, 0, (len(ids)+maxTokens-1)/maxTokens)
	current := make([]int, 0, maxTokens)
	for _, id := range ids {
		current = append(current, id)
		if len(current) >= maxTokens {
			chunks = append(chunks, c.materialize(current))
			current = make([]int, 0, maxTokens)
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, c.materialize(current))
	}

	c.logger.Debug("text chunked",
		zap.Int("tokens", len(ids)),
		zap.Int("chunks", len(chunks)),
		zap.Int("max_tokens", maxTokens))

	return chunks
}

func (c *Chunker) materialize(ids []int) Chunk {
	return Chunk{Text: c.tokenizer.Decode(ids), Tokens: ids}
}

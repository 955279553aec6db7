package chat

import (
	"time"

	"github.com/zhouzirui/feels/backend/internal/analysis/emotion"
)

// Segment 是助手回复中一个可朗读的分段。
type Segment struct {
	OriginalChunk  string            `json:"original_chunk"`
	ProcessedChunk string            `json:"processed_chunk"`
	Sentiment      emotion.Sentiment `json:"sentiment"`
	Exaggeration   float32           `json:"exaggeration"`
}

// Message persists individual turns for audit/debug.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Segments  []Segment `json:"segments,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

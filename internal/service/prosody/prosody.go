package prosody

import (
	"github.com/zhouzirui/feels/backend/internal/analysis/emotion"
)

const (
	// Baseline 是中性语气的夸张度。
	Baseline        float32 = 0.5
	minExaggeration float32 = 0.25
	maxExaggeration float32 = 2.0
)

// 正值放大语气，负值收敛语气；未列出的标签按 0 处理。
var emotionGain = map[emotion.Label]float32{
	emotion.Excitement:     2.4,
	emotion.Anger:          2.2,
	emotion.Surprise:       2.0,
	emotion.Amusement:      1.8,
	emotion.Joy:            1.6,
	emotion.Fear:           1.4,
	emotion.Admiration:     1.2,
	emotion.Disgust:        1.2,
	emotion.Love:           1.0,
	emotion.Annoyance:      0.9,
	emotion.Pride:          0.9,
	emotion.Gratitude:      0.8,
	emotion.Optimism:       0.8,
	emotion.Curiosity:      0.6,
	emotion.Desire:         0.6,
	emotion.Disapproval:    0.5,
	emotion.Nervousness:    0.4,
	emotion.Confusion:      0.3,
	emotion.Approval:       0.3,
	emotion.Caring:         0.2,
	emotion.Realization:    0.2,
	emotion.Relief:         -0.2,
	emotion.Embarrassment:  -0.3,
	emotion.Disappointment: -0.4,
	emotion.Remorse:        -0.4,
	emotion.Sadness:        -0.5,
	emotion.Grief:          -0.6,
}

// Exaggeration 根据情绪与置信度计算 TTS 夸张度。分类失败或中性时返回 Baseline。
func Exaggeration(s emotion.Sentiment) float32 {
	if !s.OK() || s.Emotion == emotion.Neutral {
		return Baseline
	}
	gain, ok := emotionGain[s.Emotion]
	if !ok {
		return Baseline
	}

	score := s.Score
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return clamp(Baseline * (1 + gain*score))
}

func clamp(v float32) float32 {
	if v < minExaggeration {
		return minExaggeration
	}
	if v > maxExaggeration {
		return maxExaggeration
	}
	return v
}

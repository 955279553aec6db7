package emotion

import "strings"

// Label 表示情绪分类模型可输出的情绪标签（GoEmotions 28 类）。
type Label string

const (
	Admiration     Label = "admiration"
	Amusement      Label = "amusement"
	Anger          Label = "anger"
	Annoyance      Label = "annoyance"
	Approval       Label = "approval"
	Caring         Label = "caring"
	Confusion      Label = "confusion"
	Curiosity      Label = "curiosity"
	Desire         Label = "desire"
	Disappointment Label = "disappointment"
	Disapproval    Label = "disapproval"
	Disgust        Label = "disgust"
	Embarrassment  Label = "embarrassment"
	Excitement     Label = "excitement"
	Fear           Label = "fear"
	Gratitude      Label = "gratitude"
	Grief          Label = "grief"
	Joy            Label = "joy"
	Love           Label = "love"
	Nervousness    Label = "nervousness"
	Optimism       Label = "optimism"
	Pride          Label = "pride"
	Realization    Label = "realization"
	Relief         Label = "relief"
	Remorse        Label = "remorse"
	Sadness        Label = "sadness"
	Surprise       Label = "surprise"
	Neutral        Label = "neutral"
)

// Labels 按固定顺序列出全部情绪标签。
var Labels = []Label{
	Admiration, Amusement, Anger, Annoyance, Approval, Caring, Confusion,
	Curiosity, Desire, Disappointment, Disapproval, Disgust, Embarrassment,
	Excitement, Fear, Gratitude, Grief, Joy, Love, Nervousness, Optimism,
	Pride, Realization, Relief, Remorse, Sadness, Surprise, Neutral,
}

var labelIndex = func() map[string]Label {
	index := make(map[string]Label, len(Labels))
	for _, label := range Labels {
		index[string(label)] = label
	}
	return index
}()

// ParseLabel 将模型输出的标签规范化为 Label。
func ParseLabel(raw string) (Label, bool) {
	label, ok := labelIndex[strings.ToLower(strings.TrimSpace(raw))]
	return label, ok
}

// LabelNames 返回全部标签的字符串形式，用于提示词。
func LabelNames() []string {
	names := make([]string, len(Labels))
	for i, label := range Labels {
		names[i] = string(label)
	}
	return names
}

package emotion

import (
	"context"
	"strings"
)

// LexiconBackend 名称，供配置选择。
const LexiconBackend = "lexicon"

var keywordBuckets = map[Label][]string{
	Admiration:     {"amazing", "impressive", "brilliant", "admire", "wonderful", "incredible", "awesome", "great job", "well done", "outstanding"},
	Amusement:      {"haha", "lol", "lmao", "funny", "hilarious", "joke", "amusing"},
	Anger:          {"angry", "furious", "rage", "mad", "outraged", "pissed", "hate"},
	Annoyance:      {"annoying", "annoyed", "irritating", "irritated", "ugh", "bothered", "fed up"},
	Approval:       {"agree", "exactly", "approve", "correct", "sounds good", "yes"},
	Caring:         {"take care", "be careful", "are you ok", "i m here for you", "support you", "help you"},
	Confusion:      {"confused", "confusing", "don t understand", "dont understand", "unclear", "puzzled", "what do you mean"},
	Curiosity:      {"curious", "wonder", "interesting", "what if", "tell me more"},
	Desire:         {"want", "wish", "crave", "desire", "would love", "long for"},
	Disappointment: {"disappointed", "disappointing", "let down", "unfortunately", "what a shame"},
	Disapproval:    {"disagree", "wrong", "not okay", "bad idea", "disapprove", "shouldn t"},
	Disgust:        {"gross", "disgusting", "yuck", "nasty", "revolting", "eww"},
	Embarrassment:  {"embarrassed", "embarrassing", "awkward", "ashamed", "blush"},
	Excitement:     {"excited", "exciting", "thrilled", "can t wait", "cant wait", "wow", "pumped", "hyped", "stoked"},
	Fear:           {"afraid", "scared", "terrified", "fear", "frightened", "horror"},
	Gratitude:      {"thanks", "thank you", "grateful", "appreciate", "thankful"},
	Grief:          {"grief", "mourning", "passed away", "funeral", "heartbroken"},
	Joy:            {"happy", "glad", "joy", "delighted", "cheerful", "yay"},
	Love:           {"love", "adore", "lovely", "sweetheart", "darling"},
	Nervousness:    {"nervous", "anxious", "worried", "uneasy", "tense"},
	Optimism:       {"hope", "hopeful", "optimistic", "looking forward", "will get better"},
	Pride:          {"proud", "accomplished", "achievement", "pride"},
	Realization:    {"realize", "realized", "i see", "now i understand", "i get it", "turns out"},
	Relief:         {"relief", "relieved", "phew", "thank goodness"},
	Remorse:        {"sorry", "apologize", "regret", "my fault", "forgive me"},
	Sadness:        {"sad", "unhappy", "depressed", "cry", "crying", "upset", "miserable", "lonely"},
	Surprise:       {"surprised", "surprise", "unexpected", "shocked", "omg", "no way", "whoa"},
}

const (
	keywordWeight     = 3
	exclamationWeight = 2
	questionWeight    = 1
	neutralPrior      = 1
)

// Lexicon 是基于关键词的确定性情绪打分器，不依赖模型文件。
type Lexicon struct {
	buckets map[Label][]string
}

// NewLexicon 创建关键词打分器。
func NewLexicon() *Lexicon {
	buckets := make(map[Label][]string, len(keywordBuckets))
	for label, words := range keywordBuckets {
		normalized := make([]string, 0, len(words))
		for _, word := range words {
			if w := normalize(word); w != "" {
				normalized = append(normalized, " "+w+" ")
			}
		}
		buckets[label] = normalized
	}
	return &Lexicon{buckets: buckets}
}

// Predict 返回得分最高的标签；置信度为其在全部得分（含平滑先验）中的占比。
func (l *Lexicon) Predict(_ context.Context, text string) ([]Prediction, error) {
	padded := " " + normalize(text) + " "

	scores := make(map[Label]int, len(Labels))
	scores[Neutral] = neutralPrior
	for label, keywords := range l.buckets {
		for _, keyword := range keywords {
			if strings.Contains(padded, keyword) {
				scores[label] += keywordWeight
			}
		}
	}

	exclamations := strings.Count(text, "!")
	if exclamations > 0 {
		scores[Excitement] += exclamations * exclamationWeight
		if exclamations == 1 {
			scores[Joy]++
		}
	}
	if questions := strings.Count(text, "?"); questions > 0 {
		scores[Curiosity] += questions * questionWeight
	}

	total := neutralPrior
	best, bestScore := Neutral, 0
	for _, label := range Labels {
		s := scores[label]
		total += s
		if s > bestScore {
			best, bestScore = label, s
		}
	}

	return []Prediction{{Label: string(best), Score: float32(bestScore) / float32(total)}}, nil
}

// normalize 转小写，非字母数字字符替换为空格并压缩空白。
func normalize(text string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return ' '
		}
	}, text)
	return strings.Join(strings.Fields(mapped), " ")
}

package textproc

import (
	"fmt"
	"os"
	"strings"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// WordPiece wraps a HuggingFace tokenizer.json (the emotion model's own vocabulary).
// Special tokens are neither added on encode nor emitted on decode.
type WordPiece struct {
	tk *tokenizer.Tokenizer
}

// LoadWordPiece loads tokenizer.json from path.
func LoadWordPiece(path string) (*WordPiece, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("tokenizer path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("tokenizer file unavailable: %w", err)
	}

	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer %s: %w", path, err)
	}
	return &WordPiece{tk: tk}, nil
}

// Encode returns the token ids of text.
func (w *WordPiece) Encode(text string) ([]int, error) {
	encoding, err := w.tk.EncodeSingle(text, false)
	if err != nil {
		return nil, fmt.Errorf("encode failed: %w", err)
	}
	return encoding.GetIds(), nil
}

// Decode turns ids back into text.
func (w *WordPiece) Decode(ids []int) string {
	return w.tk.Decode(ids, true)
}

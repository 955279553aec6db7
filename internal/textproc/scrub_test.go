package textproc

import (
	"strings"
	"testing"
)

func TestScrub(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "apostrophe removed", input: "I'm so excited for the concert tonight!", want: "Im so excited for the concert tonight!"},
		{name: "only disallowed", input: "@#$%^&*()", want: ""},
		{name: "keeps allowed punctuation", input: "Really?! Yes, really.", want: "Really?! Yes, really"},
		{name: "drops whitespace other than space", input: "line one\nline\ttwo\r", want: "line onelinetwo"},
		{name: "drops emoji and multibyte", input: "great 😊👍 café", want: "great  caf"},
		{name: "drops control characters", input: "a\x00b\x1bc", want: "abc"},
		{name: "invalid utf8", input: "ok\xff\xfe!", want: "ok!"},
	}

	for _, tc := range cases {
		if got := Scrub(tc.input); got != tc.want {
			t.Errorf("%s: Scrub(%q) = %q, want %q", tc.name, tc.input, got, tc.want)
		}
	}
}

func TestScrubIsIdempotentSubsequence(t *testing.T) {
	inputs := []string{
		"Hello, world! This is a test with some unsafe characters like @#$%^&*()_+={}[]|\\:;\"'<>. And emojis 😊👍.",
		"What a surprise! 100% sure?",
		strings.Repeat("mixed ünïcödé — text ", 20),
	}

	for _, input := range inputs {
		once := Scrub(input)
		if twice := Scrub(once); twice != once {
			t.Fatalf("Scrub not idempotent: %q -> %q", once, twice)
		}
		for _, r := range once {
			if !allowed(r) {
				t.Fatalf("Scrub(%q) kept disallowed rune %q", input, r)
			}
		}
		if !isSubsequence(once, input) {
			t.Fatalf("Scrub(%q) = %q is not a subsequence of its input", input, once)
		}
	}
}

func isSubsequence(sub, full string) bool {
	s := []rune(sub)
	i := 0
	for _, r := range full {
		if i < len(s) && s[i] == r {
			i++
		}
	}
	return i == len(s)
}

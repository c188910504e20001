package tts

import (
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"
)

const sentence24 = "This line has 24 chars. "

func joinChunks(t *testing.T, text string, maxChars int) (string, []int) {
	t.Helper()
	var b strings.Builder
	var lengths []int
	for i, c := range Split(text, maxChars) {
		if c.Index != i {
			t.Fatalf("chunk %d has index %d", i, c.Index)
		}
		b.WriteString(c.Text)
		lengths = append(lengths, utf8.RuneCountInString(c.Text))
	}
	return b.String(), lengths
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxChars int
		want     []int
	}{
		{
			name:     "short document is one chunk",
			text:     strings.Repeat(sentence24, 10),
			maxChars: 3000,
			want:     []int{240},
		},
		{
			name:     "sentence boundary at the window edge",
			text:     strings.Repeat(sentence24, 200),
			maxChars: 3000,
			want:     []int{3000, 1800},
		},
		{
			name:     "no periods falls back to the raw limit",
			text:     strings.Repeat("no dots in this text ", 300),
			maxChars: 3000,
			want:     []int{3000, 3000, 300},
		},
		{
			name:     "backs off to the last sentence",
			text:     "One two. Three four five six.",
			maxChars: 20,
			want:     []int{9, 20},
		},
		{
			name:     "empty text still yields a chunk",
			text:     "",
			maxChars: 10,
			want:     []int{0},
		},
		{
			name:     "non positive limit disables splitting",
			text:     strings.Repeat("a", 50),
			maxChars: 0,
			want:     []int{50},
		},
		{
			name:     "multibyte characters count as one",
			text:     strings.Repeat("żółw ", 10),
			maxChars: 25,
			want:     []int{25, 25},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			joined, lengths := joinChunks(t, tt.text, tt.maxChars)
			if joined != tt.text {
				t.Errorf("concat(Split()) = %q, want %q", joined, tt.text)
			}
			if len(lengths) != len(tt.want) {
				t.Fatalf("Split() produced %d chunks %v, want %v", len(lengths), lengths, tt.want)
			}
			for i := range lengths {
				if lengths[i] != tt.want[i] {
					t.Errorf("chunk %d length = %d, want %d", i, lengths[i], tt.want[i])
				}
			}
		})
	}
}

func TestSplitChunksEndOnSentences(t *testing.T) {
	text := strings.Repeat("Short one. ", 30) + strings.Repeat("x", 10)
	chunks := Split(text, 100)
	for _, c := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(c.Text, ". ") {
			t.Errorf("chunk %d = %q, want it to end on a sentence", c.Index, c.Text)
		}
	}
}

func TestSplitIsLossless(t *testing.T) {
	alphabet := []rune("abc .. .\nźé")
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		n := rng.Intn(400)
		runes := make([]rune, n)
		for j := range runes {
			runes[j] = alphabet[rng.Intn(len(alphabet))]
		}
		text := string(runes)
		maxChars := 1 + rng.Intn(60)

		joined, lengths := joinChunks(t, text, maxChars)
		if joined != text {
			t.Fatalf("concat(Split(%q, %d)) = %q", text, maxChars, joined)
		}
		for _, l := range lengths {
			if l > maxChars {
				t.Fatalf("chunk of %d runes exceeds limit %d", l, maxChars)
			}
		}
	}
}

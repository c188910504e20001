package tts

import (
	"strings"

	"github.com/dgnsrekt/cracker/internal/ttypes"
)

// DefaultMaxChars is the largest chunk the cloud backends accept comfortably.
const DefaultMaxChars = 3000

// sentenceEnd is the boundary the chunker prefers to split on.
const sentenceEnd = ". "

// Split breaks text into chunks of at most maxChars characters.
//
// Each maxChars window is cut right after its last ". " so sentences stay
// whole; the rest of the window carries into the next one. A window without
// a sentence boundary is cut at the raw limit. The final remainder is always
// emitted, so concatenating the chunk texts yields the input unchanged.
// A non-positive maxChars disables splitting.
func Split(text string, maxChars int) []ttypes.Chunk {
	if maxChars <= 0 {
		return []ttypes.Chunk{{Index: 0, Text: text}}
	}

	residue := []rune(text)
	var chunks []ttypes.Chunk
	for len(residue) > maxChars {
		cut := lastSentenceCut(residue[:maxChars])
		if cut == 0 {
			cut = maxChars
		}
		chunks = append(chunks, ttypes.Chunk{Index: len(chunks), Text: string(residue[:cut])})
		residue = residue[cut:]
	}
	return append(chunks, ttypes.Chunk{Index: len(chunks), Text: string(residue)})
}

// lastSentenceCut returns the rune offset just past the last complete
// sentence terminator in window, or 0 when there is none.
func lastSentenceCut(window []rune) int {
	s := string(window)
	i := strings.LastIndex(s, sentenceEnd)
	if i < 0 {
		return 0
	}
	// i is a byte offset; convert the prefix back to runes.
	return len([]rune(s[:i])) + len(sentenceEnd)
}

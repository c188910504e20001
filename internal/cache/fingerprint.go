package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/dgnsrekt/cracker/internal/ttypes"
)

// Fingerprint identifies a request by its normalized text and every field of
// its voice configuration. Changing any field yields a different fingerprint.
func Fingerprint(text string, voice ttypes.VoiceConfig) string {
	return digest("request", text, voice.SpeakerID, voice.LanguageID, voice.VoiceID,
		strconv.Itoa(voice.Rate), strconv.Itoa(voice.Volume))
}

// ChunkKey names the artifact for one chunk of text rendered by engine.
func ChunkKey(engine ttypes.EngineType, text string, voice ttypes.VoiceConfig) string {
	return digest("chunk", string(engine), text, voice.SpeakerID, voice.LanguageID, voice.VoiceID,
		strconv.Itoa(voice.Rate), strconv.Itoa(voice.Volume))
}

// digest hashes length-prefixed parts so no two part lists collide.
func digest(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(strconv.Itoa(len(p))))
		h.Write([]byte{':'})
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

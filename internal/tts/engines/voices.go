package engines

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dgnsrekt/cracker/internal/ttypes"
	"github.com/sahilm/fuzzy"
)

// ErrInvalidVoice is returned for a language or voice the engine does not offer.
var ErrInvalidVoice = errors.New("invalid voice")

var catalogue = map[ttypes.EngineType]map[string][]string{
	ttypes.EnginePolly: {
		"English": {"Joanna", "Salli", "Kimberly", "Kendra", "Ivy", "Matthew", "Justin", "Joey"},
		"Polish":  {"Ewa", "Maja", "Jan", "Jacek"},
		"Spanish": {"Penelope", "Miguel"},
	},
	ttypes.EngineGoogle: {
		"English": {"en-US", "en-GB", "en-AU", "en-CA", "en-IN"},
		"Polish":  {"pl-PL"},
		"Spanish": {"es-ES", "es-US"},
	},
	ttypes.EngineEspeak: {
		"English": {"English"},
		"Polish":  {"Polish"},
		"Spanish": {"Spanish"},
	},
}

// Languages returns the languages an engine offers, sorted. The local
// server accepts any voice and has none.
func Languages(engine ttypes.EngineType) []string {
	langs := make([]string, 0, len(catalogue[engine]))
	for lang := range catalogue[engine] {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Voices returns the voices per language for an engine.
func Voices(engine ttypes.EngineType) map[string][]string {
	out := make(map[string][]string, len(catalogue[engine]))
	for lang, voices := range catalogue[engine] {
		out[lang] = append([]string(nil), voices...)
	}
	return out
}

// DefaultVoice returns the first voice of language, or "" if there is none.
func DefaultVoice(engine ttypes.EngineType, language string) string {
	voices := catalogue[engine][language]
	if len(voices) == 0 {
		return ""
	}
	return voices[0]
}

// ResolveVoice fills in the default voice for the configured language.
func ResolveVoice(engine ttypes.EngineType, voice ttypes.VoiceConfig) ttypes.VoiceConfig {
	if voice.VoiceID == "" {
		voice.VoiceID = DefaultVoice(engine, voice.LanguageID)
	}
	return voice
}

// ValidateVoice checks that the engine offers the configured language and
// voice. Unknown names come back with suggestions.
func ValidateVoice(engine ttypes.EngineType, voice ttypes.VoiceConfig) error {
	if engine == ttypes.EngineLocalServer {
		if voice.VoiceID == "" {
			return fmt.Errorf("%w: the local server needs a voice name", ErrInvalidVoice)
		}
		return nil
	}

	langs, ok := catalogue[engine]
	if !ok {
		return fmt.Errorf("%w: %q", ttypes.ErrUnknownEngine, engine)
	}
	voices, ok := langs[voice.LanguageID]
	if !ok {
		return suggest(fmt.Sprintf("%s has no language %q", engine, voice.LanguageID), voice.LanguageID, Languages(engine))
	}
	if voice.VoiceID == "" {
		return nil
	}
	for _, v := range voices {
		if v == voice.VoiceID {
			return nil
		}
	}
	return suggest(fmt.Sprintf("%s has no %s voice %q", engine, voice.LanguageID, voice.VoiceID), voice.VoiceID, voices)
}

func suggest(msg, name string, candidates []string) error {
	lower := make([]string, len(candidates))
	for i, c := range candidates {
		lower[i] = strings.ToLower(c)
	}
	matches := fuzzy.Find(strings.ToLower(name), lower)

	var names []string
	for i, m := range matches {
		if i == 3 {
			break
		}
		names = append(names, candidates[m.Index])
	}
	if len(names) == 0 {
		return fmt.Errorf("%w: %s (available: %s)", ErrInvalidVoice, msg, strings.Join(candidates, ", "))
	}
	return fmt.Errorf("%w: %s, did you mean %s?", ErrInvalidVoice, msg, strings.Join(names, " or "))
}

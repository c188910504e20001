package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dgnsrekt/cracker/internal/ttypes"
)

func TestFingerprint(t *testing.T) {
	base := ttypes.VoiceConfig{SpeakerID: "Joanna", LanguageID: "en-US", VoiceID: "neural", Rate: 3, Volume: 80}
	fp := Fingerprint("Hello there.", base)

	if again := Fingerprint("Hello there.", base); again != fp {
		t.Errorf("Fingerprint is not deterministic: %s != %s", again, fp)
	}

	tests := []struct {
		name  string
		text  string
		voice func(v ttypes.VoiceConfig) ttypes.VoiceConfig
	}{
		{"text", "Hello there!", func(v ttypes.VoiceConfig) ttypes.VoiceConfig { return v }},
		{"speaker", "Hello there.", func(v ttypes.VoiceConfig) ttypes.VoiceConfig { v.SpeakerID = "Matthew"; return v }},
		{"language", "Hello there.", func(v ttypes.VoiceConfig) ttypes.VoiceConfig { v.LanguageID = "en-GB"; return v }},
		{"voice", "Hello there.", func(v ttypes.VoiceConfig) ttypes.VoiceConfig { v.VoiceID = "standard"; return v }},
		{"rate", "Hello there.", func(v ttypes.VoiceConfig) ttypes.VoiceConfig { v.Rate = 4; return v }},
		{"volume", "Hello there.", func(v ttypes.VoiceConfig) ttypes.VoiceConfig { v.Volume = 81; return v }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fingerprint(tt.text, tt.voice(base)); got == fp {
				t.Errorf("changing %s did not change the fingerprint", tt.name)
			}
		})
	}
}

func TestFingerprint_NoConcatenationCollision(t *testing.T) {
	a := ttypes.VoiceConfig{SpeakerID: "ab", LanguageID: "c", Rate: 3}
	b := ttypes.VoiceConfig{SpeakerID: "a", LanguageID: "bc", Rate: 3}
	if Fingerprint("x", a) == Fingerprint("x", b) {
		t.Error("fields that concatenate to the same string must not collide")
	}
}

func TestChunkKey(t *testing.T) {
	v := ttypes.VoiceConfig{SpeakerID: "en", Rate: 3, Volume: 50}
	if ChunkKey(ttypes.EnginePolly, "hi", v) == ChunkKey(ttypes.EngineEspeak, "hi", v) {
		t.Error("ChunkKey must differ per engine")
	}
	if ChunkKey(ttypes.EnginePolly, "hi", v) == Fingerprint("hi", v) {
		t.Error("ChunkKey and Fingerprint must not share a namespace")
	}
}

func TestSQLiteIndex(t *testing.T) {
	ctx := context.Background()
	idx, err := OpenIndex(ctx, filepath.Join(t.TempDir(), "nested", "index.db"))
	if err != nil {
		t.Fatalf("OpenIndex failed: %v", err)
	}
	defer idx.Close()

	if _, ok, err := idx.Get(ctx, "fp"); ok || err != nil {
		t.Fatalf("Get on empty index = %v, %v", ok, err)
	}

	if err := idx.Put(ctx, "fp", []string{"a.wav", "b.wav"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := idx.Put(ctx, "fp", []string{"c.wav"}); err != nil {
		t.Fatalf("Put (replace) failed: %v", err)
	}

	got, ok, err := idx.Get(ctx, "fp")
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v, %v", got, ok, err)
	}
	if len(got) != 1 || got[0] != "c.wav" {
		t.Errorf("Get() = %v, want [c.wav]", got)
	}

	if n, _ := idx.Len(ctx); n != 1 {
		t.Errorf("Len() = %d, want 1", n)
	}

	if err := idx.Delete(ctx, "fp"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n, _ := idx.Len(ctx); n != 0 {
		t.Errorf("Len() after Delete = %d, want 0", n)
	}
}

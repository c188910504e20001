package engines

import (
	"context"
	"testing"

	"github.com/dgnsrekt/cracker/internal/ttypes"
)

type countingSynth struct{ calls int }

func (c *countingSynth) Name() ttypes.EngineType { return ttypes.EngineEspeak }

func (c *countingSynth) Synthesize(context.Context, string, ttypes.VoiceConfig) (string, error) {
	c.calls++
	return "a.wav", nil
}

func TestNewLimited(t *testing.T) {
	inner := &countingSynth{}
	if NewLimited(inner, 0) != ttypes.Synthesizer(inner) {
		t.Error("NewLimited(0) should return the backend unchanged")
	}

	limited := NewLimited(inner, 1)
	if limited.Name() != ttypes.EngineEspeak {
		t.Errorf("Name() = %s, want the wrapped backend's name", limited.Name())
	}

	if _, err := limited.Synthesize(context.Background(), "a", testVoice); err != nil {
		t.Fatalf("first call should pass the limiter: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := limited.Synthesize(ctx, "b", testVoice); err == nil {
		t.Error("a cancelled wait should fail")
	}
	if inner.calls != 1 {
		t.Errorf("backend calls = %d, want 1", inner.calls)
	}
}

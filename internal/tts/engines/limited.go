package engines

import (
	"context"
	"fmt"
	"time"

	"github.com/dgnsrekt/cracker/internal/ttypes"
	"golang.org/x/time/rate"
)

// Limited throttles calls to a backend so bursts of chunks do not get the
// client blocked.
type Limited struct {
	ttypes.Synthesizer
	limiter *rate.Limiter
}

// NewLimited wraps synth with a limit of perMinute requests. A
// non-positive limit returns synth unchanged.
func NewLimited(synth ttypes.Synthesizer, perMinute int) ttypes.Synthesizer {
	if perMinute <= 0 {
		return synth
	}
	return &Limited{
		Synthesizer: synth,
		limiter:     rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

// Synthesize waits for the limiter, then calls the backend.
func (l *Limited) Synthesize(ctx context.Context, text string, voice ttypes.VoiceConfig) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait cancelled: %w", err)
	}
	return l.Synthesizer.Synthesize(ctx, text, voice)
}
